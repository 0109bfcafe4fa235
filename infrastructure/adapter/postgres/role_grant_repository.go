package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vobe/authz-service/application/port/outbound"
	"github.com/vobe/authz-service/domain/entity"
)

type RoleGrantRepositoryAdapter struct {
	db *sql.DB
}

func NewRoleGrantRepositoryAdapter(db *sql.DB) outbound.RoleGrantRepository {
	return &RoleGrantRepositoryAdapter{
		db: db,
	}
}

func scanGrant(row rowScanner) (*entity.RoleGrant, error) {
	var grant entity.RoleGrant
	if err := row.Scan(&grant.ID, &grant.UserID, &grant.ServiceID, &grant.Role, &grant.CreatedAt); err != nil {
		return nil, err
	}
	return &grant, nil
}

// Create leans on UNIQUE (user_id, service_id) so two concurrent grants for
// the same pair cannot both succeed.
func (r *RoleGrantRepositoryAdapter) Create(ctx context.Context, grant *entity.RoleGrant) error {
	if grant == nil || grant.ID == "" || grant.Role == "" {
		return fmt.Errorf("grant ID and role are required")
	}

	query := `
		INSERT INTO user_roles (id, user_id, service_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, grant.ID, grant.UserID, grant.ServiceID, grant.Role, grant.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return outbound.ErrGrantAlreadyExists
		}
		if column, ok := foreignKeyColumn(err); ok {
			if column == "service_id" {
				return outbound.ErrServiceNotFound
			}
			return outbound.ErrUserNotFound
		}
		return fmt.Errorf("failed to create role grant: %w", err)
	}

	return nil
}

func (r *RoleGrantRepositoryAdapter) Find(ctx context.Context, userID, serviceID string) (*entity.RoleGrant, error) {
	query := `
		SELECT id, user_id, service_id, role, created_at
		FROM user_roles
		WHERE user_id = $1 AND service_id = $2
	`

	grant, err := scanGrant(r.db.QueryRowContext(ctx, query, userID, serviceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrGrantNotFound
		}
		return nil, fmt.Errorf("failed to find role grant: %w", err)
	}
	return grant, nil
}

func (r *RoleGrantRepositoryAdapter) FindByUser(ctx context.Context, userID string) ([]*entity.RoleGrant, error) {
	query := `
		SELECT id, user_id, service_id, role, created_at
		FROM user_roles
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list role grants: %w", err)
	}
	defer rows.Close()

	var grants []*entity.RoleGrant
	for rows.Next() {
		grant, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role grant: %w", err)
		}
		grants = append(grants, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate role grants: %w", err)
	}

	return grants, nil
}

func (r *RoleGrantRepositoryAdapter) Delete(ctx context.Context, userID, serviceID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND service_id = $2`, userID, serviceID)
	if err != nil {
		return fmt.Errorf("failed to delete role grant: %w", err)
	}
	return requireAffected(result, outbound.ErrGrantNotFound)
}
