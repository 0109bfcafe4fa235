package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vobe/authz-service/application/port/outbound"
	"github.com/vobe/authz-service/domain/entity"
)

type ServiceRepositoryAdapter struct {
	db *sql.DB
}

func NewServiceRepositoryAdapter(db *sql.DB) outbound.ServiceRepository {
	return &ServiceRepositoryAdapter{
		db: db,
	}
}

func scanService(row rowScanner) (*entity.Service, error) {
	var service entity.Service
	if err := row.Scan(&service.ID, &service.Name, &service.CreatedAt); err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *ServiceRepositoryAdapter) Create(ctx context.Context, service *entity.Service) error {
	if service == nil || service.ID == "" || service.Name == "" {
		return fmt.Errorf("service ID and name are required")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO services (id, name, created_at) VALUES ($1, $2, $3)`,
		service.ID, service.Name, service.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return outbound.ErrServiceAlreadyExists
		}
		return fmt.Errorf("failed to create service: %w", err)
	}

	return nil
}

func (r *ServiceRepositoryAdapter) FindByID(ctx context.Context, id string) (*entity.Service, error) {
	service, err := scanService(r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM services WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to find service by ID: %w", err)
	}
	return service, nil
}

func (r *ServiceRepositoryAdapter) FindByName(ctx context.Context, name string) (*entity.Service, error) {
	service, err := scanService(r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM services WHERE name = $1`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrServiceNotFound
		}
		return nil, fmt.Errorf("failed to find service by name: %w", err)
	}
	return service, nil
}

func (r *ServiceRepositoryAdapter) FindAll(ctx context.Context) ([]*entity.Service, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM services ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []*entity.Service
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, service)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate services: %w", err)
	}

	return services, nil
}

func (r *ServiceRepositoryAdapter) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	return requireAffected(result, outbound.ErrServiceNotFound)
}
