package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/application/port/outbound"
	domainerr "github.com/vobe/authz-service/domain/error"
	"github.com/vobe/authz-service/domain/entity"
)

// maxRoleLength matches the user_roles.role column width.
const maxRoleLength = 50

type RoleRegistry struct {
	userRepository      outbound.UserRepository
	serviceRepository   outbound.ServiceRepository
	roleGrantRepository outbound.RoleGrantRepository
}

func NewRoleRegistry(
	userRepo outbound.UserRepository,
	serviceRepo outbound.ServiceRepository,
	grantRepo outbound.RoleGrantRepository,
) inbound.RoleRegistry {
	return &RoleRegistry{
		userRepository:      userRepo,
		serviceRepository:   serviceRepo,
		roleGrantRepository: grantRepo,
	}
}

// Grant records role for the pair. The store rejects a second grant for the
// same pair atomically; the existing grant is left untouched.
func (r *RoleRegistry) Grant(ctx context.Context, userID, serviceID, role string) (*entity.RoleGrant, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, domainerr.InvalidInput("role is required")
	}
	if len(role) > maxRoleLength {
		return nil, domainerr.InvalidInput(fmt.Sprintf("role must be at most %d characters", maxRoleLength))
	}

	if _, err := r.userRepository.FindByID(ctx, userID); err != nil {
		return nil, MapStoreError(err)
	}
	if _, err := r.serviceRepository.FindByID(ctx, serviceID); err != nil {
		return nil, MapStoreError(err)
	}

	grant := entity.NewRoleGrant(uuid.NewString(), userID, serviceID, role)
	if err := r.roleGrantRepository.Create(ctx, grant); err != nil {
		return nil, MapStoreError(err)
	}

	return grant, nil
}

func (r *RoleRegistry) Revoke(ctx context.Context, userID, serviceID string) error {
	if err := r.roleGrantRepository.Delete(ctx, userID, serviceID); err != nil {
		return MapStoreError(err)
	}
	return nil
}

func (r *RoleRegistry) HasRole(ctx context.Context, userID, serviceID, role string) (bool, error) {
	grant, err := r.roleGrantRepository.Find(ctx, userID, serviceID)
	if err != nil {
		if errors.Is(err, outbound.ErrGrantNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up role grant: %w", err)
	}
	return grant.Role == role, nil
}

// IsAdmin is global: an admin grant on any one service counts everywhere.
func (r *RoleRegistry) IsAdmin(ctx context.Context, userID string) (bool, error) {
	grants, err := r.roleGrantRepository.FindByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to list role grants: %w", err)
	}
	for _, grant := range grants {
		if grant.IsAdmin() {
			return true, nil
		}
	}
	return false, nil
}

func (r *RoleRegistry) ListGrants(ctx context.Context, userID string) ([]*entity.RoleGrant, error) {
	grants, err := r.roleGrantRepository.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list role grants: %w", err)
	}
	return grants, nil
}

// MapStoreError turns repository sentinels into domain errors. Anything else
// is an infrastructure failure and passes through wrapped.
func MapStoreError(err error) error {
	switch {
	case errors.Is(err, outbound.ErrUserNotFound):
		return domainerr.NotFound("user")
	case errors.Is(err, outbound.ErrServiceNotFound):
		return domainerr.NotFound("service")
	case errors.Is(err, outbound.ErrGrantNotFound):
		return domainerr.NotFound("role grant")
	case errors.Is(err, outbound.ErrGrantAlreadyExists):
		return domainerr.ErrDuplicateGrant
	case errors.Is(err, outbound.ErrUserAlreadyExists):
		return domainerr.AlreadyExists("user with this username or email")
	case errors.Is(err, outbound.ErrServiceAlreadyExists):
		return domainerr.AlreadyExists("service with this name")
	default:
		return fmt.Errorf("store operation failed: %w", err)
	}
}
