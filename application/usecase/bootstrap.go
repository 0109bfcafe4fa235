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
	"github.com/vobe/authz-service/infrastructure/service/logger"
)

type BootstrapAdminRequest struct {
	Username string
	Email    string
	Password string
	Service  string
}

type BootstrapResult struct {
	User           *entity.User
	Service        *entity.Service
	UserCreated    bool
	ServiceCreated bool
	GrantCreated   bool
}

// Bootstrapper prepares a fresh store: the first admin and any seed services.
// Every step is idempotent so it can run on each deploy.
type Bootstrapper struct {
	userRepository    outbound.UserRepository
	serviceRepository outbound.ServiceRepository
	roleRegistry      inbound.RoleRegistry
	passwordService   outbound.PasswordService
	logger            logger.Logger
}

func NewBootstrapper(
	userRepo outbound.UserRepository,
	serviceRepo outbound.ServiceRepository,
	roleRegistry inbound.RoleRegistry,
	passwordService outbound.PasswordService,
	log logger.Logger,
) *Bootstrapper {
	return &Bootstrapper{
		userRepository:    userRepo,
		serviceRepository: serviceRepo,
		roleRegistry:      roleRegistry,
		passwordService:   passwordService,
		logger:            log,
	}
}

// EnsureAdmin makes sure the user exists and holds the admin role on the
// service. An existing user keeps its password; an existing non-admin grant
// on the service is reported as a duplicate.
func (b *Bootstrapper) EnsureAdmin(ctx context.Context, req BootstrapAdminRequest) (*BootstrapResult, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" {
		return nil, domainerr.InvalidInput("admin username and email are required")
	}

	result := &BootstrapResult{}

	service, created, err := b.EnsureService(ctx, req.Service)
	if err != nil {
		return nil, err
	}
	result.Service, result.ServiceCreated = service, created

	user, err := b.userRepository.FindByUsername(ctx, req.Username)
	switch {
	case errors.Is(err, outbound.ErrUserNotFound):
		if req.Password == "" {
			return nil, domainerr.InvalidInput("admin password is required")
		}
		hash, err := b.passwordService.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user = entity.NewUser(uuid.NewString(), req.Username, req.Email, hash)
		if err := b.userRepository.Create(ctx, user); err != nil {
			return nil, MapStoreError(err)
		}
		result.UserCreated = true
	case err != nil:
		return nil, MapStoreError(err)
	}
	result.User = user

	hasAdmin, err := b.roleRegistry.HasRole(ctx, user.ID, service.ID, entity.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if !hasAdmin {
		if _, err := b.roleRegistry.Grant(ctx, user.ID, service.ID, entity.RoleAdmin); err != nil {
			return nil, err
		}
		result.GrantCreated = true
	}

	logger.LogSecurityEvent(ctx, b.logger, "admin_bootstrapped", "MEDIUM", map[string]interface{}{
		"username":        user.Username,
		"service":         service.Name,
		"user_created":    result.UserCreated,
		"service_created": result.ServiceCreated,
		"grant_created":   result.GrantCreated,
	})

	return result, nil
}

// EnsureService returns the named service, creating it when absent.
func (b *Bootstrapper) EnsureService(ctx context.Context, name string) (*entity.Service, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, domainerr.InvalidInput("service name is required")
	}

	service, err := b.serviceRepository.FindByName(ctx, name)
	if err == nil {
		return service, false, nil
	}
	if !errors.Is(err, outbound.ErrServiceNotFound) {
		return nil, false, MapStoreError(err)
	}

	service = entity.NewService(uuid.NewString(), name)
	if err := b.serviceRepository.Create(ctx, service); err != nil {
		// Lost a race with another bootstrapper; the winner's row is fine.
		if errors.Is(err, outbound.ErrServiceAlreadyExists) {
			existing, findErr := b.serviceRepository.FindByName(ctx, name)
			if findErr != nil {
				return nil, false, MapStoreError(findErr)
			}
			return existing, false, nil
		}
		return nil, false, MapStoreError(err)
	}

	b.logger.Info(ctx, "Service created", map[string]interface{}{
		"service": name,
	})
	return service, true, nil
}

// SeedServices ensures every name exists and returns how many were created.
func (b *Bootstrapper) SeedServices(ctx context.Context, names []string) (int, error) {
	created := 0
	for _, name := range names {
		_, ok, err := b.EnsureService(ctx, name)
		if err != nil {
			return created, fmt.Errorf("failed to seed service %q: %w", name, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}
