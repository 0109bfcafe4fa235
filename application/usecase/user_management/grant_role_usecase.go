package user_management

import (
	"context"

	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/application/port/outbound"
	"github.com/vobe/authz-service/application/usecase"
	domainerr "github.com/vobe/authz-service/domain/error"
)

type GrantRoleUseCase struct {
	userRepo     outbound.UserRepository
	roleRegistry inbound.RoleRegistry
}

func NewGrantRoleUseCase(userRepo outbound.UserRepository, roleRegistry inbound.RoleRegistry) *GrantRoleUseCase {
	return &GrantRoleUseCase{
		userRepo:     userRepo,
		roleRegistry: roleRegistry,
	}
}

func (uc *GrantRoleUseCase) Execute(ctx context.Context, username string, req inbound.GrantRoleRequest) (*inbound.RoleGrantResponse, error) {
	if req.ServiceID == "" {
		return nil, domainerr.InvalidInput("service_id is required")
	}

	user, err := uc.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, usecase.MapStoreError(err)
	}

	grant, err := uc.roleRegistry.Grant(ctx, user.ID, req.ServiceID, req.Role)
	if err != nil {
		return nil, err
	}

	return toGrantResponse(grant), nil
}

func (uc *GrantRoleUseCase) Revoke(ctx context.Context, username, serviceID string) error {
	user, err := uc.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return usecase.MapStoreError(err)
	}
	return uc.roleRegistry.Revoke(ctx, user.ID, serviceID)
}
