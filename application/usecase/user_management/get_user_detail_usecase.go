package user_management

import (
	"context"

	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/application/port/outbound"
	"github.com/vobe/authz-service/application/usecase"
)

type GetUserDetailUseCase struct {
	userRepo     outbound.UserRepository
	serviceRepo  outbound.ServiceRepository
	roleRegistry inbound.RoleRegistry
}

func NewGetUserDetailUseCase(
	userRepo outbound.UserRepository,
	serviceRepo outbound.ServiceRepository,
	roleRegistry inbound.RoleRegistry,
) *GetUserDetailUseCase {
	return &GetUserDetailUseCase{
		userRepo:     userRepo,
		serviceRepo:  serviceRepo,
		roleRegistry: roleRegistry,
	}
}

func (uc *GetUserDetailUseCase) Execute(ctx context.Context, username string) (*inbound.UserResponse, error) {
	user, err := uc.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, usecase.MapStoreError(err)
	}

	grants, err := uc.roleRegistry.ListGrants(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	response := toUserResponse(user)
	response.Roles = usecase.DescribeGrants(ctx, uc.serviceRepo, grants)
	return response, nil
}
