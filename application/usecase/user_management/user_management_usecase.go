package user_management

import (
	"context"

	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/application/port/outbound"
	"github.com/vobe/authz-service/infrastructure/service/logger"
)

type UserManagementUseCaseImpl struct {
	createUserUseCase     *CreateUserUseCase
	listUsersUseCase      *ListUsersUseCase
	getUserDetailUseCase  *GetUserDetailUseCase
	deleteUserUseCase     *DeleteUserUseCase
	changePasswordUseCase *ChangePasswordUseCase
	grantRoleUseCase      *GrantRoleUseCase
}

func NewUserManagementUseCase(
	userRepo outbound.UserRepository,
	serviceRepo outbound.ServiceRepository,
	roleRegistry inbound.RoleRegistry,
	passwordSvc outbound.PasswordService,
	identityCache outbound.IdentityCache,
	log logger.Logger,
) inbound.UserManagementUseCase {
	return &UserManagementUseCaseImpl{
		createUserUseCase:     NewCreateUserUseCase(userRepo, passwordSvc),
		listUsersUseCase:      NewListUsersUseCase(userRepo),
		getUserDetailUseCase:  NewGetUserDetailUseCase(userRepo, serviceRepo, roleRegistry),
		deleteUserUseCase:     NewDeleteUserUseCase(userRepo, identityCache, log),
		changePasswordUseCase: NewChangePasswordUseCase(userRepo, passwordSvc, identityCache, log),
		grantRoleUseCase:      NewGrantRoleUseCase(userRepo, roleRegistry),
	}
}

func (uc *UserManagementUseCaseImpl) CreateUser(ctx context.Context, req inbound.CreateUserRequest) (*inbound.UserResponse, error) {
	return uc.createUserUseCase.Execute(ctx, req)
}

func (uc *UserManagementUseCaseImpl) ListUsers(ctx context.Context, req inbound.ListUsersRequest) (*inbound.ListUsersResponse, error) {
	return uc.listUsersUseCase.Execute(ctx, req)
}

func (uc *UserManagementUseCaseImpl) GetUser(ctx context.Context, username string) (*inbound.UserResponse, error) {
	return uc.getUserDetailUseCase.Execute(ctx, username)
}

func (uc *UserManagementUseCaseImpl) DeleteUser(ctx context.Context, username string) (*inbound.UserResponse, error) {
	return uc.deleteUserUseCase.Execute(ctx, username)
}

func (uc *UserManagementUseCaseImpl) ChangePassword(ctx context.Context, username string, req inbound.ChangePasswordRequest) error {
	return uc.changePasswordUseCase.Execute(ctx, username, req)
}

func (uc *UserManagementUseCaseImpl) GrantRole(ctx context.Context, username string, req inbound.GrantRoleRequest) (*inbound.RoleGrantResponse, error) {
	return uc.grantRoleUseCase.Execute(ctx, username, req)
}

func (uc *UserManagementUseCaseImpl) RevokeRole(ctx context.Context, username, serviceID string) error {
	return uc.grantRoleUseCase.Revoke(ctx, username, serviceID)
}
