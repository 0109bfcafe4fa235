package user_management

import (
	"context"

	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/application/port/outbound"
	"github.com/vobe/authz-service/application/usecase"
	"github.com/vobe/authz-service/infrastructure/service/logger"
)

type DeleteUserUseCase struct {
	userRepo      outbound.UserRepository
	identityCache outbound.IdentityCache
	logger        logger.Logger
}

func NewDeleteUserUseCase(userRepo outbound.UserRepository, identityCache outbound.IdentityCache, log logger.Logger) *DeleteUserUseCase {
	return &DeleteUserUseCase{
		userRepo:      userRepo,
		identityCache: identityCache,
		logger:        log,
	}
}

// Execute removes the user with its grants and returns the removed record.
// Tokens already issued to the user stop authenticating immediately.
func (uc *DeleteUserUseCase) Execute(ctx context.Context, username string) (*inbound.UserResponse, error) {
	user, err := uc.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, usecase.MapStoreError(err)
	}

	if err := uc.userRepo.Delete(ctx, user.ID); err != nil {
		return nil, usecase.MapStoreError(err)
	}

	if err := uc.identityCache.Invalidate(ctx, user.Username); err != nil {
		uc.logger.Error(ctx, "Failed to invalidate cached identity", err, map[string]interface{}{
			"username": user.Username,
		})
	}

	logger.LogSecurityEvent(ctx, uc.logger, "user_deleted", "LOW", map[string]interface{}{
		"username": user.Username,
	})

	return toUserResponse(user), nil
}
