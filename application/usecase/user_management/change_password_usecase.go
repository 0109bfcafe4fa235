package user_management

import (
	"context"
	"fmt"

	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/application/port/outbound"
	"github.com/vobe/authz-service/application/usecase"
	domainerr "github.com/vobe/authz-service/domain/error"
	"github.com/vobe/authz-service/infrastructure/service/logger"
)

type ChangePasswordUseCase struct {
	userRepo      outbound.UserRepository
	passwordSvc   outbound.PasswordService
	identityCache outbound.IdentityCache
	logger        logger.Logger
}

func NewChangePasswordUseCase(
	userRepo outbound.UserRepository,
	passwordSvc outbound.PasswordService,
	identityCache outbound.IdentityCache,
	log logger.Logger,
) *ChangePasswordUseCase {
	return &ChangePasswordUseCase{
		userRepo:      userRepo,
		passwordSvc:   passwordSvc,
		identityCache: identityCache,
		logger:        log,
	}
}

func (uc *ChangePasswordUseCase) Execute(ctx context.Context, username string, req inbound.ChangePasswordRequest) error {
	if req.Password == "" {
		return domainerr.InvalidInput("password is required")
	}

	user, err := uc.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return usecase.MapStoreError(err)
	}

	hashedPassword, err := uc.passwordSvc.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := uc.userRepo.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return usecase.MapStoreError(err)
	}

	if err := uc.identityCache.Invalidate(ctx, user.Username); err != nil {
		uc.logger.Error(ctx, "Failed to invalidate cached identity", err, map[string]interface{}{
			"username": user.Username,
		})
	}

	logger.LogSecurityEvent(ctx, uc.logger, "password_changed", "LOW", map[string]interface{}{
		"username": user.Username,
	})
	return nil
}
