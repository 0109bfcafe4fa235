package user_management

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/application/port/outbound"
	"github.com/vobe/authz-service/application/usecase"
	domainerr "github.com/vobe/authz-service/domain/error"
	"github.com/vobe/authz-service/domain/entity"
)

const maxUsernameLength = 50

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type CreateUserUseCase struct {
	userRepo    outbound.UserRepository
	passwordSvc outbound.PasswordService
}

func NewCreateUserUseCase(
	userRepo outbound.UserRepository,
	passwordSvc outbound.PasswordService,
) *CreateUserUseCase {
	return &CreateUserUseCase{
		userRepo:    userRepo,
		passwordSvc: passwordSvc,
	}
}

func (uc *CreateUserUseCase) Execute(ctx context.Context, req inbound.CreateUserRequest) (*inbound.UserResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validateCreateUserRequest(req); err != nil {
		return nil, err
	}

	hashedPassword, err := uc.passwordSvc.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := entity.NewUser(uuid.NewString(), req.Username, req.Email, hashedPassword)

	// Uniqueness of username and email is enforced by the store.
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, usecase.MapStoreError(err)
	}

	return toUserResponse(user), nil
}

func validateCreateUserRequest(req inbound.CreateUserRequest) error {
	if req.Username == "" || len(req.Username) > maxUsernameLength {
		return domainerr.InvalidInput("username must be 1 to 50 characters")
	}
	if strings.ContainsAny(req.Username, " \t\r\n") {
		return domainerr.InvalidInput("username must not contain whitespace")
	}
	if !emailRegex.MatchString(req.Email) {
		return domainerr.InvalidInput("invalid email format")
	}
	if req.Password == "" {
		return domainerr.InvalidInput("password is required")
	}
	return nil
}
