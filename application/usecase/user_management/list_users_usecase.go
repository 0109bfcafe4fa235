package user_management

import (
	"context"
	"fmt"

	"github.com/vobe/authz-service/application/port/inbound"
	"github.com/vobe/authz-service/application/port/outbound"
)

const (
	defaultListLimit = 100
	maxListLimit     = 100
)

type ListUsersUseCase struct {
	userRepo outbound.UserRepository
}

func NewListUsersUseCase(userRepo outbound.UserRepository) *ListUsersUseCase {
	return &ListUsersUseCase{
		userRepo: userRepo,
	}
}

func (uc *ListUsersUseCase) Execute(ctx context.Context, req inbound.ListUsersRequest) (*inbound.ListUsersResponse, error) {
	// Set default pagination
	if req.Skip < 0 {
		req.Skip = 0
	}
	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}
	if req.Limit > maxListLimit {
		req.Limit = maxListLimit
	}

	users, total, err := uc.userRepo.FindAll(ctx, req.Skip, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	items := make([]inbound.UserResponse, len(users))
	for i, user := range users {
		items[i] = *toUserResponse(user)
	}

	return &inbound.ListUsersResponse{
		Users: items,
		Pagination: inbound.PaginationInfo{
			Skip:  req.Skip,
			Limit: req.Limit,
			Total: total,
		},
	}, nil
}
