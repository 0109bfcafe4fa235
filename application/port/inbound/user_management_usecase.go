package inbound

import (
	"context"
)

// Create User
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=1,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Change Password
type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// Grant Role
type GrantRoleRequest struct {
	Role      string `json:"role" validate:"required"`
	ServiceID string `json:"service_id" validate:"required"`
}

type UserResponse struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	CreatedAt string      `json:"created_at"`
	Roles     []GrantView `json:"roles,omitempty"`
}

type RoleGrantResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	ServiceID string `json:"service_id"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// List Users
type ListUsersRequest struct {
	Skip  int `json:"skip" validate:"min=0"`
	Limit int `json:"limit" validate:"min=1,max=100"`
}

type ListUsersResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination PaginationInfo `json:"pagination"`
}

type PaginationInfo struct {
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// User Management Use Case Interface
type UserManagementUseCase interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	ListUsers(ctx context.Context, req ListUsersRequest) (*ListUsersResponse, error)
	GetUser(ctx context.Context, username string) (*UserResponse, error)
	DeleteUser(ctx context.Context, username string) (*UserResponse, error)
	ChangePassword(ctx context.Context, username string, req ChangePasswordRequest) error
	GrantRole(ctx context.Context, username string, req GrantRoleRequest) (*RoleGrantResponse, error)
	RevokeRole(ctx context.Context, username, serviceID string) error
}
