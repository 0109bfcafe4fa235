package inbound

import (
	"context"

	"github.com/vobe/authz-service/domain/entity"
)

// Capability names what an authorized caller may do.
type Capability string

const (
	CapabilityAuthenticated Capability = "authenticated"
	CapabilityAdmin         Capability = "admin"
)

type LoginRequest struct {
	Identifier string `json:"username" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type GrantView struct {
	ServiceID   string `json:"service_id"`
	ServiceName string `json:"service_name,omitempty"`
	Role        string `json:"role"`
}

type MeResponse struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	IsAdmin  bool        `json:"is_admin"`
	Roles    []GrantView `json:"roles"`
}

type AuthUseCase interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Authenticate(ctx context.Context, token string) (*entity.Identity, error)
	Authorize(ctx context.Context, token string, capability Capability) (*entity.Identity, error)
	AuthorizeRole(ctx context.Context, token, serviceName, role string) (*entity.Identity, error)
	Me(ctx context.Context, identity *entity.Identity) (*MeResponse, error)
}
