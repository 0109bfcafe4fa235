package inbound

import (
	"context"

	"github.com/vobe/authz-service/domain/entity"
)

// RoleRegistry answers and mutates the user/service/role relation.
// Implemented by application/usecase.
type RoleRegistry interface {
	Grant(ctx context.Context, userID, serviceID, role string) (*entity.RoleGrant, error)
	Revoke(ctx context.Context, userID, serviceID string) error
	HasRole(ctx context.Context, userID, serviceID, role string) (bool, error)
	IsAdmin(ctx context.Context, userID string) (bool, error)
	ListGrants(ctx context.Context, userID string) ([]*entity.RoleGrant, error)
}

type CreateServiceRequest struct {
	Name string `json:"name" validate:"required"`
}

type ServiceResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type ServiceManagementUseCase interface {
	CreateService(ctx context.Context, req CreateServiceRequest) (*ServiceResponse, error)
	ListServices(ctx context.Context) ([]ServiceResponse, error)
	DeleteService(ctx context.Context, serviceID string) error
}
