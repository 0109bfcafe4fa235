package outbound

import (
	"context"
	"errors"

	"github.com/vobe/authz-service/domain/entity"
)

var (
	ErrServiceNotFound      = errors.New("service not found")
	ErrServiceAlreadyExists = errors.New("service already exists")
)

type ServiceRepository interface {
	Create(ctx context.Context, service *entity.Service) error
	FindByID(ctx context.Context, id string) (*entity.Service, error)
	FindByName(ctx context.Context, name string) (*entity.Service, error)
	FindAll(ctx context.Context) ([]*entity.Service, error)
	// Delete removes the service and every grant made on it.
	Delete(ctx context.Context, id string) error
}
