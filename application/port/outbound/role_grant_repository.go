package outbound

import (
	"context"
	"errors"

	"github.com/vobe/authz-service/domain/entity"
)

var (
	ErrGrantNotFound      = errors.New("role grant not found")
	ErrGrantAlreadyExists = errors.New("role grant already exists")
)

// RoleGrantRepository stores at most one grant per (user, service) pair.
// Create must enforce that atomically and return ErrGrantAlreadyExists on
// conflict, ErrUserNotFound or ErrServiceNotFound on a dangling reference.
type RoleGrantRepository interface {
	Create(ctx context.Context, grant *entity.RoleGrant) error
	Find(ctx context.Context, userID, serviceID string) (*entity.RoleGrant, error)
	FindByUser(ctx context.Context, userID string) ([]*entity.RoleGrant, error)
	Delete(ctx context.Context, userID, serviceID string) error
}
