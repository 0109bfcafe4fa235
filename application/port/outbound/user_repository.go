package outbound

import (
	"context"
	"errors"

	"github.com/vobe/authz-service/domain/entity"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserRepository is the credential store for user accounts. Username and
// email are each unique across all users.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindAll(ctx context.Context, offset, limit int) ([]*entity.User, int, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// Delete removes the user and every grant it holds.
	Delete(ctx context.Context, id string) error
}
