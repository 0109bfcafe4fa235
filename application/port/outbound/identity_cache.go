package outbound

import (
	"context"

	"github.com/vobe/authz-service/domain/entity"
)

// IdentityCache holds user records by username for token validation.
// Cached records never carry the password hash. A miss is (nil, false, nil).
type IdentityCache interface {
	Get(ctx context.Context, username string) (*entity.User, bool, error)
	Set(ctx context.Context, user *entity.User) error
	Invalidate(ctx context.Context, username string) error
}
