package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vobe/authz-service/application/port/outbound"
	"github.com/vobe/authz-service/domain/entity"
)

const keyPrefix = "authz:identity:"

// IdentityCacheConfig configuration untuk identity cache
type IdentityCacheConfig struct {
	Driver   string
	RedisURL string
	TTL      time.Duration
	Size     int
}

// NewIdentityCache builds the cache selected by cfg.Driver. Unknown or empty
// drivers disable caching.
func NewIdentityCache(cfg IdentityCacheConfig, logger *logrus.Logger) (outbound.IdentityCache, error) {
	switch cfg.Driver {
	case "redis":
		c, err := NewRedisIdentityCache(cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, err
		}
		logger.WithFields(logrus.Fields{"driver": "redis", "ttl": cfg.TTL}).Info("Identity cache initialized")
		return c, nil
	case "lru":
		logger.WithFields(logrus.Fields{"driver": "lru", "ttl": cfg.TTL, "size": cfg.Size}).Info("Identity cache initialized")
		return NewLRUIdentityCache(cfg.Size, cfg.TTL), nil
	default:
		logger.Info("Identity cache disabled")
		return NoopIdentityCache{}, nil
	}
}

func cacheKey(username string) string {
	return keyPrefix + username
}

// cachedUser is the stored shape. It has no password hash field, so a
// digest can never reach the cache.
type cachedUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toCached(user *entity.User) cachedUser {
	return cachedUser{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func (c cachedUser) toEntity() *entity.User {
	return &entity.User{
		ID:        c.ID,
		Username:  c.Username,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func encodeUser(user *entity.User) ([]byte, error) {
	data, err := json.Marshal(toCached(user))
	if err != nil {
		return nil, fmt.Errorf("failed to encode cached user: %w", err)
	}
	return data, nil
}

func decodeUser(data []byte) (*entity.User, error) {
	var c cachedUser
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return c.toEntity(), nil
}

// NoopIdentityCache never stores anything.
type NoopIdentityCache struct{}

func (NoopIdentityCache) Get(context.Context, string) (*entity.User, bool, error) {
	return nil, false, nil
}

func (NoopIdentityCache) Set(context.Context, *entity.User) error {
	return nil
}

func (NoopIdentityCache) Invalidate(context.Context, string) error {
	return nil
}
