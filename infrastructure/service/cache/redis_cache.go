package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/vobe/authz-service/domain/entity"
)

// RedisIdentityCache shares identity lookups across instances. Entries expire
// after ttl and are removed eagerly on user deletion or password change.
type RedisIdentityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdentityCache(redisURL string, ttl time.Duration) (*RedisIdentityCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisIdentityCache{client: client, ttl: ttl}, nil
}

func (c *RedisIdentityCache) Get(ctx context.Context, username string) (*entity.User, bool, error) {
	data, err := c.client.Get(ctx, cacheKey(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read identity cache: %w", err)
	}

	user, err := decodeUser(data)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (c *RedisIdentityCache) Set(ctx context.Context, user *entity.User) error {
	data, err := encodeUser(user)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, cacheKey(user.Username), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write identity cache: %w", err)
	}
	return nil
}

func (c *RedisIdentityCache) Invalidate(ctx context.Context, username string) error {
	if err := c.client.Del(ctx, cacheKey(username)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate identity cache: %w", err)
	}
	return nil
}

func (c *RedisIdentityCache) Close() error {
	return c.client.Close()
}

// Client exposes the underlying connection for health checks.
func (c *RedisIdentityCache) Client() *redis.Client {
	return c.client
}
