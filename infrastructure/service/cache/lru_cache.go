package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/vobe/authz-service/domain/entity"
)

// LRUIdentityCache is process local. With several instances a deletion on
// one instance is only seen by the others once their entry expires, so it
// suits single-instance deployments.
type LRUIdentityCache struct {
	cache *lru.LRU[string, []byte]
}

func NewLRUIdentityCache(size int, ttl time.Duration) *LRUIdentityCache {
	if size <= 0 {
		size = 1024
	}
	return &LRUIdentityCache{
		cache: lru.NewLRU[string, []byte](size, nil, ttl),
	}
}

func (c *LRUIdentityCache) Get(_ context.Context, username string) (*entity.User, bool, error) {
	data, ok := c.cache.Get(cacheKey(username))
	if !ok {
		return nil, false, nil
	}
	user, err := decodeUser(data)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (c *LRUIdentityCache) Set(_ context.Context, user *entity.User) error {
	data, err := encodeUser(user)
	if err != nil {
		return err
	}
	c.cache.Add(cacheKey(user.Username), data)
	return nil
}

func (c *LRUIdentityCache) Invalidate(_ context.Context, username string) error {
	c.cache.Remove(cacheKey(username))
	return nil
}

func (c *LRUIdentityCache) Len() int {
	return c.cache.Len()
}
