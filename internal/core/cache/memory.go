package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is an in-process Cache used when no REDIS_ADDR is configured
// and by the test suite. Single-node only; entries die with the process.
type MemoryCache struct {
	store *gocache.Cache
}

var _ Cache = (*MemoryCache)(nil)

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{store: gocache.New(gocache.NoExpiration, time.Minute)}
}

func (c *MemoryCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	c.store.Set(key, val, ttl)
	return nil
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, found := c.store.Get(key)
	if !found {
		return nil, ErrCacheMiss
	}
	return v.([]byte), nil
}

func (c *MemoryCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	_, exp, found := c.store.GetWithExpiration(key)
	if !found {
		return 0, ErrCacheMiss
	}
	if exp.IsZero() {
		return 0, nil
	}
	return time.Until(exp), nil
}

func (c *MemoryCache) Close() error { return nil }
