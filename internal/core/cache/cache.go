// Package cache is the ephemeral store for extraction results. Entries live
// for a fixed TTL from the last write and are never deleted explicitly.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss signals an absent or expired key. Callers translate it into a
// not-found outcome rather than treating it as a failure.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache is a key -> payload store with per-key TTL.
type Cache interface {
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	// TTL reports the remaining lifetime of key, or ErrCacheMiss.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Close() error
}

// Key builds the owner-scoped cache key for an extraction result. The exact
// textual shape "PDF:{ownerId}:{canonicalFilename}" is load-bearing: the
// retrieval path parses the owner id back out of it, so it must be preserved
// byte for byte.
func Key(ownerID, canonicalFilename string) string {
	return "PDF:" + ownerID + ":" + canonicalFilename
}
