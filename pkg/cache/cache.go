package cache

import (
	"context"
	"time"
)

// Cache stores rendered artifacts by key.
//
// A miss is not an error: Get returns (nil, false, nil). Implementations must
// be safe for concurrent use.
type Cache interface {
	// Get returns the stored bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// DefaultTTL is how long rendered artifacts are kept when no TTL is configured.
const DefaultTTL = 7 * 24 * time.Hour
