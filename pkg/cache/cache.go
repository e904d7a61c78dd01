// Package cache provides pluggable byte caching for update-center data.
//
// The [Cache] interface abstracts over storage backends:
//   - file: Directory-based cache for CLI usage (default)
//   - redis: Redis-backed cache for shared environments
//   - mongo: MongoDB-backed cache with server-side expiry
//   - null: No-op cache for tests or --ignore-cache runs
//
// Entries carry a time-to-live; an expired entry behaves like a miss.
package cache

import (
	"context"
	"time"
)

// Cache is the interface for cache storage backends.
//
// Get returns (data, true, nil) on a hit, (nil, false, nil) on a miss, and
// a non-nil error only for backend failures. Expired entries are misses.
type Cache interface {
	// Get retrieves a value from the cache.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value in the cache. A ttl of 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value from the cache. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}
