// Package genstore holds generation counters: monotonically increasing
// integers that scope every cache key. Bumping a counter makes all keys built
// from the previous value unreachable without deleting them.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
// Use ProviderGenStore (default) to keep them next to cached values,
// RedisGenStore for an atomic seed on Redis, or LocalGenStore for a single process.
type GenStore interface {
	// Snapshot returns the current generation; ok=false when none is stored yet.
	Snapshot(ctx context.Context, key string) (gen uint64, ok bool, err error)
	// Seed stores gen when nothing is stored or the stored value is lower,
	// and returns the value in effect afterwards. It never lowers a generation.
	Seed(ctx context.Context, key string, gen uint64, ttl time.Duration) (uint64, error)
	// Bump atomically increments and returns the new generation.
	// ttl > 0 refreshes the key expiry; ttl <= 0 never expires.
	Bump(ctx context.Context, key string, ttl time.Duration) (uint64, error)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
