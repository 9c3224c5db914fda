// Package provider defines the shared store abstraction used by cacheable.
//
// Implementations MUST be byte-for-byte transparent for values written with Set:
// Get must return exactly the bytes previously stored under the key. Counters
// written through Incr are stored as decimal ASCII so that a plain Get of a
// counter key returns its textual value (redis and memcached both behave this way).
//
// TTL semantics: ttl <= 0 means "never expire".
package provider

import (
	"context"
	"errors"
	"time"
)

// ErrNotCounter is returned by Incr when the key holds a value that is not a
// decimal integer.
var ErrNotCounter = errors.New("provider: value is not a counter")

// Provider is a minimal byte store with TTLs and atomic counters.
// Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL. May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort). Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Incr atomically adds delta to the counter at key and returns the new value.
	// A missing key is treated as 0. When ttl > 0 the key expiry is refreshed.
	Incr(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)

	// Close releases resources.
	Close(ctx context.Context) error
}

// Evicting is implemented by size-bounded stores that may drop any entry
// under memory pressure, counters included.
type Evicting interface {
	Evicts() bool
}
