package genstore

import (
	"context"
	"fmt"
	"time"

	pr "github.com/unkn0wn-root/cacheable/provider"
)

// ProviderGenStore keeps generations in the same shared store as cached values,
// using the provider's atomic Incr. Seeding is expressed as an increment by the
// missing delta, so it can only ever raise the stored value; a racing bump can
// at worst push it one generation further, which only invalidates more.
type ProviderGenStore struct {
	p pr.Provider
}

var _ GenStore = (*ProviderGenStore)(nil)

func NewProviderGenStore(p pr.Provider) *ProviderGenStore {
	return &ProviderGenStore{p: p}
}

func (s *ProviderGenStore) Snapshot(ctx context.Context, key string) (uint64, bool, error) {
	b, ok, err := s.p.Get(ctx, key)
	if err != nil || !ok {
		return 0, false, err
	}
	v, err := pr.ParseCounter(b)
	if err != nil {
		return 0, false, fmt.Errorf("gen parse %q: %w", key, err)
	}
	if v < 0 {
		return 0, false, fmt.Errorf("gen parse %q: negative generation %d", key, v)
	}
	return uint64(v), true, nil
}

func (s *ProviderGenStore) Seed(ctx context.Context, key string, gen uint64, ttl time.Duration) (uint64, error) {
	cur, ok, err := s.Snapshot(ctx, key)
	if err != nil {
		return 0, err
	}
	if ok && cur >= gen {
		return cur, nil
	}
	v, err := s.p.Incr(ctx, key, int64(gen-cur), ttl)
	if err != nil {
		return 0, err
	}
	return uint64(v), nil
}

func (s *ProviderGenStore) Bump(ctx context.Context, key string, ttl time.Duration) (uint64, error) {
	v, err := s.p.Incr(ctx, key, 1, ttl)
	if err != nil {
		return 0, err
	}
	return uint64(v), nil
}

// Close is a no-op; the provider belongs to the cache.
func (s *ProviderGenStore) Close(context.Context) error { return nil }
