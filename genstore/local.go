package genstore

import (
	"context"
	"sync"
	"time"
)

type localGenEntry struct {
	Gen       uint64
	ExpiresAt time.Time // zero => never
}

func (e localGenEntry) live(now time.Time) bool {
	return e.ExpiresAt.IsZero() || now.Before(e.ExpiresAt)
}

// LocalGenStore keeps generations in-process. Suitable for tests and
// single-replica deployments; other processes never observe its bumps.
// An optional sweep loop drops expired generations.
type LocalGenStore struct {
	mu     sync.Mutex
	gens   map[string]localGenEntry
	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

var _ GenStore = (*LocalGenStore)(nil)

func NewLocalGenStore(sweepInterval time.Duration) *LocalGenStore {
	s := &LocalGenStore{gens: make(map[string]localGenEntry)}
	if sweepInterval > 0 {
		s.ticker = time.NewTicker(sweepInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.Sweep()
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

func (s *LocalGenStore) Snapshot(_ context.Context, k string) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.gens[k]
	if !ok || !e.live(time.Now()) {
		return 0, false, nil
	}
	return e.Gen, true, nil
}

func (s *LocalGenStore) Seed(_ context.Context, k string, gen uint64, ttl time.Duration) (uint64, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.gens[k]
	if ok && e.live(now) && e.Gen >= gen {
		return e.Gen, nil
	}
	s.gens[k] = localGenEntry{Gen: gen, ExpiresAt: expiry(now, ttl)}
	return gen, nil
}

func (s *LocalGenStore) Bump(_ context.Context, k string, ttl time.Duration) (uint64, error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.gens[k]
	if !e.live(now) {
		e = localGenEntry{}
	}
	e.Gen++
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	s.gens[k] = e
	return e.Gen, nil
}

// Sweep prunes expired generations.
func (s *LocalGenStore) Sweep() {
	now := time.Now()
	s.mu.Lock()
	for k, e := range s.gens {
		if !e.live(now) {
			delete(s.gens, k)
		}
	}
	s.mu.Unlock()
}

func (s *LocalGenStore) Close(_ context.Context) error {
	s.once.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			s.ticker.Stop() // stop ticker before waiting
			s.wg.Wait()
		}
	})
	return nil
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
