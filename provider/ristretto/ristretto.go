package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/cacheable/provider"
)

type Provider struct {
	c     *rc.Cache
	locks pr.CounterLock
}

var (
	_ pr.Provider = (*Provider)(nil)
	_ pr.Evicting = (*Provider)(nil)
)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
	// Cost in Ristretto is provided by the caller (cacheable passes cost per Set).
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	return p.c.SetWithTTL(key, value, cost, ttl), nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

// Incr is a locked read-modify-write. Ristretto buffers writes, so Wait is
// called before releasing the stripe to make the new value visible to the next reader.
func (p *Provider) Incr(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	unlock := p.locks.Lock(key)
	defer unlock()

	cur, found, _ := p.Get(ctx, key)
	v, b, err := pr.Add(cur, found, delta)
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		ttl = 0
	}
	if !p.c.SetWithTTL(key, b, 1, ttl) {
		return 0, errors.New("ristretto: counter write rejected")
	}
	p.c.Wait()
	return v, nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Helper to expose metrics if desired by the application (not part of provider.Provider).
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }

// Evicts reports true: the store is size-bounded.
func (p *Provider) Evicts() bool { return true }
