package bigcache

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"

	pr "github.com/unkn0wn-root/cacheable/provider"
)

// Provider keeps entries in BigCache. BigCache has a single global LifeWindow;
// per-call TTLs are ignored, so version counters stored here age out with the
// window like everything else. Prefer a store with per-key TTL for the version.
type Provider struct {
	c     *bc.BigCache
	locks pr.CounterLock
}

var (
	_ pr.Provider = (*Provider)(nil)
	_ pr.Evicting = (*Provider)(nil)
)

type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	return b, err == nil, err
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	return true, p.c.Set(key, value)
}

func (p *Provider) Del(_ context.Context, key string) error {
	err := p.c.Delete(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil
	}
	return err
}

func (p *Provider) Incr(ctx context.Context, key string, delta int64, _ time.Duration) (int64, error) {
	unlock := p.locks.Lock(key)
	defer unlock()

	cur, found, err := p.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	v, b, err := pr.Add(cur, found, delta)
	if err != nil {
		return 0, err
	}
	if err := p.c.Set(key, b); err != nil {
		return 0, err
	}
	return v, nil
}

func (p *Provider) Close(_ context.Context) error {
	return p.c.Close()
}

// Evicts reports true: the store is size-bounded.
func (p *Provider) Evicts() bool { return true }
