// Package otter is an in-process W-TinyLFU provider backed by otter.
package otter

import (
	"context"
	"fmt"
	"time"

	"github.com/maypok86/otter/v2"

	pr "github.com/unkn0wn-root/cacheable/provider"
)

// entry wraps a stored value with its own expiration time.
// A zero expiresAt means the entry never expires on its own.
type entry struct {
	data      []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

type Provider struct {
	cache *otter.Cache[string, entry]
	locks pr.CounterLock
}

var (
	_ pr.Provider = (*Provider)(nil)
	_ pr.Evicting = (*Provider)(nil)
)

type Config struct {
	MaxSize int           // max entry count
	MaxTTL  time.Duration // upper bound applied by otter itself; 0 = none
}

func New(cfg Config) (*Provider, error) {
	opts := &otter.Options[string, entry]{
		MaximumSize: cfg.MaxSize,
	}
	if cfg.MaxTTL > 0 {
		opts.ExpiryCalculator = otter.ExpiryWriting[string, entry](cfg.MaxTTL)
	}
	c, err := otter.New[string, entry](opts)
	if err != nil {
		return nil, fmt.Errorf("create otter cache: %w", err)
	}
	return &Provider{cache: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := p.cache.GetIfPresent(key)
	if !ok {
		return nil, false, nil
	}
	if e.expired(time.Now()) {
		p.cache.Invalidate(key)
		return nil, false, nil
	}
	return e.data, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	p.cache.Set(key, newEntry(value, ttl))
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.cache.Invalidate(key)
	return nil
}

func (p *Provider) Incr(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	unlock := p.locks.Lock(key)
	defer unlock()

	e, found := p.cache.GetIfPresent(key)
	if found && e.expired(time.Now()) {
		found = false
	}
	v, b, err := pr.Add(e.data, found, delta)
	if err != nil {
		return 0, err
	}
	ne := newEntry(b, ttl)
	if ttl <= 0 && found {
		ne.expiresAt = e.expiresAt // keep the existing expiry when not refreshing
	}
	p.cache.Set(key, ne)
	return v, nil
}

// Purge drops every entry.
func (p *Provider) Purge() { p.cache.InvalidateAll() }

func (p *Provider) Close(_ context.Context) error {
	p.cache.InvalidateAll()
	return nil
}

func newEntry(b []byte, ttl time.Duration) entry {
	e := entry{data: b}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	return e
}

// Evicts reports true: the store is size-bounded.
func (p *Provider) Evicts() bool { return true }
