// Package memcache adapts a memcached cluster (bradfitz/gomemcache) to provider.Provider.
//
// memcached keys are limited to 250 bytes without whitespace or control
// characters; longer or unsafe keys are compacted with a hash suffix.
package memcache

import (
	"context"
	"errors"
	"strings"
	"time"

	mc "github.com/bradfitz/gomemcache/memcache"

	"github.com/unkn0wn-root/cacheable/internal/keyfmt"
	pr "github.com/unkn0wn-root/cacheable/provider"
)

const (
	maxKeyLen = 250
	// memcached treats expirations beyond 30 days as absolute unix timestamps.
	maxRelativeExpiry = 30 * 24 * time.Hour
)

var ErrNilClient = errors.New("memcache provider: nil client")

type Memcache struct {
	c *mc.Client
}

var _ pr.Provider = (*Memcache)(nil)

// New returns a provider for the given servers ("host:port").
func New(servers ...string) *Memcache {
	return &Memcache{c: mc.New(servers...)}
}

// NewWithClient wraps an existing client.
func NewWithClient(c *mc.Client) (*Memcache, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	return &Memcache{c: c}, nil
}

func (p *Memcache) Get(_ context.Context, key string) ([]byte, bool, error) {
	it, err := p.c.Get(keyfmt.Compact(key, maxKeyLen))
	if errors.Is(err, mc.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return it.Value, true, nil
}

func (p *Memcache) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	err := p.c.Set(&mc.Item{
		Key:        keyfmt.Compact(key, maxKeyLen),
		Value:      value,
		Expiration: expiration(ttl),
	})
	if errors.Is(err, mc.ErrNotStored) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Memcache) Del(_ context.Context, key string) error {
	err := p.c.Delete(keyfmt.Compact(key, maxKeyLen))
	if errors.Is(err, mc.ErrCacheMiss) {
		return nil
	}
	return err
}

// Incr uses memcached incr/decr. A missing key is created with Add; if another
// client wins that race the increment is retried against the stored value.
func (p *Memcache) Incr(_ context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	k := keyfmt.Compact(key, maxKeyLen)
	for attempt := 0; attempt < 3; attempt++ {
		v, err := p.add(k, delta)
		if errors.Is(err, mc.ErrCacheMiss) {
			err = p.c.Add(&mc.Item{
				Key:        k,
				Value:      pr.FormatCounter(delta),
				Expiration: expiration(ttl),
			})
			if errors.Is(err, mc.ErrNotStored) {
				continue // lost the race; the key exists now
			}
			if err != nil {
				return 0, err
			}
			return delta, nil
		}
		if err != nil {
			if isNonNumeric(err) {
				return 0, pr.ErrNotCounter
			}
			return 0, err
		}
		if ttl > 0 {
			if err := p.c.Touch(k, expiration(ttl)); err != nil && !errors.Is(err, mc.ErrCacheMiss) {
				return 0, err
			}
		}
		return v, nil
	}
	return 0, errors.New("memcache provider: incr contention")
}

func (p *Memcache) add(k string, delta int64) (int64, error) {
	if delta >= 0 {
		v, err := p.c.Increment(k, uint64(delta))
		return int64(v), err
	}
	v, err := p.c.Decrement(k, uint64(-delta))
	return int64(v), err
}

func (p *Memcache) Close(_ context.Context) error {
	return p.c.Close()
}

func expiration(ttl time.Duration) int32 {
	switch {
	case ttl <= 0:
		return 0
	case ttl > maxRelativeExpiry:
		return int32(time.Now().Add(ttl).Unix())
	case ttl < time.Second:
		return 1
	default:
		return int32(ttl / time.Second)
	}
}

func isNonNumeric(err error) bool {
	return strings.Contains(err.Error(), "non-numeric")
}
