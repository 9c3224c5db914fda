package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/cacheable/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

type Redis struct {
	rdb         goredis.UniversalClient
	prefix      string
	closeClient bool
}

var _ pr.Provider = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	Prefix      string // optional key prefix, e.g. "app:prod:"
	CloseClient bool   // set true only if this provider exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, prefix: cfg.Prefix, closeClient: cfg.CloseClient}, nil
}

// NewFromURL parses a redis:// URL and returns a provider owning the client.
func NewFromURL(url, prefix string) (*Redis, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return New(Config{Client: goredis.NewClient(opt), Prefix: prefix, CloseClient: true})
}

// Client exposes the underlying client so a genstore can share the connection.
func (p *Redis) Client() goredis.UniversalClient { return p.rdb }

func (p *Redis) key(k string) string { return p.prefix + k }

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, p.key(key)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0 // non-positive TTLs mean "no expiry"
	}
	if err := p.rdb.Set(ctx, p.key(key), value, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, p.key(key)).Err()
}

// Incr runs INCRBY, pipelined with EXPIRE when ttl > 0 so both land in one round-trip.
func (p *Redis) Incr(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	k := p.key(key)
	if ttl <= 0 {
		v, err := p.rdb.IncrBy(ctx, k, delta).Result()
		return v, mapIncrErr(err)
	}

	var incr *goredis.IntCmd
	_, err := p.rdb.Pipelined(ctx, func(pl goredis.Pipeliner) error {
		incr = pl.IncrBy(ctx, k, delta)
		pl.Expire(ctx, k, ttl)
		return nil
	})
	if err != nil {
		return 0, mapIncrErr(err)
	}
	return incr.Val(), nil
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

func mapIncrErr(err error) error {
	if err != nil && strings.Contains(err.Error(), "not an integer") {
		return pr.ErrNotCounter
	}
	return err
}
