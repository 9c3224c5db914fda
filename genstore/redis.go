package genstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// seedScript raises KEYS[1] to ARGV[1] unless it already holds a value >= ARGV[1].
// ARGV[2] is a TTL in milliseconds; 0 leaves the key persistent.
var seedScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
local want = tonumber(ARGV[1])
if cur and tonumber(cur) and tonumber(cur) >= want then
  return tonumber(cur)
end
local ttl = tonumber(ARGV[2])
if ttl > 0 then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ttl)
else
  redis.call('SET', KEYS[1], ARGV[1])
end
return want
`)

// RedisGenStore shares generations across processes and survives restarts.
// Seeding runs as a Lua script so concurrent Init calls never lower a value
// another replica already bumped.
type RedisGenStore struct {
	rdb    redis.UniversalClient
	prefix string
	owned  bool
}

var _ GenStore = (*RedisGenStore)(nil)

// NewRedisGenStore creates a Redis-backed generation store. The client is not
// closed by Close; the caller owns it.
func NewRedisGenStore(client redis.UniversalClient, prefix string) *RedisGenStore {
	return &RedisGenStore{rdb: client, prefix: prefix}
}

// NewRedisGenStoreOwned is like NewRedisGenStore but Close also closes the client.
func NewRedisGenStoreOwned(client redis.UniversalClient, prefix string) *RedisGenStore {
	return &RedisGenStore{rdb: client, prefix: prefix, owned: true}
}

func (s *RedisGenStore) key(k string) string { return s.prefix + k }

// Snapshot returns the current generation.
func (s *RedisGenStore) Snapshot(ctx context.Context, key string) (uint64, bool, error) {
	res, err := s.rdb.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	u, err := strconv.ParseUint(res, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("redis gen parse: %w", err)
	}
	return u, true, nil
}

func (s *RedisGenStore) Seed(ctx context.Context, key string, gen uint64, ttl time.Duration) (uint64, error) {
	ms := int64(0)
	if ttl > 0 {
		ms = ttl.Milliseconds()
	}
	v, err := seedScript.Run(ctx, s.rdb, []string{s.key(key)}, gen, ms).Int64()
	if err != nil {
		return 0, err
	}
	return uint64(v), nil
}

// Bump atomically increments the generation and (optionally) refreshes TTL.
// When ttl > 0, INCR + EXPIRE are pipelined in a single round-trip and the
// INCR result is captured from the pipeline (no extra INCR).
func (s *RedisGenStore) Bump(ctx context.Context, key string, ttl time.Duration) (uint64, error) {
	k := s.key(key)

	if ttl <= 0 {
		v, err := s.rdb.Incr(ctx, k).Result()
		if err != nil {
			return 0, err
		}
		return uint64(v), nil
	}

	var incr *redis.IntCmd
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.Expire(ctx, k, ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return uint64(incr.Val()), nil
}

func (s *RedisGenStore) Close(context.Context) error {
	if s.owned {
		return s.rdb.Close()
	}
	return nil
}
