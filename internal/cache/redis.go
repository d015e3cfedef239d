package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	defaultBaseTTL = 15 * time.Minute
	maxJitter      = 5 * time.Minute
)

// RedisCache keeps JSON snapshots of carts keyed by session.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, baseTTL: defaultBaseTTL}
}

func (r *RedisCache) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	raw, err := r.client.Get(ctx, cacheKey(sessionID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	c := new(domain.Cart)
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return c, nil
}

// setIfNotOlder writes the snapshot unless a newer cart version was cached
// before. The version floor outlives Delete so a slow fill of an old read
// cannot overwrite a later save.
var setIfNotOlder = redis.NewScript(`
local floor = redis.call('GET', KEYS[2])
if floor and tonumber(floor) > tonumber(ARGV[2]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// Set stores the snapshot with a jittered TTL so carts cached in the same
// burst do not all expire at once. A snapshot older than the last one
// written is dropped.
func (r *RedisCache) Set(ctx context.Context, sessionID string, c *domain.Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}
	ttl := r.baseTTL + time.Duration(rand.Int64N(int64(maxJitter)))
	keys := []string{cacheKey(sessionID), versionKey(sessionID)}
	if err := setIfNotOlder.Run(ctx, r.client, keys, raw, c.Version, ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete drops the snapshot and keeps the version floor.
func (r *RedisCache) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cacheKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(sessionID string) string {
	return "cart:" + sessionID
}

func versionKey(sessionID string) string {
	return "cart:" + sessionID + ":version"
}
