package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmitGuard is the per-session busy flag that keeps a second order
// submission out while one is outstanding.
type SubmitGuard interface {
	// Acquire returns false when the flag is already held.
	Acquire(ctx context.Context, sessionID string) (bool, error)
	Release(ctx context.Context, sessionID string) error
}

type MemoryGuard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{busy: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(_ context.Context, sessionID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.busy[sessionID]; ok {
		return false, nil
	}
	g.busy[sessionID] = struct{}{}
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, sessionID)
	return nil
}

// RedisGuard holds the flag as a key with a TTL so that a crashed instance
// cannot block a session forever.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, sessionID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, guardKey(sessionID), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, sessionID string) error {
	if err := g.client.Del(ctx, guardKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func guardKey(sessionID string) string {
	return fmt.Sprintf("checkout:busy:%s", sessionID)
}
