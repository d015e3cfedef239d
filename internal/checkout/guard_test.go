package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisGuard_AcquireRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	g := NewRedisGuard(client, time.Minute)
	ctx := context.Background()

	ok, err := g.Acquire(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("checkout:busy:s-1"))
	assert.Equal(t, time.Minute, mr.TTL("checkout:busy:s-1"))

	ok, err = g.Acquire(ctx, "s-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = g.Acquire(ctx, "s-2")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, g.Release(ctx, "s-1"))
	ok, err = g.Acquire(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisGuard_ExpiresAfterTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	g := NewRedisGuard(client, 30*time.Second)
	ctx := context.Background()

	ok, _ := g.Acquire(ctx, "s-1")
	require.True(t, ok)

	mr.FastForward(31 * time.Second)

	ok, err := g.Acquire(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisGuard_ConnectionError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	_, err := NewRedisGuard(client, time.Second).Acquire(context.Background(), "s-1")
	require.ErrorContains(t, err, "redis setnx failed")
}

func TestMemoryGuard(t *testing.T) {
	g := NewMemoryGuard()
	ctx := context.Background()

	ok, _ := g.Acquire(ctx, "a")
	assert.True(t, ok)
	ok, _ = g.Acquire(ctx, "a")
	assert.False(t, ok)
	require.NoError(t, g.Release(ctx, "a"))
	ok, _ = g.Acquire(ctx, "a")
	assert.True(t, ok)
}
