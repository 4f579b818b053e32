package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLimiter(t *testing.T, limit int, window time.Duration) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewLimiter(client, limit, window), mr
}

func TestAllowWithinBudget(t *testing.T) {
	limiter, _ := setupLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(ctx, "10.0.0.1"), "request %d should pass", i+1)
	}
	assert.False(t, limiter.Allow(ctx, "10.0.0.1"), "fourth request exceeds the window")
}

func TestAllowKeysAreIndependent(t *testing.T) {
	limiter, _ := setupLimiter(t, 1, time.Minute)
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "10.0.0.1"))
	assert.False(t, limiter.Allow(ctx, "10.0.0.1"))
	assert.True(t, limiter.Allow(ctx, "10.0.0.2"), "other clients keep their own budget")
}

func TestAllowStampsWindowTTL(t *testing.T) {
	limiter, mr := setupLimiter(t, 5, time.Minute)

	assert.True(t, limiter.Allow(context.Background(), "10.0.0.1"))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, time.Minute, mr.TTL(keys[0]), "counter expires with the window")
}

func TestAllowFailsOpenWhenRedisDown(t *testing.T) {
	limiter, mr := setupLimiter(t, 1, time.Minute)
	mr.Close()

	assert.True(t, limiter.Allow(context.Background(), "10.0.0.1"))
}

func TestAllowNilClientDisablesLimiting(t *testing.T) {
	limiter := NewLimiter(nil, 1, time.Minute)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		assert.True(t, limiter.Allow(ctx, "10.0.0.1"))
	}
}
