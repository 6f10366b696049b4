package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_BurstThenRefuse(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _, err := l.Allow(ctx, "u-1")
		require.NoError(t, err)
		assert.True(t, ok, "call %d", i)
	}

	ok, retryAfter, err := l.Allow(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.InDelta(t, float64(20*time.Second), float64(retryAfter), float64(time.Millisecond))

	ok, _, err = l.Allow(ctx, "u-2")
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")

	now = now.Add(20 * time.Second)
	ok, _, err = l.Allow(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, ok, "one token refilled")
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	_, _, _ = l.Allow(ctx, "old")
	now = now.Add(time.Hour)
	_, _, _ = l.Allow(ctx, "fresh")

	assert.Equal(t, 1, l.Sweep(30*time.Minute))
	assert.Len(t, l.buckets, 1)
}

func TestRedisLimiter_KeyAndDisabled(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	l := NewRedisLimiter(client, "merchant:rl:", 0, time.Minute)
	assert.Equal(t, "merchant:rl:presign:u-1", l.Key("presign:u-1"))

	ok, retryAfter, err := l.Allow(context.Background(), "presign:u-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, retryAfter)
}

func TestRedisLimiter_SurfacesConnectionError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := NewRedisLimiter(client, "", 5, time.Minute)
	_, _, err := l.Allow(context.Background(), "u-1")

	assert.Error(t, err)
}
