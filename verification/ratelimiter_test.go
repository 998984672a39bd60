package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/linesmerrill/marketplace-api/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCounter struct{}

func (failingCounter) Get(context.Context, string) (int64, bool, error) {
	return 0, false, errors.New("cache down")
}

func (failingCounter) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("cache down")
}

func (failingCounter) Evict(context.Context, string) error {
	return errors.New("cache down")
}

func TestRateLimiter_DeniesAfterMax(t *testing.T) {
	ctx := context.Background()
	l := NewRateLimiter(cache.NewMemory(ctx, time.Hour), "verify", 30*time.Minute, 5)

	for i := 1; i <= 5; i++ {
		allowed, count, err := l.CheckAndIncrement(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, i, count)
	}

	allowed, count, err := l.CheckAndIncrement(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 5, count)

	// other users have their own budget
	allowed, _, err = l.CheckAndIncrement(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_ResetClearsBudget(t *testing.T) {
	ctx := context.Background()
	l := NewRateLimiter(cache.NewMemory(ctx, time.Hour), "verify", 30*time.Minute, 2)

	_, _, _ = l.CheckAndIncrement(ctx, "u1")
	_, _, _ = l.CheckAndIncrement(ctx, "u1")
	allowed, _, _ := l.CheckAndIncrement(ctx, "u1")
	assert.False(t, allowed)

	require.NoError(t, l.Reset(ctx, "u1"))
	allowed, count, err := l.CheckAndIncrement(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, count)
}

func TestRateLimiter_WindowExpiresOnRedis(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	counter := &cache.Redis{Client: redis.NewClient(&redis.Options{Addr: s.Addr()})}
	l := NewRateLimiter(counter, "verify", 30*time.Minute, 1)

	allowed, _, err := l.CheckAndIncrement(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.True(t, s.Exists("verify:u1"))

	allowed, _, _ = l.CheckAndIncrement(ctx, "u1")
	assert.False(t, allowed)

	s.FastForward(31 * time.Minute)
	allowed, _, err = l.CheckAndIncrement(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_CounterError(t *testing.T) {
	l := NewRateLimiter(failingCounter{}, "verify", time.Minute, 5)
	allowed, _, err := l.CheckAndIncrement(context.Background(), "u1")
	assert.Error(t, err)
	assert.False(t, allowed)
}
