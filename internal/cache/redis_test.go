package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestJSONRoundTripAndExpiry(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	type snapshot struct {
		Balance string `json:"balance"`
	}

	require.NoError(t, c.SetJSON(ctx, DashboardKey("a"), snapshot{Balance: "10.50"}, DashboardTTL))

	var got snapshot
	require.NoError(t, c.GetJSON(ctx, DashboardKey("a"), &got))
	assert.Equal(t, "10.50", got.Balance)

	mr.FastForward(DashboardTTL + time.Second)
	err := c.GetJSON(ctx, DashboardKey("a"), &got)
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestDeleteAccountKeys(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	for _, key := range AccountKeys("a") {
		require.NoError(t, c.SetJSON(ctx, key, 1, time.Minute))
	}
	require.NoError(t, c.Delete(ctx, AccountKeys("a")...))

	for _, key := range AccountKeys("a") {
		exists, err := c.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists)
	}

	assert.NoError(t, c.Delete(ctx))
}
