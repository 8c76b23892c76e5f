package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
)

func setupTestRedis(t *testing.T) (*RedisStatsCache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	c := &RedisStatsCache{
		Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		TTL:   DefaultTTL,
	}
	t.Cleanup(func() {
		c.Close()
		mr.Close()
	})
	return c, mr
}

func TestRedisStatsCache_SetGet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	want := &model.HomeStats{TotalMailings: 5, ActiveMailings: 2, UniqueClients: 11}
	require.NoError(t, c.Set(ctx, want))

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, 15*time.Minute, mr.TTL(HomeStatsKey))
}

func TestRedisStatsCache_Expires(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &model.HomeStats{TotalMailings: 1}))
	mr.FastForward(16 * time.Minute)

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStatsCache_Invalidate(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &model.HomeStats{TotalMailings: 1}))
	require.NoError(t, c.Invalidate(ctx))
	assert.False(t, mr.Exists(HomeStatsKey))
}

func TestRedisStatsCache_CorruptValue(t *testing.T) {
	c, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(HomeStatsKey, "not json"))

	_, ok, err := c.Get(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestMemoryStatsCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryStatsCache(time.Minute)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, &model.HomeStats{UniqueClients: 3}))
	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, got.UniqueClients)

	now = now.Add(time.Minute)
	_, ok, _ = c.Get(ctx)
	assert.False(t, ok, "entry must expire after ttl")

	require.NoError(t, c.Set(ctx, &model.HomeStats{UniqueClients: 4}))
	require.NoError(t, c.Invalidate(ctx))
	_, ok, _ = c.Get(ctx)
	assert.False(t, ok)
}
