package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
)

// RedisStatsCache keeps HomeStats as JSON in Redis so every server and
// worker process shares one copy.
type RedisStatsCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

// NewRedisStatsCache connects to redisURL and verifies the connection.
func NewRedisStatsCache(redisURL string, ttl time.Duration) (*RedisStatsCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed connecting to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStatsCache{Redis: client, TTL: ttl}, nil
}

func (c *RedisStatsCache) Get(ctx context.Context) (*model.HomeStats, bool, error) {
	raw, err := c.Redis.Get(ctx, HomeStatsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", HomeStatsKey, err)
	}

	var stats model.HomeStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", HomeStatsKey, err)
	}
	return &stats, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, stats *model.HomeStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode %s: %w", HomeStatsKey, err)
	}
	return c.Redis.Set(ctx, HomeStatsKey, raw, c.TTL).Err()
}

func (c *RedisStatsCache) Invalidate(ctx context.Context) error {
	return c.Redis.Del(ctx, HomeStatsKey).Err()
}

func (c *RedisStatsCache) Close() error {
	return c.Redis.Close()
}
