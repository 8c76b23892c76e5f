// Package cache holds the home-page counters between recomputations.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/SarasonAndrey/Project4-Mailing-List-management--Service/internal/model"
)

// HomeStatsKey is the single cache key for the landing-page counters.
const HomeStatsKey = "home_stats_general"

const DefaultTTL = 15 * time.Minute

// StatsCache stores HomeStats under HomeStatsKey for a fixed TTL. Writers that
// change mailing or client counts call Invalidate.
type StatsCache interface {
	Get(ctx context.Context) (*model.HomeStats, bool, error)
	Set(ctx context.Context, stats *model.HomeStats) error
	Invalidate(ctx context.Context) error
}

// MemoryStatsCache is a process-local StatsCache used when Redis is not
// configured.
type MemoryStatsCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	stats   *model.HomeStats
	expires time.Time
}

func NewMemoryStatsCache(ttl time.Duration) *MemoryStatsCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStatsCache{ttl: ttl, now: time.Now}
}

func (c *MemoryStatsCache) Get(_ context.Context) (*model.HomeStats, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stats == nil || !c.now().Before(c.expires) {
		c.stats = nil
		return nil, false, nil
	}
	out := *c.stats
	return &out, true, nil
}

func (c *MemoryStatsCache) Set(_ context.Context, stats *model.HomeStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cp := *stats
	c.stats = &cp
	c.expires = c.now().Add(c.ttl)
	return nil
}

func (c *MemoryStatsCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = nil
	return nil
}

var (
	_ StatsCache = (*MemoryStatsCache)(nil)
	_ StatsCache = (*RedisStatsCache)(nil)
)
