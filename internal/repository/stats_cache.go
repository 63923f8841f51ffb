package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stayhub/booking-api/internal/domain"
)

const repStatsKey = "support:rep_stats"

// RepStatsCache caches the aggregated rep statistics. Only the aggregate is
// cached; individual tickets are always read from the database.
type RepStatsCache interface {
	Get(ctx context.Context) ([]domain.RepStatistic, bool)
	Set(ctx context.Context, stats []domain.RepStatistic)
}

type repStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRepStatsCache returns a Redis-backed cache with the given TTL.
func NewRepStatsCache(client *redis.Client, ttl time.Duration) RepStatsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &repStatsCache{client: client, ttl: ttl}
}

func (c *repStatsCache) Get(ctx context.Context) ([]domain.RepStatistic, bool) {
	if c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, repStatsKey).Bytes()
	if err != nil {
		return nil, false
	}
	var stats []domain.RepStatistic
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false
	}
	return stats, true
}

func (c *repStatsCache) Set(ctx context.Context, stats []domain.RepStatistic) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, repStatsKey, raw, c.ttl).Err()
}
