package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// FeedCache is a read-through Redis cache in front of the market-data feed.
// Feed answers change at most daily, so a short TTL keeps repeated cycles
// (and retried cycles) from burning the feed's rate budget. Cache failures
// are logged and ignored: the cache can only ever make a cycle cheaper,
// never change its answer.
type FeedCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewFeedCache wraps a Redis client with the given TTL.
func NewFeedCache(client redis.Cmdable, ttl time.Duration) *FeedCache {
	return &FeedCache{client: client, ttl: ttl}
}

func feedCacheKey(symbol string, asOf time.Time) string {
	return fmt.Sprintf("eventguard:feed:%s:%s", symbol, asOf.Format("2006-01-02"))
}

// Get returns a cached feed answer, or ok=false on miss or cache error.
func (c *FeedCache) Get(ctx context.Context, symbol string, asOf time.Time) (FeedDates, bool) {
	raw, err := c.client.Get(ctx, feedCacheKey(symbol, asOf)).Result()
	if err == redis.Nil {
		return FeedDates{}, false
	}
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("feed cache read failed")
		return FeedDates{}, false
	}

	var dates FeedDates
	if err := json.Unmarshal([]byte(raw), &dates); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("feed cache entry corrupt")
		return FeedDates{}, false
	}
	return dates, true
}

// Put stores a feed answer. Errors are logged, not propagated.
func (c *FeedCache) Put(ctx context.Context, symbol string, asOf time.Time, dates FeedDates) {
	raw, err := json.Marshal(dates)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, feedCacheKey(symbol, asOf), raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("feed cache write failed")
	}
}
