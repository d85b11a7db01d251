package catalog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedCache_MissThenHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewFeedCache(db, time.Hour)
	ctx := context.Background()

	key := feedCacheKey("AAPL", asOf)
	earnings := asOf.AddDate(0, 0, 5)
	dates := FeedDates{NextEarnings: &earnings}
	raw, err := json.Marshal(dates)
	require.NoError(t, err)

	mock.ExpectGet(key).RedisNil()
	_, ok := cache.Get(ctx, "AAPL", asOf)
	assert.False(t, ok)

	mock.ExpectSet(key, raw, time.Hour).SetVal("OK")
	cache.Put(ctx, "AAPL", asOf, dates)

	mock.ExpectGet(key).SetVal(string(raw))
	got, ok := cache.Get(ctx, "AAPL", asOf)
	require.True(t, ok)
	require.NotNil(t, got.NextEarnings)
	assert.True(t, got.NextEarnings.Equal(earnings))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedCache_CorruptEntryIsAMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewFeedCache(db, time.Hour)

	mock.ExpectGet(feedCacheKey("AAPL", asOf)).SetVal("{not json")
	_, ok := cache.Get(context.Background(), "AAPL", asOf)
	assert.False(t, ok)
}

func TestFeedClient_UsesCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewFeedCache(db, time.Hour)

	earnings := asOf.AddDate(0, 0, 5)
	raw, err := json.Marshal(FeedDates{NextEarnings: &earnings})
	require.NoError(t, err)
	mock.ExpectGet(feedCacheKey("AAPL", asOf)).SetVal(string(raw))

	// The underlying feed would fail every call; a cache hit must bypass it.
	feed := &stubFeed{failFirst: 10}
	client := NewFeedClient(feed, fastFeedConfig(), cache)

	dates, err := client.UpcomingDates(context.Background(), "AAPL", asOf)
	require.NoError(t, err)
	require.NotNil(t, dates.NextEarnings)
	assert.Zero(t, feed.calls)
}
