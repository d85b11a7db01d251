package datasources

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/eventguard/internal/catalog"
)

var asOf = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFileFeed(t *testing.T) {
	path := writeTemp(t, "feed.csv",
		"symbol,next_earnings,next_dividend_ex\n"+
			"AAPL,2026-09-03,2026-09-04\n"+
			"MSFT,,2026-09-10\n"+
			"BAD,not-a-date,\n")

	feed, err := LoadFileFeed(path)
	require.NoError(t, err)

	dates, err := feed.UpcomingDates(context.Background(), "aapl", asOf)
	require.NoError(t, err)
	require.NotNil(t, dates.NextEarnings)
	require.NotNil(t, dates.NextDividendEx)
	assert.Equal(t, time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC), *dates.NextEarnings)

	dates, err = feed.UpcomingDates(context.Background(), "MSFT", asOf)
	require.NoError(t, err)
	assert.Nil(t, dates.NextEarnings)
	require.NotNil(t, dates.NextDividendEx)

	// Malformed row was skipped entirely; the symbol is unknown.
	_, err = feed.UpcomingDates(context.Background(), "BAD", asOf)
	assert.ErrorIs(t, err, catalog.ErrUnknownSymbol)

	_, err = feed.UpcomingDates(context.Background(), "ZZZZ", asOf)
	assert.ErrorIs(t, err, catalog.ErrUnknownSymbol)
}

func TestFileSentiment_WindowFiltering(t *testing.T) {
	path := writeTemp(t, "sentiment.csv",
		"symbol,published_at,score,exposure\n"+
			"AAPL,2026-08-30T12:00:00Z,-0.6,2\n"+
			"AAPL,2026-08-25T12:00:00Z,0.9,1\n"+ // outside 72h window
			"AAPL,bad-time,0.5,1\n")

	provider, err := LoadFileSentiment(path)
	require.NoError(t, err)

	from := asOf.Add(-72 * time.Hour)
	items, err := provider.Items(context.Background(), "AAPL", from, asOf)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.InDelta(t, -0.6, items[0].Score, 1e-9)
	assert.InDelta(t, 2.0, items[0].Exposure, 1e-9)
}

func TestFilePrices_TrailingWindow(t *testing.T) {
	content := "symbol,date,daily_return\n"
	// Deliberately out of order; loader must sort by date.
	content += "AAPL,2026-08-28,0.03\n"
	content += "AAPL,2026-08-26,0.01\n"
	content += "AAPL,2026-08-27,0.02\n"
	content += "AAPL,2026-09-01,0.99\n" // after as-of, excluded
	path := writeTemp(t, "returns.csv", content)

	prices, err := LoadFilePrices(path)
	require.NoError(t, err)

	returns, err := prices.DailyReturns(context.Background(), "AAPL", asOf, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.02, 0.03}, returns)

	_, err = prices.DailyReturns(context.Background(), "ZZZZ", asOf, 5)
	assert.Error(t, err)
}
