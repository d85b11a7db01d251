package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/eventguard/internal/domain"
)

func calendarFrom(t *testing.T, rows ...string) *ManualCalendar {
	t.Helper()
	input := "symbol,event_type,event_date,note\n" + strings.Join(rows, "\n")
	cal, err := parseManualCalendar(strings.NewReader(input), "test")
	require.NoError(t, err)
	return cal
}

func TestMerger_DedupsWithinTolerance(t *testing.T) {
	// Feed says earnings 2026-09-03; calendar says 2026-09-04. Within the
	// one-day tolerance these are the same event, and the scheduled date wins.
	earnings := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	feed := &stubFeed{dates: FeedDates{NextEarnings: &earnings}}
	cal := calendarFrom(t, "AAPL,earnings,2026-09-04,curated earnings date")

	merger := NewMerger(NewFeedClient(feed, fastFeedConfig(), nil), cal)
	cat := merger.EventsFor(context.Background(), "AAPL", asOf)

	require.Len(t, cat.Events, 1)
	assert.Equal(t, domain.SourceScheduled, cat.Events[0].Source)
	assert.Equal(t, earnings, cat.Events[0].Date)
	assert.False(t, cat.Degraded)
}

func TestMerger_KeepsDistinctEventsOutsideTolerance(t *testing.T) {
	earnings := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	feed := &stubFeed{dates: FeedDates{NextEarnings: &earnings}}
	cal := calendarFrom(t, "AAPL,earnings,2026-09-08,separate curated date")

	merger := NewMerger(NewFeedClient(feed, fastFeedConfig(), nil), cal)
	cat := merger.EventsFor(context.Background(), "AAPL", asOf)

	require.Len(t, cat.Events, 2)
	assert.Equal(t, domain.SourceScheduled, cat.Events[0].Source)
	assert.Equal(t, domain.SourceManual, cat.Events[1].Source)
}

func TestMerger_DifferentTypesNeverMerge(t *testing.T) {
	dividend := time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)
	feed := &stubFeed{dates: FeedDates{NextDividendEx: &dividend}}
	cal := calendarFrom(t, "AAPL,regulatory_disclosure,2026-09-04,same day different type")

	merger := NewMerger(NewFeedClient(feed, fastFeedConfig(), nil), cal)
	cat := merger.EventsFor(context.Background(), "AAPL", asOf)
	assert.Len(t, cat.Events, 2)
}

func TestMerger_FeedFailureFallsBackToManual(t *testing.T) {
	feed := &stubFeed{failFirst: 10}
	cal := calendarFrom(t, "AAPL,regulatory_disclosure,2026-09-05,curated disclosure")

	merger := NewMerger(NewFeedClient(feed, fastFeedConfig(), nil), cal)
	cat := merger.EventsFor(context.Background(), "AAPL", asOf)

	// Degraded, but the manual event still drives a guard decision.
	assert.True(t, cat.Degraded)
	require.Len(t, cat.Events, 1)
	assert.Equal(t, domain.SourceManual, cat.Events[0].Source)
}

func TestMerger_UnknownSymbolIsNotDegraded(t *testing.T) {
	feed := &stubFeed{err: ErrUnknownSymbol}
	cal := calendarFrom(t, "AAPL,earnings,2026-09-03,curated")

	merger := NewMerger(NewFeedClient(feed, fastFeedConfig(), nil), cal)
	cat := merger.EventsFor(context.Background(), "AAPL", asOf)

	assert.False(t, cat.Degraded, "a feed that has no data is not a failed feed")
	assert.Len(t, cat.Events, 1)
}

func TestMerger_EventsSortedByDate(t *testing.T) {
	earnings := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	dividend := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	feed := &stubFeed{dates: FeedDates{NextEarnings: &earnings, NextDividendEx: &dividend}}
	cal := calendarFrom(t, "AAPL,regulatory_disclosure,2026-09-05,curated")

	merger := NewMerger(NewFeedClient(feed, fastFeedConfig(), nil), cal)
	cat := merger.EventsFor(context.Background(), "AAPL", asOf)

	require.Len(t, cat.Events, 3)
	for i := 1; i < len(cat.Events); i++ {
		assert.False(t, cat.Events[i].Date.Before(cat.Events[i-1].Date))
	}
}
