package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/eventguard/internal/domain"
)

// mergeToleranceDays collapses two same-type events this close into one.
const mergeToleranceDays = 1

// Catalog is the merged per-symbol event result for one cycle.
type Catalog struct {
	Symbol   string
	Events   []domain.Event
	Degraded bool // feed unavailable, manual-only data
}

// Merger unifies the programmatic feed and the curated calendar into one
// deduplicated event list per symbol. Pure with respect to its two sources:
// the same feed answer and calendar always produce the same catalog.
type Merger struct {
	feed     *FeedClient
	calendar *ManualCalendar
}

// NewMerger builds a merger over the cycle's two event sources.
func NewMerger(feed *FeedClient, calendar *ManualCalendar) *Merger {
	return &Merger{feed: feed, calendar: calendar}
}

// EventsFor returns every known event for a symbol as of the given date,
// merged across sources. A feed failure degrades to manual-only rather than
// failing: a known manual event with no feed data still needs a guard
// decision, and a conservative one beats a silent skip.
func (m *Merger) EventsFor(ctx context.Context, symbol string, asOf time.Time) Catalog {
	symbol = strings.ToUpper(symbol)
	manual := m.calendar.EventsFor(symbol)

	dates, err := m.feed.UpcomingDates(ctx, symbol, asOf)
	if err != nil {
		if errors.Is(err, ErrUnknownSymbol) {
			// The feed genuinely has nothing for this symbol. Not degraded.
			return Catalog{Symbol: symbol, Events: sortedCopy(manual)}
		}
		log.Warn().Str("symbol", symbol).Err(err).
			Msg("market-data feed unavailable, using manual calendar only")
		return Catalog{Symbol: symbol, Events: sortedCopy(manual), Degraded: true}
	}

	scheduled := eventsFromFeed(symbol, dates)
	return Catalog{Symbol: symbol, Events: mergeEvents(scheduled, manual)}
}

// mergeEvents deduplicates events across sources. Two events of the same
// type within mergeToleranceDays are one event, keeping the Scheduled date
// (the feed is authoritative on exact timing); otherwise both are retained
// as distinct events.
func mergeEvents(scheduled, manual []domain.Event) []domain.Event {
	merged := sortedCopy(scheduled)

	for _, mv := range manual {
		if matchesScheduled(mv, merged) {
			continue
		}
		merged = append(merged, mv)
	}

	sortEvents(merged)
	return merged
}

func matchesScheduled(ev domain.Event, merged []domain.Event) bool {
	for _, sv := range merged {
		if sv.Source != domain.SourceScheduled || sv.Type != ev.Type {
			continue
		}
		if abs(domain.DaysBetween(sv.Date, ev.Date)) <= mergeToleranceDays {
			return true
		}
	}
	return false
}

func sortedCopy(events []domain.Event) []domain.Event {
	out := make([]domain.Event, len(events))
	copy(out, events)
	sortEvents(out)
	return out
}

func sortEvents(events []domain.Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].Type < events[j].Type
	})
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
