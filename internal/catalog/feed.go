package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/sawpanic/eventguard/internal/domain"
)

// ErrUnknownSymbol is returned by a feed that has no data for a symbol.
// Distinct from transport failure: the merger treats it as "no scheduled
// events", not as a degraded fetch.
var ErrUnknownSymbol = errors.New("symbol unknown to market-data feed")

// ErrDataUnavailable wraps transport-level failures after the retry budget
// is exhausted. The merger falls back to manual-only events.
var ErrDataUnavailable = errors.New("market data unavailable")

// FeedDates is the raw answer from the market-data feed for one symbol.
// Either date may be nil when the feed has no upcoming event on record.
type FeedDates struct {
	NextEarnings   *time.Time
	NextDividendEx *time.Time
}

// MarketDataFeed is the programmatic source of earnings and dividend
// ex-dates. Implementations should honor the context deadline.
type MarketDataFeed interface {
	UpcomingDates(ctx context.Context, symbol string, asOf time.Time) (FeedDates, error)
}

// FeedClientConfig bounds the feed wrapper's external calls.
type FeedClientConfig struct {
	Timeout    time.Duration `yaml:"timeout"`     // per-call bound
	MaxRetries int           `yaml:"max_retries"` // attempts beyond the first
	RetryDelay time.Duration `yaml:"retry_delay"`
	RPS        float64       `yaml:"rps"`   // token-bucket refill rate
	Burst      int           `yaml:"burst"` // token-bucket capacity
}

// DefaultFeedClientConfig returns the standard feed call bounds.
func DefaultFeedClientConfig() FeedClientConfig {
	return FeedClientConfig{
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		RetryDelay: 250 * time.Millisecond,
		RPS:        4.0,
		Burst:      8,
	}
}

// FeedClient wraps a MarketDataFeed with a per-call timeout, a small fixed
// retry budget, token-bucket rate limiting, and a circuit breaker. A single
// symbol's feed failure must never block the rest of the batch, so every
// failure mode collapses into ErrDataUnavailable for the caller to degrade on.
type FeedClient struct {
	feed    MarketDataFeed
	config  FeedClientConfig
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	cache   *FeedCache // optional read-through cache
}

// NewFeedClient wraps feed with the configured call bounds. cache may be nil.
func NewFeedClient(feed MarketDataFeed, config FeedClientConfig, cache *FeedCache) *FeedClient {
	settings := gobreaker.Settings{Name: "market-data-feed"}
	settings.Interval = 60 * time.Second
	settings.Timeout = 30 * time.Second
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 5
	}
	// An unknown symbol is a valid feed answer, not a transport failure: a
	// run of uncovered symbols must never open the breaker for the rest of
	// the batch.
	settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrUnknownSymbol)
	}

	return &FeedClient{
		feed:    feed,
		config:  config,
		limiter: rate.NewLimiter(rate.Limit(config.RPS), config.Burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
		cache:   cache,
	}
}

// UpcomingDates fetches the feed dates for a symbol within the configured
// bounds. ErrUnknownSymbol passes through untouched; everything else becomes
// ErrDataUnavailable once retries are spent.
func (fc *FeedClient) UpcomingDates(ctx context.Context, symbol string, asOf time.Time) (FeedDates, error) {
	if fc.cache != nil {
		if dates, ok := fc.cache.Get(ctx, symbol, asOf); ok {
			return dates, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt <= fc.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return FeedDates{}, fmt.Errorf("%w: %v", ErrDataUnavailable, ctx.Err())
			case <-time.After(fc.config.RetryDelay):
			}
		}
		if err := fc.limiter.Wait(ctx); err != nil {
			return FeedDates{}, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
		}

		dates, err := fc.fetchOnce(ctx, symbol, asOf)
		if err == nil {
			if fc.cache != nil {
				fc.cache.Put(ctx, symbol, asOf, dates)
			}
			return dates, nil
		}
		if errors.Is(err, ErrUnknownSymbol) {
			return FeedDates{}, err
		}
		lastErr = err
	}
	return FeedDates{}, fmt.Errorf("%w: %v", ErrDataUnavailable, lastErr)
}

func (fc *FeedClient) fetchOnce(ctx context.Context, symbol string, asOf time.Time) (FeedDates, error) {
	callCtx, cancel := context.WithTimeout(ctx, fc.config.Timeout)
	defer cancel()

	out, err := fc.breaker.Execute(func() (any, error) {
		return fc.feed.UpcomingDates(callCtx, symbol, asOf)
	})
	if err != nil {
		return FeedDates{}, err
	}
	return out.(FeedDates), nil
}

// scheduledConfidence is assigned to feed-sourced events.
const scheduledConfidence = 0.95

// eventsFromFeed expands a feed answer into typed events.
func eventsFromFeed(symbol string, dates FeedDates) []domain.Event {
	var events []domain.Event
	if dates.NextEarnings != nil {
		events = append(events, scheduledEvent(symbol, domain.EventEarnings, *dates.NextEarnings))
	}
	if dates.NextDividendEx != nil {
		events = append(events, scheduledEvent(symbol, domain.EventDividendExDate, *dates.NextDividendEx))
	}
	return events
}

func scheduledEvent(symbol string, etype domain.EventType, date time.Time) domain.Event {
	return domain.Event{
		ID:         domain.EventID(symbol, etype, domain.Day(date)),
		Symbol:     symbol,
		Type:       etype,
		Date:       domain.Day(date),
		Source:     domain.SourceScheduled,
		Confidence: scheduledConfidence,
	}
}
