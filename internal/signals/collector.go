package signals

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/eventguard/internal/domain"
)

// CollectorConfig fixes the lookback windows for all per-symbol signals.
type CollectorConfig struct {
	SentimentWindowHours int                 `yaml:"sentiment_window_hours" validate:"gt=0"` // 72h trailing
	SentimentAggregation AggregationStrategy `yaml:"sentiment_aggregation"  validate:"oneof=mean weighted"`
	VolShortDays         int                 `yaml:"vol_short_days"         validate:"gt=1"` // recent realized window
	VolBaselineDays      int                 `yaml:"vol_baseline_days"      validate:"gt=1"` // trailing baseline window
	BetaWindowDays       int                 `yaml:"beta_window_days"       validate:"gt=1"`
	BenchmarkSymbol      string              `yaml:"benchmark_symbol"       validate:"required"`
}

// DefaultCollectorConfig returns the standard signal windows.
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		SentimentWindowHours: 72,
		SentimentAggregation: AggregateMean,
		VolShortDays:         7,
		VolBaselineDays:      60,
		BetaWindowDays:       60,
		BenchmarkSymbol:      "SPY",
	}
}

// Collector computes one SignalSnapshot per symbol per cycle, deterministic
// for a given as-of date and input data. Signals that cannot be computed are
// marked unavailable, never defaulted.
type Collector struct {
	config    CollectorConfig
	sentiment SentimentProvider
	prices    PriceHistory
}

// NewCollector wires the signal data sources.
func NewCollector(config CollectorConfig, sentiment SentimentProvider, prices PriceHistory) *Collector {
	return &Collector{config: config, sentiment: sentiment, prices: prices}
}

// Snapshot computes the symbol's signals for the as-of date. Individual
// signal failures degrade that signal only; the snapshot itself always comes
// back. The returned reasons list names each unavailable input.
func (c *Collector) Snapshot(ctx context.Context, symbol string, asOf time.Time) (domain.SignalSnapshot, []string) {
	snap := domain.SignalSnapshot{
		Symbol:               symbol,
		AsOf:                 asOf,
		SentimentWindowHours: c.config.SentimentWindowHours,
		RealizedVolatility:   domain.Unavailable(),
		BaselineVolatility:   domain.Unavailable(),
		VolatilityRatio:      domain.Unavailable(),
		RollingBeta:          domain.Unavailable(),
	}
	var reasons []string

	from := asOf.Add(-time.Duration(c.config.SentimentWindowHours) * time.Hour)
	items, err := c.sentiment.Items(ctx, symbol, from, asOf)
	if err != nil {
		log.Warn().Str("symbol", symbol).Err(err).Msg("sentiment provider failed")
		snap.SentimentNoData = true
		reasons = append(reasons, "sentiment:provider_error")
	} else {
		agg := AggregateSentiment(items, c.config.SentimentAggregation)
		snap.SentimentScore = agg.Score
		snap.SentimentNoData = agg.NoData
		if agg.NoData {
			reasons = append(reasons, "sentiment:no_data")
		}
	}

	baseline, err := c.prices.DailyReturns(ctx, symbol, asOf, c.config.VolBaselineDays)
	if err != nil {
		log.Warn().Str("symbol", symbol).Err(err).Msg("price history unavailable")
		reasons = append(reasons, "volatility:history_error", "beta:history_error")
		return snap, reasons
	}

	// The baseline must extend beyond the short window: when it doesn't,
	// short and baseline would be the same series and the ratio would read
	// as a measured 1.0 for a thinly-listed symbol.
	if len(baseline) > c.config.VolShortDays {
		short := baseline[len(baseline)-c.config.VolShortDays:]
		snap.RealizedVolatility, snap.BaselineVolatility, snap.VolatilityRatio = volatilityRatio(short, baseline)
	}
	if !snap.VolatilityRatio.Valid {
		reasons = append(reasons, "volatility:insufficient_history")
	}

	snap.RollingBeta = c.betaFor(ctx, symbol, asOf, baseline)
	if !snap.RollingBeta.Valid {
		reasons = append(reasons, "beta:unavailable")
	}

	return snap, reasons
}

func (c *Collector) betaFor(ctx context.Context, symbol string, asOf time.Time, symbolReturns []float64) domain.OptFloat {
	bench, err := c.prices.DailyReturns(ctx, c.config.BenchmarkSymbol, asOf, c.config.BetaWindowDays)
	if err != nil {
		log.Warn().Str("symbol", symbol).Str("benchmark", c.config.BenchmarkSymbol).
			Err(err).Msg("benchmark history unavailable")
		return domain.Unavailable()
	}

	window := symbolReturns
	if len(window) > c.config.BetaWindowDays {
		window = window[len(window)-c.config.BetaWindowDays:]
	}
	if len(bench) > len(window) {
		bench = bench[len(bench)-len(window):]
	} else if len(window) > len(bench) {
		window = window[len(window)-len(bench):]
	}
	return rollingBeta(window, bench)
}
