package pipeline

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/eventguard/internal/catalog"
	"github.com/sawpanic/eventguard/internal/domain"
	"github.com/sawpanic/eventguard/internal/metrics"
	"github.com/sawpanic/eventguard/internal/policy"
	"github.com/sawpanic/eventguard/internal/score"
	"github.com/sawpanic/eventguard/internal/signals"
)

// Guard runs one batch cycle: symbol universe + as-of date in, one
// RiskAssessment per symbol out. No in-process state survives a cycle, so
// the computation is restartable wholesale.
type Guard struct {
	merger     *catalog.Merger
	collector  *signals.Collector
	scorer     *score.Scorer
	translator *policy.Translator
	maxWorkers int
}

// NewGuard wires the cycle stages.
func NewGuard(merger *catalog.Merger, collector *signals.Collector, scorer *score.Scorer,
	translator *policy.Translator, maxWorkers int) *Guard {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &Guard{
		merger:     merger,
		collector:  collector,
		scorer:     scorer,
		translator: translator,
		maxWorkers: maxWorkers,
	}
}

// RunCycle assesses the full universe for the as-of date. Symbols are
// independent, so they run on a bounded worker pool; each worker emits an
// immutable assessment merged afterward. A single symbol's data failure
// degrades that symbol only. Output is sorted by symbol for stable
// artifacts and cycle idempotence.
func (g *Guard) RunCycle(ctx context.Context, universe []string, asOf time.Time) []domain.RiskAssessment {
	start := time.Now()
	symbols := dedupeSymbols(universe)

	log.Info().Int("symbols", len(symbols)).Time("as_of", asOf).Msg("guard cycle start")

	results := make([]domain.RiskAssessment, len(symbols))
	var wg sync.WaitGroup
	sem := make(chan struct{}, g.maxWorkers)

	for i, symbol := range symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = g.assessSymbol(ctx, symbol, asOf)
		}(i, symbol)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Symbol < results[j].Symbol })

	degraded := 0
	for _, ra := range results {
		metrics.SymbolsAssessed.Inc()
		if ra.Degraded {
			metrics.DegradedAssessments.Inc()
			degraded++
		}
	}
	metrics.CycleDuration.Observe(time.Since(start).Seconds())
	metrics.LastCycleTimestamp.SetToCurrentTime()

	log.Info().Int("symbols", len(results)).Int("degraded", degraded).
		Dur("elapsed", time.Since(start)).Msg("guard cycle complete")
	return results
}

// assessSymbol runs the full stage chain for one symbol.
func (g *Guard) assessSymbol(ctx context.Context, symbol string, asOf time.Time) domain.RiskAssessment {
	cat := g.merger.EventsFor(ctx, symbol, asOf)
	if cat.Degraded {
		metrics.FeedFailures.Inc()
	}

	snap, signalReasons := g.collector.Snapshot(ctx, symbol, asOf)
	scored := g.scorer.Score(cat.Events, snap)
	decision := g.translator.Translate(cat.Events, asOf)

	ra := domain.RiskAssessment{
		Symbol:          symbol,
		AsOf:            asOf,
		NearestEvent:    scored.NearestEvent,
		DaysToEvent:     scored.DaysToEvent,
		RiskScore:       scored.Score,
		Tier:            scored.Tier,
		HaircutFraction: scored.Haircut,
		SkipTrading:     decision.SkipTrading,
		SitOutStart:     decision.SitOutStart,
		SitOutEnd:       decision.SitOutEnd,
		Snapshot:        snap,
		Events:          cat.Events,
	}

	if cat.Degraded {
		ra.DegradedReason = append(ra.DegradedReason, "feed:unavailable")
	}
	ra.DegradedReason = append(ra.DegradedReason, signalReasons...)
	ra.Degraded = len(ra.DegradedReason) > 0

	return ra
}

func dedupeSymbols(universe []string) []string {
	seen := make(map[string]struct{}, len(universe))
	out := make([]string, 0, len(universe))
	for _, s := range universe {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}
