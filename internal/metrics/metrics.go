package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle-level counters and timings for the guard. Registered once on the
// default registry; the batch binary pushes or textfile-exports them via
// whatever node plumbing the deployment uses.
var (
	SymbolsAssessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventguard",
		Name:      "symbols_assessed_total",
		Help:      "Symbols with a completed risk assessment.",
	})

	DegradedAssessments = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventguard",
		Name:      "degraded_assessments_total",
		Help:      "Assessments computed with one or more inputs unavailable.",
	})

	FeedFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventguard",
		Name:      "feed_failures_total",
		Help:      "Market-data feed calls that exhausted their retry budget.",
	})

	CalendarRowsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eventguard",
		Name:      "calendar_rows_skipped_total",
		Help:      "Malformed manual calendar rows dropped at load.",
	})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "eventguard",
		Name:      "cycle_duration_seconds",
		Help:      "Wall time of one full guard cycle.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	LastCycleTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "eventguard",
		Name:      "last_cycle_timestamp_seconds",
		Help:      "Unix time of the last completed cycle.",
	})
)
