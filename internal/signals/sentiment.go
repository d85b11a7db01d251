package signals

import (
	"context"
	"fmt"
	"time"
)

// SentimentItem is one scored document or headline from the sentiment
// provider. The Guard aggregates these; it never computes sentiment itself.
type SentimentItem struct {
	Symbol      string
	PublishedAt time.Time
	Score       float64 // [-1, 1]
	Exposure    float64 // relative reach/weight of the item, >= 0
}

// SentimentProvider returns scored items for a symbol inside a window.
type SentimentProvider interface {
	Items(ctx context.Context, symbol string, from, to time.Time) ([]SentimentItem, error)
}

// SentimentAggregate is the windowed sentiment result. NoData distinguishes
// "nothing published in the window" from a measured neutral score.
type SentimentAggregate struct {
	Score  float64
	NoData bool
	Items  int
}

// AggregationStrategy selects how windowed items collapse to one score.
type AggregationStrategy string

const (
	AggregateMean     AggregationStrategy = "mean"
	AggregateWeighted AggregationStrategy = "weighted" // exposure-weighted mean
)

// ParseAggregationStrategy validates a configured strategy name.
func ParseAggregationStrategy(s string) (AggregationStrategy, error) {
	switch AggregationStrategy(s) {
	case AggregateMean, AggregateWeighted:
		return AggregationStrategy(s), nil
	}
	return "", fmt.Errorf("unknown sentiment aggregation %q", s)
}

// AggregateSentiment collapses the window's items with the chosen strategy.
// An empty window yields score 0 with NoData set.
func AggregateSentiment(items []SentimentItem, strategy AggregationStrategy) SentimentAggregate {
	if len(items) == 0 {
		return SentimentAggregate{NoData: true}
	}

	switch strategy {
	case AggregateWeighted:
		var sum, weight float64
		for _, it := range items {
			w := it.Exposure
			if w <= 0 {
				w = 1 // unweighted items still count
			}
			sum += clampScore(it.Score) * w
			weight += w
		}
		return SentimentAggregate{Score: sum / weight, Items: len(items)}
	default:
		var sum float64
		for _, it := range items {
			sum += clampScore(it.Score)
		}
		return SentimentAggregate{Score: sum / float64(len(items)), Items: len(items)}
	}
}

func clampScore(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
