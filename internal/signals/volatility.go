package signals

import (
	"context"
	"math"
	"time"

	"github.com/sawpanic/eventguard/internal/domain"
)

// PriceHistory serves daily return series for symbols and the benchmark
// index, most-recent-last, up to and including the as-of date.
type PriceHistory interface {
	DailyReturns(ctx context.Context, symbol string, asOf time.Time, days int) ([]float64, error)
}

// realizedVol is the sample standard deviation of the trailing returns,
// annualization left to the consumer (the scorer only uses the ratio).
func realizedVol(returns []float64) (float64, bool) {
	if len(returns) < 2 {
		return 0, false
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var ss float64
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(returns)-1)), true
}

// volatilityRatio compares a short realized window to a trailing baseline.
// Both series must have enough observations; otherwise everything is
// reported unavailable so the scorer can renormalize instead of reading a
// misleading default.
func volatilityRatio(short, baseline []float64) (realized, base, ratio domain.OptFloat) {
	r, ok := realizedVol(short)
	if !ok {
		return domain.Unavailable(), domain.Unavailable(), domain.Unavailable()
	}
	b, ok := realizedVol(baseline)
	if !ok || b == 0 {
		return domain.Float(r), domain.Unavailable(), domain.Unavailable()
	}
	return domain.Float(r), domain.Float(b), domain.Float(r / b)
}

// rollingBeta regresses symbol returns on benchmark returns over the
// window. Requires equal-length series with at least two points and nonzero
// benchmark variance.
func rollingBeta(symbol, benchmark []float64) domain.OptFloat {
	n := len(symbol)
	if n < 2 || len(benchmark) != n {
		return domain.Unavailable()
	}

	var sumS, sumB float64
	for i := 0; i < n; i++ {
		sumS += symbol[i]
		sumB += benchmark[i]
	}
	meanS := sumS / float64(n)
	meanB := sumB / float64(n)

	var cov, varB float64
	for i := 0; i < n; i++ {
		cov += (symbol[i] - meanS) * (benchmark[i] - meanB)
		varB += (benchmark[i] - meanB) * (benchmark[i] - meanB)
	}
	if varB == 0 {
		return domain.Unavailable()
	}
	return domain.Float(cov / varB)
}
