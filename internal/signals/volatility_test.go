package signals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealizedVol(t *testing.T) {
	_, ok := realizedVol(nil)
	assert.False(t, ok)
	_, ok = realizedVol([]float64{0.01})
	assert.False(t, ok, "one observation is not a distribution")

	v, ok := realizedVol([]float64{0.01, 0.01, 0.01})
	require.True(t, ok)
	assert.Zero(t, v)

	// Known sample stddev: {-0.02, 0, 0.02} -> 0.02.
	v, ok = realizedVol([]float64{-0.02, 0, 0.02})
	require.True(t, ok)
	assert.InDelta(t, 0.02, v, 1e-9)
}

func TestVolatilityRatio(t *testing.T) {
	short := []float64{-0.03, 0, 0.03}
	baseline := []float64{-0.01, 0, 0.01, -0.01, 0, 0.01}

	realized, base, ratio := volatilityRatio(short, baseline)
	require.True(t, realized.Valid)
	require.True(t, base.Valid)
	require.True(t, ratio.Valid)
	assert.Greater(t, ratio.Value, 1.0, "short window is visibly noisier than baseline")
}

func TestVolatilityRatio_InsufficientHistory(t *testing.T) {
	_, _, ratio := volatilityRatio([]float64{0.01}, []float64{0.01, 0.02})
	assert.False(t, ratio.Valid)

	// Flat baseline has zero variance: ratio undefined, not infinite.
	realized, base, ratio := volatilityRatio([]float64{-0.02, 0, 0.02}, []float64{0.01, 0.01, 0.01})
	assert.True(t, realized.Valid)
	assert.False(t, base.Valid)
	assert.False(t, ratio.Valid)
}

func TestRollingBeta(t *testing.T) {
	bench := []float64{0.01, -0.02, 0.015, 0.005, -0.01}

	// A symbol moving at exactly 2x the benchmark has beta 2.
	symbol := make([]float64, len(bench))
	for i, r := range bench {
		symbol[i] = 2 * r
	}
	beta := rollingBeta(symbol, bench)
	require.True(t, beta.Valid)
	assert.InDelta(t, 2.0, beta.Value, 1e-9)

	// Inverse mover.
	for i, r := range bench {
		symbol[i] = -r
	}
	beta = rollingBeta(symbol, bench)
	require.True(t, beta.Valid)
	assert.InDelta(t, -1.0, beta.Value, 1e-9)
}

func TestRollingBeta_Unavailable(t *testing.T) {
	assert.False(t, rollingBeta(nil, nil).Valid)
	assert.False(t, rollingBeta([]float64{0.01, 0.02}, []float64{0.01}).Valid, "mismatched lengths")

	flat := []float64{0.01, 0.01, 0.01}
	moving := []float64{0.01, -0.02, 0.03}
	assert.False(t, rollingBeta(moving, flat).Valid, "zero benchmark variance")
	assert.False(t, math.IsInf(rollingBeta(moving, flat).Value, 0))
}
