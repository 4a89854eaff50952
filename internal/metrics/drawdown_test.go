package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrawdown(t *testing.T) {
	got := Drawdown([]float64{100, 120, 90, 130, 65})
	assert.InDeltaSlice(t, []float64{0, 0, -0.25, 0, -0.5}, got, 1e-15)

	assert.InDelta(t, -0.5, MaxDrawdown([]float64{100, 120, 90, 130, 65}), 1e-15)
}

func TestDrawdown_MonotonicIsZero(t *testing.T) {
	got := Drawdown([]float64{1, 2, 3, 4})
	assert.Equal(t, []float64{0, 0, 0, 0}, got)
	assert.Equal(t, 0.0, MaxDrawdown([]float64{1, 2, 3, 4}))
}

func TestDrawdown_NaNKeepsPeak(t *testing.T) {
	got := Drawdown([]float64{100, math.NaN(), 80})
	assert.Equal(t, 0.0, got[0])
	assert.True(t, math.IsNaN(got[1]))
	assert.InDelta(t, -0.2, got[2], 1e-15)

	assert.True(t, math.IsNaN(MaxDrawdown([]float64{math.NaN()})))
}

func TestDrawdownFromReturns(t *testing.T) {
	pct := DrawdownFromReturns([]float64{0.1, -0.5, 0.2}, KindPct)
	assert.InDeltaSlice(t, []float64{0, -0.5, -0.4}, pct, 1e-12)

	logs := DrawdownFromReturns([]float64{math.Log(1.1), math.Log(0.5), math.Log(1.2)}, KindLog)
	assert.InDeltaSlice(t, pct, logs, 1e-12)

	assert.InDelta(t, -0.5, MaxDrawdownFromReturns([]float64{0.1, -0.5, 0.2}, KindPct), 1e-12)
}

func TestRollingMaxDrawdown(t *testing.T) {
	equity := []float64{1, 2, 1, 3, 1.5, 1.5}

	got, err := RollingMaxDrawdown(equity, 2)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0, -0.5, -0.5, -0.5, -0.5}, got, 1e-15)

	// 窗口为 1 时每个点只与自身比较。
	single, err := RollingMaxDrawdown(equity, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0}, single)

	_, err = RollingMaxDrawdown(equity, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestRollingMaxDrawdown_WindowLongerThanSeries(t *testing.T) {
	got, err := RollingMaxDrawdown([]float64{4, 2, 3}, 10)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, -0.5, -0.5}, got, 1e-15)
}

func TestRollingExtreme_MatchesNaiveScan(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5}

	for _, window := range []int{2, 3, 5} {
		for _, useMax := range []bool{true, false} {
			want := make([]float64, len(values))
			naiveExtreme(values, window, useMax, want, 0, len(values))
			assert.Equal(t, want, rollingExtreme(values, window, useMax), "window=%d max=%v", window, useMax)
		}
	}
}

func TestRollingExtreme_SkipsNaN(t *testing.T) {
	got := rollingExtreme([]float64{1, math.NaN(), 3, math.NaN(), math.NaN()}, 2, true)
	assert.Equal(t, 1.0, got[0])
	assert.Equal(t, 1.0, got[1])
	assert.Equal(t, 3.0, got[2])
	assert.Equal(t, 3.0, got[3])
	assert.True(t, math.IsNaN(got[4]))
}

func TestCalmarRatio(t *testing.T) {
	// 一年三期：净值 1.1 -> 0.55 -> 0.66，年化 -34%，最大回撤 50%。
	got := CalmarRatio([]float64{0.1, -0.5, 0.2}, 3, KindPct)
	assert.InDelta(t, -0.68, got, 1e-9)

	logs := CalmarRatio([]float64{math.Log(1.1), math.Log(0.5), math.Log(1.2)}, 3, KindLog)
	assert.InDelta(t, got, logs, 1e-9)
}

func TestCalmarRatio_NoDrawdownIsNaN(t *testing.T) {
	assert.True(t, math.IsNaN(CalmarRatio([]float64{0.01, 0.02}, 365, KindPct)))
	assert.True(t, math.IsNaN(CalmarRatio(nil, 365, KindPct)))
}
