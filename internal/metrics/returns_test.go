package metrics

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func days(n int) []time.Time {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func observeWarnings(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestPctLogRoundTrip(t *testing.T) {
	pct := NewSeries([]float64{0.01, -0.02, 0.03, 0, -0.5, 1.25})

	back := LogToPctReturn(PctToLogReturn(pct, false))

	require.Len(t, back.Values, pct.Len())
	for i, v := range pct.Values {
		assert.InDelta(t, v, back.Values[i], 1e-12, "index %d", i)
	}
}

func TestPctToLogReturn_FillsNaNAndFloorsTotalLoss(t *testing.T) {
	in := NewSeries([]float64{math.NaN(), -1, 0.1})

	filled := PctToLogReturn(in, true)
	assert.Equal(t, 0.0, filled.Values[0])
	assert.Equal(t, math.Log(logFloor), filled.Values[1])
	assert.InDelta(t, math.Log(1.1), filled.Values[2], 1e-15)

	kept := PctToLogReturn(in, false)
	assert.True(t, math.IsNaN(kept.Values[0]))
}

func TestLogReturns_PreservesMissingObservations(t *testing.T) {
	prices := NewSeries([]float64{100, math.NaN(), 110, 121})

	rtns, err := LogReturns(prices, 1, false)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(rtns.Values[0]))
	assert.True(t, math.IsNaN(rtns.Values[1]))
	// 缺失价格被前向填充，110 相对 100 计算收益。
	assert.InDelta(t, math.Log(1.1), rtns.Values[2], 1e-15)
	assert.InDelta(t, math.Log(1.1), rtns.Values[3], 1e-15)

	filled, err := LogReturns(prices, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 0.0, filled.Values[0])
	assert.True(t, math.IsNaN(filled.Values[1]))

	_, err = LogReturns(prices, 0, false)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestLogReturns_MultiPeriod(t *testing.T) {
	prices := NewSeries([]float64{100, 105, 120})

	rtns, err := LogReturns(prices, 2, false)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(rtns.Values[1]))
	assert.InDelta(t, math.Log(1.2), rtns.Values[2], 1e-15)
}

func TestReturnsGMean(t *testing.T) {
	got := ReturnsGMean([]float64{0.1, -0.1, math.NaN()})
	want := math.Cbrt(1.1*0.9*1.0) - 1
	assert.InDelta(t, want, got, 1e-12)
	assert.True(t, math.IsNaN(ReturnsGMean(nil)))
}

func TestReindexDates_MatchesByDate(t *testing.T) {
	idx := days(4)
	target, err := NewIndexedSeries(idx[1:], []float64{1, 2, 3})
	require.NoError(t, err)
	source, err := NewIndexedSeries([]time.Time{idx[3], idx[1], idx[2], idx[0]}, []float64{30, 10, 20, 0})
	require.NoError(t, err)

	got, err := ReindexDates(source, target)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30}, got.Values)
	assert.Equal(t, target.Index, got.Index)
}

func TestReindexDates_UnmatchedDates(t *testing.T) {
	idx := days(3)
	target, _ := NewIndexedSeries(idx, []float64{1, 2, 3})
	source, _ := NewIndexedSeries(idx[:2], []float64{1, 2})

	_, err := ReindexDates(source, target)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnmatchedDates))
	assert.Contains(t, err.Error(), "NaN #1")

	_, err = ReindexDates(NewSeries([]float64{1, 2}), NewSeries([]float64{1, 2, 3}))
	assert.ErrorIs(t, err, ErrUnmatchedDates)
}

func TestLogExcess(t *testing.T) {
	rtns := NewSeries([]float64{0.02, 0.01, -0.01})

	scalar, err := LogExcess(rtns, Rate(0.01))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.01, 0, -0.02}, scalar.Values, 1e-15)

	bench := NewSeries([]float64{0.01, 0.01, 0.01})
	series, err := LogExcess(rtns, bench)
	require.NoError(t, err)
	assert.InDeltaSlice(t, scalar.Values, series.Values, 1e-15)

	_, err = LogExcess(rtns, NewSeries([]float64{0.01, math.NaN(), 0}))
	assert.ErrorIs(t, err, ErrUnmatchedDates)
}

func TestPctToLogExcess_ConvertsBenchmark(t *testing.T) {
	rtns := NewSeries([]float64{0.1, -0.05})

	excess, err := PctToLogExcess(rtns, Rate(0.02))
	require.NoError(t, err)
	assert.InDelta(t, math.Log(1.1)-math.Log(1.02), excess.Values[0], 1e-15)
	assert.InDelta(t, math.Log(0.95)-math.Log(1.02), excess.Values[1], 1e-15)
}

func TestMatchReturnDates_WarnsOnMismatch(t *testing.T) {
	logs := observeWarnings(t)
	idx := days(3)
	rtns, _ := NewIndexedSeries(idx, []float64{0.1, 0.2, 0.3})
	bench, _ := NewIndexedSeries(idx[:2], []float64{0.01, 0.02})

	matched := MatchReturnDates(rtns, bench)

	require.Len(t, matched.Values, 3)
	assert.True(t, math.IsNaN(matched.Values[2]))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, int64(3), entry.ContextMap()["expected"])
	assert.Equal(t, int64(2), entry.ContextMap()["matched"])
}

func TestMatchReturnDates_PositionalPassThrough(t *testing.T) {
	logs := observeWarnings(t)
	bench := NewSeries([]float64{1})

	got := MatchReturnDates(NewSeries([]float64{1, 2}), bench)

	assert.Equal(t, bench.Values, got.Values)
	assert.Equal(t, 0, logs.Len())
}

func TestComputeEqualWeight(t *testing.T) {
	prices := Frame{
		Columns: []string{"BTC", "ETH"},
		Data: [][]float64{
			{10, 11, 12},
			{20, 20, 30},
		},
	}

	eqw, err := ComputeEqualWeight(prices, 1000)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1000, 1050, 1350}, eqw.AccountValue, 1e-9)
	assert.InDeltaSlice(t, []float64{0.05, 1350.0/1050 - 1}, eqw.Returns, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.05, 0.35}, eqw.CumulativeReturns, 1e-12)
}

func TestComputeEqualWeight_RejectsBadPrices(t *testing.T) {
	prices := Frame{Columns: []string{"A"}, Data: [][]float64{{0, 1}}}
	_, err := ComputeEqualWeight(prices, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = ComputeEqualWeight(Frame{}, 0)
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestParseReturnKind(t *testing.T) {
	kind, err := ParseReturnKind(" PCT ")
	require.NoError(t, err)
	assert.Equal(t, KindPct, kind)

	kind, err = ParseReturnKind("log")
	require.NoError(t, err)
	assert.Equal(t, KindLog, kind)

	_, err = ParseReturnKind("arith")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestDataPointsPerYear(t *testing.T) {
	cases := map[string]int{
		"1m":  525600,
		"5m":  105120,
		"10m": 52560,
		"30m": 17520,
		"1h":  8760,
		"1d":  365,
	}
	for tf, want := range cases {
		got, err := DataPointsPerYear(tf)
		require.NoError(t, err, tf)
		assert.Equal(t, want, got, tf)
	}

	_, err := DataPointsPerYear("4h")
	assert.ErrorIs(t, err, ErrUnsupportedTimeframe)
}
