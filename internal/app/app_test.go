package app

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"finmetrics/internal/config"
	"finmetrics/internal/report"
	"finmetrics/internal/store"
)

func testConfig(dir string) *config.Config {
	return &config.Config{
		App:      config.AppConfig{Environment: "test"},
		Exchange: config.ExchangeConfig{Name: "binance", BaseURL: config.DefaultExchangeBaseURL},
		Metrics: config.MetricsConfig{
			Timeframe:         "1d",
			ReturnKind:        "pct",
			RollingWindow:     10,
			RollingMinPeriods: 5,
			PCritical:         0.05,
			TailProb:          5,
			Confidence:        0.95,
		},
		Report: config.ReportConfig{
			Path:         filepath.Join(dir, "metrics.txt"),
			Append:       true,
			WorkbookPath: filepath.Join(dir, "metrics.xlsx"),
			PlotDir:      filepath.Join(dir, "plots"),
		},
		Logging: config.LoggingConfig{Level: "info", Encoding: "console"},
	}
}

func writeReturnsCSV(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,s1,s2,hodl\n")
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		x := float64(i)
		fmt.Fprintf(&b, "%s,%g,%g,%g\n",
			start.AddDate(0, 0, i).Format("2006-01-02"),
			0.002+0.01*math.Sin(x*0.7),
			0.001+0.015*math.Cos(x*1.3),
			0.0005+0.02*math.Sin(x*0.4+1),
		)
	}
	path := filepath.Join(dir, "returns.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestRun_ReturnsWithBaseline(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Report.SQLite = true

	st, err := store.NewSQLite(config.DatabaseConfig{InMemory: true, MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	a := New(cfg, zaptest.NewLogger(t), st)
	res, err := a.Run(context.Background(), Input{Path: writeReturnsCSV(t, dir), Name: "run", Baseline: "hodl"})
	require.NoError(t, err)

	assert.Equal(t, []string{"s1", "s2", "hodl"}, res.Columns)
	require.Len(t, res.Evaluations, 3)
	require.Len(t, res.Rolling, 3)
	assert.Len(t, res.Rolling["s1"].Values, 40)
	assert.False(t, math.IsNaN(res.Evaluations["s1"].SharpeRatio))
	assert.False(t, math.IsNaN(res.SharpeMean))
	assert.Greater(t, res.SharpeHalfWidth, 0.0)

	raw, err := os.ReadFile(cfg.Report.Path)
	require.NoError(t, err)
	for _, col := range res.Columns {
		assert.Contains(t, string(raw), "################################## run/"+col+" ")
	}

	sink, err := report.NewSQLiteSink(st, nil)
	require.NoError(t, err)
	records, err := sink.List(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	assert.Equal(t, filepath.Join(cfg.Report.PlotDir, "run.png"), res.PlotPath)
	_, err = os.Stat(res.PlotPath)
	assert.NoError(t, err)
	_, err = os.Stat(cfg.Report.WorkbookPath)
	assert.NoError(t, err)
}

func TestRun_PricesAddEqualWeightBaseline(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Report.WorkbookPath = ""

	var b strings.Builder
	b.WriteString("a,b\n")
	for i := 0; i < 30; i++ {
		x := float64(i)
		fmt.Fprintf(&b, "%g,%g\n", 100+x+5*math.Sin(x), 50+0.5*x+3*math.Cos(x*0.8))
	}
	path := filepath.Join(dir, "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	res, err := New(cfg, nil, nil).Run(context.Background(), Input{Path: path, Name: "px", Prices: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", EqualWeightColumn}, res.Columns)
	assert.Empty(t, res.RunID)
	assert.NotEmpty(t, res.PlotPath)
	assert.False(t, math.IsNaN(res.Evaluations[EqualWeightColumn].CumulativeReturn))
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	input := writeReturnsCSV(t, dir)

	_, err := New(testConfig(dir), nil, nil).Run(context.Background(), Input{Path: input, Baseline: "missing"})
	assert.Error(t, err)

	cfg := testConfig(dir)
	cfg.Report.SQLite = true
	_, err = New(cfg, nil, nil).Run(context.Background(), Input{Path: input})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(testConfig(dir), nil, nil).Run(ctx, Input{Path: input})
	assert.ErrorIs(t, err, context.Canceled)
}
