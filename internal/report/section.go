package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"finmetrics/internal/metrics"
)

// ErrNoData 表示没有可输出的数据。
var ErrNoData = errors.New("report: 没有可输出的数据")

// Section 为报告中的一个命名小节。CumulativeReturn 为小数形式，输出时换算为百分数。
type Section struct {
	Name             string
	CumulativeReturn float64
	AnnualReturn     float64
	AnnualVolatility float64
	SharpeRatio      float64
	Volatility       float64
}

// FromPerformance 由绩效指标生成报告小节。
func FromPerformance(name string, perf metrics.Performance) Section {
	return Section{
		Name:             name,
		CumulativeReturn: perf.CumulativeReturn,
		AnnualReturn:     perf.AnnualReturn,
		AnnualVolatility: perf.AnnualVolatility,
		SharpeRatio:      perf.SharpeRatio,
		Volatility:       perf.Volatility,
	}
}

// Sink 接收报告小节。
type Sink interface {
	Write(ctx context.Context, s Section) error
}

// Multi 依次写入所有 sink，单个失败不影响其余 sink。
type Multi []Sink

// Write 实现 Sink。
func (m Multi) Write(ctx context.Context, s Section) error {
	var errs error
	for _, sink := range m {
		errs = multierr.Append(errs, sink.Write(ctx, s))
	}
	return errs
}

const labelWidth = 29

// Render 按固定格式渲染小节文本。
func (s Section) Render() string {
	var b strings.Builder
	b.WriteString("\n################################## " + s.Name + " ####################################\n")
	writeLine(&b, "Cumulative return:", formatFloat(s.CumulativeReturn*100))
	writeLine(&b, "Annual return:", formatFloat(s.AnnualReturn))
	writeLine(&b, "Annual volatility:", formatFloat(s.AnnualVolatility))
	writeLine(&b, "Sharpe ratio:", formatFloat(s.SharpeRatio))
	// 标签拼写沿用既有报告格式，下游解析依赖它。
	writeLine(&b, "Volatiltiy:", formatExp(s.Volatility))
	return b.String()
}

func writeLine(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%-*s%s\n", labelWidth, label, value)
}

// formatFloat 输出最短十进制表示，整数值保留 ".0"，极大极小值使用科学计数法。
func formatFloat(v float64) string {
	if s, ok := special(v); ok {
		return s
	}
	abs := math.Abs(v)
	if v == 0 || (abs >= 1e-4 && abs < 1e16) {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatExp(v float64) string {
	if s, ok := special(v); ok {
		return s
	}
	return fmt.Sprintf("%e", v)
}

func special(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "nan", true
	case math.IsInf(v, 1):
		return "inf", true
	case math.IsInf(v, -1):
		return "-inf", true
	}
	return "", false
}
