package metrics

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/floats"
)

// Drawdown 返回净值曲线相对历史最高点的回撤百分比。
// NaN 位置保持 NaN 且不会刷新峰值；单调上升的曲线回撤恒为 0。
func Drawdown(equity []float64) []float64 {
	out := make([]float64, len(equity))
	peak := math.NaN()
	for i, v := range equity {
		if isNaN(v) {
			out[i] = math.NaN()
			continue
		}
		if isNaN(peak) || v > peak {
			peak = v
		}
		out[i] = v/peak - 1.0
	}
	return out
}

// equityFromReturns 由收益序列构造净值曲线，缺失收益视为无变化。
func equityFromReturns(returns []float64, kind ReturnKind) []float64 {
	equity := make([]float64, len(returns))
	if kind == KindPct {
		level := 1.0
		for i, r := range returns {
			if !isNaN(r) {
				level *= 1 + r
			}
			equity[i] = level
		}
		return equity
	}

	var cum float64
	for i, r := range returns {
		if !isNaN(r) {
			cum += r
		}
		equity[i] = math.Exp(cum)
	}
	return equity
}

// DrawdownFromReturns 由收益序列计算回撤曲线。
func DrawdownFromReturns(returns []float64, kind ReturnKind) []float64 {
	return Drawdown(equityFromReturns(returns, kind))
}

// MaxDrawdown 返回最大回撤（负数或 0），没有有效数据时为 NaN。
func MaxDrawdown(equity []float64) float64 {
	valid := dropNaN(Drawdown(equity))
	if len(valid) == 0 {
		return math.NaN()
	}
	return floats.Min(valid)
}

// MaxDrawdownFromReturns 由收益序列计算最大回撤。
func MaxDrawdownFromReturns(returns []float64, kind ReturnKind) float64 {
	return MaxDrawdown(equityFromReturns(returns, kind))
}

// RollingMaxDrawdown 计算窗口内的最大回撤曲线：先取窗口最高点求点间回撤，再取窗口最小值。
// 窗口不足时使用已有数据。
func RollingMaxDrawdown(equity []float64, window int) ([]float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("metrics: 窗口 %d 必须大于0: %w", window, ErrInvalidParameter)
	}

	rollMax := rollingExtreme(equity, window, true)
	interPoint := make([]float64, len(equity))
	for i, v := range equity {
		interPoint[i] = v/rollMax[i] - 1.0
	}
	return rollingExtreme(interPoint, window, false), nil
}

// rollingExtreme 计算滚动最大/最小值（min_periods=1）。
// 无缺失值时完整窗口交给 talib，开头不足一个窗口的部分逐点计算。
func rollingExtreme(values []float64, window int, useMax bool) []float64 {
	out := make([]float64, len(values))
	if window >= 2 && len(values) >= window && len(dropNaN(values)) == len(values) {
		var full []float64
		if useMax {
			full = talib.Max(values, window)
		} else {
			full = talib.Min(values, window)
		}
		copy(out[window-1:], full[window-1:])
		naiveExtreme(values, window, useMax, out, 0, window-1)
		return out
	}
	naiveExtreme(values, window, useMax, out, 0, len(values))
	return out
}

func naiveExtreme(values []float64, window int, useMax bool, out []float64, from, to int) {
	for i := from; i < to; i++ {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		best := math.NaN()
		for _, v := range values[start : i+1] {
			if isNaN(v) {
				continue
			}
			if isNaN(best) || (useMax && v > best) || (!useMax && v < best) {
				best = v
			}
		}
		out[i] = best
	}
}

// CalmarRatio 返回年化几何收益与最大回撤绝对值之比。
// 百分比收益先转换为对数收益，再统一以 exp(cumsum) 复利。
func CalmarRatio(returns []float64, factor float64, kind ReturnKind) float64 {
	if len(returns) == 0 || !(factor > 0) {
		return math.NaN()
	}
	logs := logValues(returns, kind)
	years := float64(len(logs)) / factor

	equity := equityFromReturns(logs, KindLog)
	annual := math.Pow(Last(equity), 1/years) - 1
	maxDD := math.Abs(MaxDrawdown(equity))
	return safeRatio(annual, maxDD)
}
