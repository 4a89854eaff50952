package metrics

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// DefaultPCritical 为 Ljung-Box 检验拒绝原假设的默认显著性水平。
const DefaultPCritical = 0.05

func validateFactor(factor float64) error {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return fmt.Errorf("metrics: 年化因子 %v 必须为正: %w", factor, ErrInvalidParameter)
	}
	return nil
}

// iidRatio 返回 sqrt(factor)*mean/std 以及未年化的样本标准差。
func iidRatio(excess []float64, factor float64) (float64, float64) {
	vol := nanStd(excess)
	return math.Sqrt(factor) * safeRatio(nanMean(excess), vol), vol
}

// SharpeIID 计算独立同分布假设下的夏普比率。
// 百分比收益会先转换为对数收益；vol 为超额收益未年化的样本标准差。
// 波动率为 0 或样本不足两个时夏普比率为 NaN。
func SharpeIID(rtns Series, bench Benchmark, factor float64, kind ReturnKind) (sharpe, vol float64, err error) {
	if err := validateFactor(factor); err != nil {
		return math.NaN(), math.NaN(), err
	}
	excess, err := excessReturns(rtns, bench, kind)
	if err != nil {
		return math.NaN(), math.NaN(), err
	}
	sharpe, vol = iidRatio(excess.Values, factor)
	return sharpe, vol, nil
}

// SharpeIIDRolling 计算滚动窗口夏普比率，不做时间聚合调整。
// 窗口内有效观测少于 minPeriods 时结果为 NaN。
func SharpeIIDRolling(rtns Series, window, minPeriods int, bench Benchmark, factor float64, kind ReturnKind) (Series, error) {
	if window < 1 {
		return Series{}, fmt.Errorf("metrics: 窗口 %d 必须大于0: %w", window, ErrInvalidParameter)
	}
	if minPeriods < 1 || minPeriods > window {
		return Series{}, fmt.Errorf("metrics: min_periods %d 必须位于[1,%d]: %w", minPeriods, window, ErrInvalidParameter)
	}
	if err := validateFactor(factor); err != nil {
		return Series{}, err
	}

	excess, err := excessReturns(rtns, bench, kind)
	if err != nil {
		return Series{}, err
	}

	out := make([]float64, excess.Len())
	for i := range out {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		segment := excess.Values[start : i+1]
		if len(dropNaN(segment)) < minPeriods {
			out[i] = math.NaN()
			continue
		}
		out[i], _ = iidRatio(segment, factor)
	}
	return excess.withValues(out), nil
}

// AdjustedSharpe 为 Pezier & White (2006) 偏度峰度调整夏普比率。
func AdjustedSharpe(sr, skew, excessKurtosis float64) float64 {
	return sr * (1 + (skew/6.0)*sr + excessKurtosis/24.0*sr*sr)
}

// SharpeIIDAdjusted 先计算未年化的 IID 夏普比率，用对数收益的样本偏度与超额峰度调整后再乘以 sqrt(factor)。
func SharpeIIDAdjusted(rtns Series, bench Benchmark, factor float64, kind ReturnKind) (float64, error) {
	if err := validateFactor(factor); err != nil {
		return math.NaN(), err
	}
	sr, _, err := SharpeIID(rtns, bench, 1, kind)
	if err != nil {
		return math.NaN(), err
	}

	logRtns, _ := toLogSpace(rtns, nil, kind)
	valid := dropNaN(logRtns.Values)
	if len(valid) < 4 {
		return math.NaN(), nil
	}
	skew := stat.Skew(valid, nil)
	excessKurt := stat.ExKurtosis(valid, nil)
	return AdjustedSharpe(sr, skew, excessKurt) * math.Sqrt(factor), nil
}

// SharpeNonIID 返回按自相关调整的年化夏普比率 (Lo, 2002)。
// 仅当 Ljung-Box 检验在 pCritical 水平拒绝独立性时使用 Lo 因子，否则按 sqrt(q) 年化。
// 样本数量不超过 q 时记录警告并返回 NaN。
func SharpeNonIID(rtns Series, bench Benchmark, q int, pCritical float64, kind ReturnKind) (float64, error) {
	if q < 1 {
		return math.NaN(), fmt.Errorf("metrics: 时间聚合频率 q=%d 必须大于0: %w", q, ErrInvalidParameter)
	}
	if pCritical <= 0 || pCritical >= 1 {
		pCritical = DefaultPCritical
	}

	if rtns.Len() <= q {
		zap.L().Warn("Sharpe Non-IID: 收益数量必须大于 q，返回 NaN",
			zap.Int("returns", rtns.Len()),
			zap.Int("q", q),
		)
		return math.NaN(), nil
	}

	sr, _, err := SharpeIID(rtns, bench, 1, kind)
	if err != nil {
		return math.NaN(), err
	}

	logRtns, _ := toLogSpace(rtns, nil, kind)
	factor, pValue := SharpeAutocorrFactor(dropNaN(logRtns.Values), q)
	if pValue < pCritical {
		return sr * factor, nil
	}
	return sr * math.Sqrt(float64(q)), nil
}
