package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// LPM 计算对数收益相对目标收益的下偏矩：mean(max(target-r, 0)^moment)。
func LPM(returns Series, target Benchmark, moment float64) (float64, error) {
	excess, err := LogExcess(returns, target)
	if err != nil {
		return math.NaN(), err
	}
	powered := make([]float64, excess.Len())
	for i, e := range excess.Values {
		shortfall := math.Max(-e, 0)
		if isNaN(e) {
			shortfall = math.NaN()
		}
		powered[i] = math.Pow(shortfall, moment)
	}
	return nanMean(powered), nil
}

// Kappa 计算 Kappa 比率：mean(excess) / LPM^(1/moment)。
// 对数收益使用算术平均，百分比收益先转换为对数收益。
func Kappa(returns Series, target Benchmark, moment float64, kind ReturnKind) (float64, error) {
	if !(moment > 0) {
		return math.NaN(), fmt.Errorf("metrics: moment %v 必须为正: %w", moment, ErrInvalidParameter)
	}
	logRtns, logTarget := toLogSpace(returns, target, kind)
	excess, err := LogExcess(logRtns, logTarget)
	if err != nil {
		return math.NaN(), err
	}
	lpm, err := LPM(logRtns, logTarget, moment)
	if err != nil {
		return math.NaN(), err
	}
	return safeRatio(nanMean(excess.Values), math.Pow(lpm, 1.0/moment)), nil
}

// Kappa3 为三阶 Kappa 比率。
func Kappa3(returns Series, target Benchmark, kind ReturnKind) (float64, error) {
	return Kappa(returns, target, 3, kind)
}

// Sortino 用二阶下偏矩计算 Sortino 比率，结果应与 SortinoIID 一致。
func Sortino(returns Series, target Benchmark, factor float64, kind ReturnKind) (float64, error) {
	if err := validateFactor(factor); err != nil {
		return math.NaN(), err
	}
	ratio, err := Kappa(returns, target, 2, kind)
	if err != nil {
		return math.NaN(), err
	}
	return ratio * math.Sqrt(factor), nil
}

// SortinoIID 以半标准差计算 Sortino 比率。非负与缺失的超额收益都按 0 计入半方差。
func SortinoIID(rtns Series, bench Benchmark, factor float64, kind ReturnKind) (float64, error) {
	if err := validateFactor(factor); err != nil {
		return math.NaN(), err
	}
	excess, err := excessReturns(rtns, bench, kind)
	if err != nil {
		return math.NaN(), err
	}
	if excess.Len() == 0 {
		return math.NaN(), nil
	}

	squares := make([]float64, excess.Len())
	for i, e := range excess.Values {
		if e < 0 {
			squares[i] = e * e
		}
	}
	semiStd := math.Sqrt(stat.Mean(squares, nil))
	return math.Sqrt(factor) * safeRatio(nanMean(excess.Values), semiStd), nil
}
