package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultConfidence 为置信区间默认置信水平。
const DefaultConfidence = 0.95

// ProbabilityDensity 以 x 的总体均值与标准差拟合正态分布，返回每个 x 处的密度。
func ProbabilityDensity(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	mean, std := stat.PopMeanStdDev(x, nil)
	if !(std > 0) {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	dist := distuv.Normal{Mu: mean, Sigma: std}
	for i, v := range x {
		out[i] = dist.Prob(v)
	}
	return out
}

// MeanConfidenceInterval 返回样本均值及 Student-t 置信区间的半宽。
func MeanConfidenceInterval(data []float64, confidence float64) (mean, halfWidth float64, err error) {
	if len(data) < 2 {
		return math.NaN(), math.NaN(), fmt.Errorf("metrics: 置信区间至少需要2个样本，当前 %d: %w", len(data), ErrInvalidParameter)
	}
	if confidence <= 0 || confidence >= 1 {
		return math.NaN(), math.NaN(), fmt.Errorf("metrics: 置信水平 %v 必须位于(0,1): %w", confidence, ErrInvalidParameter)
	}

	n := float64(len(data))
	mean, std := stat.MeanStdDev(data, nil)
	se := stat.StdErr(std, n)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 1}
	return mean, se * t.Quantile((1+confidence)/2), nil
}
