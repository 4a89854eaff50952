package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func isNaN(v float64) bool {
	return math.IsNaN(v)
}

// dropNaN 返回去除 NaN 后的新切片。
func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !isNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func fillNaN(values []float64, fill float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if isNaN(v) {
			out[i] = fill
			continue
		}
		out[i] = v
	}
	return out
}

func nanMean(values []float64) float64 {
	valid := dropNaN(values)
	if len(valid) == 0 {
		return math.NaN()
	}
	return stat.Mean(valid, nil)
}

func nanSum(values []float64) float64 {
	return floats.Sum(dropNaN(values))
}

// nanStd 为忽略 NaN 的样本标准差（ddof=1），样本不足两个时返回 NaN。
func nanStd(values []float64) float64 {
	valid := dropNaN(values)
	if len(valid) < 2 {
		return math.NaN()
	}
	return stat.StdDev(valid, nil)
}

// Last 返回序列最后一个值，若为空则返回 NaN。
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

// safeRatio 在分母为 0 或无效时返回 NaN，表示比率无定义。
func safeRatio(num, den float64) float64 {
	if den == 0 || isNaN(den) || math.IsInf(den, 0) {
		return math.NaN()
	}
	return num / den
}
