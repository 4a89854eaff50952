package metrics

import (
	"math"
	"sort"
)

// DefaultTailProb 为尾部比率默认使用的百分位（5 表示 5%/95%）。
const DefaultTailProb = 5.0

// percentile 忽略 NaN 的线性插值百分位数，p 位于 [0,100]，与 numpy 默认插值一致。
func percentile(values []float64, p float64) float64 {
	valid := dropNaN(values)
	if len(valid) == 0 || p < 0 || p > 100 {
		return math.NaN()
	}
	sort.Float64s(valid)

	h := float64(len(valid)-1) * p / 100
	lo := math.Floor(h)
	idx := int(lo)
	if idx >= len(valid)-1 {
		return valid[len(valid)-1]
	}
	frac := h - lo
	return valid[idx] + frac*(valid[idx+1]-valid[idx])
}

// TailRatio 返回右尾与左尾分位数绝对值之比。
// 例如 0.25 表示亏损尾部是盈利尾部的四倍。tailProb 取值 [0,100]。
func TailRatio(returns []float64, tailProb float64) float64 {
	top := percentile(returns, 100-tailProb)
	bottom := percentile(returns, tailProb)
	return safeRatio(math.Abs(top), math.Abs(bottom))
}
