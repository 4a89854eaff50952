package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Autocorrelation 计算 0..nlags 阶的样本自相关系数（有偏估计，分母统一为 n）。
func Autocorrelation(x []float64, nlags int) []float64 {
	n := len(x)
	if n == 0 || nlags < 0 {
		return nil
	}

	mean := stat.Mean(x, nil)
	var c0 float64
	for _, v := range x {
		d := v - mean
		c0 += d * d
	}

	out := make([]float64, nlags+1)
	for k := 0; k <= nlags; k++ {
		var ck float64
		for t := k; t < n; t++ {
			ck += (x[t] - mean) * (x[t-k] - mean)
		}
		out[k] = safeRatio(ck, c0)
	}
	return out
}

// LjungBox 返回前 lags 阶的 Ljung-Box Q 统计量及其 p 值。
// 原假设为序列不存在自相关，p 值越小越倾向于存在自相关。
func LjungBox(x []float64, lags int) (q, pValue float64) {
	n := len(x)
	if lags < 1 || lags >= n {
		return math.NaN(), math.NaN()
	}

	acf := Autocorrelation(x, lags)
	var sum float64
	for k := 1; k <= lags; k++ {
		sum += acf[k] * acf[k] / float64(n-k)
	}
	q = float64(n) * float64(n+2) * sum

	chi := distuv.ChiSquared{K: float64(lags)}
	return q, chi.Survival(q)
}

// SharpeAutocorrFactor 按 Lo (2002) 计算存在自相关时的时间聚合因子：
//
//	q / sqrt(q + 2 * Σ_{k=1}^{q-1} (q-k) ρ_k)
//
// 同时返回 q-1 阶 Ljung-Box 检验的 p 值。序列不相关时因子等于 sqrt(q)。
func SharpeAutocorrFactor(returns []float64, q int) (factor, pValue float64) {
	if q < 1 || len(returns) == 0 {
		return math.NaN(), math.NaN()
	}

	acf := Autocorrelation(returns, q)
	var sum float64
	for k := 1; k < q; k++ {
		sum += float64(q-k) * acf[k]
	}

	den := float64(q) + 2*sum
	if den > 0 {
		factor = float64(q) / math.Sqrt(den)
	} else {
		factor = math.NaN()
	}

	_, pValue = LjungBox(returns, q-1)
	return factor, pValue
}
