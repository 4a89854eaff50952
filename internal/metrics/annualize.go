package metrics

import (
	"math"
)

// AnnualGeometricReturns 将收益序列换算为年化几何收益。
// annFactor 为一年的数据点数量，缺失值不计入累计收益。
func AnnualGeometricReturns(rtns []float64, annFactor float64, kind ReturnKind) float64 {
	if len(rtns) == 0 {
		return math.NaN()
	}
	logs := logValues(rtns, kind)
	total := math.Exp(nanSum(logs))
	return math.Pow(total, annFactor/float64(len(rtns))) - 1
}

// AnnualizedPctReturn 按复利年化总收益。totalReturn 为净收益，+50% 传 0.5。
// factor 为年数的倒数，例如半年数据传 2。
func AnnualizedPctReturn(totalReturn, factor float64) float64 {
	return math.Pow(1+totalReturn, factor) - 1
}

// AnnualizedLogReturn 将总对数收益按持有天数线性年化。
func AnnualizedLogReturn(totalReturn, days, annFactor float64) float64 {
	if annFactor <= 0 {
		annFactor = TradingDays
	}
	years := days / annFactor
	return safeRatio(totalReturn, years)
}

// AnnualizedReturnPercent 以单利方式把累计收益曲线的终值换算为年化百分比，保留两位小数。
func AnnualizedReturnPercent(cumulative []float64, pointsPerYear float64) float64 {
	if len(cumulative) == 0 {
		return math.NaN()
	}
	factor := pointsPerYear / float64(len(cumulative))
	annual := Last(cumulative) * factor
	return math.Round(annual*100*100) / 100
}

// AnnualizedVolatility 返回样本标准差（忽略 NaN）乘以 sqrt(factor)。
func AnnualizedVolatility(rtns []float64, factor float64) float64 {
	if factor <= 0 {
		factor = 1
	}
	return nanStd(rtns) * math.Sqrt(factor)
}
