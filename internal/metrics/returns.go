package metrics

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// logFloor 为 -100% 及更差收益取对数时使用的下限。
const logFloor = 1e-8

func pctToLog(r float64) float64 {
	if r <= -1 {
		return math.Log(logFloor)
	}
	return math.Log1p(r)
}

// PctToLogReturn 将百分比收益转换为对数收益。fillNaN 为 true 时缺失值视为 0。
func PctToLogReturn(s Series, fillNaN bool) Series {
	out := make([]float64, s.Len())
	for i, r := range s.Values {
		if isNaN(r) && fillNaN {
			r = 0
		}
		out[i] = pctToLog(r)
	}
	return s.withValues(out)
}

// LogToPctReturn 将对数收益转换回百分比收益。
func LogToPctReturn(s Series) Series {
	out := make([]float64, s.Len())
	for i, r := range s.Values {
		out[i] = math.Expm1(r)
	}
	return s.withValues(out)
}

// LogReturns 由价格序列计算 n 期对数收益。
// 价格先前向填充以跨过节假日，原本缺失的位置在结果中仍为 NaN；
// fillNaN 只会把第一期置为 0。
func LogReturns(prices Series, n int, fillNaN bool) (Series, error) {
	if n < 1 {
		return Series{}, fmt.Errorf("metrics: 收益间隔 n=%d 必须大于0: %w", n, ErrInvalidParameter)
	}

	filled := make([]float64, prices.Len())
	last := math.NaN()
	for i, p := range prices.Values {
		if !isNaN(p) {
			last = p
		}
		filled[i] = last
	}

	out := make([]float64, prices.Len())
	for i := range out {
		if i < n || isNaN(prices.Values[i]) {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Log(filled[i]) - math.Log(filled[i-n])
	}

	if fillNaN && len(out) > 0 {
		out[0] = 0
	}
	return prices.withValues(out), nil
}

// ReturnsGMean 计算几何平均收益，缺失值按 0 收益处理。
func ReturnsGMean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	growth := fillNaN(values, 0)
	for i := range growth {
		growth[i] += 1
	}
	return stat.GeometricMean(growth, nil) - 1
}

func reindex(source, target Series) Series {
	if !source.Indexed() || !target.Indexed() {
		return source
	}
	lookup := make(map[int64]float64, source.Len())
	for i, ts := range source.Index {
		lookup[ts.UnixNano()] = source.Values[i]
	}
	out := make([]float64, target.Len())
	for i, ts := range target.Index {
		v, ok := lookup[ts.UnixNano()]
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return Series{Index: target.Index, Values: out}
}

// ReindexDates 将 source 按 target 的日期重新索引。
// 两者都带索引时按日期匹配，否则按位置对齐；结果中出现任何 NaN 都视为日期不匹配。
func ReindexDates(source, target Series) (Series, error) {
	if !(source.Indexed() && target.Indexed()) && source.Len() != target.Len() {
		return Series{}, fmt.Errorf("metrics: 长度 %d 与 %d 无法按位置对齐: %w", source.Len(), target.Len(), ErrUnmatchedDates)
	}

	result := reindex(source, target)
	missing := 0
	for _, v := range result.Values {
		if isNaN(v) {
			missing++
		}
	}
	if missing > 0 {
		return result, fmt.Errorf("metrics: NaN #%d: %w", missing, ErrUnmatchedDates)
	}
	return result, nil
}

// MatchReturnDates 将基准按收益序列的日期对齐，数量不一致时只记录警告。
func MatchReturnDates(rtns, bench Series) Series {
	if !rtns.Indexed() || !bench.Indexed() {
		return bench
	}

	matched := reindex(bench, rtns)
	count := len(dropNaN(matched.Values))
	if count != rtns.Len() {
		zap.L().Warn("收益与基准长度不一致",
			zap.Int("expected", rtns.Len()),
			zap.Int("matched", count),
		)
	}
	return matched
}

// LogExcess 计算对数超额收益 rtns - bench，基准先按日期对齐。
func LogExcess(rtns Series, bench Benchmark) (Series, error) {
	if bench == nil {
		bench = Rate(0)
	}
	matched, err := bench.align(rtns)
	if err != nil {
		return Series{}, err
	}
	out := make([]float64, rtns.Len())
	for i, r := range rtns.Values {
		out[i] = r - matched[i]
	}
	return rtns.withValues(out), nil
}

// PctToLogExcess 先把收益与基准都转换为对数收益，再计算对数超额收益。
func PctToLogExcess(rtns Series, bench Benchmark) (Series, error) {
	if bench == nil {
		bench = Rate(0)
	}
	return LogExcess(PctToLogReturn(rtns, true), bench.toLog())
}

// toLogSpace 统一转换到对数口径。KindPct 以外的口径都按对数收益处理。
func toLogSpace(rtns Series, bench Benchmark, kind ReturnKind) (Series, Benchmark) {
	if bench == nil {
		bench = Rate(0)
	}
	if kind == KindPct {
		return PctToLogReturn(rtns, true), bench.toLog()
	}
	return rtns, bench
}

// excessReturns 返回对数口径下的超额收益。
func excessReturns(rtns Series, bench Benchmark, kind ReturnKind) (Series, error) {
	logRtns, logBench := toLogSpace(rtns, bench, kind)
	return LogExcess(logRtns, logBench)
}

func logValues(values []float64, kind ReturnKind) []float64 {
	if kind == KindPct {
		return PctToLogReturn(NewSeries(values), true).Values
	}
	return values
}
