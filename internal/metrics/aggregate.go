package metrics

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
)

// Performance 汇总单条收益序列的常用绩效指标。
type Performance struct {
	CumulativeReturn float64 `json:"cumulative_return"`
	AnnualReturn     float64 `json:"annual_return"`
	AnnualVolatility float64 `json:"annual_volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	Volatility       float64 `json:"volatility"`
	MaxDrawdown      float64 `json:"max_drawdown"`
}

// AggregatePerformance 计算累计收益、年化收益、年化波动率、夏普比率与最大回撤。
// 所有年化量都使用同一个 factor。
func AggregatePerformance(rtns []float64, factor float64, kind ReturnKind) (Performance, error) {
	if len(rtns) == 0 {
		return Performance{}, fmt.Errorf("metrics: 收益序列为空: %w", ErrEmptySeries)
	}
	if err := validateFactor(factor); err != nil {
		return Performance{}, err
	}

	sharpe, vol, err := SharpeIID(NewSeries(rtns), Rate(0), factor, kind)
	if err != nil {
		return Performance{}, err
	}

	return Performance{
		CumulativeReturn: Last(equityFromReturns(rtns, kind)) - 1,
		AnnualReturn:     AnnualGeometricReturns(rtns, factor, kind),
		AnnualVolatility: AnnualizedVolatility(rtns, factor),
		SharpeRatio:      sharpe,
		Volatility:       vol,
		MaxDrawdown:      MaxDrawdownFromReturns(rtns, kind),
	}, nil
}

// AggregatePerformanceFrame 对每一列分别调用 AggregatePerformance。
func AggregatePerformanceFrame(f Frame, factor float64, kind ReturnKind) (map[string]Performance, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	out := make(map[string]Performance, f.Width())
	var errs error
	for i, name := range f.Columns {
		perf, err := AggregatePerformance(f.Data[i], factor, kind)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("列 %q: %w", name, err))
			continue
		}
		out[name] = perf
	}
	return out, errs
}

// Options 控制 Evaluate 计算的参数。
type Options struct {
	Factor    float64
	Kind      ReturnKind
	Bench     Benchmark
	Q         int
	PCritical float64
	TailProb  float64
}

func (o Options) normalize() Options {
	if !(o.Factor > 0) {
		o.Factor = TradingDays
	}
	if o.Bench == nil {
		o.Bench = Rate(0)
	}
	if o.Q <= 0 {
		o.Q = int(math.Round(o.Factor))
	}
	if o.PCritical <= 0 || o.PCritical >= 1 {
		o.PCritical = DefaultPCritical
	}
	if o.TailProb <= 0 || o.TailProb >= 50 {
		o.TailProb = DefaultTailProb
	}
	return o
}

// Evaluation 为单条收益序列的完整指标集合。
type Evaluation struct {
	Performance
	SortinoRatio   float64 `json:"sortino_ratio"`
	SortinoIID     float64 `json:"sortino_iid"`
	CalmarRatio    float64 `json:"calmar_ratio"`
	Kappa3         float64 `json:"kappa3"`
	AdjustedSharpe float64 `json:"adjusted_sharpe"`
	NonIIDSharpe   float64 `json:"non_iid_sharpe"`
	TailRatio      float64 `json:"tail_ratio"`
	GeometricMean  float64 `json:"geometric_mean"`
}

// Evaluate 计算收益序列的全部指标。
func Evaluate(rtns Series, opts Options) (Evaluation, error) {
	opts = opts.normalize()

	perf, err := AggregatePerformance(rtns.Values, opts.Factor, opts.Kind)
	if err != nil {
		return Evaluation{}, err
	}
	// 基准非零时夏普比率按超额收益重新计算。
	if perf.SharpeRatio, perf.Volatility, err = SharpeIID(rtns, opts.Bench, opts.Factor, opts.Kind); err != nil {
		return Evaluation{}, err
	}

	eval := Evaluation{
		Performance: perf,
		CalmarRatio: CalmarRatio(rtns.Values, opts.Factor, opts.Kind),
		TailRatio:   TailRatio(rtns.Values, opts.TailProb),
	}

	var errs error
	eval.SortinoRatio, err = Sortino(rtns, opts.Bench, opts.Factor, opts.Kind)
	errs = multierr.Append(errs, err)
	eval.SortinoIID, err = SortinoIID(rtns, opts.Bench, opts.Factor, opts.Kind)
	errs = multierr.Append(errs, err)
	eval.Kappa3, err = Kappa3(rtns, opts.Bench, opts.Kind)
	errs = multierr.Append(errs, err)
	eval.AdjustedSharpe, err = SharpeIIDAdjusted(rtns, opts.Bench, opts.Factor, opts.Kind)
	errs = multierr.Append(errs, err)
	eval.NonIIDSharpe, err = SharpeNonIID(rtns, opts.Bench, opts.Q, opts.PCritical, opts.Kind)
	errs = multierr.Append(errs, err)
	if errs != nil {
		return Evaluation{}, errs
	}

	if opts.Kind == KindPct {
		eval.GeometricMean = ReturnsGMean(rtns.Values)
	} else {
		eval.GeometricMean = ReturnsGMean(LogToPctReturn(rtns).Values)
	}
	return eval, nil
}
