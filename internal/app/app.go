package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"finmetrics/internal/config"
	"finmetrics/internal/dataset"
	"finmetrics/internal/metrics"
	"finmetrics/internal/report"
	"finmetrics/internal/store"
)

// EqualWeightColumn 为价格输入时自动生成的等权组合列名。
const EqualWeightColumn = "equal_weight"

// App 聚合核心依赖并驱动一次指标计算。
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New 创建 App 实例。store 为 nil 时不写入 SQLite。
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// Input 描述一次运行的输入。
type Input struct {
	// Path 为 CSV 文件路径。
	Path string
	// Name 为报告小节与图像文件名的前缀。
	Name string
	// Baseline 为基准列名，为空时不绘制对比图。
	Baseline string
	// Prices 表示 CSV 中是价格而非收益。
	Prices bool
}

// Result 汇总一次运行的输出。
type Result struct {
	RunID       string
	Columns     []string
	Evaluations map[string]metrics.Evaluation
	Rolling     map[string]metrics.Series
	// SharpeMean 与 SharpeHalfWidth 为策略夏普比率均值及其置信区间半宽。
	SharpeMean      float64
	SharpeHalfWidth float64
	PlotPath        string
}

// Run 读取输入、计算每列指标并写入全部报告 sink。
func (a *App) Run(ctx context.Context, in Input) (Result, error) {
	a.logger.Info("指标计算开始",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("input", in.Path),
		zap.String("timeframe", a.cfg.Metrics.Timeframe),
	)

	factor, err := a.cfg.Metrics.Factor()
	if err != nil {
		return Result{}, err
	}
	kind, err := a.cfg.Metrics.Kind()
	if err != nil {
		return Result{}, err
	}

	frame, err := dataset.LoadCSV(in.Path)
	if err != nil {
		return Result{}, err
	}
	baseline := in.Baseline
	if in.Prices {
		if frame, err = pricesToReturns(frame); err != nil {
			return Result{}, err
		}
		kind = metrics.KindLog
		if baseline == "" {
			baseline = EqualWeightColumn
		}
	}
	if baseline != "" {
		if _, ok := frame.ColumnByName(baseline); !ok {
			return Result{}, fmt.Errorf("app: 基准列 %q 不存在", baseline)
		}
	}

	sinks, runID, err := a.sinks(in)
	if err != nil {
		return Result{}, err
	}

	opts := metrics.Options{
		Factor:    factor,
		Kind:      kind,
		Bench:     metrics.Rate(a.cfg.Metrics.RiskFree),
		PCritical: a.cfg.Metrics.PCritical,
		TailProb:  a.cfg.Metrics.TailProb,
	}
	res := Result{
		RunID:           runID,
		Columns:         frame.Columns,
		Evaluations:     make(map[string]metrics.Evaluation, frame.Width()),
		Rolling:         make(map[string]metrics.Series, frame.Width()),
		SharpeMean:      math.NaN(),
		SharpeHalfWidth: math.NaN(),
	}

	var errs error
	var strategySharpe []float64
	for i, col := range frame.Columns {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		eval, err := a.evaluate(ctx, frame.Column(i), col, in.Name, opts, sinks, &res)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("列 %q: %w", col, err))
			continue
		}
		if col != baseline {
			strategySharpe = append(strategySharpe, eval.SharpeRatio)
		}
	}
	if errs != nil {
		return res, errs
	}

	if len(strategySharpe) >= 2 {
		res.SharpeMean, res.SharpeHalfWidth, err = metrics.MeanConfidenceInterval(strategySharpe, a.cfg.Metrics.Confidence)
		if err != nil {
			return res, err
		}
		a.logger.Info("策略夏普比率置信区间",
			zap.Float64("mean", res.SharpeMean),
			zap.Float64("half_width", res.SharpeHalfWidth),
			zap.Float64("confidence", a.cfg.Metrics.Confidence),
		)
	}

	if a.cfg.Report.PlotDir != "" && baseline != "" && len(strategySharpe) > 0 {
		name := in.Name
		if name == "" {
			name = "sharpe"
		}
		bench := res.Evaluations[baseline].SharpeRatio
		res.PlotPath, err = report.PlotPDF(filepath.Join(a.cfg.Report.PlotDir, name), strategySharpe, []float64{bench}, false)
		if err != nil {
			return res, err
		}
		a.logger.Info("夏普比率密度图已保存", zap.String("path", res.PlotPath))
	}

	a.logger.Info("指标计算完成", zap.Int("columns", frame.Width()), zap.String("run_id", runID))
	return res, nil
}

func (a *App) evaluate(ctx context.Context, s metrics.Series, col, prefix string, opts metrics.Options, sinks report.Sink, res *Result) (metrics.Evaluation, error) {
	eval, err := metrics.Evaluate(s, opts)
	if err != nil {
		return metrics.Evaluation{}, err
	}
	res.Evaluations[col] = eval

	rolling, err := metrics.SharpeIIDRolling(s, a.cfg.Metrics.RollingWindow, a.cfg.Metrics.RollingMinPeriods, opts.Bench, opts.Factor, opts.Kind)
	if err != nil {
		return metrics.Evaluation{}, err
	}
	res.Rolling[col] = rolling

	name := col
	if prefix != "" {
		name = prefix + "/" + col
	}
	if err := sinks.Write(ctx, report.FromPerformance(name, eval.Performance)); err != nil {
		return metrics.Evaluation{}, err
	}

	a.logger.Debug("列指标",
		zap.String("column", col),
		zap.Float64("sharpe", eval.SharpeRatio),
		zap.Float64("sortino", eval.SortinoRatio),
		zap.Float64("max_drawdown", eval.MaxDrawdown),
	)
	return eval, nil
}

func (a *App) sinks(in Input) (report.Multi, string, error) {
	mode := report.ModeOverwrite
	if a.cfg.Report.Append {
		mode = report.ModeAppend
	}
	sinks := report.Multi{report.NewTextFile(a.cfg.Report.Path, mode)}

	if a.cfg.Report.WorkbookPath != "" {
		sinks = append(sinks, report.NewWorkbook(a.cfg.Report.WorkbookPath, mode))
	}

	var runID string
	if a.cfg.Report.SQLite {
		if a.store == nil {
			return nil, "", errors.New("app: 已启用 report.sqlite 但未提供数据库")
		}
		sqliteSink, err := report.NewSQLiteSink(a.store, a.logger)
		if err != nil {
			return nil, "", err
		}
		runID = sqliteSink.RunID()
		sinks = append(sinks, sqliteSink)
	}
	return sinks, runID, nil
}

// pricesToReturns 把价格列转换为对数收益，并追加等权组合收益列。
func pricesToReturns(prices metrics.Frame) (metrics.Frame, error) {
	if err := prices.Validate(); err != nil {
		return metrics.Frame{}, err
	}

	out := metrics.Frame{Index: prices.Index}
	for i, col := range prices.Columns {
		rtns, err := metrics.LogReturns(prices.Column(i), 1, true)
		if err != nil {
			return metrics.Frame{}, fmt.Errorf("列 %q: %w", col, err)
		}
		out.Columns = append(out.Columns, col)
		out.Data = append(out.Data, rtns.Values)
	}

	eqw, err := metrics.ComputeEqualWeight(prices, metrics.DefaultCapital)
	if err != nil {
		return metrics.Frame{}, fmt.Errorf("等权组合: %w", err)
	}
	// 第一期没有收益，补 0 与其他列对齐。
	pct := append([]float64{0}, eqw.Returns...)
	out.Columns = append(out.Columns, EqualWeightColumn)
	out.Data = append(out.Data, metrics.PctToLogReturn(metrics.NewSeries(pct), true).Values)
	return out, nil
}
