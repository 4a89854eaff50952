package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"finmetrics/internal/app"
	"finmetrics/internal/config"
	"finmetrics/internal/log"
	"finmetrics/internal/store"
)

func main() {
	var (
		configPath string
		input      app.Input
	)
	flag.StringVar(&configPath, "config", "", "配置文件路径，默认使用 configs/config.yaml")
	flag.StringVar(&input.Path, "input", "", "收益或价格 CSV 文件路径")
	flag.StringVar(&input.Name, "name", "", "报告小节与图像文件名前缀")
	flag.StringVar(&input.Baseline, "baseline", "", "作为基准的列名")
	flag.BoolVar(&input.Prices, "prices", false, "输入为价格序列，自动追加等权组合基准")
	flag.Parse()

	if input.Path == "" {
		fmt.Fprintln(os.Stderr, "缺少 -input 参数")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	var sqliteStore *store.Store
	if cfg.Report.SQLite {
		sqliteStore, err = store.NewSQLite(cfg.Database)
		if err != nil {
			logger.Error("初始化数据库失败", zap.Error(err))
			os.Exit(1)
		}
		defer func() {
			if closeErr := sqliteStore.Close(); closeErr != nil {
				logger.Warn("关闭数据库失败", zap.Error(closeErr))
			}
		}()
	}

	metricsApp := app.New(cfg, logger, sqliteStore)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := metricsApp.Run(ctx, input)
	if err != nil {
		logger.Error("指标计算失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("报告已生成",
		zap.String("report", cfg.Report.Path),
		zap.String("plot", res.PlotPath),
		zap.String("run_id", res.RunID),
	)
}
