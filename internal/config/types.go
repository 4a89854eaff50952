package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/multierr"

	"finmetrics/internal/metrics"
)

// Config 聚合了系统运行所需的全部配置项。
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Report   ReportConfig   `mapstructure:"report"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// ExchangeConfig 描述交易所凭证，仅供外部交易客户端读取。
type ExchangeConfig struct {
	Name      string `mapstructure:"name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	BaseURL   string `mapstructure:"base_url"`
}

// MetricsConfig 控制指标计算参数。
type MetricsConfig struct {
	Timeframe         string  `mapstructure:"timeframe"`
	ReturnKind        string  `mapstructure:"return_kind"`
	RiskFree          float64 `mapstructure:"risk_free"`
	RollingWindow     int     `mapstructure:"rolling_window"`
	RollingMinPeriods int     `mapstructure:"rolling_min_periods"`
	PCritical         float64 `mapstructure:"p_critical"`
	TailProb          float64 `mapstructure:"tail_prob"`
	Confidence        float64 `mapstructure:"confidence"`
}

// Factor 返回时间周期对应的年化因子。
func (m MetricsConfig) Factor() (float64, error) {
	points, err := metrics.DataPointsPerYear(m.Timeframe)
	if err != nil {
		return 0, err
	}
	return float64(points), nil
}

// Kind 返回收益口径。
func (m MetricsConfig) Kind() (metrics.ReturnKind, error) {
	return metrics.ParseReturnKind(m.ReturnKind)
}

// ReportConfig 控制报告输出。
type ReportConfig struct {
	Path         string `mapstructure:"path"`
	Append       bool   `mapstructure:"append"`
	WorkbookPath string `mapstructure:"workbook_path"`
	PlotDir      string `mapstructure:"plot_dir"`
	SQLite       bool   `mapstructure:"sqlite"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}
	if c.Exchange.Name == "" {
		err = multierr.Append(err, errors.New("exchange.name 不能为空"))
	}
	if u, parseErr := url.Parse(c.Exchange.BaseURL); parseErr != nil || u.Scheme == "" || u.Host == "" {
		err = multierr.Append(err, fmt.Errorf("exchange.base_url %q 不是合法的 URL", c.Exchange.BaseURL))
	}
	if _, tfErr := c.Metrics.Factor(); tfErr != nil {
		err = multierr.Append(err, fmt.Errorf("metrics.timeframe: %w", tfErr))
	}
	if _, kindErr := c.Metrics.Kind(); kindErr != nil {
		err = multierr.Append(err, fmt.Errorf("metrics.return_kind: %w", kindErr))
	}
	if c.Metrics.RollingWindow <= 0 {
		err = multierr.Append(err, errors.New("metrics.rolling_window 必须大于0"))
	}
	if c.Metrics.RollingMinPeriods <= 0 || c.Metrics.RollingMinPeriods > c.Metrics.RollingWindow {
		err = multierr.Append(err, errors.New("metrics.rolling_min_periods 必须位于[1,rolling_window]"))
	}
	if c.Metrics.PCritical <= 0 || c.Metrics.PCritical >= 1 {
		err = multierr.Append(err, errors.New("metrics.p_critical 必须位于(0,1)"))
	}
	if c.Metrics.TailProb <= 0 || c.Metrics.TailProb >= 50 {
		err = multierr.Append(err, errors.New("metrics.tail_prob 必须位于(0,50)"))
	}
	if c.Metrics.Confidence <= 0 || c.Metrics.Confidence >= 1 {
		err = multierr.Append(err, errors.New("metrics.confidence 必须位于(0,1)"))
	}
	if c.Report.Path == "" {
		err = multierr.Append(err, errors.New("report.path 不能为空"))
	}
	if c.Report.SQLite {
		if c.Database.Path == "" && !c.Database.InMemory {
			err = multierr.Append(err, errors.New("database.path 不能为空"))
		}
		if c.Database.MaxOpenConns <= 0 {
			err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
		}
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
