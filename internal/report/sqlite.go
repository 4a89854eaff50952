package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"finmetrics/internal/store"
)

// SQLiteSink 把报告小节写入 metric_reports 表，同一次运行共用一个 run id。
type SQLiteSink struct {
	db     *sql.DB
	runID  string
	logger *zap.Logger
}

// Record 为 metric_reports 中的一行。NaN 以 NULL 入库，读回时仍为 NaN。
type Record struct {
	RunID     string
	Section   Section
	CreatedAt time.Time
}

// NewSQLiteSink 初始化表结构并生成新的 run id。
func NewSQLiteSink(store *store.Store, logger *zap.Logger) (*SQLiteSink, error) {
	if store == nil {
		return nil, errors.New("report: store 不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &SQLiteSink{
		db:     store.DB(),
		runID:  uuid.NewString(),
		logger: logger,
	}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSink) initSchema() error {
	stmt := `
CREATE TABLE IF NOT EXISTS metric_reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	name TEXT NOT NULL,
	cumulative_return REAL,
	annual_return REAL,
	annual_volatility REAL,
	sharpe_ratio REAL,
	volatility REAL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_metric_reports_run ON metric_reports(run_id);
`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("report: 初始化表失败: %w", err)
	}
	return nil
}

// RunID 返回本次运行的标识。
func (s *SQLiteSink) RunID() string {
	return s.runID
}

// Write 实现 Sink。
func (s *SQLiteSink) Write(ctx context.Context, sec Section) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metric_reports (run_id, name, cumulative_return, annual_return, annual_volatility, sharpe_ratio, volatility, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, sec.Name,
		nullable(sec.CumulativeReturn), nullable(sec.AnnualReturn), nullable(sec.AnnualVolatility),
		nullable(sec.SharpeRatio), nullable(sec.Volatility),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("report: 写入小节 %q 失败: %w", sec.Name, err)
	}
	s.logger.Debug("报告小节已入库", zap.String("run_id", s.runID), zap.String("name", sec.Name))
	return nil
}

// List 按写入顺序返回指定运行的全部小节。
func (s *SQLiteSink) List(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, name, cumulative_return, annual_return, annual_volatility, sharpe_ratio, volatility, created_at
FROM metric_reports WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("report: 查询失败: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var cum, annRet, annVol, sr, vol sql.NullFloat64
		var created string
		if err := rows.Scan(&rec.RunID, &rec.Section.Name, &cum, &annRet, &annVol, &sr, &vol, &created); err != nil {
			return nil, fmt.Errorf("report: 读取记录失败: %w", err)
		}
		rec.Section.CumulativeReturn = fromNullable(cum)
		rec.Section.AnnualReturn = fromNullable(annRet)
		rec.Section.AnnualVolatility = fromNullable(annVol)
		rec.Section.SharpeRatio = fromNullable(sr)
		rec.Section.Volatility = fromNullable(vol)
		if rec.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("report: 解析时间失败: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
