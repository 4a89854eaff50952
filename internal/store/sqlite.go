package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"finmetrics/internal/config"
)

// Store 封装 SQLite 连接。
type Store struct {
	db *sql.DB
}

type poolLimits struct {
	maxOpen  int
	maxIdle  int
	lifetime time.Duration
}

// limitsFor 返回连接池参数。内存库只存在于单个连接中，
// 该连接必须常驻且永不过期，否则表结构会随连接一起丢失。
func limitsFor(cfg config.DatabaseConfig) poolLimits {
	if cfg.InMemory {
		return poolLimits{maxOpen: 1, maxIdle: 1, lifetime: 0}
	}
	return poolLimits{maxOpen: cfg.MaxOpenConns, maxIdle: cfg.MaxIdleConns, lifetime: cfg.ConnMaxLifetime}
}

func dsnFor(cfg config.DatabaseConfig) (string, error) {
	if cfg.InMemory {
		return ":memory:?_foreign_keys=on", nil
	}
	if err := ensureDir(filepath.Dir(cfg.Path)); err != nil {
		return "", err
	}
	return cfg.Path + "?_busy_timeout=5000&_foreign_keys=on", nil
}

// NewSQLite 根据配置初始化 SQLite 存储，报告 sink 在其上建表。
func NewSQLite(cfg config.DatabaseConfig) (*Store, error) {
	dsn, err := dsnFor(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: 打开 SQLite 数据库失败: %w", err)
	}

	limits := limitsFor(cfg)
	conn.SetMaxOpenConns(limits.maxOpen)
	conn.SetMaxIdleConns(limits.maxIdle)
	conn.SetConnMaxLifetime(limits.lifetime)
	conn.SetConnMaxIdleTime(0)

	pragmas := []string{"PRAGMA synchronous=NORMAL;"}
	if !cfg.InMemory {
		pragmas = append([]string{"PRAGMA journal_mode=WAL;"}, pragmas...)
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("store: 执行 %q 失败: %w", p, err)
		}
	}

	return &Store{db: conn}, nil
}

// DB 返回底层 *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close 关闭数据库连接。
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("store: 创建目录 %q 失败: %w", path, err)
	}
	return nil
}
