package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// SheetName 为工作簿中存放指标的工作表。
const SheetName = "metrics"

var workbookHeader = []interface{}{
	"name", "cumulative_return_pct", "annual_return", "annual_volatility", "sharpe_ratio", "volatility",
}

// Workbook 将每个小节追加为 xlsx 工作表中的一行。
// 与 TextFile 相同，ModeOverwrite 只在第一次写入时丢弃已有文件。
type Workbook struct {
	Path    string
	Mode    Mode
	written bool
}

// NewWorkbook 创建 xlsx sink。
func NewWorkbook(path string, mode Mode) *Workbook {
	return &Workbook{Path: path, Mode: mode}
}

// Write 实现 Sink，每次写入后立即保存。
func (w *Workbook) Write(_ context.Context, s Section) error {
	fresh := w.Mode == ModeOverwrite && !w.written
	f, err := w.open(fresh)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return fmt.Errorf("report: 读取工作表失败: %w", err)
	}
	next := len(rows) + 1
	if len(rows) == 0 {
		if err := f.SetSheetRow(SheetName, "A1", &workbookHeader); err != nil {
			return fmt.Errorf("report: 写入表头失败: %w", err)
		}
		next = 2
	}

	row := []interface{}{
		s.Name,
		cellValue(s.CumulativeReturn * 100),
		cellValue(s.AnnualReturn),
		cellValue(s.AnnualVolatility),
		cellValue(s.SharpeRatio),
		cellValue(s.Volatility),
	}
	cell, err := excelize.CoordinatesToCellName(1, next)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
		return fmt.Errorf("report: 写入第 %d 行失败: %w", next, err)
	}

	if err := f.SaveAs(w.Path); err != nil {
		return fmt.Errorf("report: 保存 %q 失败: %w", w.Path, err)
	}
	w.written = true
	return nil
}

func (w *Workbook) open(fresh bool) (*excelize.File, error) {
	if _, err := os.Stat(w.Path); err == nil && !fresh {
		f, err := excelize.OpenFile(w.Path)
		if err != nil {
			return nil, fmt.Errorf("report: 打开 %q 失败: %w", w.Path, err)
		}
		if idx, _ := f.GetSheetIndex(SheetName); idx < 0 {
			if _, err := f.NewSheet(SheetName); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("report: 创建工作表失败: %w", err)
			}
		}
		return f, nil
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("report: 检查 %q 失败: %w", w.Path, err)
	}

	if dir := filepath.Dir(w.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("report: 创建目录 %q 失败: %w", dir, err)
		}
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("report: 创建工作表失败: %w", err)
	}
	return f, nil
}

// cellValue 把 NaN 和无穷大写成文本，xlsx 不能存储这些数值。
func cellValue(v float64) interface{} {
	if s, ok := special(v); ok {
		return s
	}
	return v
}
