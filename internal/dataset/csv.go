package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"finmetrics/internal/metrics"
)

// ErrMalformed 表示 CSV 内容无法解析为数值表。
var ErrMalformed = errors.New("dataset: CSV 格式错误")

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// LoadCSV 读取带表头的 CSV 文件。
// 首列名为 date/time/timestamp 时作为日期索引，其余列按浮点数解析，空值与 NaN 记为 NaN。
func LoadCSV(path string) (metrics.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return metrics.Frame{}, fmt.Errorf("dataset: 打开 %q 失败: %w", path, err)
	}
	defer f.Close()

	frame, err := ReadCSV(f)
	if err != nil {
		return metrics.Frame{}, fmt.Errorf("dataset: 读取 %q: %w", path, err)
	}
	return frame, nil
}

// ReadCSV 从 r 解析数值表。
func ReadCSV(r io.Reader) (metrics.Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return metrics.Frame{}, fmt.Errorf("缺少表头: %w", ErrMalformed)
		}
		return metrics.Frame{}, err
	}

	dated := len(header) > 0 && isDateColumn(header[0])
	offset := 0
	if dated {
		offset = 1
	}
	columns := make([]string, 0, len(header)-offset)
	for _, name := range header[offset:] {
		columns = append(columns, strings.TrimSpace(name))
	}
	if len(columns) == 0 {
		return metrics.Frame{}, fmt.Errorf("没有数值列: %w", ErrMalformed)
	}

	frame := metrics.Frame{Columns: columns, Data: make([][]float64, len(columns))}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return metrics.Frame{}, fmt.Errorf("第 %d 行: %w", line, err)
		}

		if dated {
			ts, err := parseDate(record[0])
			if err != nil {
				return metrics.Frame{}, fmt.Errorf("第 %d 行: %w", line, err)
			}
			frame.Index = append(frame.Index, ts)
		}
		for i, cell := range record[offset:] {
			v, err := parseCell(cell)
			if err != nil {
				return metrics.Frame{}, fmt.Errorf("第 %d 行列 %q: %w", line, columns[i], err)
			}
			frame.Data[i] = append(frame.Data[i], v)
		}
	}

	if frame.Len() == 0 {
		return metrics.Frame{}, fmt.Errorf("没有数据行: %w", metrics.ErrEmptySeries)
	}
	return frame, nil
}

func isDateColumn(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "date", "time", "timestamp", "datetime":
		return true
	}
	return false
}

func parseDate(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, cell); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析日期 %q: %w", cell, ErrMalformed)
}

func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "nan") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("无法解析数值 %q: %w", cell, ErrMalformed)
	}
	return v, nil
}
