package metrics

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// ReturnKind 声明收益序列的口径，每次调用都必须显式给出。
type ReturnKind int

const (
	// KindLog 对数收益。
	KindLog ReturnKind = iota
	// KindPct 百分比（简单）收益。
	KindPct
)

func (k ReturnKind) String() string {
	switch k {
	case KindLog:
		return "log"
	case KindPct:
		return "pct"
	default:
		return fmt.Sprintf("ReturnKind(%d)", int(k))
	}
}

// ParseReturnKind 解析配置中的收益口径。
func ParseReturnKind(s string) (ReturnKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "log":
		return KindLog, nil
	case "pct", "percent", "percentage", "simple":
		return KindPct, nil
	default:
		return 0, fmt.Errorf("metrics: 未知收益口径 %q: %w", s, ErrInvalidParameter)
	}
}

// Series 为按时间排序的数值序列，缺失值用 NaN 表示。
// Index 为空时按位置对齐。
type Series struct {
	Index  []time.Time
	Values []float64
}

// NewSeries 创建按位置对齐的序列。
func NewSeries(values []float64) Series {
	return Series{Values: values}
}

// NewIndexedSeries 创建带日期索引的序列。
func NewIndexedSeries(index []time.Time, values []float64) (Series, error) {
	if len(index) != len(values) {
		return Series{}, fmt.Errorf("metrics: 索引长度 %d 与数据长度 %d 不一致: %w", len(index), len(values), ErrInvalidParameter)
	}
	return Series{Index: index, Values: values}, nil
}

// Len 返回序列长度。
func (s Series) Len() int {
	return len(s.Values)
}

// Indexed 判断序列是否携带日期索引。
func (s Series) Indexed() bool {
	return len(s.Index) > 0
}

func (s Series) withValues(values []float64) Series {
	return Series{Index: s.Index, Values: values}
}

func (s Series) align(target Series) ([]float64, error) {
	matched, err := ReindexDates(s, target)
	if err != nil {
		return nil, err
	}
	return matched.Values, nil
}

func (s Series) toLog() Benchmark {
	return PctToLogReturn(s, true)
}

// Benchmark 为超额收益的参照：常数收益率 Rate 或基准收益序列 Series。
type Benchmark interface {
	align(target Series) ([]float64, error)
	toLog() Benchmark
}

// Rate 为每期常数基准收益率，例如无风险利率 0。
type Rate float64

func (r Rate) align(target Series) ([]float64, error) {
	out := make([]float64, target.Len())
	for i := range out {
		out[i] = float64(r)
	}
	if isNaN(float64(r)) {
		return nil, fmt.Errorf("metrics: NaN #%d: %w", len(out), ErrUnmatchedDates)
	}
	return out, nil
}

func (r Rate) toLog() Benchmark {
	return Rate(pctToLog(float64(r)))
}

// Frame 为多列序列，每列对应一个资产或一次训练结果。Data[col][row]。
type Frame struct {
	Index   []time.Time
	Columns []string
	Data    [][]float64
}

// Width 返回列数。
func (f Frame) Width() int {
	return len(f.Data)
}

// Len 返回行数。
func (f Frame) Len() int {
	if len(f.Data) == 0 {
		return len(f.Index)
	}
	return len(f.Data[0])
}

// Column 返回第 i 列。
func (f Frame) Column(i int) Series {
	return Series{Index: f.Index, Values: f.Data[i]}
}

// ColumnByName 按列名查找。
func (f Frame) ColumnByName(name string) (Series, bool) {
	for i, col := range f.Columns {
		if col == name {
			return f.Column(i), true
		}
	}
	return Series{}, false
}

// Row 返回第 i 行的所有列。
func (f Frame) Row(i int) []float64 {
	row := make([]float64, len(f.Data))
	for c := range f.Data {
		row[c] = f.Data[c][i]
	}
	return row
}

// Validate 检查列名、索引与数据形状是否一致。
func (f Frame) Validate() error {
	if len(f.Data) == 0 {
		return fmt.Errorf("metrics: frame 没有任何列: %w", ErrEmptySeries)
	}
	if len(f.Columns) != len(f.Data) {
		return fmt.Errorf("metrics: 列名数量 %d 与列数 %d 不一致: %w", len(f.Columns), len(f.Data), ErrInvalidParameter)
	}
	rows := len(f.Data[0])
	for i, col := range f.Data {
		if len(col) != rows {
			return fmt.Errorf("metrics: 列 %q 长度 %d 与首列 %d 不一致: %w", f.Columns[i], len(col), rows, ErrInvalidParameter)
		}
	}
	if len(f.Index) > 0 && len(f.Index) != rows {
		return fmt.Errorf("metrics: 索引长度 %d 与行数 %d 不一致: %w", len(f.Index), rows, ErrInvalidParameter)
	}
	return nil
}

// Apply 对每一列计算一个标量，单列失败不会中断其余列，错误统一汇总返回。
func (f Frame) Apply(fn func(name string, s Series) (float64, error)) (map[string]float64, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	out := make(map[string]float64, f.Width())
	var errs error
	for i, name := range f.Columns {
		v, err := fn(name, f.Column(i))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("列 %q: %w", name, err))
			continue
		}
		out[name] = v
	}
	return out, errs
}
