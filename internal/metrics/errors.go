package metrics

import "errors"

var (
	// ErrUnsupportedTimeframe 表示未登记的K线周期。
	ErrUnsupportedTimeframe = errors.New("timeframe not supported")
	// ErrUnmatchedDates 表示收益序列与基准序列日期无法对齐。
	ErrUnmatchedDates = errors.New("unmatched dates")
	// ErrInvalidParameter 表示参数超出合法范围。
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrEmptySeries 表示输入序列为空。
	ErrEmptySeries = errors.New("empty series")
)
