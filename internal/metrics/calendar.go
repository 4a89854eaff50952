package metrics

import "fmt"

// TradingDays 为默认年化因子。加密市场全年无休，因此取 365 而非 252。
const TradingDays = 365

var pointsPerYear = map[string]int{
	"1m":  60 * 24 * 365,
	"5m":  12 * 24 * 365,
	"10m": 6 * 24 * 365,
	"30m": 2 * 24 * 365,
	"1h":  24 * 365,
	"1d":  365,
}

// DataPointsPerYear 返回给定K线周期一年内的数据点数量。
func DataPointsPerYear(timeframe string) (int, error) {
	n, ok := pointsPerYear[timeframe]
	if !ok {
		return 0, fmt.Errorf("metrics: 周期 %q 暂不支持，请手动添加: %w", timeframe, ErrUnsupportedTimeframe)
	}
	return n, nil
}
