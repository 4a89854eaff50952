package metrics

import "fmt"

// DefaultCapital 为等权组合的初始资金。
const DefaultCapital = 1e6

// EqualWeight 为等权买入持有组合的净值轨迹。
type EqualWeight struct {
	AccountValue      []float64
	Returns           []float64
	CumulativeReturns []float64
}

// ComputeEqualWeight 在首行价格处把资金平均分配到每一列并一直持有。
func ComputeEqualWeight(prices Frame, capital float64) (EqualWeight, error) {
	if err := prices.Validate(); err != nil {
		return EqualWeight{}, err
	}
	rows := prices.Len()
	if rows == 0 {
		return EqualWeight{}, fmt.Errorf("metrics: 价格表为空: %w", ErrEmptySeries)
	}
	if capital <= 0 {
		capital = DefaultCapital
	}

	initial := prices.Row(0)
	weights := make([]float64, len(initial))
	for i, p := range initial {
		if !(p > 0) {
			return EqualWeight{}, fmt.Errorf("metrics: 列 %q 初始价格 %v 必须为正: %w", prices.Columns[i], p, ErrInvalidParameter)
		}
		weights[i] = capital / float64(len(initial)) / p
	}

	account := make([]float64, rows)
	for t := 0; t < rows; t++ {
		var total float64
		for c, w := range weights {
			total += w * prices.Data[c][t]
		}
		account[t] = total
	}

	cumulative := make([]float64, rows)
	for t, v := range account {
		cumulative[t] = v/account[0] - 1
	}

	returns := make([]float64, 0, rows-1)
	for t := 1; t < rows; t++ {
		returns = append(returns, account[t]/account[t-1]-1)
	}

	return EqualWeight{
		AccountValue:      account,
		Returns:           returns,
		CumulativeReturns: cumulative,
	}, nil
}
