package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	values := []float64{4, 1, math.NaN(), 3, 2}

	assert.Equal(t, 1.0, percentile(values, 0))
	assert.Equal(t, 4.0, percentile(values, 100))
	assert.InDelta(t, 2.5, percentile(values, 50), 1e-15)
	assert.InDelta(t, 1.75, percentile(values, 25), 1e-15)
	assert.True(t, math.IsNaN(percentile(values, 101)))
	assert.True(t, math.IsNaN(percentile(nil, 50)))

	// 输入顺序保持不变。
	assert.Equal(t, 4.0, values[0])
}

func TestTailRatio(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1)
	}

	assert.InDelta(t, 95.05/5.95, TailRatio(values, 5), 1e-12)
}

func TestTailRatio_HeavyLossTail(t *testing.T) {
	values := []float64{-0.08, -0.01, 0, 0.01, 0.02}

	got := TailRatio(values, 0)
	assert.InDelta(t, 0.25, got, 1e-15)

	assert.True(t, math.IsNaN(TailRatio([]float64{0, 0, 0}, 5)))
}
