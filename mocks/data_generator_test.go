package mocks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarGenerator_Generate(t *testing.T) {
	gen := NewBarGenerator(42)
	config := DefaultDailyConfig("AAPL")

	bars := gen.Generate(config)
	require.Len(t, bars, config.Count)

	for i, bar := range bars {
		assert.Equal(t, "AAPL", bar.Symbol)
		assert.Positive(t, bar.Open, "open at %d", i)
		assert.Positive(t, bar.Low, "low at %d", i)
		assert.GreaterOrEqual(t, bar.High, bar.Low, "high < low at %d", i)
		assert.GreaterOrEqual(t, bar.High, bar.Open, "high < open at %d", i)
		assert.LessOrEqual(t, bar.Low, bar.Close, "low > close at %d", i)

		if i > 0 {
			assert.Equal(t, config.Interval, bar.Time.Sub(bars[i-1].Time))
		}
	}
}

func TestBarGenerator_Reproducibility(t *testing.T) {
	config := DefaultDailyConfig("MSFT")

	first := NewBarGenerator(7).Generate(config)
	second := NewBarGenerator(7).Generate(config)
	other := NewBarGenerator(8).Generate(config)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
}

func TestFixedBars(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := FixedBars("T", start, [3]float64{100, 98, 103}, [3]float64{50, 49, 51})

	require.Len(t, bars, 2)
	assert.Equal(t, 98.0, bars[0].Low)
	assert.Equal(t, 103.0, bars[0].High)
	assert.Equal(t, start.Add(24*time.Hour), bars[1].Time)
}
