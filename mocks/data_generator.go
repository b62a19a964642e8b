package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/equity-trader/internal/types"
)

// BarGenerator generates OHLCV bars for tests.
type BarGenerator struct {
	rng *rand.Rand
}

// NewBarGenerator creates a new BarGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewBarGenerator(seed int64) *BarGenerator {
	return &BarGenerator{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // test data
	}
}

// BarConfig configures how bars are generated.
type BarConfig struct {
	Symbol string
	// StartTime is the time of the first bar.
	StartTime time.Time
	// Interval is the duration between bars.
	Interval time.Duration
	Count    int
	// InitialPrice is the open of the first bar.
	InitialPrice float64
	// Volatility is the per-bar standard deviation of returns (0.02 = 2%).
	Volatility float64
	// Trend is the drift over the whole series.
	Trend          float64
	VolumeBase     float64
	VolumeVariance float64
}

// DefaultDailyConfig returns thirty daily bars starting at the 2024-01-02 close.
func DefaultDailyConfig(symbol string) BarConfig {
	return BarConfig{
		Symbol:         symbol,
		StartTime:      time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC),
		Interval:       24 * time.Hour,
		Count:          30,
		InitialPrice:   100.0,
		Volatility:     0.02,
		Trend:          0.0,
		VolumeBase:     1_000_000,
		VolumeVariance: 0.3,
	}
}

// Generate creates bars following a geometric Brownian motion.
func (g *BarGenerator) Generate(config BarConfig) []types.Bar {
	bars := make([]types.Bar, config.Count)
	price := config.InitialPrice
	at := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := price

		// Box-Muller
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)

		closePrice := open * (1 + config.Volatility*z + drift)
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		high := math.Max(open, closePrice) + math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
		low := math.Min(open, closePrice) - math.Abs(g.rng.Float64()*config.Volatility*open*0.5)

		if low <= 0 {
			low = math.Min(open, closePrice) * 0.99
		}

		volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bars[i] = types.Bar{
			Symbol: config.Symbol,
			Time:   at,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(closePrice, 4),
			Volume: roundToDecimals(volume, 2),
		}

		price = closePrice
		at = at.Add(config.Interval)
	}

	return bars
}

// FixedBars returns bars whose open, low and high are given explicitly.
// Close equals open so only the drop and the range vary.
func FixedBars(symbol string, start time.Time, ohl ...[3]float64) []types.Bar {
	bars := make([]types.Bar, 0, len(ohl))

	for i, v := range ohl {
		bars = append(bars, types.Bar{
			Symbol: symbol,
			Time:   start.Add(time.Duration(i) * 24 * time.Hour),
			Open:   v[0],
			High:   v[2],
			Low:    v[1],
			Close:  v[0],
			Volume: 1000,
		})
	}

	return bars
}

func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
