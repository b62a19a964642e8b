package research

import (
	"context"
	"time"

	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
)

// ComputeStatistics averages the intraday drop (open to low, relative to open)
// and the intraday range (low to high, relative to low) over the bars.
// Bars with a non-positive open or low are ignored.
func ComputeStatistics(symbol string, bars []types.Bar) (types.Statistics, error) {
	var dropSum, spreadSum float64

	count := 0

	for _, bar := range bars {
		if bar.Open <= 0 || bar.Low <= 0 {
			continue
		}

		dropSum += (bar.Open - bar.Low) / bar.Open * 100
		spreadSum += (bar.High - bar.Low) / bar.Low * 100
		count++
	}

	if count == 0 {
		return types.Statistics{}, errors.NewInsufficientDataErrorf(symbol, []string{"bars"}, "no usable daily bars for %s", symbol)
	}

	return types.Statistics{
		AvgDropPct:   dropSum / float64(count),
		AvgSpreadPct: spreadSum / float64(count),
	}, nil
}

// BarStatisticsProvider computes statistics from the most recent daily bars of a BarSource.
type BarStatisticsProvider struct {
	source       BarSource
	lookbackDays int
	now          func() time.Time
}

// NewBarStatisticsProvider creates a provider averaging over lookbackDays trading days.
func NewBarStatisticsProvider(source BarSource, lookbackDays int) *BarStatisticsProvider {
	return &BarStatisticsProvider{
		source:       source,
		lookbackDays: lookbackDays,
		now:          time.Now,
	}
}

// Fetch implements StatisticsProvider.
func (p *BarStatisticsProvider) Fetch(ctx context.Context, symbol string) (types.Statistics, error) {
	to := p.now()
	// Calendar window wide enough to cover lookbackDays sessions across weekends and holidays.
	from := to.AddDate(0, 0, -(p.lookbackDays*7/5 + 7))

	bars, err := p.source.DailyBars(ctx, symbol, from, to)
	if err != nil {
		return types.Statistics{}, errors.Wrapf(errors.ErrCodeStatisticsFetchFailed, err, "failed to fetch daily bars for %s", symbol)
	}

	if len(bars) > p.lookbackDays {
		bars = bars[len(bars)-p.lookbackDays:]
	}

	return ComputeStatistics(symbol, bars)
}
