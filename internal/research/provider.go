// Package research supplies the per-ticker statistics and analyst ratings the
// decision engine consumes. Fetching is outside the decision loop: the engine
// calls these providers once at startup to enrich its candidates.
package research

import (
	"context"
	"time"

	"github.com/rxtech-lab/equity-trader/internal/types"
)

// StatisticsProvider returns historical price statistics for one ticker.
// A failure concerns that ticker only.
type StatisticsProvider interface {
	Fetch(ctx context.Context, symbol string) (types.Statistics, error)
}

// RatingsProvider returns ratings for a batch of tickers.
// Tickers missing from the result have no rating. A failure concerns the whole batch.
type RatingsProvider interface {
	Fetch(ctx context.Context, symbols []string) (map[string]float64, error)
}

// BarSource returns daily bars in [from, to], oldest first.
type BarSource interface {
	DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]types.Bar, error)
}
