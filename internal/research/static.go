package research

import (
	"context"

	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
)

// StaticStatisticsProvider serves statistics from configuration.
type StaticStatisticsProvider struct {
	stats map[string]types.Statistics
}

func NewStaticStatisticsProvider(stats map[string]types.Statistics) *StaticStatisticsProvider {
	return &StaticStatisticsProvider{stats: stats}
}

// Fetch implements StatisticsProvider.
func (p *StaticStatisticsProvider) Fetch(_ context.Context, symbol string) (types.Statistics, error) {
	stats, ok := p.stats[symbol]
	if !ok {
		return types.Statistics{}, errors.Newf(errors.ErrCodeDataNotFound, "no static statistics for %s", symbol)
	}

	return stats, nil
}

// StaticRatingsProvider serves ratings from configuration.
type StaticRatingsProvider struct {
	ratings map[string]float64
}

func NewStaticRatingsProvider(ratings map[string]float64) *StaticRatingsProvider {
	return &StaticRatingsProvider{ratings: ratings}
}

// Fetch implements RatingsProvider.
func (p *StaticRatingsProvider) Fetch(_ context.Context, symbols []string) (map[string]float64, error) {
	return pick(p.ratings, symbols), nil
}

// pick returns the entries of ratings for the requested symbols.
func pick(ratings map[string]float64, symbols []string) map[string]float64 {
	result := make(map[string]float64, len(symbols))

	for _, symbol := range symbols {
		if rating, ok := ratings[symbol]; ok {
			result[symbol] = rating
		}
	}

	return result
}
