package research

import (
	"github.com/rxtech-lab/equity-trader/internal/config"
	"github.com/rxtech-lab/equity-trader/internal/logger"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
)

// NewStatisticsProvider builds the configured statistics provider, wrapped in
// the SQLite cache when a cache path is set. It returns nil for provider "none".
func NewStatisticsProvider(cfg config.StatisticsConfig, log *logger.Logger) (StatisticsProvider, error) {
	var provider StatisticsProvider

	switch cfg.Provider {
	case "polygon":
		source, err := NewPolygonBarSource(cfg.APIKey, cfg.RequestsPerMinute)
		if err != nil {
			return nil, err
		}

		provider = NewBarStatisticsProvider(source, cfg.LookbackDays)
	case "static":
		stats := make(map[string]types.Statistics, len(cfg.Static))
		for symbol, s := range cfg.Static {
			stats[symbol] = types.Statistics{AvgDropPct: s.AvgDropPct, AvgSpreadPct: s.AvgSpreadPct}
		}

		provider = NewStaticStatisticsProvider(stats)
	case "none", "":
		return nil, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported statistics provider %q", cfg.Provider)
	}

	if cfg.CachePath == "" {
		return provider, nil
	}

	cached, err := NewCachedStatisticsProvider(provider, cfg.CachePath, log)
	if err != nil {
		return nil, err
	}

	return cached, nil
}

// NewRatingsProvider builds the configured ratings provider. It returns nil for provider "none".
func NewRatingsProvider(cfg config.RatingsConfig) (RatingsProvider, error) {
	switch cfg.Provider {
	case "http":
		return NewHTTPRatingsProvider(cfg.URL, cfg.Token, cfg.Timeout), nil
	case "file":
		return NewFileRatingsProvider(cfg.Path), nil
	case "static":
		return NewStaticRatingsProvider(cfg.Static), nil
	case "none", "":
		return nil, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unsupported ratings provider %q", cfg.Provider)
	}
}
