package research

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/rxtech-lab/equity-trader/internal/logger"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
)

const statisticsCacheTable = "statistics_cache"

// CachedStatisticsProvider stores statistics in SQLite keyed by symbol and
// exchange-local market date so restarts on the same day skip the upstream fetch.
type CachedStatisticsProvider struct {
	inner  StatisticsProvider
	db     *sql.DB
	sq     squirrel.StatementBuilderType
	loc    *time.Location
	now    func() time.Time
	logger *logger.Logger
}

// NewCachedStatisticsProvider opens (or creates) the cache at path.
func NewCachedStatisticsProvider(inner StatisticsProvider, path string, log *logger.Logger) (*CachedStatisticsProvider, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeCacheFailed, err, "failed to open statistics cache %s", path)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	cache := &CachedStatisticsProvider{
		inner:  inner,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		loc:    types.ExchangeLocation(),
		now:    time.Now,
		logger: log,
	}

	if err := cache.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return cache, nil
}

func (c *CachedStatisticsProvider) initialize() error {
	_, err := c.db.Exec(`CREATE TABLE IF NOT EXISTS ` + statisticsCacheTable + ` (
		symbol TEXT NOT NULL,
		market_date TEXT NOT NULL,
		avg_drop_pct REAL NOT NULL,
		avg_spread_pct REAL NOT NULL,
		fetched_at TIMESTAMP NOT NULL,
		PRIMARY KEY (symbol, market_date)
	)`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCacheFailed, "failed to create statistics cache table", err)
	}

	return nil
}

// Fetch implements StatisticsProvider. Cache read and write failures fall back to the inner provider.
func (c *CachedStatisticsProvider) Fetch(ctx context.Context, symbol string) (types.Statistics, error) {
	date := c.now().In(c.loc).Format("2006-01-02")

	stats, found, err := c.lookup(ctx, symbol, date)
	if err != nil {
		c.logger.Warn("Statistics cache read failed", zap.String("symbol", symbol), zap.Error(err))
	} else if found {
		return stats, nil
	}

	stats, err = c.inner.Fetch(ctx, symbol)
	if err != nil {
		return types.Statistics{}, err
	}

	if err := c.store(ctx, symbol, date, stats); err != nil {
		c.logger.Warn("Statistics cache write failed", zap.String("symbol", symbol), zap.Error(err))
	}

	return stats, nil
}

func (c *CachedStatisticsProvider) lookup(ctx context.Context, symbol, date string) (types.Statistics, bool, error) {
	var stats types.Statistics

	err := c.sq.
		Select("avg_drop_pct", "avg_spread_pct").
		From(statisticsCacheTable).
		Where(squirrel.Eq{"symbol": symbol, "market_date": date}).
		RunWith(c.db).
		QueryRowContext(ctx).
		Scan(&stats.AvgDropPct, &stats.AvgSpreadPct)
	if stderrors.Is(err, sql.ErrNoRows) {
		return types.Statistics{}, false, nil
	}

	if err != nil {
		return types.Statistics{}, false, errors.Wrap(errors.ErrCodeCacheFailed, "failed to query statistics cache", err)
	}

	return stats, true, nil
}

func (c *CachedStatisticsProvider) store(ctx context.Context, symbol, date string, stats types.Statistics) error {
	_, err := c.sq.
		Insert(statisticsCacheTable).
		Options("OR REPLACE").
		Columns("symbol", "market_date", "avg_drop_pct", "avg_spread_pct", "fetched_at").
		Values(symbol, date, stats.AvgDropPct, stats.AvgSpreadPct, c.now().UTC()).
		RunWith(c.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCacheFailed, "failed to write statistics cache", err)
	}

	return nil
}

// Close closes the cache database.
func (c *CachedStatisticsProvider) Close() error {
	return c.db.Close()
}
