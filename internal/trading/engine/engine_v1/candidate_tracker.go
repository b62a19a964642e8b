package engine_v1

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/equity-trader/internal/config"
	"github.com/rxtech-lab/equity-trader/internal/logger"
	"github.com/rxtech-lab/equity-trader/internal/research"
	tradingprovider "github.com/rxtech-lab/equity-trader/internal/trading/provider"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
	"go.uber.org/zap"
)

// CandidateTracker keeps the live view of every ticker evaluated for entry.
type CandidateTracker struct {
	state   *SessionState
	gateway tradingprovider.Gateway
	log     *logger.Logger
	now     func() time.Time
}

// NewCandidateTracker creates a tracker writing into state.
func NewCandidateTracker(state *SessionState, gateway tradingprovider.Gateway, log *logger.Logger) *CandidateTracker {
	return &CandidateTracker{
		state:   state,
		gateway: gateway,
		log:     log,
		now:     time.Now,
	}
}

// StartTracking subscribes market data for each ticker under a fresh request id.
// A ticker that is already tracked is reported as ErrCodeDuplicateTicker; the
// remaining tickers are still tracked.
func (t *CandidateTracker) StartTracking(ctx context.Context, tickers []config.CandidateConfig) error {
	var errs []error

	for _, ticker := range tickers {
		symbol := strings.ToUpper(strings.TrimSpace(ticker.Ticker))
		if symbol == "" {
			errs = append(errs, errors.New(errors.ErrCodeInvalidParameter, "empty ticker"))

			continue
		}

		if t.IsTracked(symbol) {
			errs = append(errs, errors.Newf(errors.ErrCodeDuplicateTicker, "ticker %s is already tracked", symbol))

			continue
		}

		id, err := t.state.Issue(func(requestID int64) error {
			if !t.addCandidate(types.NewCandidate(symbol, requestID, ticker.Reason)) {
				return errors.Newf(errors.ErrCodeDuplicateTicker, "ticker %s is already tracked", symbol)
			}

			if err := t.gateway.SubscribeMarketData(ctx, requestID, types.StockContract(symbol)); err != nil {
				t.removeCandidate(symbol)

				return errors.Wrapf(errors.ErrCodeRequestFailed, err, "failed to subscribe market data for %s", symbol)
			}

			return nil
		})
		if err != nil {
			t.log.Warn("Failed to track candidate",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			errs = append(errs, err)

			continue
		}

		t.log.Info("Tracking candidate",
			zap.String("symbol", symbol),
			zap.Int64("request_id", id),
			zap.String("reason", ticker.Reason),
		)
	}

	return stderrors.Join(errs...)
}

// StopTracking cancels the ticker's market data and forgets the candidate.
func (t *CandidateTracker) StopTracking(ctx context.Context, ticker string) error {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))

	t.state.mu.Lock()
	candidate, ok := t.state.candidates[symbol]

	var requestID int64
	if ok {
		requestID = candidate.RequestID
		delete(t.state.candidates, symbol)
		delete(t.state.marketData, requestID)
	}
	t.state.mu.Unlock()

	if !ok {
		return errors.Newf(errors.ErrCodeTickerNotTracked, "ticker %s is not tracked", symbol)
	}

	if err := t.gateway.CancelMarketData(ctx, requestID); err != nil {
		return errors.Wrapf(errors.ErrCodeRequestFailed, err, "failed to cancel market data for %s", symbol)
	}

	t.log.Info("Stopped tracking candidate",
		zap.String("symbol", symbol),
		zap.Int64("request_id", requestID),
	)

	return nil
}

// OnPriceUpdate stores a quote field. Updates for unknown request ids are dropped.
func (t *CandidateTracker) OnPriceUpdate(requestID int64, field types.PriceField, price types.Price) bool {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	symbol, ok := t.state.marketData[requestID]
	if !ok {
		t.log.Warn("Dropping price update for unknown request id",
			zap.Int64("request_id", requestID),
			zap.String("field", string(field)),
		)

		return false
	}

	candidate := t.state.candidates[symbol]
	if !candidate.SetPrice(field, price) {
		t.log.Warn("Dropping price update for unknown field",
			zap.String("symbol", symbol),
			zap.String("field", string(field)),
		)

		return false
	}

	candidate.UpdatedAt = t.now()

	return true
}

// EnrichWithStatistics fetches drawdown and spread statistics per candidate.
// A failing ticker keeps unknown statistics and does not stop the others; the
// failures are returned joined.
func (t *CandidateTracker) EnrichWithStatistics(ctx context.Context, provider research.StatisticsProvider) error {
	if provider == nil {
		return nil
	}

	var errs []error

	for _, symbol := range t.Symbols() {
		stats, err := provider.Fetch(ctx, symbol)
		if err != nil {
			t.log.Warn("Failed to fetch statistics",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			errs = append(errs, errors.Wrapf(errors.ErrCodeStatisticsFetchFailed, err, "statistics for %s", symbol))

			continue
		}

		t.state.mu.Lock()
		if candidate, ok := t.state.candidates[symbol]; ok {
			candidate.AvgDrawdownPct = optional.Some(stats.AvgDropPct)
			candidate.AvgSpreadPct = optional.Some(stats.AvgSpreadPct)
		}
		t.state.mu.Unlock()

		t.log.Debug("Statistics loaded",
			zap.String("symbol", symbol),
			zap.Float64("avg_drop_pct", stats.AvgDropPct),
			zap.Float64("avg_spread_pct", stats.AvgSpreadPct),
		)
	}

	return stderrors.Join(errs...)
}

// EnrichWithRatings fetches ratings for every candidate in one call.
// Tickers missing from the response keep an unknown rating.
func (t *CandidateTracker) EnrichWithRatings(ctx context.Context, provider research.RatingsProvider) error {
	if provider == nil {
		return nil
	}

	symbols := t.Symbols()
	if len(symbols) == 0 {
		return nil
	}

	ratings, err := provider.Fetch(ctx, symbols)
	if err != nil {
		t.log.Warn("Failed to fetch ratings", zap.Error(err))

		return errors.Wrap(errors.ErrCodeRatingsFetchFailed, "failed to fetch ratings", err)
	}

	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	for symbol, candidate := range t.state.candidates {
		if rating, ok := ratings[symbol]; ok {
			candidate.Rating = optional.Some(rating)
		}
	}

	return nil
}

// UpdateTargetPrices recomputes every candidate's target entry price.
func (t *CandidateTracker) UpdateTargetPrices() {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	for _, candidate := range t.state.candidates {
		candidate.Target = TargetPrice(*candidate)
	}
}

// Candidates returns copies of the tracked candidates ordered by request id.
func (t *CandidateTracker) Candidates() []types.Candidate {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	candidates := make([]types.Candidate, 0, len(t.state.candidates))
	for _, candidate := range t.state.candidates {
		candidates = append(candidates, *candidate)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].RequestID < candidates[j].RequestID
	})

	return candidates
}

// Symbols returns the tracked tickers ordered by request id.
func (t *CandidateTracker) Symbols() []string {
	candidates := t.Candidates()

	symbols := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		symbols = append(symbols, candidate.Symbol)
	}

	return symbols
}

// IsTracked reports whether the ticker is a candidate.
func (t *CandidateTracker) IsTracked(symbol string) bool {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	_, ok := t.state.candidates[symbol]

	return ok
}

// Resubscribe restores every market-data subscription under its original id.
func (t *CandidateTracker) Resubscribe(ctx context.Context) error {
	var errs []error

	for _, candidate := range t.Candidates() {
		symbol := candidate.Symbol

		err := t.state.Reissue(candidate.RequestID, func(requestID int64) error {
			return t.gateway.SubscribeMarketData(ctx, requestID, types.StockContract(symbol))
		})
		if err != nil {
			errs = append(errs, errors.Wrapf(errors.ErrCodeRequestFailed, err, "failed to resubscribe market data for %s", symbol))
		}
	}

	return stderrors.Join(errs...)
}

func (t *CandidateTracker) addCandidate(candidate types.Candidate) bool {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	if _, exists := t.state.candidates[candidate.Symbol]; exists {
		return false
	}

	t.state.candidates[candidate.Symbol] = &candidate
	t.state.marketData[candidate.RequestID] = candidate.Symbol

	return true
}

func (t *CandidateTracker) removeCandidate(symbol string) {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	if candidate, ok := t.state.candidates[symbol]; ok {
		delete(t.state.marketData, candidate.RequestID)
		delete(t.state.candidates, symbol)
	}
}
