package engine_v1

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/equity-trader/internal/logger"
	tradingprovider "github.com/rxtech-lab/equity-trader/internal/trading/provider"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
	"go.uber.org/zap"
)

// PositionTracker keeps the live set of open positions and their PnL streams.
type PositionTracker struct {
	state     *SessionState
	gateway   tradingprovider.Gateway
	log       *logger.Logger
	timeout   time.Duration
	refreshMu sync.Mutex
}

// NewPositionTracker creates a tracker whose snapshot waits are bounded by timeout.
func NewPositionTracker(state *SessionState, gateway tradingprovider.Gateway, timeout time.Duration, log *logger.Logger) *PositionTracker {
	return &PositionTracker{
		state:     state,
		gateway:   gateway,
		log:       log,
		timeout:   timeout,
		refreshMu: sync.Mutex{},
	}
}

// Refresh requests a full positions snapshot and waits for its end marker.
//
// The staged rows replace the live set only when the end marker arrives. On
// timeout ErrCodeSnapshotTimeout is returned and the last-known set is kept.
func (t *PositionTracker) Refresh(ctx context.Context) error {
	t.refreshMu.Lock()
	defer t.refreshMu.Unlock()

	done := make(chan struct{})

	t.state.mu.Lock()
	t.state.positionStaging = map[string]types.Position{}
	t.state.positionDone = done
	t.state.mu.Unlock()

	if err := t.gateway.RequestPositions(ctx); err != nil {
		t.abandon(done, false)

		return errors.Wrap(errors.ErrCodeRequestFailed, "failed to request positions", err)
	}

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		t.abandon(done, true)

		return errors.Newf(errors.ErrCodeSnapshotTimeout, "positions snapshot did not complete within %s", t.timeout)
	case <-ctx.Done():
		t.abandon(done, true)

		return errors.Wrap(errors.ErrCodeSnapshotTimeout, "positions snapshot cancelled", ctx.Err())
	}
}

// OnPosition stages one snapshot row. Zero-share rows are closed positions and are dropped.
func (t *PositionTracker) OnPosition(event types.PositionEvent) {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	if t.state.positionDone == nil {
		t.log.Debug("Ignoring position row outside of a refresh", zap.String("symbol", event.Symbol))

		return
	}

	if event.Shares == 0 {
		return
	}

	t.state.positionStaging[event.Symbol] = types.Position{
		Symbol:        event.Symbol,
		Shares:        event.Shares,
		AvgCost:       event.AvgCost,
		ContractID:    event.ContractID,
		Value:         optional.None[float64](),
		UnrealizedPnL: optional.None[float64](),
		DailyPnL:      optional.None[float64](),
		PnlRequestID:  optional.None[int64](),
	}
}

// OnPositionEnd promotes the staged snapshot. The end marker of a request
// abandoned on timeout closes that request's tail: the rows staged so far are
// discarded and the current refresh keeps waiting for its own marker.
func (t *PositionTracker) OnPositionEnd() {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	if t.state.positionStale > 0 {
		t.state.positionStale--
		t.log.Debug("Discarding positions of an abandoned request", zap.Int("pending", t.state.positionStale))

		if t.state.positionDone != nil {
			t.state.positionStaging = map[string]types.Position{}
		}

		return
	}

	done := t.state.positionDone
	if done == nil {
		t.log.Debug("Ignoring late positions end marker")

		return
	}

	live := make(map[string]types.Position, len(t.state.positionStaging))

	for symbol, position := range t.state.positionStaging {
		if previous, ok := t.state.positions[symbol]; ok {
			position.Value = previous.Value
			position.UnrealizedPnL = previous.UnrealizedPnL
			position.DailyPnL = previous.DailyPnL
		}

		if id, ok := t.state.pnlIDs[symbol]; ok {
			position.PnlRequestID = optional.Some(id)
		}

		live[symbol] = position
	}

	t.state.positions = live
	t.state.positionStaging = nil
	t.state.positionDone = nil
	close(done)
}

// EnsurePnlTracking subscribes live PnL for the ticker once per session.
// The binding survives the position closing and reopening.
func (t *PositionTracker) EnsurePnlTracking(ctx context.Context, symbol string) error {
	t.state.mu.Lock()
	if _, bound := t.state.pnlIDs[symbol]; bound {
		t.state.mu.Unlock()

		return nil
	}

	position, ok := t.state.positions[symbol]
	t.state.mu.Unlock()

	if !ok {
		return errors.Newf(errors.ErrCodePositionNotFound, "no open position for %s", symbol)
	}

	account := t.gateway.Account()

	id, err := t.state.Issue(func(requestID int64) error {
		if !t.bindPnl(symbol, requestID) {
			return nil
		}

		if err := t.gateway.SubscribePnl(ctx, requestID, account, position.ContractID); err != nil {
			t.unbindPnl(symbol, requestID)

			return errors.Wrapf(errors.ErrCodeRequestFailed, err, "failed to subscribe pnl for %s", symbol)
		}

		return nil
	})
	if err != nil {
		return err
	}

	t.log.Debug("Tracking position pnl",
		zap.String("symbol", symbol),
		zap.Int64("request_id", id),
	)

	return nil
}

// EnsureAllPnlTracking calls EnsurePnlTracking for every open position.
func (t *PositionTracker) EnsureAllPnlTracking(ctx context.Context) error {
	var errs []error

	for _, position := range t.Positions() {
		if err := t.EnsurePnlTracking(ctx, position.Symbol); err != nil {
			errs = append(errs, err)
		}
	}

	return stderrors.Join(errs...)
}

// OnPnlUpdate applies a PnL event to the position bound to its request id.
func (t *PositionTracker) OnPnlUpdate(event types.PnlSingleEvent) bool {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	symbol, ok := t.state.pnlSymbols[event.RequestID]
	if !ok {
		t.log.Warn("Dropping pnl update for unknown request id", zap.Int64("request_id", event.RequestID))

		return false
	}

	position, ok := t.state.positions[symbol]
	if !ok {
		return false
	}

	position.Value = optional.Some(event.Value)
	position.UnrealizedPnL = optional.Some(event.UnrealizedPnL)
	position.DailyPnL = optional.Some(event.DailyPnL)
	t.state.positions[symbol] = position

	return true
}

// Positions returns the open positions ordered by symbol.
func (t *PositionTracker) Positions() []types.Position {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	positions := make([]types.Position, 0, len(t.state.positions))
	for _, position := range t.state.positions {
		positions = append(positions, position)
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})

	return positions
}

// Position returns the open position for symbol.
func (t *PositionTracker) Position(symbol string) (types.Position, bool) {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	position, ok := t.state.positions[symbol]

	return position, ok
}

// IsHeld reports whether an open position exists for symbol.
func (t *PositionTracker) IsHeld(symbol string) bool {
	_, ok := t.Position(symbol)

	return ok
}

// Resubscribe restores every PnL subscription of a currently open position under its original id.
func (t *PositionTracker) Resubscribe(ctx context.Context) error {
	account := t.gateway.Account()

	var errs []error

	for _, position := range t.Positions() {
		id, err := position.PnlRequestID.Take()
		if err != nil {
			continue
		}

		contractID := position.ContractID

		err = t.state.Reissue(id, func(requestID int64) error {
			return t.gateway.SubscribePnl(ctx, requestID, account, contractID)
		})
		if err != nil {
			errs = append(errs, errors.Wrapf(errors.ErrCodeRequestFailed, err, "failed to resubscribe pnl for %s", position.Symbol))
		}
	}

	return stderrors.Join(errs...)
}

// ForgetAbandoned drops the pending tails of abandoned requests. A new gateway
// session never delivers them.
func (t *PositionTracker) ForgetAbandoned() {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	t.state.positionStale = 0
}

// abandon stops waiting for done. sent marks a request that reached the
// gateway, whose end marker is still expected on the stream.
func (t *PositionTracker) abandon(done chan struct{}, sent bool) {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	if t.state.positionDone == done {
		t.state.positionDone = nil
		t.state.positionStaging = nil

		if sent {
			t.state.positionStale++
		}
	}
}

func (t *PositionTracker) bindPnl(symbol string, requestID int64) bool {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	if _, bound := t.state.pnlIDs[symbol]; bound {
		return false
	}

	t.state.pnlIDs[symbol] = requestID
	t.state.pnlSymbols[requestID] = symbol

	if position, ok := t.state.positions[symbol]; ok {
		position.PnlRequestID = optional.Some(requestID)
		t.state.positions[symbol] = position
	}

	return true
}

func (t *PositionTracker) unbindPnl(symbol string, requestID int64) {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	delete(t.state.pnlIDs, symbol)
	delete(t.state.pnlSymbols, requestID)

	if position, ok := t.state.positions[symbol]; ok {
		position.PnlRequestID = optional.None[int64]()
		t.state.positions[symbol] = position
	}
}
