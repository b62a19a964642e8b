package engine_v1

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rxtech-lab/equity-trader/internal/logger"
	tradingprovider "github.com/rxtech-lab/equity-trader/internal/trading/provider"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
	"go.uber.org/zap"
)

// OrderTracker keeps the live set of open orders.
//
// Orders submitted locally count as live until a snapshot requested after the
// submission no longer reports them.
type OrderTracker struct {
	state     *SessionState
	gateway   tradingprovider.Gateway
	log       *logger.Logger
	timeout   time.Duration
	refreshMu sync.Mutex
}

// NewOrderTracker creates a tracker whose snapshot waits are bounded by timeout.
func NewOrderTracker(state *SessionState, gateway tradingprovider.Gateway, timeout time.Duration, log *logger.Logger) *OrderTracker {
	return &OrderTracker{
		state:     state,
		gateway:   gateway,
		log:       log,
		timeout:   timeout,
		refreshMu: sync.Mutex{},
	}
}

// Refresh requests an open-orders snapshot and waits for its end marker.
// On timeout ErrCodeSnapshotTimeout is returned and the last-known set is kept.
func (t *OrderTracker) Refresh(ctx context.Context) error {
	t.refreshMu.Lock()
	defer t.refreshMu.Unlock()

	done := make(chan struct{})

	t.state.mu.Lock()
	t.state.orderRefresh++
	t.state.orderInFlight = t.state.orderRefresh
	t.state.orderStaging = map[int64]types.Order{}
	t.state.orderDone = done
	t.state.mu.Unlock()

	if err := t.gateway.RequestOpenOrders(ctx); err != nil {
		t.abandon(done, false)

		return errors.Wrap(errors.ErrCodeRequestFailed, "failed to request open orders", err)
	}

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		t.abandon(done, true)

		return errors.Newf(errors.ErrCodeSnapshotTimeout, "open orders snapshot did not complete within %s", t.timeout)
	case <-ctx.Done():
		t.abandon(done, true)

		return errors.Wrap(errors.ErrCodeSnapshotTimeout, "open orders snapshot cancelled", ctx.Err())
	}
}

// OnOpenOrder stages one snapshot row.
func (t *OrderTracker) OnOpenOrder(event types.OpenOrderEvent) {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	if t.state.orderDone == nil {
		t.log.Debug("Ignoring open order row outside of a refresh", zap.Int64("request_id", event.RequestID))

		return
	}

	submittedAt := time.Time{}
	if previous, ok := t.state.orders[event.RequestID]; ok {
		submittedAt = previous.SubmittedAt
	}

	t.state.orderStaging[event.RequestID] = types.Order{
		RequestID:    event.RequestID,
		Symbol:       event.Symbol,
		Action:       event.Action,
		Kind:         event.Kind,
		Quantity:     event.Quantity,
		LimitPrice:   event.LimitPrice,
		TrailPercent: event.TrailPercent,
		Status:       event.Status,
		SubmittedAt:  submittedAt,
	}
}

// OnOpenOrderEnd promotes the staged snapshot, keeping local orders submitted
// after the refresh started. The end marker of a request abandoned on timeout
// only discards the rows staged so far.
func (t *OrderTracker) OnOpenOrderEnd() {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	if t.state.orderStale > 0 {
		t.state.orderStale--
		t.log.Debug("Discarding open orders of an abandoned request", zap.Int("pending", t.state.orderStale))

		if t.state.orderDone != nil {
			t.state.orderStaging = map[int64]types.Order{}
		}

		return
	}

	done := t.state.orderDone
	if done == nil {
		t.log.Debug("Ignoring late open orders end marker")

		return
	}

	live := t.state.orderStaging

	for id, submittedDuring := range t.state.localOrders {
		if _, reported := live[id]; reported {
			delete(t.state.localOrders, id)

			continue
		}

		if submittedDuring >= t.state.orderInFlight {
			live[id] = t.state.orders[id]

			continue
		}

		delete(t.state.localOrders, id)
	}

	t.state.orders = live
	t.state.orderStaging = nil
	t.state.orderDone = nil
	close(done)
}

// RecordSubmitted stores a locally submitted order so the duplicate guard sees it at once.
func (t *OrderTracker) RecordSubmitted(order types.Order) {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	t.state.orders[order.RequestID] = order
	t.state.localOrders[order.RequestID] = t.state.orderRefresh
}

// MarkRejected flags a tracked order as rejected so it no longer counts as live.
func (t *OrderTracker) MarkRejected(requestID int64) bool {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	order, ok := t.state.orders[requestID]
	if !ok || !order.Status.IsLive() {
		return false
	}

	order.Status = types.OrderStatusRejected
	t.state.orders[requestID] = order

	return true
}

// HasLiveOrder reports whether a non-terminal order exists for symbol.
func (t *OrderTracker) HasLiveOrder(symbol string) bool {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	for _, order := range t.state.orders {
		if order.Symbol == symbol && order.Status.IsLive() {
			return true
		}
	}

	return false
}

// Order returns the tracked order for requestID.
func (t *OrderTracker) Order(requestID int64) (types.Order, bool) {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	order, ok := t.state.orders[requestID]

	return order, ok
}

// Orders returns the tracked orders ordered by request id.
func (t *OrderTracker) Orders() []types.Order {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	orders := make([]types.Order, 0, len(t.state.orders))
	for _, order := range t.state.orders {
		orders = append(orders, order)
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].RequestID < orders[j].RequestID
	})

	return orders
}

// ForgetAbandoned drops the pending tails of abandoned requests. A new gateway
// session never delivers them.
func (t *OrderTracker) ForgetAbandoned() {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	t.state.orderStale = 0
}

func (t *OrderTracker) abandon(done chan struct{}, sent bool) {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()

	if t.state.orderDone == done {
		t.state.orderDone = nil
		t.state.orderStaging = nil

		if sent {
			t.state.orderStale++
		}
	}
}
