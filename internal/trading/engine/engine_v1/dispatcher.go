package engine_v1

import (
	"github.com/rxtech-lab/equity-trader/internal/logger"
	"github.com/rxtech-lab/equity-trader/internal/metrics"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"go.uber.org/zap"
)

// EventDispatcher routes gateway events to the tracker that owns them.
type EventDispatcher struct {
	state      *SessionState
	candidates *CandidateTracker
	positions  *PositionTracker
	orders     *OrderTracker
	log        *logger.Logger

	// nextIDs receives every NextValidIDEvent after the allocator was seeded.
	nextIDs chan int64
	// closed receives a signal when the gateway reports a dropped connection.
	closed chan struct{}
}

// NewEventDispatcher creates a dispatcher writing into the given trackers.
func NewEventDispatcher(
	state *SessionState,
	candidates *CandidateTracker,
	positions *PositionTracker,
	orders *OrderTracker,
	log *logger.Logger,
) *EventDispatcher {
	return &EventDispatcher{
		state:      state,
		candidates: candidates,
		positions:  positions,
		orders:     orders,
		log:        log,
		nextIDs:    make(chan int64, 1),
		closed:     make(chan struct{}, 1),
	}
}

// Closed signals dropped connections. Drops reported while no one listens
// coalesce into one pending signal.
func (d *EventDispatcher) Closed() <-chan struct{} {
	return d.closed
}

// Dispatch applies one event. It never blocks on a consumer.
func (d *EventDispatcher) Dispatch(event types.Event) {
	metrics.ObserveEvent(eventName(event))

	switch ev := event.(type) {
	case types.PriceEvent:
		d.candidates.OnPriceUpdate(ev.RequestID, ev.Field, ev.Price)
	case types.PositionEvent:
		d.positions.OnPosition(ev)
	case types.PositionEndEvent:
		d.positions.OnPositionEnd()
	case types.OpenOrderEvent:
		d.orders.OnOpenOrder(ev)
	case types.OpenOrderEndEvent:
		d.orders.OnOpenOrderEnd()
	case types.AccountValueEvent:
		if !d.state.SetAccountMetric(ev.Metric, ev.Value) {
			d.log.Warn("Dropping unsupported account metric", zap.String("metric", string(ev.Metric)))
		}
	case types.PnlSingleEvent:
		d.positions.OnPnlUpdate(ev)
	case types.AccountPnlEvent:
		d.state.SetAccountDailyPnL(ev.DailyPnL)
	case types.NextValidIDEvent:
		d.state.SeedRequestIDs(ev.ID)
		d.log.Debug("Next valid request id", zap.Int64("id", ev.ID))
		signalLatest(d.nextIDs, ev.ID)
	case types.ErrorEvent:
		d.onError(ev)
	case types.ConnectionClosedEvent:
		d.log.Warn("Gateway connection closed")

		select {
		case d.closed <- struct{}{}:
		default:
		}
	default:
		d.log.Warn("Dropping unknown event", zap.String("type", eventName(event)))
	}
}

// NextIDs delivers the id of every NextValidIDEvent; only the latest is buffered.
func (d *EventDispatcher) NextIDs() <-chan int64 {
	return d.nextIDs
}

// DrainNextIDs discards a buffered next id from an earlier connect.
func (d *EventDispatcher) DrainNextIDs() {
	select {
	case <-d.nextIDs:
	default:
	}
}

func (d *EventDispatcher) onError(ev types.ErrorEvent) {
	if ev.RequestID > 0 && d.orders.MarkRejected(ev.RequestID) {
		d.log.Warn("Order rejected by gateway",
			zap.Int64("request_id", ev.RequestID),
			zap.Int("code", ev.Code),
			zap.String("message", ev.Message),
		)

		return
	}

	d.log.Warn("Gateway error",
		zap.Int64("request_id", ev.RequestID),
		zap.Int("code", ev.Code),
		zap.String("message", ev.Message),
	)
}

func signalLatest(ch chan int64, id int64) {
	for {
		select {
		case ch <- id:
			return
		default:
		}

		select {
		case <-ch:
		default:
		}
	}
}

func eventName(event types.Event) string {
	switch event.(type) {
	case types.PriceEvent:
		return "price"
	case types.PositionEvent:
		return "position"
	case types.PositionEndEvent:
		return "position_end"
	case types.OpenOrderEvent:
		return "open_order"
	case types.OpenOrderEndEvent:
		return "open_order_end"
	case types.AccountValueEvent:
		return "account_value"
	case types.PnlSingleEvent:
		return "pnl"
	case types.AccountPnlEvent:
		return "account_pnl"
	case types.NextValidIDEvent:
		return "next_valid_id"
	case types.ErrorEvent:
		return "error"
	case types.ConnectionClosedEvent:
		return "connection_closed"
	default:
		return "unknown"
	}
}
