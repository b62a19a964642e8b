// Package metrics exposes Prometheus metrics for the trader.
//
//   - eqt_events_total{type}                 gateway events ingested
//   - eqt_decisions_total{action,reason}     decisions per cycle
//   - eqt_cycles_total{outcome}              completed|aborted|dropped|break
//   - eqt_cycle_duration_seconds             decision cycle latency
//   - eqt_account_usd{metric}                excess_liquidity|net_liquidation|daily_pnl
//   - eqt_gateway_connected                  1 while the gateway session is alive
//   - eqt_market_session{session}            1 for the current session, 0 otherwise
//   - eqt_tracked{kind}                      candidates|positions|live_orders
//
// Metrics are registered on the default registry in init() and served at /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rxtech-lab/equity-trader/internal/types"
)

// Cycle outcomes.
const (
	CycleCompleted = "completed"
	CycleAborted   = "aborted"
	CycleDropped   = "dropped"
	CycleBreak     = "break"
)

var (
	mtxEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eqt_events_total",
			Help: "Gateway events ingested",
		},
		[]string{"type"},
	)

	mtxDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eqt_decisions_total",
			Help: "Decisions taken",
		},
		[]string{"action", "reason"},
	)

	mtxCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eqt_cycles_total",
			Help: "Decision cycles by outcome",
		},
		[]string{"outcome"},
	)

	mtxCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eqt_cycle_duration_seconds",
			Help:    "Duration of completed and aborted decision cycles",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	mtxAccount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eqt_account_usd",
			Help: "Latest account metrics in USD",
		},
		[]string{"metric"},
	)

	mtxConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "eqt_gateway_connected",
			Help: "1 while the gateway session is alive",
		},
	)

	// one labelled series per session, flipped between 0 and 1.
	mtxMarketSession = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eqt_market_session",
			Help: "Current US equity market session",
		},
		[]string{"session"},
	)

	mtxTracked = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eqt_tracked",
			Help: "Tracked candidates, open positions and live orders",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(mtxEvents, mtxDecisions, mtxCycles, mtxCycleDuration)
	prometheus.MustRegister(mtxAccount, mtxConnected, mtxMarketSession, mtxTracked)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveEvent counts one ingested gateway event.
func ObserveEvent(eventType string) { mtxEvents.WithLabelValues(eventType).Inc() }

// ObserveDecision counts one decision.
func ObserveDecision(decision types.Decision) {
	mtxDecisions.WithLabelValues(string(decision.Action), string(decision.Reason)).Inc()
}

// ObserveCycle counts a cycle outcome. A non-zero duration is also recorded.
func ObserveCycle(outcome string, duration time.Duration) {
	mtxCycles.WithLabelValues(outcome).Inc()

	if duration > 0 {
		mtxCycleDuration.Observe(duration.Seconds())
	}
}

// ObserveSnapshot updates the gauges from a presentation snapshot.
func ObserveSnapshot(snapshot types.Snapshot) {
	if snapshot.Connected {
		mtxConnected.Set(1)
	} else {
		mtxConnected.Set(0)
	}

	setOptional("excess_liquidity", snapshot.Account.ExcessLiquidity.TakeOr(0), snapshot.Account.ExcessLiquidity.IsSome())
	setOptional("net_liquidation", snapshot.Account.NetLiquidation.TakeOr(0), snapshot.Account.NetLiquidation.IsSome())
	setOptional("daily_pnl", snapshot.Account.DailyPnL.TakeOr(0), snapshot.Account.DailyPnL.IsSome())

	for _, session := range []types.MarketSession{
		types.MarketSessionPreMarket,
		types.MarketSessionOpen,
		types.MarketSessionAfterMarket,
		types.MarketSessionClosed,
	} {
		if session == snapshot.MarketSession {
			mtxMarketSession.WithLabelValues(string(session)).Set(1)
		} else {
			mtxMarketSession.WithLabelValues(string(session)).Set(0)
		}
	}

	liveOrders := 0
	for _, order := range snapshot.Orders {
		if order.Status.IsLive() {
			liveOrders++
		}
	}

	mtxTracked.WithLabelValues("candidates").Set(float64(len(snapshot.Candidates)))
	mtxTracked.WithLabelValues("positions").Set(float64(len(snapshot.Positions)))
	mtxTracked.WithLabelValues("live_orders").Set(float64(liveOrders))
}

func setOptional(metric string, value float64, known bool) {
	if !known {
		return
	}

	mtxAccount.WithLabelValues(metric).Set(value)
}
