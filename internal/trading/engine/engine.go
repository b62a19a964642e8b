package engine

import (
	"context"

	"github.com/rxtech-lab/equity-trader/internal/config"
	"github.com/rxtech-lab/equity-trader/internal/research"
	tradingprovider "github.com/rxtech-lab/equity-trader/internal/trading/provider"
	"github.com/rxtech-lab/equity-trader/internal/types"
)

// Lifecycle callback types for the trader engine.
// Callbacks returning an error abort startup when invoked before the first cycle;
// later errors are logged.

// OnEngineStartCallback is called once the gateway is connected and candidates are tracked.
// runID is the session run id when a data output path is set, or an empty string otherwise.
type OnEngineStartCallback func(runID string, symbols []string) error

// OnEngineStopCallback is called when the engine stops (always called via defer).
type OnEngineStopCallback func(err error)

// OnDecisionCallback is called for every decision a cycle produces, skips included.
type OnDecisionCallback func(decision types.Decision) error

// OnOrderSubmittedCallback is called after an order request reached the gateway.
type OnOrderSubmittedCallback func(order types.Order) error

// OnErrorCallback is called when a non-fatal error occurs.
type OnErrorCallback func(err error)

// OnStatsUpdateCallback is called after each decision cycle.
type OnStatsUpdateCallback func(stats types.LiveTradeStats) error

// OnStatusUpdateCallback is called when engine status changes.
type OnStatusUpdateCallback func(status types.EngineStatus) error

// OnSnapshotCallback receives the read-only state on the presentation cadence.
// It runs on the presentation goroutine and must not block.
type OnSnapshotCallback func(snapshot types.Snapshot)

// TraderCallbacks holds all lifecycle callback functions for the trader engine.
// All fields are pointers - nil means no callback will be invoked.
type TraderCallbacks struct {
	// OnEngineStart is called when the engine starts successfully.
	OnEngineStart *OnEngineStartCallback

	// OnEngineStop is called when the engine stops (always called via defer).
	OnEngineStop *OnEngineStopCallback

	// OnDecision is called for each decision.
	OnDecision *OnDecisionCallback

	// OnOrderSubmitted is called for each order handed to the gateway.
	OnOrderSubmitted *OnOrderSubmittedCallback

	// OnError is called when a non-fatal error occurs.
	OnError *OnErrorCallback

	// OnStatsUpdate is called when session statistics are updated.
	OnStatsUpdate *OnStatsUpdateCallback

	// OnStatusUpdate is called when engine status changes.
	OnStatusUpdate *OnStatusUpdateCallback

	// OnSnapshot is called on the presentation cadence.
	OnSnapshot *OnSnapshotCallback
}

// TraderEngine runs the decision and state-synchronization loop against a gateway.
type TraderEngine interface {
	// Initialize sets up the engine with the given configuration.
	Initialize(cfg *config.Config) error

	// SetGateway configures the brokerage gateway.
	SetGateway(gateway tradingprovider.Gateway) error

	// SetStatisticsProvider configures the per-ticker statistics source. Nil disables enrichment.
	SetStatisticsProvider(provider research.StatisticsProvider) error

	// SetRatingsProvider configures the ratings source. Nil disables ratings.
	SetRatingsProvider(provider research.RatingsProvider) error

	// SetDataOutputPath sets the base directory for session data output (decisions, orders, stats).
	// Must be called before Run() if persistence is desired.
	SetDataOutputPath(path string) error

	// Run starts the engine.
	// Blocks until context is cancelled or a fatal startup error occurs.
	Run(ctx context.Context, callbacks TraderCallbacks) error

	// Snapshot returns a copy of the current state.
	Snapshot() types.Snapshot
}
