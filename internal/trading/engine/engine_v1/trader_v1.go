package engine_v1

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rxtech-lab/equity-trader/internal/config"
	"github.com/rxtech-lab/equity-trader/internal/logger"
	"github.com/rxtech-lab/equity-trader/internal/metrics"
	"github.com/rxtech-lab/equity-trader/internal/research"
	"github.com/rxtech-lab/equity-trader/internal/trading/engine"
	"github.com/rxtech-lab/equity-trader/internal/trading/engine/engine_v1/audit"
	"github.com/rxtech-lab/equity-trader/internal/trading/engine/engine_v1/session"
	"github.com/rxtech-lab/equity-trader/internal/trading/engine/engine_v1/stats"
	"github.com/rxtech-lab/equity-trader/internal/trading/engine/engine_v1/writers"
	tradingprovider "github.com/rxtech-lab/equity-trader/internal/trading/provider"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
	"go.uber.org/zap"
)

// Session output files.
const (
	DecisionsFile = "decisions.parquet"
	OrdersFile    = "orders.parquet"
	StatsFile     = "stats.yaml"
)

// TraderEngineV1 implements engine.TraderEngine.
type TraderEngineV1 struct {
	config         config.Config
	gateway        tradingprovider.Gateway
	statistics     research.StatisticsProvider
	ratings        research.RatingsProvider
	dataOutputPath string
	log            *logger.Logger
	initialized    bool
	now            func() time.Time

	running atomic.Bool
	busy    atomic.Bool

	// mu guards the component pointers and lastCycle for Snapshot callers.
	mu         sync.RWMutex
	state      *SessionState
	candidates *CandidateTracker
	positions  *PositionTracker
	orders     *OrderTracker
	decisions  *DecisionEngine
	dispatcher *EventDispatcher
	lastCycle  time.Time

	callbacks engine.TraderCallbacks

	// Session outputs, only touched by Run and the cycle goroutine.
	sessionManager  *session.SessionManager
	statsTracker    *stats.StatsTracker
	decisionsWriter *writers.DecisionsWriter
	ordersWriter    *writers.OrdersWriter
	auditTrail      *audit.Trail
}

// NewTraderEngineV1 creates an engine logging to log.
func NewTraderEngineV1(log *logger.Logger) *TraderEngineV1 {
	return &TraderEngineV1{
		config:          config.Config{}, //nolint:exhaustruct // set by Initialize()
		gateway:         nil,
		statistics:      nil,
		ratings:         nil,
		dataOutputPath:  "",
		log:             log,
		initialized:     false,
		now:             time.Now,
		running:         atomic.Bool{},
		busy:            atomic.Bool{},
		mu:              sync.RWMutex{},
		state:           nil,
		candidates:      nil,
		positions:       nil,
		orders:          nil,
		decisions:       nil,
		dispatcher:      nil,
		lastCycle:       time.Time{},
		callbacks:       engine.TraderCallbacks{}, //nolint:exhaustruct // set by Run()
		sessionManager:  nil,
		statsTracker:    nil,
		decisionsWriter: nil,
		ordersWriter:    nil,
		auditTrail:      nil,
	}
}

// Initialize implements engine.TraderEngine.
func (e *TraderEngineV1) Initialize(cfg *config.Config) error {
	if cfg == nil {
		return errors.New(errors.ErrCodeInvalidConfiguration, "config is required")
	}

	if err := cfg.Trading.Validate(); err != nil {
		return err
	}

	e.config = *cfg

	if e.config.Gateway.ConnectTimeout <= 0 {
		e.config.Gateway.ConnectTimeout = config.DefaultConnectTimeout
	}

	if e.config.Gateway.SnapshotTimeout <= 0 {
		e.config.Gateway.SnapshotTimeout = config.DefaultSnapshotTimeout
	}

	if e.config.Schedule.WorkerInterval <= 0 {
		e.config.Schedule.WorkerInterval = config.DefaultWorkerInterval
	}

	if e.config.Schedule.UIInterval <= 0 {
		e.config.Schedule.UIInterval = config.DefaultUIInterval
	}

	e.initialized = true

	e.log.Debug("Trader engine initialized",
		zap.Strings("candidates", e.config.Tickers()),
		zap.Duration("worker_interval", e.config.Schedule.WorkerInterval),
		zap.Duration("ui_interval", e.config.Schedule.UIInterval),
	)

	return nil
}

// SetGateway implements engine.TraderEngine.
func (e *TraderEngineV1) SetGateway(gateway tradingprovider.Gateway) error {
	e.gateway = gateway
	e.log.Debug("Gateway set")

	return nil
}

// SetStatisticsProvider implements engine.TraderEngine.
func (e *TraderEngineV1) SetStatisticsProvider(provider research.StatisticsProvider) error {
	e.statistics = provider

	return nil
}

// SetRatingsProvider implements engine.TraderEngine.
func (e *TraderEngineV1) SetRatingsProvider(provider research.RatingsProvider) error {
	e.ratings = provider

	return nil
}

// SetDataOutputPath implements engine.TraderEngine.
func (e *TraderEngineV1) SetDataOutputPath(path string) error {
	e.dataOutputPath = path

	return nil
}

// Run implements engine.TraderEngine.
//
//nolint:gocyclo // Run orchestrates startup, both cadences and shutdown
func (e *TraderEngineV1) Run(ctx context.Context, callbacks engine.TraderCallbacks) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New(errors.ErrCodeEngineAlreadyRunning, "engine is already running")
	}
	defer e.running.Store(false)

	e.callbacks = callbacks

	var (
		runErr error
		cycles sync.WaitGroup
	)

	ingestCtx, stopIngest := context.WithCancel(context.Background())
	ingestDone := make(chan struct{})
	ingestStarted := false

	// Always wait for the in-flight cycle, release outputs and call OnEngineStop.
	defer func() {
		cycles.Wait()

		if e.gateway != nil && e.gateway.IsConnected() {
			if err := e.gateway.Disconnect(); err != nil {
				e.log.Warn("Failed to disconnect gateway", zap.Error(err))
			}
		}

		stopIngest()

		if ingestStarted {
			<-ingestDone
		}

		e.emitStatus(types.EngineStatusStopped)
		e.closeOutputs()

		if callbacks.OnEngineStop != nil {
			(*callbacks.OnEngineStop)(runErr)
		}
	}()

	if err := e.preRunCheck(); err != nil {
		runErr = err

		return err
	}

	if err := e.openOutputs(); err != nil {
		runErr = err

		return err
	}

	e.wire()

	go func() {
		defer close(ingestDone)
		e.ingest(ingestCtx)
	}()

	ingestStarted = true

	e.emitStatus(types.EngineStatusConnecting)

	if err := e.connectWithRetry(ctx); err != nil {
		runErr = err

		return err
	}

	if err := e.subscribeAccount(ctx); err != nil {
		e.log.Warn("Account subscriptions incomplete", zap.Error(err))
		e.reportError(err)
	}

	if callbacks.OnEngineStart != nil {
		runID := ""
		if e.sessionManager != nil {
			runID = e.sessionManager.GetRunID()
		}

		if err := (*callbacks.OnEngineStart)(runID, e.config.Tickers()); err != nil {
			runErr = errors.Wrap(errors.ErrCodeCallbackFailed, "OnEngineStart callback failed", err)

			return runErr
		}
	}

	if err := e.candidates.StartTracking(ctx, e.config.Candidates); err != nil {
		e.log.Warn("Some candidates could not be tracked", zap.Error(err))
		e.reportError(err)
	}

	e.emitStatus(types.EngineStatusEnriching)
	e.enrich(ctx)

	e.emitStatus(types.EngineStatusRunning)

	worker := time.NewTicker(e.config.Schedule.WorkerInterval)
	defer worker.Stop()

	ui := time.NewTicker(e.config.Schedule.UIInterval)
	defer ui.Stop()

	e.log.Info("Trader running",
		zap.Strings("candidates", e.candidates.Symbols()),
		zap.Duration("worker_interval", e.config.Schedule.WorkerInterval),
	)

	e.publishSnapshot()
	e.scheduleCycle(ctx, &cycles)

	for {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()

			return runErr
		case <-worker.C:
			e.scheduleCycle(ctx, &cycles)
		case <-e.dispatcher.Closed():
			e.log.Info("Connection lost, reconnecting before the next tick")
			e.scheduleCycle(ctx, &cycles)
		case <-ui.C:
			e.publishSnapshot()
		}
	}
}

// RunCycle runs one decision cycle: connection check, order and position
// refresh, then the candidate and the position pass. The returned decisions are
// already journaled and reported.
func (e *TraderEngineV1) RunCycle(ctx context.Context) ([]types.Decision, error) {
	start := e.now()
	decisions, err := e.runCycle(ctx)
	finished := e.now()

	e.mu.Lock()
	e.lastCycle = finished
	e.mu.Unlock()

	if err != nil {
		e.log.Warn("Decision cycle aborted",
			zap.String("category", string(errors.GetCode(err).Category())),
			zap.Bool("transient", errors.IsTransient(err)),
			zap.Error(err))
		e.reportError(err)
		metrics.ObserveCycle(metrics.CycleAborted, finished.Sub(start))
	} else {
		metrics.ObserveCycle(metrics.CycleCompleted, finished.Sub(start))
	}

	e.statsTracker.RecordCycle(err != nil)
	e.recordDecisions(decisions)
	e.afterCycle(finished)

	return decisions, err
}

// Snapshot implements engine.TraderEngine.
func (e *TraderEngineV1) Snapshot() types.Snapshot {
	now := e.now()

	e.mu.RLock()
	state, candidates, positions, orders, lastCycle := e.state, e.candidates, e.positions, e.orders, e.lastCycle
	e.mu.RUnlock()

	snapshot := types.Snapshot{
		Time:          now,
		Connected:     e.gateway != nil && e.gateway.IsConnected(),
		MarketSession: types.MarketSessionAt(now, types.ExchangeLocation()),
		Account:       types.NewAccountState(),
		Candidates:    []types.Candidate{},
		Positions:     []types.Position{},
		Orders:        []types.Order{},
		LastCycle:     lastCycle,
	}

	if state == nil {
		return snapshot
	}

	snapshot.Account = state.Account()
	snapshot.Candidates = candidates.Candidates()
	snapshot.Positions = positions.Positions()
	snapshot.Orders = orders.Orders()

	return snapshot
}

func (e *TraderEngineV1) runCycle(ctx context.Context) ([]types.Decision, error) {
	if !e.gateway.IsConnected() {
		if err := e.reconnect(ctx); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCycleAborted, "gateway is disconnected and reconnect failed", err)
		}
	}

	if err := e.orders.Refresh(ctx); err != nil {
		e.log.Warn("Open orders refresh failed, keeping last known orders", zap.Error(err))
	}

	if err := e.positions.Refresh(ctx); err != nil {
		e.log.Warn("Positions refresh failed, keeping last known positions", zap.Error(err))
	}

	if err := e.positions.EnsureAllPnlTracking(ctx); err != nil {
		e.log.Warn("PnL tracking incomplete", zap.Error(err))
	}

	e.candidates.UpdateTargetPrices()

	decisions := e.decisions.EvaluateCandidates(ctx)
	decisions = append(decisions, e.decisions.EvaluatePositions(ctx)...)

	return decisions, nil
}

// scheduleCycle starts a cycle unless one is still running or the clock is inside the technical break.
func (e *TraderEngineV1) scheduleCycle(ctx context.Context, cycles *sync.WaitGroup) {
	now := e.now()

	if e.config.Schedule.TechnicalBreak.InBreak(now) {
		e.log.Debug("Inside technical break, skipping cycle", zap.Time("time", now))
		e.statsTracker.RecordBreakSkip()
		metrics.ObserveCycle(metrics.CycleBreak, 0)

		return
	}

	if !e.busy.CompareAndSwap(false, true) {
		e.log.Debug("Previous cycle still running, dropping tick", zap.Time("time", now))
		e.statsTracker.RecordDroppedTick()
		metrics.ObserveCycle(metrics.CycleDropped, 0)

		return
	}

	cycleCtx := context.WithoutCancel(ctx)

	cycles.Add(1)

	go func() {
		defer cycles.Done()
		defer e.busy.Store(false)

		_, _ = e.RunCycle(cycleCtx)
	}()
}

func (e *TraderEngineV1) ingest(ctx context.Context) {
	events := e.gateway.Events()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				e.log.Warn("Gateway event stream closed")

				return
			}

			e.dispatcher.Dispatch(event)
		}
	}
}

// connect opens the session and waits for the next valid request id.
func (e *TraderEngineV1) connect(ctx context.Context) error {
	e.dispatcher.DrainNextIDs()

	conn := tradingprovider.ConnectionConfig{
		Host:     e.config.Gateway.Host,
		Port:     e.config.Gateway.Port,
		ClientID: e.config.Gateway.ClientID,
	}

	if err := e.gateway.Connect(ctx, conn); err != nil {
		return errors.Wrap(errors.ErrCodeConnectFailed, "failed to connect to gateway", err)
	}

	timer := time.NewTimer(e.config.Gateway.ConnectTimeout)
	defer timer.Stop()

	select {
	case id := <-e.dispatcher.NextIDs():
		e.log.Info("Gateway connected", zap.Int64("next_request_id", id))

		return nil
	case <-timer.C:
		return errors.Newf(errors.ErrCodeNextIDTimeout, "no next valid id within %s", e.config.Gateway.ConnectTimeout)
	case <-ctx.Done():
		return errors.Wrap(errors.ErrCodeNextIDTimeout, "cancelled while waiting for next valid id", ctx.Err())
	}
}

// connectWithRetry keeps connecting until the gateway answers or ctx ends.
func (e *TraderEngineV1) connectWithRetry(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		err := e.connect(ctx)
		if err == nil {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		e.log.Warn("Gateway connect failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", e.config.Gateway.ConnectTimeout),
			zap.Error(err),
		)
		e.reportError(err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.config.Gateway.ConnectTimeout):
		}
	}
}

// reconnect restores the session and every stream under its original id.
func (e *TraderEngineV1) reconnect(ctx context.Context) error {
	e.emitStatus(types.EngineStatusReconnecting)

	if err := e.connect(ctx); err != nil {
		return err
	}

	e.orders.ForgetAbandoned()
	e.positions.ForgetAbandoned()

	err := stderrors.Join(
		e.candidates.Resubscribe(ctx),
		e.positions.Resubscribe(ctx),
		e.resubscribeAccount(ctx),
	)
	if err != nil {
		e.log.Warn("Some subscriptions were not restored", zap.Error(err))
	}

	e.emitStatus(types.EngineStatusRunning)

	return nil
}

// subscribeAccount starts the account metric and account PnL streams.
// Ids are bound before the request so a failed stream is retried on reconnect.
func (e *TraderEngineV1) subscribeAccount(ctx context.Context) error {
	var errs []error

	for _, metric := range []types.AccountMetric{types.AccountMetricExcessLiquidity, types.AccountMetricNetLiquidation} {
		_, err := e.state.Issue(func(requestID int64) error {
			e.state.bindAccountMetric(requestID, metric)

			return e.gateway.SubscribeAccountMetric(ctx, requestID, metric)
		})
		if err != nil {
			errs = append(errs, errors.Wrapf(errors.ErrCodeRequestFailed, err, "failed to subscribe %s", metric))
		}
	}

	_, err := e.state.Issue(func(requestID int64) error {
		e.state.bindAccountPnl(requestID)

		return e.gateway.SubscribeAccountPnl(ctx, requestID, e.gateway.Account())
	})
	if err != nil {
		errs = append(errs, errors.Wrap(errors.ErrCodeRequestFailed, "failed to subscribe account pnl", err))
	}

	return stderrors.Join(errs...)
}

func (e *TraderEngineV1) resubscribeAccount(ctx context.Context) error {
	accountIDs, pnlID := e.state.accountSubscriptions()

	var errs []error

	for requestID, metric := range accountIDs {
		err := e.state.Reissue(requestID, func(requestID int64) error {
			return e.gateway.SubscribeAccountMetric(ctx, requestID, metric)
		})
		if err != nil {
			errs = append(errs, errors.Wrapf(errors.ErrCodeRequestFailed, err, "failed to resubscribe %s", metric))
		}
	}

	if requestID, err := pnlID.Take(); err == nil {
		err := e.state.Reissue(requestID, func(requestID int64) error {
			return e.gateway.SubscribeAccountPnl(ctx, requestID, e.gateway.Account())
		})
		if err != nil {
			errs = append(errs, errors.Wrap(errors.ErrCodeRequestFailed, "failed to resubscribe account pnl", err))
		}
	}

	return stderrors.Join(errs...)
}

// enrich loads statistics and ratings once. Failures leave the fields unknown.
func (e *TraderEngineV1) enrich(ctx context.Context) {
	if err := e.candidates.EnrichWithStatistics(ctx, e.statistics); err != nil {
		e.log.Warn("Statistics enrichment incomplete", zap.Error(err))
		e.reportError(err)
	}

	if err := e.candidates.EnrichWithRatings(ctx, e.ratings); err != nil {
		e.log.Warn("Ratings enrichment failed", zap.Error(err))
		e.reportError(err)
	}

	e.candidates.UpdateTargetPrices()
}

// recordDecisions counts, journals and reports the decisions of one cycle.
func (e *TraderEngineV1) recordDecisions(decisions []types.Decision) {
	for _, decision := range decisions {
		e.statsTracker.RecordDecision(decision)
		metrics.ObserveDecision(decision)

		if e.callbacks.OnDecision != nil {
			if err := (*e.callbacks.OnDecision)(decision); err != nil {
				e.log.Warn("OnDecision callback failed", zap.Error(err))
			}
		}

		if !decision.IsSubmission() || e.callbacks.OnOrderSubmitted == nil {
			continue
		}

		requestID, err := decision.RequestID.Take()
		if err != nil {
			continue
		}

		if order, ok := e.orders.Order(requestID); ok {
			if err := (*e.callbacks.OnOrderSubmitted)(order); err != nil {
				e.log.Warn("OnOrderSubmitted callback failed", zap.Error(err))
			}
		}
	}

	if e.decisionsWriter != nil {
		if err := e.decisionsWriter.Write(decisions...); err != nil {
			e.log.Warn("Failed to journal decisions", zap.Error(err))
		}
	}

	if e.ordersWriter != nil {
		if err := e.ordersWriter.Write(e.orders.Orders()...); err != nil {
			e.log.Warn("Failed to journal orders", zap.Error(err))
		}
	}
}

// afterCycle handles the date boundary and publishes the statistics.
func (e *TraderEngineV1) afterCycle(now time.Time) {
	if e.sessionManager != nil {
		changed, err := e.sessionManager.HandleDateBoundary(now)
		if err != nil {
			e.log.Warn("Failed to handle date boundary", zap.Error(err))
		}

		if changed {
			e.statsTracker.HandleDateBoundary(e.sessionManager.GetCurrentDate())

			if err := e.reopenWriters(); err != nil {
				e.log.Warn("Failed to move journals to the new date folder", zap.Error(err))
				e.reportError(err)
			}
		}
	}

	if err := e.statsTracker.WriteStatsYAML(); err != nil {
		e.log.Warn("Failed to write stats", zap.Error(err))
	}

	if e.callbacks.OnStatsUpdate != nil {
		if err := (*e.callbacks.OnStatsUpdate)(e.statsTracker.GetCumulativeStats()); err != nil {
			e.log.Warn("OnStatsUpdate callback failed", zap.Error(err))
		}
	}
}

// publishSnapshot runs on the presentation cadence.
func (e *TraderEngineV1) publishSnapshot() {
	snapshot := e.Snapshot()

	metrics.ObserveSnapshot(snapshot)
	e.statsTracker.SetAccount(snapshot.Account)

	if e.callbacks.OnSnapshot != nil {
		(*e.callbacks.OnSnapshot)(snapshot)
	}
}

// preRunCheck validates that all required components are configured before running.
func (e *TraderEngineV1) preRunCheck() error {
	if !e.initialized {
		return errors.New(errors.ErrCodeEngineNotInitialized, "engine not initialized - call Initialize() first")
	}

	if e.gateway == nil {
		return errors.New(errors.ErrCodeEngineInitFailed, "gateway not set - call SetGateway() first")
	}

	if len(e.config.Candidates) == 0 {
		return errors.New(errors.ErrCodeEngineInitFailed, "no candidates configured")
	}

	return nil
}

// wire builds the shared state and the components working on it.
func (e *TraderEngineV1) wire() {
	state := NewSessionState()
	candidates := NewCandidateTracker(state, e.gateway, e.log.Named("candidates"))
	positions := NewPositionTracker(state, e.gateway, e.config.Gateway.SnapshotTimeout, e.log.Named("positions"))
	orders := NewOrderTracker(state, e.gateway, e.config.Gateway.SnapshotTimeout, e.log.Named("orders"))

	var auditLog AuditLog
	if e.auditTrail != nil {
		auditLog = e.auditTrail
	}

	decisions := NewDecisionEngine(state, candidates, positions, orders, e.gateway, e.config.Trading, auditLog, e.log.Named("decisions"))
	decisions.now = e.now
	candidates.now = e.now

	dispatcher := NewEventDispatcher(state, candidates, positions, orders, e.log.Named("events"))

	e.mu.Lock()
	defer e.mu.Unlock()

	e.state = state
	e.candidates = candidates
	e.positions = positions
	e.orders = orders
	e.decisions = decisions
	e.dispatcher = dispatcher
	e.lastCycle = time.Time{}
}

// openOutputs creates the run folder, journals, statistics and audit trail.
// Without a data output path only the in-memory statistics are kept.
func (e *TraderEngineV1) openOutputs() error {
	e.statsTracker = stats.NewStatsTracker(e.log.Named("stats"))

	if e.config.Output.AuditDir != "" {
		trail, err := audit.NewTrail(e.config.Output.AuditDir)
		if err != nil {
			return errors.Wrap(errors.ErrCodeEngineInitFailed, "failed to open audit trail", err)
		}

		e.auditTrail = trail
	}

	if e.dataOutputPath == "" {
		e.statsTracker.Initialize(e.config.Tickers(), "", "", e.now())

		return nil
	}

	e.sessionManager = session.NewSessionManager(e.log.Named("session"))
	if err := e.sessionManager.Initialize(e.dataOutputPath, e.now()); err != nil {
		return errors.Wrap(errors.ErrCodeEngineInitFailed, "failed to initialize session manager", err)
	}

	e.statsTracker.Initialize(
		e.config.Tickers(),
		e.sessionManager.GetRunID(),
		e.sessionManager.GetSessionUUID(),
		e.sessionManager.GetSessionStart(),
	)

	if err := e.reopenWriters(); err != nil {
		return errors.Wrap(errors.ErrCodeEngineInitFailed, "failed to initialize journals", err)
	}

	return nil
}

// reopenWriters points the journals at the current run folder.
func (e *TraderEngineV1) reopenWriters() error {
	e.closeWriters()

	decisionsPath := e.sessionManager.GetFilePath(DecisionsFile)
	ordersPath := e.sessionManager.GetFilePath(OrdersFile)

	decisionsWriter := writers.NewDecisionsWriter(decisionsPath)
	if err := decisionsWriter.Initialize(); err != nil {
		return err
	}

	ordersWriter := writers.NewOrdersWriter(ordersPath)
	if err := ordersWriter.Initialize(); err != nil {
		_ = decisionsWriter.Close()

		return err
	}

	e.decisionsWriter = decisionsWriter
	e.ordersWriter = ordersWriter

	auditDir := ""
	if e.auditTrail != nil {
		auditDir = e.auditTrail.Dir()
	}

	e.statsTracker.SetFilePaths(decisionsPath, ordersPath, auditDir, e.sessionManager.GetFilePath(StatsFile))

	e.log.Info("Journals opened",
		zap.String("decisions", decisionsPath),
		zap.String("orders", ordersPath),
	)

	return nil
}

func (e *TraderEngineV1) closeWriters() {
	if e.decisionsWriter != nil {
		if err := e.decisionsWriter.Flush(); err != nil {
			e.log.Warn("Failed to flush decisions writer", zap.Error(err))
		}

		if err := e.decisionsWriter.Close(); err != nil {
			e.log.Warn("Failed to close decisions writer", zap.Error(err))
		}

		e.decisionsWriter = nil
	}

	if e.ordersWriter != nil {
		if err := e.ordersWriter.Flush(); err != nil {
			e.log.Warn("Failed to flush orders writer", zap.Error(err))
		}

		if err := e.ordersWriter.Close(); err != nil {
			e.log.Warn("Failed to close orders writer", zap.Error(err))
		}

		e.ordersWriter = nil
	}
}

func (e *TraderEngineV1) closeOutputs() {
	if e.statsTracker != nil {
		if err := e.statsTracker.WriteStatsYAML(); err != nil {
			e.log.Warn("Failed to write final stats", zap.Error(err))
		}
	}

	e.closeWriters()
}

func (e *TraderEngineV1) emitStatus(status types.EngineStatus) {
	if e.callbacks.OnStatusUpdate == nil {
		return
	}

	if err := (*e.callbacks.OnStatusUpdate)(status); err != nil {
		e.log.Warn("OnStatusUpdate callback failed", zap.String("status", string(status)), zap.Error(err))
	}
}

func (e *TraderEngineV1) reportError(err error) {
	if e.callbacks.OnError != nil {
		(*e.callbacks.OnError)(err)
	}
}

// Verify TraderEngineV1 implements engine.TraderEngine interface.
var _ engine.TraderEngine = (*TraderEngineV1)(nil)
