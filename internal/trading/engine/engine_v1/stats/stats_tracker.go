package stats

import (
	"sync"
	"time"

	"github.com/rxtech-lab/equity-trader/internal/logger"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"go.uber.org/zap"
)

// accumulator holds running counts for one reporting window.
type accumulator struct {
	cycles    types.CycleCounts
	decisions types.DecisionCounts
}

func newAccumulator() *accumulator {
	return &accumulator{
		cycles: types.CycleCounts{
			Completed:    0,
			Aborted:      0,
			DroppedTicks: 0,
			BreakSkipped: 0,
		},
		decisions: types.DecisionCounts{
			Buys:        0,
			TakeProfits: 0,
			StopLosses:  0,
			Skips:       map[types.DecisionReason]int{},
		},
	}
}

// StatsTracker counts cycles and decisions of a trader session.
type StatsTracker struct {
	symbols      []string
	runID        string
	sessionUUID  string
	sessionStart time.Time
	currentDate  string

	// Daily accumulators (reset on date boundary)
	daily *accumulator

	// Cumulative accumulators (from session start)
	cumulative *accumulator

	account types.AccountSummary

	decisionsFilePath string
	ordersFilePath    string
	auditDir          string
	statsOutputPath   string

	now    func() time.Time
	mu     sync.Mutex
	logger *logger.Logger
}

// NewStatsTracker creates a new StatsTracker instance.
func NewStatsTracker(log *logger.Logger) *StatsTracker {
	return &StatsTracker{
		symbols:      nil,
		runID:        "",
		sessionUUID:  "",
		sessionStart: time.Time{},
		currentDate:  "",
		daily:        newAccumulator(),
		cumulative:   newAccumulator(),
		account: types.AccountSummary{
			ExcessLiquidity: 0,
			NetLiquidation:  0,
			DailyPnL:        0,
		},
		decisionsFilePath: "",
		ordersFilePath:    "",
		auditDir:          "",
		statsOutputPath:   "",
		now:               time.Now,
		mu:                sync.Mutex{},
		logger:            log,
	}
}

// Initialize sets up the stats tracker with session information.
func (s *StatsTracker) Initialize(symbols []string, runID, sessionUUID string, sessionStart time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.symbols = symbols
	s.runID = runID
	s.sessionUUID = sessionUUID
	s.sessionStart = sessionStart
	s.currentDate = sessionStart.Format("2006-01-02")

	s.logger.Info("Stats tracker initialized",
		zap.String("run_id", runID),
		zap.Strings("symbols", symbols),
	)
}

// SetFilePaths sets the output locations reported in the stats file.
func (s *StatsTracker) SetFilePaths(decisionsPath, ordersPath, auditDir, statsPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decisionsFilePath = decisionsPath
	s.ordersFilePath = ordersPath
	s.auditDir = auditDir
	s.statsOutputPath = statsPath
}

// RecordDecision counts one decision.
func (s *StatsTracker) RecordDecision(decision types.Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()

	countDecision(&s.daily.decisions, decision)
	countDecision(&s.cumulative.decisions, decision)
}

// RecordCycle counts a finished cycle; aborted is true when the cycle stopped early.
func (s *StatsTracker) RecordCycle(aborted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range []*accumulator{s.daily, s.cumulative} {
		if aborted {
			acc.cycles.Aborted++
		} else {
			acc.cycles.Completed++
		}
	}
}

// RecordDroppedTick counts a tick skipped because the previous cycle was still running.
func (s *StatsTracker) RecordDroppedTick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.daily.cycles.DroppedTicks++
	s.cumulative.cycles.DroppedTicks++
}

// RecordBreakSkip counts a tick skipped inside the technical break.
func (s *StatsTracker) RecordBreakSkip() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.daily.cycles.BreakSkipped++
	s.cumulative.cycles.BreakSkipped++
}

// SetAccount stores the known account metrics; unknown values keep their last value.
func (s *StatsTracker) SetAccount(account types.AccountState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.account.ExcessLiquidity = account.ExcessLiquidity.TakeOr(s.account.ExcessLiquidity)
	s.account.NetLiquidation = account.NetLiquidation.TakeOr(s.account.NetLiquidation)
	s.account.DailyPnL = account.DailyPnL.TakeOr(s.account.DailyPnL)
}

// HandleDateBoundary resets the daily counts while keeping cumulative ones.
func (s *StatsTracker) HandleDateBoundary(newDate string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldDate := s.currentDate
	s.currentDate = newDate
	s.daily = newAccumulator()

	s.logger.Info("Date boundary handled, daily stats reset",
		zap.String("old_date", oldDate),
		zap.String("new_date", newDate),
	)
}

// GetDailyStats returns the statistics of the current date.
func (s *StatsTracker) GetDailyStats() types.LiveTradeStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.build(s.daily, s.currentDate)
}

// GetCumulativeStats returns the statistics from session start.
func (s *StatsTracker) GetCumulativeStats() types.LiveTradeStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.build(s.cumulative, s.sessionStart.Format("2006-01-02"))
}

// WriteStatsYAML writes the daily statistics to stats.yaml in the current run folder.
func (s *StatsTracker) WriteStatsYAML() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.statsOutputPath == "" {
		return nil
	}

	return types.WriteLiveTradeStats(s.statsOutputPath, s.build(s.daily, s.currentDate))
}

// GetStatsOutputPath returns the stats output path.
func (s *StatsTracker) GetStatsOutputPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.statsOutputPath
}

func (s *StatsTracker) build(acc *accumulator, date string) types.LiveTradeStats {
	skips := make(map[types.DecisionReason]int, len(acc.decisions.Skips))
	for reason, count := range acc.decisions.Skips {
		skips[reason] = count
	}

	return types.LiveTradeStats{
		ID:           s.runID,
		SessionUUID:  s.sessionUUID,
		Date:         date,
		SessionStart: s.sessionStart,
		LastUpdated:  s.now(),
		Symbols:      s.symbols,
		Cycles:       acc.cycles,
		Decisions: types.DecisionCounts{
			Buys:        acc.decisions.Buys,
			TakeProfits: acc.decisions.TakeProfits,
			StopLosses:  acc.decisions.StopLosses,
			Skips:       skips,
		},
		Account:           s.account,
		DecisionsFilePath: s.decisionsFilePath,
		OrdersFilePath:    s.ordersFilePath,
		AuditDir:          s.auditDir,
	}
}

func countDecision(counts *types.DecisionCounts, decision types.Decision) {
	switch decision.Reason {
	case types.DecisionReasonEntry:
		counts.Buys++
	case types.DecisionReasonTakeProfit:
		counts.TakeProfits++
	case types.DecisionReasonStopLoss:
		counts.StopLosses++
	default:
		counts.Skips[decision.Reason]++
	}
}
