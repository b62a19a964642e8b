package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EngineStatus represents the current state of the trader engine.
type EngineStatus string

const (
	// EngineStatusConnecting indicates the engine is waiting for the gateway.
	EngineStatusConnecting EngineStatus = "connecting"

	// EngineStatusEnriching indicates the engine is loading statistics and ratings.
	EngineStatusEnriching EngineStatus = "enriching"

	// EngineStatusRunning indicates decision cycles are being scheduled.
	EngineStatusRunning EngineStatus = "running"

	// EngineStatusReconnecting indicates a cycle found the gateway disconnected.
	EngineStatusReconnecting EngineStatus = "reconnecting"

	// EngineStatusStopped indicates the engine has stopped.
	EngineStatusStopped EngineStatus = "stopped"
)

// CycleCounts counts decision cycles by outcome.
type CycleCounts struct {
	Completed    int `yaml:"completed" json:"completed"`
	Aborted      int `yaml:"aborted" json:"aborted"`
	DroppedTicks int `yaml:"dropped_ticks" json:"dropped_ticks"`
	BreakSkipped int `yaml:"break_skipped" json:"break_skipped"`
}

// DecisionCounts counts decisions by outcome.
type DecisionCounts struct {
	Buys        int                    `yaml:"buys" json:"buys"`
	TakeProfits int                    `yaml:"take_profits" json:"take_profits"`
	StopLosses  int                    `yaml:"stop_losses" json:"stop_losses"`
	Skips       map[DecisionReason]int `yaml:"skips" json:"skips"`
}

// AccountSummary is the last account state written to the stats file.
type AccountSummary struct {
	ExcessLiquidity float64 `yaml:"excess_liquidity" json:"excess_liquidity"`
	NetLiquidation  float64 `yaml:"net_liquidation" json:"net_liquidation"`
	DailyPnL        float64 `yaml:"daily_pnl" json:"daily_pnl"`
}

// LiveTradeStats contains statistics for a trading session.
type LiveTradeStats struct {
	// ID is the unique identifier for this trading session (e.g., "run_1").
	ID string `yaml:"id" json:"id"`

	// SessionUUID identifies the session across date folders.
	SessionUUID string `yaml:"session_uuid" json:"session_uuid"`

	// Date is the date of this statistics record in YYYY-MM-DD format.
	Date string `yaml:"date" json:"date"`

	// SessionStart is when this trading session started.
	SessionStart time.Time `yaml:"session_start" json:"session_start"`

	// LastUpdated is when these statistics were last updated.
	LastUpdated time.Time `yaml:"last_updated" json:"last_updated"`

	// Symbols being tracked as candidates in this session.
	Symbols []string `yaml:"symbols" json:"symbols"`

	Cycles    CycleCounts    `yaml:"cycles" json:"cycles"`
	Decisions DecisionCounts `yaml:"decisions" json:"decisions"`
	Account   AccountSummary `yaml:"account" json:"account"`

	// DecisionsFilePath is the path to the decisions parquet file.
	DecisionsFilePath string `yaml:"decisions_file_path" json:"decisions_file_path"`

	// OrdersFilePath is the path to the orders parquet file.
	OrdersFilePath string `yaml:"orders_file_path" json:"orders_file_path"`

	// AuditDir is the directory holding the append-only buy/loss/profit logs.
	AuditDir string `yaml:"audit_dir" json:"audit_dir"`
}

// WriteLiveTradeStats writes live trade statistics to a YAML file.
func WriteLiveTradeStats(path string, stats LiveTradeStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal live trade stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write live trade stats to file: %w", err)
	}

	return nil
}

// ReadLiveTradeStats reads live trade statistics from a YAML file.
func ReadLiveTradeStats(path string) (LiveTradeStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LiveTradeStats{}, fmt.Errorf("failed to read live trade stats file: %w", err)
	}

	var stats LiveTradeStats
	if err := yaml.Unmarshal(data, &stats); err != nil {
		return LiveTradeStats{}, fmt.Errorf("failed to unmarshal live trade stats: %w", err)
	}

	return stats, nil
}

// NewLiveTradeStats creates a new LiveTradeStats with initialized values.
func NewLiveTradeStats(runID string, symbols []string) LiveTradeStats {
	now := time.Now()

	return LiveTradeStats{
		ID:           runID,
		SessionUUID:  "",
		Date:         now.Format("2006-01-02"),
		SessionStart: now,
		LastUpdated:  now,
		Symbols:      symbols,
		Cycles: CycleCounts{
			Completed:    0,
			Aborted:      0,
			DroppedTicks: 0,
			BreakSkipped: 0,
		},
		Decisions: DecisionCounts{
			Buys:        0,
			TakeProfits: 0,
			StopLosses:  0,
			Skips:       map[DecisionReason]int{},
		},
		Account: AccountSummary{
			ExcessLiquidity: 0,
			NetLiquidation:  0,
			DailyPnL:        0,
		},
		DecisionsFilePath: "",
		OrdersFilePath:    "",
		AuditDir:          "",
	}
}
