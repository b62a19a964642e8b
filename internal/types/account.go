package types

import (
	"github.com/moznion/go-optional"
)

// AccountMetric names an account summary value the gateway can stream.
type AccountMetric string

const (
	// AccountMetricExcessLiquidity is the venue-reported buying power gating the buy pass.
	AccountMetricExcessLiquidity AccountMetric = "ExcessLiquidity"
	// AccountMetricNetLiquidation is the total account value.
	AccountMetricNetLiquidation AccountMetric = "NetLiquidation"
)

// AccountState holds the latest account metrics received from the gateway.
type AccountState struct {
	ExcessLiquidity optional.Option[float64] `json:"excess_liquidity" yaml:"excess_liquidity"`
	NetLiquidation  optional.Option[float64] `json:"net_liquidation" yaml:"net_liquidation"`
	DailyPnL        optional.Option[float64] `json:"daily_pnl" yaml:"daily_pnl"`
}

// NewAccountState returns an account state with every metric unknown.
func NewAccountState() AccountState {
	return AccountState{
		ExcessLiquidity: optional.None[float64](),
		NetLiquidation:  optional.None[float64](),
		DailyPnL:        optional.None[float64](),
	}
}
