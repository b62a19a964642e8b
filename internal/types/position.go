package types

import (
	"github.com/moznion/go-optional"
)

// Position is an open holding reported by the gateway.
type Position struct {
	Symbol     string  `json:"symbol"`
	Shares     float64 `json:"shares"`
	AvgCost    float64 `json:"avg_cost"`
	ContractID string  `json:"contract_id"`

	Value         optional.Option[float64] `json:"value"`
	UnrealizedPnL optional.Option[float64] `json:"unrealized_pnl"`
	DailyPnL      optional.Option[float64] `json:"daily_pnl"`

	// PnlRequestID is assigned once per ticker per session when live PnL tracking starts.
	PnlRequestID optional.Option[int64] `json:"pnl_request_id"`
}

// IsOpen reports whether the position holds shares.
func (p Position) IsOpen() bool {
	return p.Shares != 0
}

// ProfitPct returns unrealizedPnL / value * 100.
// The second result is false while either input is unknown or the value is zero.
func (p Position) ProfitPct() (float64, bool) {
	value, err := p.Value.Take()
	if err != nil || value == 0 {
		return 0, false
	}

	pnl, err := p.UnrealizedPnL.Take()
	if err != nil {
		return 0, false
	}

	return pnl / value * 100, true
}
