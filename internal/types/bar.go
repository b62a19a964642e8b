package types

import "time"

// Bar is one OHLCV aggregate.
type Bar struct {
	Symbol string    `json:"symbol"`
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Statistics are the per-ticker numbers a statistics provider supplies.
type Statistics struct {
	// AvgDropPct is the mean intraday drop from open to low, in percent.
	AvgDropPct float64 `json:"avg_drop_pct" yaml:"avg_drop_pct"`
	// AvgSpreadPct is the mean intraday range from low to high, in percent.
	AvgSpreadPct float64 `json:"avg_spread_pct" yaml:"avg_spread_pct"`
}
