package types

import "time"

// Snapshot is a read-only copy of the engine state for presentation.
type Snapshot struct {
	Time          time.Time     `json:"time"`
	Connected     bool          `json:"connected"`
	MarketSession MarketSession `json:"market_session"`
	Account       AccountState  `json:"account"`
	Candidates    []Candidate   `json:"candidates"`
	Positions     []Position    `json:"positions"`
	Orders        []Order       `json:"orders"`
	// LastCycle is when the last decision cycle finished, zero before the first one.
	LastCycle time.Time `json:"last_cycle"`
}
