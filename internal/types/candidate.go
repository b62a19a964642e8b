package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// Candidate is a ticker under evaluation for a potential buy.
type Candidate struct {
	Symbol string `json:"symbol"`
	// RequestID is the market-data request id, unique and stable for the session.
	RequestID int64 `json:"request_id"`
	// Reason is the operator's note for why the ticker is watched.
	Reason string `json:"reason"`

	Bid   Price `json:"bid"`
	Ask   Price `json:"ask"`
	Last  Price `json:"last"`
	Open  Price `json:"open"`
	Close Price `json:"close"`

	AvgDrawdownPct optional.Option[float64] `json:"avg_drawdown_pct"`
	AvgSpreadPct   optional.Option[float64] `json:"avg_spread_pct"`
	Rating         optional.Option[float64] `json:"rating"`
	Target         optional.Option[float64] `json:"target"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewCandidate returns a candidate with every numeric field unknown.
func NewCandidate(symbol string, requestID int64, reason string) Candidate {
	return Candidate{
		Symbol:         symbol,
		RequestID:      requestID,
		Reason:         reason,
		Bid:            UnknownPrice(),
		Ask:            UnknownPrice(),
		Last:           UnknownPrice(),
		Open:           UnknownPrice(),
		Close:          UnknownPrice(),
		AvgDrawdownPct: optional.None[float64](),
		AvgSpreadPct:   optional.None[float64](),
		Rating:         optional.None[float64](),
		Target:         optional.None[float64](),
		UpdatedAt:      time.Time{},
	}
}

// SetPrice stores a price for the given field.
func (c *Candidate) SetPrice(field PriceField, price Price) bool {
	switch field {
	case PriceFieldBid:
		c.Bid = price
	case PriceFieldAsk:
		c.Ask = price
	case PriceFieldLast:
		c.Last = price
	case PriceFieldOpen:
		c.Open = price
	case PriceFieldClose:
		c.Close = price
	default:
		return false
	}

	return true
}
