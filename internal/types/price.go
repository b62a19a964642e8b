package types

import (
	"encoding/json"
	"strconv"
)

// ClosedSentinel is the price the gateway reports for a field when the venue is closed.
const ClosedSentinel = -1.0

// PriceState tells apart a price that never arrived from one the venue marked closed.
type PriceState int

const (
	PriceStateUnknown PriceState = iota
	PriceStateClosed
	PriceStateValue
)

// Price is a tagged price: Unknown, Closed or Value(x).
// The zero value is Unknown.
type Price struct {
	state PriceState
	value float64
}

// UnknownPrice returns a price that has not been received yet.
func UnknownPrice() Price {
	return Price{state: PriceStateUnknown, value: 0}
}

// ClosedPrice returns the venue-closed price.
func ClosedPrice() Price {
	return Price{state: PriceStateClosed, value: 0}
}

// NewPrice returns a known price.
func NewPrice(value float64) Price {
	return Price{state: PriceStateValue, value: value}
}

// PriceFromFeed converts a raw feed value, mapping the closed sentinel to ClosedPrice.
func PriceFromFeed(raw float64) Price {
	if raw == ClosedSentinel {
		return ClosedPrice()
	}

	return NewPrice(raw)
}

// State returns the tag of the price.
func (p Price) State() PriceState {
	return p.state
}

// IsKnown reports whether the price carries a value.
func (p Price) IsKnown() bool {
	return p.state == PriceStateValue
}

// IsClosed reports whether the venue reported the field as closed.
func (p Price) IsClosed() bool {
	return p.state == PriceStateClosed
}

// Value returns the price and whether it is known.
func (p Price) Value() (float64, bool) {
	if p.state != PriceStateValue {
		return 0, false
	}

	return p.value, true
}

func (p Price) String() string {
	switch p.state {
	case PriceStateClosed:
		return "closed"
	case PriceStateValue:
		return strconv.FormatFloat(p.value, 'f', -1, 64)
	default:
		return "unknown"
	}
}

// MarshalJSON encodes Unknown as null, Closed as "closed" and Value as a number.
func (p Price) MarshalJSON() ([]byte, error) {
	switch p.state {
	case PriceStateClosed:
		return json.Marshal("closed")
	case PriceStateValue:
		return json.Marshal(p.value)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (p *Price) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = UnknownPrice()

		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		if text == "closed" {
			*p = ClosedPrice()

			return nil
		}

		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return err
		}

		*p = NewPrice(value)

		return nil
	}

	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	*p = NewPrice(value)

	return nil
}

// PriceField names the quote field a price update refers to.
type PriceField string

const (
	PriceFieldBid   PriceField = "BID"
	PriceFieldAsk   PriceField = "ASK"
	PriceFieldLast  PriceField = "LAST"
	PriceFieldOpen  PriceField = "OPEN"
	PriceFieldClose PriceField = "CLOSE"
)
