package types

import (
	"time"
)

// MarketSession is the US equity trading session a wall-clock time falls into.
type MarketSession string

const (
	MarketSessionPreMarket   MarketSession = "Pre Market"
	MarketSessionOpen        MarketSession = "Open"
	MarketSessionAfterMarket MarketSession = "After Market"
	MarketSessionClosed      MarketSession = "Closed"
)

// ExchangeLocation returns the New York time zone, falling back to a fixed
// UTC-5 zone when the tz database is unavailable.
func ExchangeLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}

	return loc
}

// MarketSessionAt classifies t in exchange time.
// Pre market 04:00-09:30, open 09:30-16:00, after market 16:00-20:00.
func MarketSessionAt(t time.Time, loc *time.Location) MarketSession {
	local := t.In(loc)

	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return MarketSessionClosed
	}

	minutes := local.Hour()*60 + local.Minute()

	switch {
	case minutes >= 4*60 && minutes < 9*60+30:
		return MarketSessionPreMarket
	case minutes >= 9*60+30 && minutes < 16*60:
		return MarketSessionOpen
	case minutes >= 16*60 && minutes < 20*60:
		return MarketSessionAfterMarket
	default:
		return MarketSessionClosed
	}
}
