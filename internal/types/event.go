package types

// Event is a message delivered asynchronously by a gateway.
// The set of variants is closed; dispatchers switch on the concrete type.
type Event interface {
	isEvent()
}

// PriceEvent carries one quote field for a market-data subscription.
type PriceEvent struct {
	RequestID int64
	Field     PriceField
	Price     Price
}

// PositionEvent is one row of a positions snapshot.
type PositionEvent struct {
	Account    string
	Symbol     string
	ContractID string
	Shares     float64
	AvgCost    float64
}

// PositionEndEvent marks the end of a positions snapshot.
type PositionEndEvent struct{}

// OpenOrderEvent is one row of an open-orders snapshot.
type OpenOrderEvent struct {
	RequestID    int64
	Symbol       string
	Action       OrderAction
	Kind         OrderKind
	Quantity     float64
	LimitPrice   float64
	TrailPercent float64
	Status       OrderStatus
}

// OpenOrderEndEvent marks the end of an open-orders snapshot.
type OpenOrderEndEvent struct{}

// AccountValueEvent carries an account metric update.
type AccountValueEvent struct {
	RequestID int64
	Metric    AccountMetric
	Value     float64
	Currency  string
}

// PnlSingleEvent carries live PnL for one position subscription.
type PnlSingleEvent struct {
	RequestID     int64
	Shares        float64
	DailyPnL      float64
	UnrealizedPnL float64
	Value         float64
}

// AccountPnlEvent carries the account-wide daily PnL.
type AccountPnlEvent struct {
	RequestID int64
	DailyPnL  float64
}

// NextValidIDEvent seeds the request-id allocator after a connect.
type NextValidIDEvent struct {
	ID int64
}

// ErrorEvent reports a gateway-side error, optionally tied to a request.
type ErrorEvent struct {
	RequestID int64
	Code      int
	Message   string
}

// ConnectionClosedEvent reports that the gateway connection dropped.
type ConnectionClosedEvent struct{}

func (PriceEvent) isEvent()            {}
func (PositionEvent) isEvent()         {}
func (PositionEndEvent) isEvent()      {}
func (OpenOrderEvent) isEvent()        {}
func (OpenOrderEndEvent) isEvent()     {}
func (AccountValueEvent) isEvent()     {}
func (PnlSingleEvent) isEvent()        {}
func (AccountPnlEvent) isEvent()       {}
func (NextValidIDEvent) isEvent()      {}
func (ErrorEvent) isEvent()            {}
func (ConnectionClosedEvent) isEvent() {}
