package tradingprovider

import (
	"context"

	"github.com/rxtech-lab/equity-trader/internal/types"
)

// ConnectionConfig identifies the gateway endpoint and client session.
type ConnectionConfig struct {
	Host     string
	Port     int
	ClientID int
}

// Gateway is the brokerage session the engine talks to.
//
// Requests are fire-and-forget: results arrive on Events(). After a successful
// Connect the gateway emits a NextValidIDEvent carrying the first request id the
// client may use. Position and open-order snapshots are a sequence of row
// events terminated by PositionEndEvent / OpenOrderEndEvent. An order
// submission is acknowledged only through later open-order snapshots.
//
//nolint:interfacebloat // mirrors the brokerage request surface
type Gateway interface {
	// Connect opens the session.
	Connect(ctx context.Context, config ConnectionConfig) error
	// Disconnect closes the session. Subscriptions are dropped.
	Disconnect() error
	// IsConnected reports whether the session is alive.
	IsConnected() bool
	// Events returns the channel on which every asynchronous event is delivered.
	// The channel stays the same across reconnects.
	Events() <-chan types.Event
	// Account returns the account id the session trades for.
	Account() string
	// Close disconnects and releases the gateway. Events is closed afterwards.
	Close() error

	// SubscribeMarketData streams quote fields for the contract keyed by requestID.
	SubscribeMarketData(ctx context.Context, requestID int64, contract types.Contract) error
	// CancelMarketData stops a market-data subscription.
	CancelMarketData(ctx context.Context, requestID int64) error
	// RequestPositions starts a full positions snapshot.
	RequestPositions(ctx context.Context) error
	// RequestOpenOrders starts a full open-orders snapshot.
	RequestOpenOrders(ctx context.Context) error
	// SubscribeAccountMetric streams an account summary value keyed by requestID.
	SubscribeAccountMetric(ctx context.Context, requestID int64, metric types.AccountMetric) error
	// SubscribeAccountPnl streams the account daily PnL keyed by requestID.
	SubscribeAccountPnl(ctx context.Context, requestID int64, account string) error
	// SubscribePnl streams live PnL for one position keyed by requestID.
	SubscribePnl(ctx context.Context, requestID int64, account string, contractID string) error
	// SubmitOrder places an order keyed by requestID.
	SubmitOrder(ctx context.Context, requestID int64, contract types.Contract, spec types.OrderSpec) error
}
