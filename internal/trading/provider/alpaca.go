package tradingprovider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rxtech-lab/equity-trader/internal/logger"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// ClientOrderIDPrefix tags orders placed by this engine so request ids survive reconnects.
	ClientOrderIDPrefix = "eqt-"

	// alpacaMaxPollFailures is the number of consecutive failed account polls treated as a lost session.
	alpacaMaxPollFailures = 3
	alpacaOpenOrdersLimit = 500
)

// AlpacaTradingClient is the subset of the Alpaca trading client the gateway uses.
type AlpacaTradingClient interface {
	GetAccount() (*alpaca.Account, error)
	GetPositions() ([]alpaca.Position, error)
	GetOrders(req alpaca.GetOrdersRequest) ([]alpaca.Order, error)
	PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error)
	GetClock() (*alpaca.Clock, error)
}

// AlpacaMarketDataClient is the subset of the Alpaca market data client the gateway uses.
type AlpacaMarketDataClient interface {
	GetSnapshot(symbol string, req marketdata.GetSnapshotRequest) (*marketdata.Snapshot, error)
}

// AlpacaGateway adapts the Alpaca REST APIs to the Gateway event model by polling.
type AlpacaGateway struct {
	trading      AlpacaTradingClient
	data         AlpacaMarketDataClient
	feed         marketdata.Feed
	pollInterval time.Duration
	log          *logger.Logger
	queue        *eventQueue

	mu           sync.Mutex
	connected    bool
	account      string
	stopPoll     context.CancelFunc
	pollFailures int
	highestID    int64
	foreignIDs   map[string]int64
	nextForeign  int64

	marketSubs     map[int64]string
	metricSubs     map[int64]types.AccountMetric
	accountPnlSubs map[int64]struct{}
	pnlSubs        map[int64]string
}

// NewAlpacaGateway creates an Alpaca gateway. paper selects the paper endpoint when no base URL is set.
func NewAlpacaGateway(config AlpacaProviderConfig, paper bool, log *logger.Logger) (*AlpacaGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = AlpacaLiveBaseURL
		if paper {
			baseURL = AlpacaPaperBaseURL
		}
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	trading := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    config.ApiKey,
		APISecret: config.SecretKey,
		BaseURL:   baseURL,
	})

	//nolint:exhaustruct // third-party struct with many optional fields
	data := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    config.ApiKey,
		APISecret: config.SecretKey,
		BaseURL:   config.DataURL,
	})

	return newAlpacaGatewayWithClients(trading, data, config, log), nil
}

// newAlpacaGatewayWithClients creates a gateway with custom clients.
// This is used for testing with fake clients.
func newAlpacaGatewayWithClients(trading AlpacaTradingClient, data AlpacaMarketDataClient, config AlpacaProviderConfig, log *logger.Logger) *AlpacaGateway {
	feed := config.Feed
	if feed == "" {
		feed = defaultAlpacaFeed
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &AlpacaGateway{
		trading:        trading,
		data:           data,
		feed:           marketdata.Feed(feed),
		pollInterval:   config.PollInterval(),
		log:            log.Named("alpaca"),
		queue:          newEventQueue(),
		mu:             sync.Mutex{},
		connected:      false,
		account:        "",
		stopPoll:       nil,
		pollFailures:   0,
		highestID:      0,
		foreignIDs:     map[string]int64{},
		nextForeign:    -1,
		marketSubs:     map[int64]string{},
		metricSubs:     map[int64]types.AccountMetric{},
		accountPnlSubs: map[int64]struct{}{},
		pnlSubs:        map[int64]string{},
	}
}

// Connect verifies the credentials, derives the next request id from the
// engine's own open orders and starts polling.
func (g *AlpacaGateway) Connect(ctx context.Context, _ ConnectionConfig) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeConnectFailed, "connect cancelled", err)
	}

	acct, err := g.trading.GetAccount()
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectFailed, "failed to fetch alpaca account", err)
	}

	orders, err := g.trading.GetOrders(alpaca.GetOrdersRequest{ //nolint:exhaustruct // optional filters
		Status: "open",
		Limit:  alpacaOpenOrdersLimit,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectFailed, "failed to fetch alpaca open orders", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, order := range orders {
		if id, ok := parseClientOrderID(order.ClientOrderID); ok && id > g.highestID {
			g.highestID = id
		}
	}

	g.account = acct.ID
	g.connected = true
	g.pollFailures = 0
	g.queue.push(types.NextValidIDEvent{ID: g.highestID + 1})

	pollCtx, cancel := context.WithCancel(context.Background())
	g.stopPoll = cancel

	go g.pollLoop(pollCtx)

	g.log.Info("Connected to Alpaca", zap.String("account", acct.ID))

	return nil
}

// Disconnect stops polling and drops every subscription.
func (g *AlpacaGateway) Disconnect() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.dropLocked()

	return nil
}

// Close disconnects and closes the event channel.
func (g *AlpacaGateway) Close() error {
	if err := g.Disconnect(); err != nil {
		return err
	}

	g.queue.close()

	return nil
}

// IsConnected reports whether the session is alive.
func (g *AlpacaGateway) IsConnected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.connected
}

// Events returns the event channel.
func (g *AlpacaGateway) Events() <-chan types.Event {
	return g.queue.events()
}

// Account returns the Alpaca account id.
func (g *AlpacaGateway) Account() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.account
}

// SubscribeMarketData polls the snapshot of the contract's symbol.
func (g *AlpacaGateway) SubscribeMarketData(_ context.Context, requestID int64, contract types.Contract) error {
	if err := g.register(requestID, func() { g.marketSubs[requestID] = contract.Symbol }); err != nil {
		return err
	}

	g.publishQuotes(map[int64]string{requestID: contract.Symbol})

	return nil
}

// CancelMarketData stops polling the subscription.
func (g *AlpacaGateway) CancelMarketData(_ context.Context, requestID int64) error {
	return g.register(requestID, func() { delete(g.marketSubs, requestID) })
}

// RequestPositions fetches all positions and emits them followed by the end marker.
func (g *AlpacaGateway) RequestPositions(_ context.Context) error {
	if !g.IsConnected() {
		return errors.New(errors.ErrCodeNotConnected, "alpaca gateway is not connected")
	}

	positions, err := g.trading.GetPositions()
	if err != nil {
		return errors.Wrap(errors.ErrCodeRequestFailed, "failed to fetch alpaca positions", err)
	}

	account := g.Account()
	events := make([]types.Event, 0, len(positions)+1)

	for _, p := range positions {
		events = append(events, types.PositionEvent{
			Account:    account,
			Symbol:     p.Symbol,
			ContractID: p.AssetID,
			Shares:     p.Qty.InexactFloat64(),
			AvgCost:    p.AvgEntryPrice.InexactFloat64(),
		})
	}

	events = append(events, types.PositionEndEvent{})
	g.queue.push(events...)

	return nil
}

// RequestOpenOrders fetches open orders and emits them followed by the end marker.
// Orders placed outside the engine get stable negative request ids.
func (g *AlpacaGateway) RequestOpenOrders(_ context.Context) error {
	if !g.IsConnected() {
		return errors.New(errors.ErrCodeNotConnected, "alpaca gateway is not connected")
	}

	orders, err := g.trading.GetOrders(alpaca.GetOrdersRequest{ //nolint:exhaustruct // optional filters
		Status: "open",
		Limit:  alpacaOpenOrdersLimit,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeRequestFailed, "failed to fetch alpaca open orders", err)
	}

	events := make([]types.Event, 0, len(orders)+1)

	g.mu.Lock()
	for _, o := range orders {
		events = append(events, g.convertOrderLocked(o))
	}
	g.mu.Unlock()

	events = append(events, types.OpenOrderEndEvent{})
	g.queue.push(events...)

	return nil
}

// SubscribeAccountMetric polls an account value. ExcessLiquidity maps to buying power
// and NetLiquidation to equity.
func (g *AlpacaGateway) SubscribeAccountMetric(_ context.Context, requestID int64, metric types.AccountMetric) error {
	switch metric {
	case types.AccountMetricExcessLiquidity, types.AccountMetricNetLiquidation:
	default:
		return errors.Newf(errors.ErrCodeUnsupportedMetric, "unsupported account metric %q", metric)
	}

	if err := g.register(requestID, func() { g.metricSubs[requestID] = metric }); err != nil {
		return err
	}

	g.publishAccount()

	return nil
}

// SubscribeAccountPnl polls the account daily PnL (equity minus last equity).
func (g *AlpacaGateway) SubscribeAccountPnl(_ context.Context, requestID int64, _ string) error {
	if err := g.register(requestID, func() { g.accountPnlSubs[requestID] = struct{}{} }); err != nil {
		return err
	}

	g.publishAccount()

	return nil
}

// SubscribePnl polls live PnL for the position whose asset id is contractID.
func (g *AlpacaGateway) SubscribePnl(_ context.Context, requestID int64, _ string, contractID string) error {
	if err := g.register(requestID, func() { g.pnlSubs[requestID] = contractID }); err != nil {
		return err
	}

	g.publishPnl()

	return nil
}

// SubmitOrder places an order tagged with the request id.
func (g *AlpacaGateway) SubmitOrder(_ context.Context, requestID int64, contract types.Contract, spec types.OrderSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	if err := g.register(requestID, func() {}); err != nil {
		return err
	}

	req, err := buildPlaceOrderRequest(requestID, contract.Symbol, spec)
	if err != nil {
		return err
	}

	order, err := g.trading.PlaceOrder(req)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeOrderFailed, err, "failed to place %s %s order for %s", spec.Action, spec.Kind, contract.Symbol)
	}

	g.log.Info("Order placed",
		zap.Int64("request_id", requestID),
		zap.String("symbol", contract.Symbol),
		zap.String("alpaca_order_id", order.ID),
	)

	return nil
}

func (g *AlpacaGateway) register(requestID int64, apply func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.connected {
		return errors.New(errors.ErrCodeNotConnected, "alpaca gateway is not connected")
	}

	if requestID > g.highestID {
		g.highestID = requestID
	}

	apply()

	return nil
}

func (g *AlpacaGateway) dropLocked() {
	g.connected = false

	if g.stopPoll != nil {
		g.stopPoll()
		g.stopPoll = nil
	}

	g.marketSubs = map[int64]string{}
	g.metricSubs = map[int64]types.AccountMetric{}
	g.accountPnlSubs = map[int64]struct{}{}
	g.pnlSubs = map[int64]string{}
}

func (g *AlpacaGateway) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.poll()
		}
	}
}

// poll refreshes every subscription once.
func (g *AlpacaGateway) poll() {
	g.mu.Lock()
	quotes := make(map[int64]string, len(g.marketSubs))
	for id, symbol := range g.marketSubs {
		quotes[id] = symbol
	}
	g.mu.Unlock()

	g.publishQuotes(quotes)
	g.publishAccount()
	g.publishPnl()
}

func (g *AlpacaGateway) publishQuotes(subs map[int64]string) {
	if len(subs) == 0 {
		return
	}

	open := true

	clock, err := g.trading.GetClock()
	if err != nil {
		g.log.Warn("Failed to fetch market clock", zap.Error(err))
	} else {
		open = clock.IsOpen
	}

	for _, id := range sortedKeys(subs) {
		symbol := subs[id]

		snapshot, err := g.data.GetSnapshot(symbol, marketdata.GetSnapshotRequest{ //nolint:exhaustruct // optional currency
			Feed: g.feed,
		})
		if err != nil {
			g.queue.push(types.ErrorEvent{
				RequestID: id,
				Code:      int(errors.ErrCodeRequestFailed),
				Message:   fmt.Sprintf("snapshot for %s failed: %v", symbol, err),
			})

			continue
		}

		g.queue.push(snapshotEvents(id, snapshot, open)...)
	}
}

func (g *AlpacaGateway) publishAccount() {
	g.mu.Lock()
	metrics := make(map[int64]types.AccountMetric, len(g.metricSubs))
	for id, metric := range g.metricSubs {
		metrics[id] = metric
	}

	pnlIDs := sortedKeys(g.accountPnlSubs)
	g.mu.Unlock()

	if len(metrics) == 0 && len(pnlIDs) == 0 {
		return
	}

	acct, err := g.trading.GetAccount()
	if err != nil {
		g.accountPollFailed(err)

		return
	}

	g.mu.Lock()
	g.pollFailures = 0
	g.mu.Unlock()

	for _, id := range sortedKeys(metrics) {
		value := acct.Equity
		if metrics[id] == types.AccountMetricExcessLiquidity {
			value = acct.BuyingPower
		}

		g.queue.push(types.AccountValueEvent{
			RequestID: id,
			Metric:    metrics[id],
			Value:     value.InexactFloat64(),
			Currency:  "USD",
		})
	}

	daily := acct.Equity.Sub(acct.LastEquity).InexactFloat64()
	for _, id := range pnlIDs {
		g.queue.push(types.AccountPnlEvent{RequestID: id, DailyPnL: daily})
	}
}

func (g *AlpacaGateway) accountPollFailed(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pollFailures++
	g.log.Warn("Failed to poll alpaca account", zap.Int("failures", g.pollFailures), zap.Error(err))

	if g.pollFailures >= alpacaMaxPollFailures && g.connected {
		g.dropLocked()
		g.queue.push(types.ConnectionClosedEvent{})
	}
}

func (g *AlpacaGateway) publishPnl() {
	g.mu.Lock()
	subs := make(map[int64]string, len(g.pnlSubs))
	for id, contractID := range g.pnlSubs {
		subs[id] = contractID
	}
	g.mu.Unlock()

	if len(subs) == 0 {
		return
	}

	positions, err := g.trading.GetPositions()
	if err != nil {
		g.log.Warn("Failed to poll alpaca positions", zap.Error(err))

		return
	}

	byAsset := make(map[string]alpaca.Position, len(positions))
	for _, p := range positions {
		byAsset[p.AssetID] = p
	}

	for _, id := range sortedKeys(subs) {
		p, ok := byAsset[subs[id]]
		if !ok {
			continue
		}

		g.queue.push(types.PnlSingleEvent{
			RequestID:     id,
			Shares:        p.Qty.InexactFloat64(),
			DailyPnL:      decimalOrZero(p.UnrealizedIntradayPL),
			UnrealizedPnL: decimalOrZero(p.UnrealizedPL),
			Value:         decimalOrZero(p.MarketValue),
		})
	}
}

func (g *AlpacaGateway) convertOrderLocked(o alpaca.Order) types.OpenOrderEvent {
	id, ok := parseClientOrderID(o.ClientOrderID)
	if !ok {
		id, ok = g.foreignIDs[o.ID]
		if !ok {
			id = g.nextForeign
			g.foreignIDs[o.ID] = id
			g.nextForeign--
		}
	}

	kind := types.OrderKindMarket

	switch o.Type {
	case alpaca.Limit:
		kind = types.OrderKindLimit
	case alpaca.TrailingStop:
		kind = types.OrderKindTrailingStop
	default:
	}

	action := types.OrderActionBuy
	if o.Side == alpaca.Sell {
		action = types.OrderActionSell
	}

	return types.OpenOrderEvent{
		RequestID:    id,
		Symbol:       o.Symbol,
		Action:       action,
		Kind:         kind,
		Quantity:     decimalOrZero(o.Qty),
		LimitPrice:   decimalOrZero(o.LimitPrice),
		TrailPercent: decimalOrZero(o.TrailPercent),
		Status:       mapAlpacaOrderStatus(o.Status),
	}
}

func buildPlaceOrderRequest(requestID int64, symbol string, spec types.OrderSpec) (alpaca.PlaceOrderRequest, error) {
	qty := decimal.NewFromFloat(spec.Quantity)

	//nolint:exhaustruct // third-party struct with many optional fields
	req := alpaca.PlaceOrderRequest{
		Symbol:        symbol,
		Qty:           &qty,
		Side:          alpaca.Buy,
		TimeInForce:   alpaca.Day,
		ClientOrderID: ClientOrderIDPrefix + strconv.FormatInt(requestID, 10),
	}

	if spec.Action == types.OrderActionSell {
		req.Side = alpaca.Sell
	}

	if spec.TimeInForce == types.TimeInForceGTC {
		req.TimeInForce = alpaca.GTC
	}

	switch spec.Kind {
	case types.OrderKindLimit:
		limit := decimal.NewFromFloat(spec.LimitPrice).Round(2)
		req.Type = alpaca.Limit
		req.LimitPrice = &limit
	case types.OrderKindTrailingStop:
		trail := decimal.NewFromFloat(spec.TrailPercent)
		req.Type = alpaca.TrailingStop
		req.TrailPercent = &trail
	case types.OrderKindMarket:
		req.Type = alpaca.Market
	default:
		return req, errors.Newf(errors.ErrCodeInvalidOrder, "unsupported order kind %q", spec.Kind)
	}

	return req, nil
}

// snapshotEvents converts a market data snapshot into quote field events.
// While the market is closed bid, ask and last carry the closed sentinel.
func snapshotEvents(requestID int64, snapshot *marketdata.Snapshot, open bool) []types.Event {
	events := make([]types.Event, 0, 5)

	push := func(field types.PriceField, raw float64, known bool) {
		if !known {
			return
		}

		events = append(events, types.PriceEvent{RequestID: requestID, Field: field, Price: types.PriceFromFeed(raw)})
	}

	if !open {
		push(types.PriceFieldBid, types.ClosedSentinel, true)
		push(types.PriceFieldAsk, types.ClosedSentinel, true)
		push(types.PriceFieldLast, types.ClosedSentinel, true)
	} else {
		if q := snapshot.LatestQuote; q != nil {
			push(types.PriceFieldBid, q.BidPrice, q.BidPrice > 0)
			push(types.PriceFieldAsk, q.AskPrice, q.AskPrice > 0)
		}

		if t := snapshot.LatestTrade; t != nil {
			push(types.PriceFieldLast, t.Price, t.Price > 0)
		}
	}

	if b := snapshot.DailyBar; b != nil {
		push(types.PriceFieldOpen, b.Open, b.Open > 0)
	}

	if b := snapshot.PrevDailyBar; b != nil {
		push(types.PriceFieldClose, b.Close, b.Close > 0)
	}

	return events
}

func mapAlpacaOrderStatus(status string) types.OrderStatus {
	switch status {
	case "partially_filled":
		return types.OrderStatusPartiallyFilled
	case "filled":
		return types.OrderStatusFilled
	case "canceled", "replaced":
		return types.OrderStatusCancelled
	case "pending_cancel":
		// Still fillable until the venue confirms the cancel.
		return types.OrderStatusSubmitted
	case "rejected":
		return types.OrderStatusRejected
	case "expired", "done_for_day":
		return types.OrderStatusExpired
	case "pending_new":
		return types.OrderStatusPendingSubmit
	default:
		return types.OrderStatusSubmitted
	}
}

func parseClientOrderID(clientOrderID string) (int64, bool) {
	raw, ok := strings.CutPrefix(clientOrderID, ClientOrderIDPrefix)
	if !ok {
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}

	return id, true
}

func decimalOrZero(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}

	return d.InexactFloat64()
}
