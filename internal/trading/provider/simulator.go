package tradingprovider

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
)

// Gateway-side error codes carried by ErrorEvent.
const (
	SimErrNoSecurityDefinition = 200
	SimErrOrderRejected        = 201
	SimErrNoPosition           = 202
)

type simPosition struct {
	symbol     string
	contractID string
	shares     float64
	avgCost    float64
}

type simOrder struct {
	order types.Order
	// extreme is the high-water mark for trailing sells and the low-water mark for trailing buys.
	extreme float64
}

// Simulator is an in-process Gateway with a random-walk market.
// It fills market orders immediately, limit orders when the quote crosses the limit,
// and emulates trailing stops against the last price.
type Simulator struct {
	config SimulatorConfig
	queue  *eventQueue

	mu           sync.Mutex
	rng          *rand.Rand
	connected    bool
	marketClosed bool
	failConnects int
	suppressEnd  bool
	stopTicks    context.CancelFunc

	quotes    map[string]*SimulatorQuote
	cash      float64
	realized  float64
	positions map[string]*simPosition
	orders    map[int64]*simOrder
	highestID int64

	marketSubs     map[int64]string
	metricSubs     map[int64]types.AccountMetric
	accountPnlSubs map[int64]struct{}
	pnlSubs        map[int64]string
}

// NewSimulator creates a simulated gateway.
func NewSimulator(config SimulatorConfig) *Simulator {
	if config.Quotes == nil {
		config.Quotes = map[string]SimulatorQuote{}
	}

	config.applyDefaults()

	quotes := make(map[string]*SimulatorQuote, len(config.Quotes))
	for symbol, quote := range config.Quotes {
		q := quote
		quotes[symbol] = &q
	}

	return &Simulator{
		config:         config,
		queue:          newEventQueue(),
		mu:             sync.Mutex{},
		rng:            rand.New(rand.NewSource(config.Seed)), //nolint:gosec // simulated market
		connected:      false,
		marketClosed:   config.MarketClosed,
		failConnects:   0,
		suppressEnd:    false,
		stopTicks:      nil,
		quotes:         quotes,
		cash:           config.StartingCash,
		realized:       0,
		positions:      map[string]*simPosition{},
		orders:         map[int64]*simOrder{},
		highestID:      0,
		marketSubs:     map[int64]string{},
		metricSubs:     map[int64]types.AccountMetric{},
		accountPnlSubs: map[int64]struct{}{},
		pnlSubs:        map[int64]string{},
	}
}

// Connect opens the simulated session and emits the next valid request id.
func (s *Simulator) Connect(ctx context.Context, _ ConnectionConfig) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeConnectFailed, "connect cancelled", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failConnects > 0 {
		s.failConnects--

		return errors.New(errors.ErrCodeConnectFailed, "simulated connection refused")
	}

	if s.connected {
		return nil
	}

	s.connected = true
	s.queue.push(types.NextValidIDEvent{ID: max(s.config.FirstRequestID, s.highestID+1)})

	if s.config.TickIntervalMs > 0 {
		tickCtx, cancel := context.WithCancel(context.Background())
		s.stopTicks = cancel

		go s.tickLoop(tickCtx, time.Duration(s.config.TickIntervalMs)*time.Millisecond)
	}

	return nil
}

// Disconnect closes the session and drops every subscription.
func (s *Simulator) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropLocked()

	return nil
}

// Close disconnects and closes the event channel.
func (s *Simulator) Close() error {
	if err := s.Disconnect(); err != nil {
		return err
	}

	s.queue.close()

	return nil
}

// IsConnected reports whether the session is alive.
func (s *Simulator) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.connected
}

// Events returns the event channel.
func (s *Simulator) Events() <-chan types.Event {
	return s.queue.events()
}

// Account returns the simulated account id.
func (s *Simulator) Account() string {
	return s.config.Account
}

// SubscribeMarketData streams quote fields for the contract.
// An unknown symbol is reported through an ErrorEvent.
func (s *Simulator) SubscribeMarketData(_ context.Context, requestID int64, contract types.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.useRequestLocked(requestID); err != nil {
		return err
	}

	quote, ok := s.quotes[contract.Symbol]
	if !ok {
		s.queue.push(types.ErrorEvent{
			RequestID: requestID,
			Code:      SimErrNoSecurityDefinition,
			Message:   fmt.Sprintf("no security definition has been found for %s", contract.Symbol),
		})

		return nil
	}

	s.marketSubs[requestID] = contract.Symbol
	s.queue.push(s.quoteEventsLocked(requestID, quote)...)

	return nil
}

// CancelMarketData stops a market-data subscription.
func (s *Simulator) CancelMarketData(_ context.Context, requestID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return errors.New(errors.ErrCodeNotConnected, "simulator is not connected")
	}

	delete(s.marketSubs, requestID)

	return nil
}

// RequestPositions emits every position, zero-share rows included, then the end marker.
func (s *Simulator) RequestPositions(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return errors.New(errors.ErrCodeNotConnected, "simulator is not connected")
	}

	symbols := make([]string, 0, len(s.positions))
	for symbol := range s.positions {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	for _, symbol := range symbols {
		pos := s.positions[symbol]
		s.queue.push(types.PositionEvent{
			Account:    s.config.Account,
			Symbol:     pos.symbol,
			ContractID: pos.contractID,
			Shares:     pos.shares,
			AvgCost:    pos.avgCost,
		})
	}

	if !s.suppressEnd {
		s.queue.push(types.PositionEndEvent{})
	}

	return nil
}

// RequestOpenOrders emits every live order, then the end marker.
func (s *Simulator) RequestOpenOrders(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return errors.New(errors.ErrCodeNotConnected, "simulator is not connected")
	}

	for _, so := range s.sortedOrdersLocked() {
		if !so.order.Status.IsLive() {
			continue
		}

		s.queue.push(types.OpenOrderEvent{
			RequestID:    so.order.RequestID,
			Symbol:       so.order.Symbol,
			Action:       so.order.Action,
			Kind:         so.order.Kind,
			Quantity:     so.order.Quantity,
			LimitPrice:   so.order.LimitPrice,
			TrailPercent: so.order.TrailPercent,
			Status:       so.order.Status,
		})
	}

	if !s.suppressEnd {
		s.queue.push(types.OpenOrderEndEvent{})
	}

	return nil
}

// SubscribeAccountMetric streams an account summary value.
func (s *Simulator) SubscribeAccountMetric(_ context.Context, requestID int64, metric types.AccountMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.useRequestLocked(requestID); err != nil {
		return err
	}

	switch metric {
	case types.AccountMetricExcessLiquidity, types.AccountMetricNetLiquidation:
	default:
		return errors.Newf(errors.ErrCodeUnsupportedMetric, "unsupported account metric %q", metric)
	}

	s.metricSubs[requestID] = metric
	s.queue.push(s.accountValueEventLocked(requestID, metric))

	return nil
}

// SubscribeAccountPnl streams the account daily PnL.
func (s *Simulator) SubscribeAccountPnl(_ context.Context, requestID int64, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.useRequestLocked(requestID); err != nil {
		return err
	}

	s.accountPnlSubs[requestID] = struct{}{}
	s.queue.push(types.AccountPnlEvent{RequestID: requestID, DailyPnL: s.dailyPnlLocked()})

	return nil
}

// SubscribePnl streams live PnL for the position with the given contract id.
func (s *Simulator) SubscribePnl(_ context.Context, requestID int64, _ string, contractID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.useRequestLocked(requestID); err != nil {
		return err
	}

	pos := s.positionByContractLocked(contractID)
	if pos == nil {
		s.queue.push(types.ErrorEvent{
			RequestID: requestID,
			Code:      SimErrNoPosition,
			Message:   fmt.Sprintf("no position for contract %s", contractID),
		})

		return nil
	}

	s.pnlSubs[requestID] = pos.symbol
	s.queue.push(s.pnlEventLocked(requestID, pos))

	return nil
}

// SubmitOrder places an order and tries to fill it against the current quote.
func (s *Simulator) SubmitOrder(_ context.Context, requestID int64, contract types.Contract, spec types.OrderSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[requestID]; exists {
		return errors.Newf(errors.ErrCodeDuplicateOrder, "order id %d already used", requestID)
	}

	if err := s.useRequestLocked(requestID); err != nil {
		return err
	}

	quote, ok := s.quotes[contract.Symbol]
	if !ok {
		return errors.Newf(errors.ErrCodeOrderFailed, "no security definition has been found for %s", contract.Symbol)
	}

	order := types.NewOrderFromSpec(requestID, contract.Symbol, spec, time.Now())
	order.Status = types.OrderStatusSubmitted

	so := &simOrder{order: order, extreme: quote.Last}
	s.orders[requestID] = so
	s.evaluateOrderLocked(so)

	return nil
}

// Tick advances the random walk one step and pushes updates to every subscriber.
func (s *Simulator) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return
	}

	if !s.marketClosed && s.config.Volatility > 0 {
		for _, symbol := range s.sortedSymbolsLocked() {
			s.stepQuoteLocked(s.quotes[symbol])
		}
	}

	s.publishLocked("")
}

// SetQuote replaces the quote of a ticker and publishes it.
func (s *Simulator) SetQuote(symbol string, quote SimulatorQuote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := quote.normalized()
	s.quotes[symbol] = &q

	if s.connected {
		s.publishLocked(symbol)
	}
}

// SetMarketClosed toggles whether quote fields are reported as closed.
func (s *Simulator) SetMarketClosed(closed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.marketClosed = closed

	if s.connected {
		s.publishLocked("")
	}
}

// SetPosition overwrites the holding for a ticker.
func (s *Simulator) SetPosition(symbol string, shares float64, avgCost float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := s.positionLocked(symbol)
	pos.shares = shares
	pos.avgCost = avgCost
}

// DropConnection simulates a lost session.
func (s *Simulator) DropConnection() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return
	}

	s.dropLocked()
	s.queue.push(types.ConnectionClosedEvent{})
}

// FailNextConnects makes the next n Connect calls fail.
func (s *Simulator) FailNextConnects(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failConnects = n
}

// SuppressSnapshotEnd withholds the end markers of position and open-order snapshots.
func (s *Simulator) SuppressSnapshotEnd(suppress bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.suppressEnd = suppress
}

// Inject pushes an arbitrary event onto the event channel.
func (s *Simulator) Inject(events ...types.Event) {
	s.queue.push(events...)
}

// Orders returns every order ever submitted ordered by request id.
func (s *Simulator) Orders() []types.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := s.sortedOrdersLocked()
	orders := make([]types.Order, 0, len(sorted))

	for _, so := range sorted {
		orders = append(orders, so.order)
	}

	return orders
}

// Cash returns the simulated cash balance.
func (s *Simulator) Cash() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cash
}

func (s *Simulator) tickLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

func (s *Simulator) dropLocked() {
	s.connected = false

	if s.stopTicks != nil {
		s.stopTicks()
		s.stopTicks = nil
	}

	s.marketSubs = map[int64]string{}
	s.metricSubs = map[int64]types.AccountMetric{}
	s.accountPnlSubs = map[int64]struct{}{}
	s.pnlSubs = map[int64]string{}
}

func (s *Simulator) useRequestLocked(requestID int64) error {
	if !s.connected {
		return errors.New(errors.ErrCodeNotConnected, "simulator is not connected")
	}

	if requestID > s.highestID {
		s.highestID = requestID
	}

	return nil
}

// publishLocked re-evaluates live orders and pushes quote, PnL and account updates.
// An empty symbol publishes every ticker.
func (s *Simulator) publishLocked(symbol string) {
	for _, so := range s.sortedOrdersLocked() {
		if symbol == "" || so.order.Symbol == symbol {
			s.evaluateOrderLocked(so)
		}
	}

	for _, id := range sortedKeys(s.marketSubs) {
		subSymbol := s.marketSubs[id]
		if symbol != "" && subSymbol != symbol {
			continue
		}

		s.queue.push(s.quoteEventsLocked(id, s.quotes[subSymbol])...)
	}

	for _, id := range sortedKeys(s.pnlSubs) {
		if pos, ok := s.positions[s.pnlSubs[id]]; ok {
			s.queue.push(s.pnlEventLocked(id, pos))
		}
	}

	for _, id := range sortedKeys(s.metricSubs) {
		s.queue.push(s.accountValueEventLocked(id, s.metricSubs[id]))
	}

	for _, id := range sortedKeys(s.accountPnlSubs) {
		s.queue.push(types.AccountPnlEvent{RequestID: id, DailyPnL: s.dailyPnlLocked()})
	}
}

func (s *Simulator) quoteEventsLocked(requestID int64, quote *SimulatorQuote) []types.Event {
	bid, ask, last := quote.Bid, quote.Ask, quote.Last
	if s.marketClosed {
		bid, ask, last = types.ClosedSentinel, types.ClosedSentinel, types.ClosedSentinel
	}

	return []types.Event{
		types.PriceEvent{RequestID: requestID, Field: types.PriceFieldBid, Price: types.PriceFromFeed(bid)},
		types.PriceEvent{RequestID: requestID, Field: types.PriceFieldAsk, Price: types.PriceFromFeed(ask)},
		types.PriceEvent{RequestID: requestID, Field: types.PriceFieldLast, Price: types.PriceFromFeed(last)},
		types.PriceEvent{RequestID: requestID, Field: types.PriceFieldOpen, Price: types.NewPrice(quote.Open)},
		types.PriceEvent{RequestID: requestID, Field: types.PriceFieldClose, Price: types.NewPrice(quote.Close)},
	}
}

func (s *Simulator) accountValueEventLocked(requestID int64, metric types.AccountMetric) types.AccountValueEvent {
	value := s.cash
	if metric == types.AccountMetricNetLiquidation {
		value = s.cash + s.marketValueLocked()
	}

	return types.AccountValueEvent{RequestID: requestID, Metric: metric, Value: value, Currency: "USD"}
}

func (s *Simulator) pnlEventLocked(requestID int64, pos *simPosition) types.PnlSingleEvent {
	quote := s.quotes[pos.symbol]

	return types.PnlSingleEvent{
		RequestID:     requestID,
		Shares:        pos.shares,
		DailyPnL:      pos.shares * (quote.Last - quote.Close),
		UnrealizedPnL: pos.shares * (quote.Last - pos.avgCost),
		Value:         pos.shares * quote.Last,
	}
}

func (s *Simulator) marketValueLocked() float64 {
	total := 0.0

	for symbol, pos := range s.positions {
		if quote, ok := s.quotes[symbol]; ok {
			total += pos.shares * quote.Last
		}
	}

	return total
}

func (s *Simulator) dailyPnlLocked() float64 {
	total := s.realized

	for symbol, pos := range s.positions {
		if quote, ok := s.quotes[symbol]; ok {
			total += pos.shares * (quote.Last - quote.Close)
		}
	}

	return total
}

func (s *Simulator) evaluateOrderLocked(so *simOrder) {
	if !so.order.Status.IsLive() || s.marketClosed {
		return
	}

	quote := s.quotes[so.order.Symbol]
	buy := so.order.Action == types.OrderActionBuy

	switch so.order.Kind {
	case types.OrderKindMarket:
		if buy {
			s.fillLocked(so, quote.Ask)
		} else {
			s.fillLocked(so, quote.Bid)
		}
	case types.OrderKindLimit:
		if buy && quote.Ask <= so.order.LimitPrice {
			s.fillLocked(so, quote.Ask)
		} else if !buy && quote.Bid >= so.order.LimitPrice {
			s.fillLocked(so, quote.Bid)
		}
	case types.OrderKindTrailingStop:
		trail := so.order.TrailPercent / 100
		if buy {
			so.extreme = math.Min(so.extreme, quote.Last)
			if quote.Last >= so.extreme*(1+trail) {
				s.fillLocked(so, quote.Last)
			}
		} else {
			so.extreme = math.Max(so.extreme, quote.Last)
			if quote.Last <= so.extreme*(1-trail) {
				s.fillLocked(so, quote.Last)
			}
		}
	}
}

func (s *Simulator) fillLocked(so *simOrder, price float64) {
	qty := so.order.Quantity
	pos := s.positionLocked(so.order.Symbol)

	if so.order.Action == types.OrderActionBuy {
		cost := qty * price
		if cost > s.cash {
			s.rejectLocked(so, fmt.Sprintf("insufficient cash: need %.2f, have %.2f", cost, s.cash))

			return
		}

		shares := pos.shares + qty
		pos.avgCost = (pos.shares*pos.avgCost + qty*price) / shares
		pos.shares = shares
		s.cash -= cost
	} else {
		if pos.shares < qty {
			s.rejectLocked(so, fmt.Sprintf("insufficient position: hold %v, selling %v", pos.shares, qty))

			return
		}

		s.realized += (price - pos.avgCost) * qty
		pos.shares -= qty
		s.cash += qty * price
	}

	so.order.Status = types.OrderStatusFilled
}

func (s *Simulator) rejectLocked(so *simOrder, message string) {
	so.order.Status = types.OrderStatusRejected
	s.queue.push(types.ErrorEvent{RequestID: so.order.RequestID, Code: SimErrOrderRejected, Message: message})
}

// positionLocked returns the position for symbol, creating an empty one if needed.
func (s *Simulator) positionLocked(symbol string) *simPosition {
	pos, ok := s.positions[symbol]
	if !ok {
		pos = &simPosition{symbol: symbol, contractID: "SIM:" + symbol, shares: 0, avgCost: 0}
		s.positions[symbol] = pos
	}

	return pos
}

func (s *Simulator) positionByContractLocked(contractID string) *simPosition {
	for _, pos := range s.positions {
		if pos.contractID == contractID {
			return pos
		}
	}

	return nil
}

// stepQuoteLocked moves the last price one geometric Brownian motion step and
// re-centres bid and ask keeping the relative spread.
func (s *Simulator) stepQuoteLocked(quote *SimulatorQuote) {
	halfSpread := (quote.Ask - quote.Bid) / 2 / quote.Last

	next := quote.Last * (1 + s.config.Volatility*s.standardNormal())
	if next <= 0 {
		next = quote.Last * 0.99
	}

	quote.Last = roundCents(next)
	quote.Bid = roundCents(next * (1 - halfSpread))
	quote.Ask = roundCents(next * (1 + halfSpread))
}

// standardNormal draws from N(0,1) with the Box-Muller transform.
func (s *Simulator) standardNormal() float64 {
	u1 := s.rng.Float64()
	for u1 == 0 {
		u1 = s.rng.Float64()
	}

	u2 := s.rng.Float64()

	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

func (s *Simulator) sortedSymbolsLocked() []string {
	symbols := make([]string, 0, len(s.quotes))
	for symbol := range s.quotes {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols
}

func (s *Simulator) sortedOrdersLocked() []*simOrder {
	orders := make([]*simOrder, 0, len(s.orders))
	for _, id := range sortedKeys(s.orders) {
		orders = append(orders, s.orders[id])
	}

	return orders
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
