// Package mockserver provides a mock Alpaca server for testing.
// It implements the trading and market data REST endpoints the Alpaca gateway polls,
// with a simple matching model: marketable orders fill at once against the current quote.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// Order statuses as reported by Alpaca.
const (
	OrderStatusNew      = "new"
	OrderStatusFilled   = "filled"
	OrderStatusCanceled = "canceled"
	OrderStatusRejected = "rejected"
)

// Quote is the market state of one symbol.
type Quote struct {
	Bid       float64
	Ask       float64
	Last      float64
	Open      float64
	PrevClose float64
}

// Order is an order held by the mock server.
type Order struct {
	ID            string
	ClientOrderID string
	Symbol        string
	Side          string
	Type          string
	TimeInForce   string
	Qty           float64
	FilledQty     float64
	LimitPrice    float64
	TrailPercent  float64
	Status        string
	CreatedAt     time.Time

	// highWater is the highest last price seen by a trailing stop.
	highWater float64
}

// Position is a held position.
type Position struct {
	AssetID  string
	Symbol   string
	Qty      float64
	AvgEntry float64
}

// ServerConfig holds configuration for the mock server.
type ServerConfig struct {
	// AccountID is reported by /v2/account.
	AccountID string
	// Cash is the initial cash balance, also reported as buying power.
	Cash float64
	// Quotes maps symbol to its initial quote.
	Quotes map[string]Quote
	// MarketOpen is reported by /v2/clock.
	MarketOpen bool
	// APIKey, when set, is required in the APCA-API-KEY-ID header.
	APIKey string
}

// MockAlpacaServer is an in-process stand-in for the Alpaca REST APIs.
type MockAlpacaServer struct {
	mu sync.RWMutex

	httpServer *http.Server
	listener   net.Listener

	accountID    string
	apiKey       string
	cash         float64
	lastEquity   float64
	marketOpen   bool
	quotes       map[string]Quote
	orders       []*Order
	positions    map[string]*Position
	accountFails int
	requests     map[string]int
}

// NewMockAlpacaServer creates a new mock Alpaca server.
func NewMockAlpacaServer(config ServerConfig) *MockAlpacaServer {
	accountID := config.AccountID
	if accountID == "" {
		accountID = "mock-account"
	}

	quotes := make(map[string]Quote, len(config.Quotes))
	for symbol, quote := range config.Quotes {
		quotes[strings.ToUpper(symbol)] = quote
	}

	return &MockAlpacaServer{
		mu:           sync.RWMutex{},
		httpServer:   nil,
		listener:     nil,
		accountID:    accountID,
		apiKey:       config.APIKey,
		cash:         config.Cash,
		lastEquity:   config.Cash,
		marketOpen:   config.MarketOpen,
		quotes:       quotes,
		orders:       nil,
		positions:    map[string]*Position{},
		accountFails: 0,
		requests:     map[string]int{},
	}
}

// Start starts the mock server on a random local port.
func (s *MockAlpacaServer) Start() error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Handler returns the router serving the Alpaca endpoints.
func (s *MockAlpacaServer) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.countRequests, s.authenticate)

	// Trading API
	router.HandleFunc("/v2/account", s.handleAccount).Methods(http.MethodGet)
	router.HandleFunc("/v2/clock", s.handleClock).Methods(http.MethodGet)
	router.HandleFunc("/v2/positions", s.handlePositions).Methods(http.MethodGet)
	router.HandleFunc("/v2/orders", s.handleListOrders).Methods(http.MethodGet)
	router.HandleFunc("/v2/orders", s.handleCreateOrder).Methods(http.MethodPost)

	// Market data API
	router.HandleFunc("/v2/stocks/snapshots", s.handleSnapshots).Methods(http.MethodGet)
	router.HandleFunc("/v2/stocks/{symbol}/snapshot", s.handleSnapshot).Methods(http.MethodGet)

	return router
}

// Stop stops the mock server.
func (s *MockAlpacaServer) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// URL returns the base URL for the server.
func (s *MockAlpacaServer) URL() string {
	if s.listener == nil {
		return ""
	}

	return "http://" + s.listener.Addr().String()
}

// SetQuote replaces the quote of a symbol and triggers resting trailing stops.
func (s *MockAlpacaServer) SetQuote(symbol string, quote Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbol = strings.ToUpper(symbol)
	s.quotes[symbol] = quote

	for _, order := range s.orders {
		if order.Symbol != symbol || order.Status != OrderStatusNew || order.Type != "trailing_stop" {
			continue
		}

		if quote.Last > order.highWater {
			order.highWater = quote.Last
		}

		if quote.Last <= order.highWater*(1-order.TrailPercent/100) {
			s.fillLocked(order, quote.Bid)
		}
	}
}

// SetMarketOpen sets the market clock state.
func (s *MockAlpacaServer) SetMarketOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.marketOpen = open
}

// SetPosition places a position as if it had been bought earlier.
func (s *MockAlpacaServer) SetPosition(symbol string, qty, avgEntry float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbol = strings.ToUpper(symbol)
	s.positions[symbol] = &Position{AssetID: uuid.NewString(), Symbol: symbol, Qty: qty, AvgEntry: avgEntry}
}

// FailAccount makes the next n account requests fail with 403.
func (s *MockAlpacaServer) FailAccount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accountFails = n
}

// Orders returns a copy of every order received, oldest first.
func (s *MockAlpacaServer) Orders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]Order, 0, len(s.orders))
	for _, order := range s.orders {
		orders = append(orders, *order)
	}

	return orders
}

// GetPosition returns the position in symbol, if any.
func (s *MockAlpacaServer) GetPosition(symbol string) (Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	position, ok := s.positions[strings.ToUpper(symbol)]
	if !ok {
		return Position{}, false
	}

	return *position, true
}

// Cash returns the current cash balance.
func (s *MockAlpacaServer) Cash() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cash
}

// RequestCount returns how many requests hit path.
func (s *MockAlpacaServer) RequestCount(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.requests[path]
}

// Middleware

func (s *MockAlpacaServer) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *MockAlpacaServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("APCA-API-KEY-ID") != s.apiKey {
			writeError(w, http.StatusUnauthorized, "request is not authorized")

			return
		}

		next.ServeHTTP(w, r)
	})
}

// REST API Handlers

// handleAccount handles GET /v2/account
func (s *MockAlpacaServer) handleAccount(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	if s.accountFails > 0 {
		s.accountFails--
		s.mu.Unlock()
		writeError(w, http.StatusForbidden, "account is temporarily unavailable")

		return
	}

	equity := s.cash
	for _, position := range s.positions {
		equity += position.Qty * s.quotes[position.Symbol].Last
	}

	response := map[string]any{
		"id":             s.accountID,
		"account_number": "PA" + strings.ToUpper(s.accountID),
		"status":         "ACTIVE",
		"currency":       "USD",
		"cash":           money(s.cash),
		"buying_power":   money(s.cash),
		"equity":         money(equity),
		"last_equity":    money(s.lastEquity),
		"created_at":     time.Now().UTC().Format(time.RFC3339Nano),
	}
	s.mu.Unlock()

	writeJSON(w, response)
}

// handleClock handles GET /v2/clock
func (s *MockAlpacaServer) handleClock(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	open := s.marketOpen
	s.mu.RUnlock()

	now := time.Now().UTC()

	writeJSON(w, map[string]any{
		"timestamp":  now.Format(time.RFC3339Nano),
		"is_open":    open,
		"next_open":  now.Add(12 * time.Hour).Format(time.RFC3339),
		"next_close": now.Add(6 * time.Hour).Format(time.RFC3339),
	})
}

// handlePositions handles GET /v2/positions
func (s *MockAlpacaServer) handlePositions(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols := make([]string, 0, len(s.positions))
	for symbol := range s.positions {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	response := make([]map[string]any, 0, len(symbols))

	for _, symbol := range symbols {
		position := s.positions[symbol]
		quote := s.quotes[symbol]
		side := "long"

		if position.Qty < 0 {
			side = "short"
		}

		response = append(response, map[string]any{
			"asset_id":               position.AssetID,
			"symbol":                 symbol,
			"exchange":               "NASDAQ",
			"asset_class":            "us_equity",
			"side":                   side,
			"qty":                    money(position.Qty),
			"qty_available":          money(position.Qty),
			"avg_entry_price":        money(position.AvgEntry),
			"cost_basis":             money(position.Qty * position.AvgEntry),
			"market_value":           money(position.Qty * quote.Last),
			"unrealized_pl":          money(position.Qty * (quote.Last - position.AvgEntry)),
			"unrealized_intraday_pl": money(position.Qty * (quote.Last - quote.PrevClose)),
			"current_price":          money(quote.Last),
			"lastday_price":          money(quote.PrevClose),
		})
	}

	writeJSON(w, response)
}

// handleListOrders handles GET /v2/orders
func (s *MockAlpacaServer) handleListOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	s.mu.RLock()
	defer s.mu.RUnlock()

	response := make([]map[string]any, 0, len(s.orders))

	for _, order := range s.orders {
		if status == "open" && order.Status != OrderStatusNew {
			continue
		}

		response = append(response, orderJSON(order))
	}

	writeJSON(w, response)
}

type placeOrderRequest struct {
	Symbol        string           `json:"symbol"`
	Qty           *decimal.Decimal `json:"qty"`
	Side          string           `json:"side"`
	Type          string           `json:"type"`
	TimeInForce   string           `json:"time_in_force"`
	LimitPrice    *decimal.Decimal `json:"limit_price"`
	TrailPercent  *decimal.Decimal `json:"trail_percent"`
	ClientOrderID string           `json:"client_order_id"`
}

// handleCreateOrder handles POST /v2/orders
func (s *MockAlpacaServer) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid order request")

		return
	}

	if req.Qty == nil || !req.Qty.IsPositive() {
		writeError(w, http.StatusUnprocessableEntity, "qty must be positive")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	symbol := strings.ToUpper(req.Symbol)

	quote, ok := s.quotes[symbol]
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "asset not found: "+symbol)

		return
	}

	for _, existing := range s.orders {
		if req.ClientOrderID != "" && existing.ClientOrderID == req.ClientOrderID {
			writeError(w, http.StatusUnprocessableEntity, "client_order_id must be unique")

			return
		}
	}

	order := &Order{
		ID:            uuid.NewString(),
		ClientOrderID: req.ClientOrderID,
		Symbol:        symbol,
		Side:          req.Side,
		Type:          req.Type,
		TimeInForce:   req.TimeInForce,
		Qty:           req.Qty.InexactFloat64(),
		FilledQty:     0,
		LimitPrice:    decimalOrZero(req.LimitPrice),
		TrailPercent:  decimalOrZero(req.TrailPercent),
		Status:        OrderStatusNew,
		CreatedAt:     time.Now().UTC(),
		highWater:     quote.Last,
	}
	s.orders = append(s.orders, order)

	s.matchLocked(order, quote)

	writeJSON(w, orderJSON(order))
}

// handleSnapshots handles GET /v2/stocks/snapshots
func (s *MockAlpacaServer) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	response := map[string]any{}

	for _, symbol := range strings.Split(r.URL.Query().Get("symbols"), ",") {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if quote, ok := s.quotes[symbol]; ok {
			response[symbol] = snapshotJSON(quote)
		}
	}

	writeJSON(w, response)
}

// handleSnapshot handles GET /v2/stocks/{symbol}/snapshot
func (s *MockAlpacaServer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	s.mu.RLock()
	quote, ok := s.quotes[symbol]
	s.mu.RUnlock()

	if !ok {
		writeError(w, http.StatusNotFound, "symbol not found: "+symbol)

		return
	}

	writeJSON(w, snapshotJSON(quote))
}

// matchLocked fills marketable orders against quote. Limit buys fill at the ask when
// the limit reaches it, market orders fill at the touch, trailing stops rest.
func (s *MockAlpacaServer) matchLocked(order *Order, quote Quote) {
	switch order.Type {
	case "market":
		price := quote.Ask
		if order.Side == "sell" {
			price = quote.Bid
		}

		s.fillLocked(order, price)
	case "limit":
		if order.Side == "buy" && quote.Ask > 0 && order.LimitPrice >= quote.Ask {
			s.fillLocked(order, quote.Ask)
		}

		if order.Side == "sell" && quote.Bid > 0 && order.LimitPrice <= quote.Bid {
			s.fillLocked(order, quote.Bid)
		}
	}
}

func (s *MockAlpacaServer) fillLocked(order *Order, price float64) {
	position, ok := s.positions[order.Symbol]
	if !ok {
		position = &Position{AssetID: uuid.NewString(), Symbol: order.Symbol, Qty: 0, AvgEntry: 0}
		s.positions[order.Symbol] = position
	}

	if order.Side == "buy" {
		cost := order.Qty * price
		if cost > s.cash {
			order.Status = OrderStatusRejected

			return
		}

		position.AvgEntry = (position.Qty*position.AvgEntry + cost) / (position.Qty + order.Qty)
		position.Qty += order.Qty
		s.cash -= cost
	} else {
		position.Qty -= order.Qty
		s.cash += order.Qty * price
	}

	if position.Qty == 0 {
		delete(s.positions, order.Symbol)
	}

	order.FilledQty = order.Qty
	order.Status = OrderStatusFilled
}

func orderJSON(order *Order) map[string]any {
	created := order.CreatedAt.Format(time.RFC3339Nano)

	response := map[string]any{
		"id":              order.ID,
		"client_order_id": order.ClientOrderID,
		"symbol":          order.Symbol,
		"asset_class":     "us_equity",
		"qty":             money(order.Qty),
		"filled_qty":      money(order.FilledQty),
		"side":            order.Side,
		"type":            order.Type,
		"order_type":      order.Type,
		"time_in_force":   order.TimeInForce,
		"status":          order.Status,
		"created_at":      created,
		"updated_at":      created,
		"submitted_at":    created,
		"extended_hours":  false,
	}

	if order.LimitPrice > 0 {
		response["limit_price"] = money(order.LimitPrice)
	}

	if order.TrailPercent > 0 {
		response["trail_percent"] = money(order.TrailPercent)
	}

	return response
}

func snapshotJSON(quote Quote) map[string]any {
	now := time.Now().UTC()
	stamp := now.Format(time.RFC3339Nano)
	yesterday := now.AddDate(0, 0, -1).Format(time.RFC3339)

	return map[string]any{
		"latestTrade": map[string]any{"t": stamp, "p": quote.Last, "s": 100, "x": "V", "i": 1, "z": "C"},
		"latestQuote": map[string]any{"t": stamp, "bp": quote.Bid, "bs": 1, "ap": quote.Ask, "as": 1, "bx": "V", "ax": "V", "z": "C"},
		"minuteBar":   map[string]any{"t": stamp, "o": quote.Last, "h": quote.Last, "l": quote.Last, "c": quote.Last, "v": 100},
		"dailyBar":    map[string]any{"t": stamp, "o": quote.Open, "h": quote.Open, "l": quote.Last, "c": quote.Last, "v": 1000},
		"prevDailyBar": map[string]any{
			"t": yesterday, "o": quote.PrevClose, "h": quote.PrevClose, "l": quote.PrevClose, "c": quote.PrevClose, "v": 1000,
		},
	}
}

func money(v float64) string {
	return decimal.NewFromFloat(v).Round(4).String()
}

func decimalOrZero(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}

	return d.InexactFloat64()
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": status, "message": message})
}
