package engine_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rxtech-lab/equity-trader/e2e/trading/mockserver"
	"github.com/rxtech-lab/equity-trader/internal/config"
	"github.com/rxtech-lab/equity-trader/internal/logger"
	"github.com/rxtech-lab/equity-trader/internal/research"
	"github.com/rxtech-lab/equity-trader/internal/trading/engine"
	enginev1 "github.com/rxtech-lab/equity-trader/internal/trading/engine/engine_v1"
	tradingprovider "github.com/rxtech-lab/equity-trader/internal/trading/provider"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/stretchr/testify/suite"
)

const (
	waitFor = 5 * time.Second
	tick    = 20 * time.Millisecond
)

// TraderE2ETestSuite runs the trader engine against the Alpaca gateway talking
// to an in-process mock Alpaca server.
type TraderE2ETestSuite struct {
	suite.Suite
	server   *mockserver.MockAlpacaServer
	gateway  *tradingprovider.AlpacaGateway
	engine   *enginev1.TraderEngineV1
	dataDir  string
	auditDir string

	cancel context.CancelFunc
	done   chan error

	mu        sync.Mutex
	statuses  []types.EngineStatus
	decisions []types.Decision
	submitted []types.Order
	errs      []error
}

func TestTraderE2E(t *testing.T) {
	suite.Run(t, new(TraderE2ETestSuite))
}

func (s *TraderE2ETestSuite) SetupTest() {
	tempDir := s.T().TempDir()
	s.dataDir = filepath.Join(tempDir, "data")
	s.auditDir = filepath.Join(tempDir, "audit")

	s.server = mockserver.NewMockAlpacaServer(mockserver.ServerConfig{
		AccountID: "acct-e2e",
		Cash:      50000,
		Quotes: map[string]mockserver.Quote{
			"AAPL": {Bid: 89.9, Ask: 90, Last: 90, Open: 100, PrevClose: 100},
			"MSFT": {Bid: 299.9, Ask: 300, Last: 300, Open: 310, PrevClose: 310},
			"NVDA": {Bid: 119.9, Ask: 120, Last: 120, Open: 125, PrevClose: 124},
		},
		MarketOpen: true,
		APIKey:     "key",
	})
	s.Require().NoError(s.server.Start())

	s.gateway = nil
	s.engine = nil
	s.cancel = nil
	s.done = nil
	s.statuses = nil
	s.decisions = nil
	s.submitted = nil
	s.errs = nil
}

func (s *TraderE2ETestSuite) TearDownTest() {
	s.stopEngine()

	if s.gateway != nil {
		s.NoError(s.gateway.Close())
	}

	s.NoError(s.server.Stop())
}

func (s *TraderE2ETestSuite) config() *config.Config {
	return &config.Config{
		Version:  "1.0",
		LogLevel: "info",
		Gateway: config.GatewayConfig{
			Provider:        string(tradingprovider.ProviderAlpacaPaper),
			Host:            "",
			Port:            0,
			ClientID:        1,
			Account:         "",
			ConnectTimeout:  time.Second,
			SnapshotTimeout: time.Second,
			ProviderConfig:  nil,
		},
		Trading: config.TradingConfig{
			ProfitPct:     5,
			LossPct:       -3,
			TrailPct:      2,
			BulkAmountUSD: 1000,
		},
		Schedule: config.ScheduleConfig{
			WorkerInterval: 100 * time.Millisecond,
			UIInterval:     50 * time.Millisecond,
			TechnicalBreak: config.TechnicalBreak{Enabled: false, From: "", To: ""},
		},
		Candidates: []config.CandidateConfig{
			{Ticker: "AAPL", Reason: "dip"},
			{Ticker: "MSFT", Reason: "watch"},
			{Ticker: "NVDA", Reason: "unrated"},
		},
		Research: config.ResearchConfig{}, //nolint:exhaustruct // providers are set directly
		Output: config.OutputConfig{
			DataDir:  s.dataDir,
			AuditDir: s.auditDir,
		},
		Metrics: config.MetricsConfig{Enabled: false, Listen: ""},
	}
}

// startEngine wires a fresh engine to the mock server and runs it in the background.
func (s *TraderE2ETestSuite) startEngine() {
	var err error

	s.gateway, err = tradingprovider.NewAlpacaGateway(tradingprovider.AlpacaProviderConfig{
		ApiKey:         "key",
		SecretKey:      "secret",
		BaseURL:        s.server.URL(),
		DataURL:        s.server.URL(),
		Feed:           "iex",
		PollIntervalMs: 50,
	}, true, logger.NewNopLogger())
	s.Require().NoError(err)

	s.engine = enginev1.NewTraderEngineV1(logger.NewNopLogger())
	s.Require().NoError(s.engine.Initialize(s.config()))
	s.Require().NoError(s.engine.SetGateway(s.gateway))
	s.Require().NoError(s.engine.SetStatisticsProvider(research.NewStaticStatisticsProvider(map[string]types.Statistics{
		"AAPL": {AvgDropPct: 5, AvgSpreadPct: 2},
		"MSFT": {AvgDropPct: 1, AvgSpreadPct: 1},
		"NVDA": {AvgDropPct: 10, AvgSpreadPct: 3},
	})))
	s.Require().NoError(s.engine.SetRatingsProvider(research.NewStaticRatingsProvider(map[string]float64{
		"AAPL": 9,
		"MSFT": 7,
	})))
	s.Require().NoError(s.engine.SetDataOutputPath(s.dataDir))

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan error, 1)

	callbacks := s.callbacks()

	go func() {
		s.done <- s.engine.Run(ctx, callbacks)
	}()

	s.Eventually(func() bool {
		return s.hasStatus(types.EngineStatusRunning)
	}, waitFor, tick, "engine never reached running")
}

// stopEngine cancels the run and waits for it to return.
func (s *TraderE2ETestSuite) stopEngine() {
	if s.cancel == nil {
		return
	}

	s.cancel()
	s.cancel = nil

	select {
	case err := <-s.done:
		s.ErrorIs(err, context.Canceled)
	case <-time.After(waitFor):
		s.Fail("engine did not stop")
	}
}

func (s *TraderE2ETestSuite) callbacks() engine.TraderCallbacks {
	onStatus := engine.OnStatusUpdateCallback(func(status types.EngineStatus) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.statuses = append(s.statuses, status)

		return nil
	})
	onDecision := engine.OnDecisionCallback(func(decision types.Decision) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.decisions = append(s.decisions, decision)

		return nil
	})
	onOrder := engine.OnOrderSubmittedCallback(func(order types.Order) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.submitted = append(s.submitted, order)

		return nil
	})
	onError := engine.OnErrorCallback(func(err error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.errs = append(s.errs, err)
	})

	return engine.TraderCallbacks{
		OnEngineStart:    nil,
		OnEngineStop:     nil,
		OnDecision:       &onDecision,
		OnOrderSubmitted: &onOrder,
		OnError:          &onError,
		OnStatsUpdate:    nil,
		OnStatusUpdate:   &onStatus,
		OnSnapshot:       nil,
	}
}

func (s *TraderE2ETestSuite) hasStatus(status types.EngineStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.statuses {
		if st == status {
			return true
		}
	}

	return false
}

// hasDecision reports whether a decision for symbol with reason was reported.
func (s *TraderE2ETestSuite) hasDecision(symbol string, reason types.DecisionReason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.decisions {
		if d.Symbol == symbol && d.Reason == reason {
			return true
		}
	}

	return false
}

// waitCycles waits until n more decisions for symbol were reported.
func (s *TraderE2ETestSuite) waitCycles(symbol string, n int) {
	count := func() int {
		s.mu.Lock()
		defer s.mu.Unlock()

		c := 0

		for _, d := range s.decisions {
			if d.Symbol == symbol {
				c++
			}
		}

		return c
	}

	target := count() + n

	s.Eventually(func() bool { return count() >= target }, waitFor, tick)
}

func (s *TraderE2ETestSuite) serverOrders(symbol string) []mockserver.Order {
	var orders []mockserver.Order

	for _, order := range s.server.Orders() {
		if order.Symbol == symbol {
			orders = append(orders, order)
		}
	}

	return orders
}
