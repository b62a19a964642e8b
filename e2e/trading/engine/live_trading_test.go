package engine_test

import (
	"path/filepath"
	"strconv"

	"github.com/rxtech-lab/equity-trader/e2e/trading/mockserver"
	"github.com/rxtech-lab/equity-trader/e2e/trading/testhelper"
	"github.com/rxtech-lab/equity-trader/internal/trading/engine/engine_v1/audit"
	tradingprovider "github.com/rxtech-lab/equity-trader/internal/trading/provider"
	"github.com/rxtech-lab/equity-trader/internal/types"
)

// TestEntry_BuysDipOnce buys the rated dip once and then only reports it as held.
func (s *TraderE2ETestSuite) TestEntry_BuysDipOnce() {
	s.startEngine()

	s.Eventually(func() bool {
		_, held := s.server.GetPosition("AAPL")

		return held
	}, waitFor, tick, "AAPL was never bought")

	s.Eventually(func() bool {
		return s.hasDecision("AAPL", types.DecisionReasonAlreadyHeld)
	}, waitFor, tick)
	s.waitCycles("AAPL", 2)

	s.True(s.hasDecision("MSFT", types.DecisionReasonConditionsNotMet))
	s.True(s.hasDecision("NVDA", types.DecisionReasonConditionsNotMet) || s.hasDecision("NVDA", types.DecisionReasonNoData))

	orders := s.serverOrders("AAPL")
	s.Require().Len(orders, 1)
	s.Equal("buy", orders[0].Side)
	s.Equal("limit", orders[0].Type)
	s.Equal("day", orders[0].TimeInForce)
	s.InDelta(11.0, orders[0].Qty, 1e-9)
	s.InDelta(90.0, orders[0].LimitPrice, 1e-9)
	s.Empty(s.serverOrders("MSFT"))
	s.Empty(s.serverOrders("NVDA"))

	s.mu.Lock()
	s.Require().Len(s.submitted, 1)
	submitted := s.submitted[0]
	s.mu.Unlock()

	s.Equal(tradingprovider.ClientOrderIDPrefix+strconv.FormatInt(submitted.RequestID, 10), orders[0].ClientOrderID)

	position, _ := s.server.GetPosition("AAPL")
	s.InDelta(11.0, position.Qty, 1e-9)
	s.InDelta(50000-990.0, s.server.Cash(), 1e-9)

	s.stopEngine()

	journaled := testhelper.ReadOrders(s.T(), s.dataDir, "AAPL")
	s.Require().Len(journaled, 1)
	s.Equal(submitted.RequestID, journaled[0].RequestID)
	s.Equal(types.OrderKindLimit, journaled[0].Kind)
	s.InDelta(90.0, journaled[0].LimitPrice, 1e-9)

	var entries int

	for _, d := range testhelper.ReadDecisions(s.T(), s.dataDir) {
		if d.Reason == types.DecisionReasonEntry {
			entries++

			s.Equal("AAPL", d.Symbol)
			s.Equal(submitted.RequestID, d.RequestID.TakeOr(0))
		}
	}

	s.Equal(1, entries)

	stats := testhelper.ReadLiveStats(s.T(), s.dataDir)
	s.Require().Len(stats, 1)
	s.Equal("run_1", stats[0].ID)
	s.Equal(1, stats[0].Decisions.Buys)
	s.Positive(stats[0].Cycles.Completed)

	buys := testhelper.ReadAuditLines(s.T(), filepath.Join(s.auditDir, audit.BuysFile))
	s.Require().Len(buys, 1)
	s.Contains(buys[0], "BUY 11 AAPL @ 90.00")
}

// TestTakeProfit_PlacesTrailingStop protects a profitable position with one trailing stop.
func (s *TraderE2ETestSuite) TestTakeProfit_PlacesTrailingStop() {
	s.server.SetPosition("AAPL", 10, 80)

	s.startEngine()

	s.Eventually(func() bool {
		return len(s.serverOrders("AAPL")) == 1
	}, waitFor, tick, "no take-profit order")

	s.waitCycles("AAPL", 3)

	orders := s.serverOrders("AAPL")
	s.Require().Len(orders, 1)
	s.Equal("sell", orders[0].Side)
	s.Equal("trailing_stop", orders[0].Type)
	s.Equal("gtc", orders[0].TimeInForce)
	s.InDelta(10.0, orders[0].Qty, 1e-9)
	s.InDelta(2.0, orders[0].TrailPercent, 1e-9)
	s.Equal(mockserver.OrderStatusNew, orders[0].Status)

	s.True(s.hasDecision("AAPL", types.DecisionReasonTakeProfit))
	s.True(s.hasDecision("AAPL", types.DecisionReasonDuplicateOrder))

	s.stopEngine()

	profits := testhelper.ReadAuditLines(s.T(), filepath.Join(s.auditDir, audit.ProfitsFile))
	s.Require().Len(profits, 1)
	s.Contains(profits[0], "SELL 10 AAPL trailing stop 2.00%")
	s.Nil(testhelper.ReadAuditLines(s.T(), filepath.Join(s.auditDir, audit.LossesFile)))
}

// TestStopLoss_SellsAtMarket closes a losing position with a market order.
func (s *TraderE2ETestSuite) TestStopLoss_SellsAtMarket() {
	s.server.SetPosition("MSFT", 5, 320)

	s.startEngine()

	s.Eventually(func() bool {
		_, held := s.server.GetPosition("MSFT")

		return !held
	}, waitFor, tick, "MSFT was never sold")

	orders := s.serverOrders("MSFT")
	s.Require().Len(orders, 1)
	s.Equal("sell", orders[0].Side)
	s.Equal("market", orders[0].Type)
	s.Equal(mockserver.OrderStatusFilled, orders[0].Status)
	s.InDelta(5.0, orders[0].Qty, 1e-9)

	s.waitCycles("MSFT", 2)
	s.Len(s.serverOrders("MSFT"), 1)

	s.stopEngine()

	losses := testhelper.ReadAuditLines(s.T(), filepath.Join(s.auditDir, audit.LossesFile))
	s.Require().Len(losses, 1)
	s.Contains(losses[0], "SELL 5 MSFT at market")
}

// TestMarketClosed_NoOrders never submits while quotes carry the closed sentinel.
func (s *TraderE2ETestSuite) TestMarketClosed_NoOrders() {
	s.server.SetMarketOpen(false)

	s.startEngine()

	s.Eventually(func() bool {
		return s.hasDecision("AAPL", types.DecisionReasonMarketClosed)
	}, waitFor, tick)
	s.waitCycles("AAPL", 2)

	s.Empty(s.server.Orders())

	snapshot := s.engine.Snapshot()
	s.True(snapshot.Connected)

	for _, candidate := range snapshot.Candidates {
		if candidate.Symbol == "AAPL" {
			s.True(candidate.Ask.IsClosed())
		}
	}

	// Reopening lets the next cycles buy.
	s.server.SetMarketOpen(true)

	s.Eventually(func() bool {
		return len(s.serverOrders("AAPL")) == 1
	}, waitFor, tick)
}

// TestReconnect_AfterAccountPollFailures reconnects after the gateway drops the session.
func (s *TraderE2ETestSuite) TestReconnect_AfterAccountPollFailures() {
	s.startEngine()

	s.Eventually(func() bool {
		return len(s.serverOrders("AAPL")) == 1
	}, waitFor, tick)

	s.server.FailAccount(3)

	s.Eventually(func() bool {
		return s.hasStatus(types.EngineStatusReconnecting)
	}, waitFor, tick, "gateway drop was never noticed")

	s.Eventually(func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()

		return s.statuses[len(s.statuses)-1] == types.EngineStatusRunning
	}, waitFor, tick)

	s.True(s.gateway.IsConnected())

	// The held position survives the reconnect and is not bought again.
	s.waitCycles("AAPL", 2)
	s.Len(s.serverOrders("AAPL"), 1)
	s.True(s.hasDecision("AAPL", types.DecisionReasonAlreadyHeld))
}
