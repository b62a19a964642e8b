package engine_v1

import (
	"context"
	"testing"
	"time"

	"github.com/rxtech-lab/equity-trader/internal/config"
	"github.com/rxtech-lab/equity-trader/internal/logger"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/mocks"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type EventDispatcherTestSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	gateway    *mocks.MockGateway
	state      *SessionState
	candidates *CandidateTracker
	positions  *PositionTracker
	orders     *OrderTracker
	dispatcher *EventDispatcher
	ctx        context.Context
}

func TestEventDispatcherTestSuite(t *testing.T) {
	suite.Run(t, new(EventDispatcherTestSuite))
}

func (s *EventDispatcherTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gateway = mocks.NewMockGateway(s.ctrl)
	s.ctx = context.Background()

	log := logger.NewNopLogger()
	s.state = NewSessionState()
	s.candidates = NewCandidateTracker(s.state, s.gateway, log)
	s.positions = NewPositionTracker(s.state, s.gateway, 50*time.Millisecond, log)
	s.orders = NewOrderTracker(s.state, s.gateway, 50*time.Millisecond, log)
	s.dispatcher = NewEventDispatcher(s.state, s.candidates, s.positions, s.orders, log)
}

func (s *EventDispatcherTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *EventDispatcherTestSuite) TestNextValidID_SeedsAllocator() {
	s.False(s.state.IsSeeded())

	s.dispatcher.Dispatch(types.NextValidIDEvent{ID: 42})

	s.True(s.state.IsSeeded())

	id, err := s.state.NextRequestID()
	s.Require().NoError(err)
	s.Equal(int64(42), id)

	select {
	case got := <-s.dispatcher.NextIDs():
		s.Equal(int64(42), got)
	default:
		s.Fail("expected a next id signal")
	}
}

func (s *EventDispatcherTestSuite) TestNextValidID_KeepsOnlyLatest() {
	s.dispatcher.Dispatch(types.NextValidIDEvent{ID: 5})
	s.dispatcher.Dispatch(types.NextValidIDEvent{ID: 9})

	s.Equal(int64(9), <-s.dispatcher.NextIDs())

	select {
	case <-s.dispatcher.NextIDs():
		s.Fail("only the latest id should be buffered")
	default:
	}
}

func (s *EventDispatcherTestSuite) TestDrainNextIDs() {
	s.dispatcher.Dispatch(types.NextValidIDEvent{ID: 5})
	s.dispatcher.DrainNextIDs()

	select {
	case <-s.dispatcher.NextIDs():
		s.Fail("drained channel should be empty")
	default:
	}

	s.dispatcher.DrainNextIDs()
}

func (s *EventDispatcherTestSuite) TestPriceEvent_UpdatesCandidate() {
	s.state.SeedRequestIDs(1)
	s.gateway.EXPECT().SubscribeMarketData(gomock.Any(), int64(1), types.StockContract("AAPL")).Return(nil)

	s.Require().NoError(s.candidates.StartTracking(s.ctx, []config.CandidateConfig{{Ticker: "AAPL", Reason: ""}}))

	s.dispatcher.Dispatch(types.PriceEvent{RequestID: 1, Field: types.PriceFieldAsk, Price: types.NewPrice(101.5)})
	s.dispatcher.Dispatch(types.PriceEvent{RequestID: 1, Field: types.PriceFieldOpen, Price: types.PriceFromFeed(types.ClosedSentinel)})
	s.dispatcher.Dispatch(types.PriceEvent{RequestID: 99, Field: types.PriceFieldAsk, Price: types.NewPrice(1)})

	candidates := s.candidates.Candidates()
	s.Require().Len(candidates, 1)

	ask, ok := candidates[0].Ask.Value()
	s.True(ok)
	s.InDelta(101.5, ask, 1e-9)
	s.True(candidates[0].Open.IsClosed())
}

func (s *EventDispatcherTestSuite) TestAccountEvents() {
	s.dispatcher.Dispatch(types.AccountValueEvent{RequestID: 3, Metric: types.AccountMetricExcessLiquidity, Value: 2500, Currency: "USD"})
	s.dispatcher.Dispatch(types.AccountValueEvent{RequestID: 4, Metric: types.AccountMetricNetLiquidation, Value: 9000, Currency: "USD"})
	s.dispatcher.Dispatch(types.AccountValueEvent{RequestID: 5, Metric: types.AccountMetric("BuyingPower"), Value: 1, Currency: "USD"})
	s.dispatcher.Dispatch(types.AccountPnlEvent{RequestID: 6, DailyPnL: -12})

	account := s.state.Account()
	s.InDelta(2500.0, account.ExcessLiquidity.TakeOr(0), 1e-9)
	s.InDelta(9000.0, account.NetLiquidation.TakeOr(0), 1e-9)
	s.InDelta(-12.0, account.DailyPnL.TakeOr(0), 1e-9)
}

func (s *EventDispatcherTestSuite) TestPositionSnapshotAndPnl() {
	s.state.SeedRequestIDs(30)
	s.gateway.EXPECT().Account().Return("DU1").AnyTimes()
	s.gateway.EXPECT().RequestPositions(gomock.Any()).DoAndReturn(func(context.Context) error {
		s.dispatcher.Dispatch(types.PositionEvent{Account: "DU1", Symbol: "AAPL", ContractID: "c-AAPL", Shares: 5, AvgCost: 100})
		s.dispatcher.Dispatch(types.PositionEndEvent{})

		return nil
	})
	s.gateway.EXPECT().SubscribePnl(gomock.Any(), int64(30), "DU1", "c-AAPL").Return(nil)

	s.Require().NoError(s.positions.Refresh(s.ctx))
	s.Require().NoError(s.positions.EnsureAllPnlTracking(s.ctx))

	s.dispatcher.Dispatch(types.PnlSingleEvent{RequestID: 30, Shares: 5, DailyPnL: 3, UnrealizedPnL: 50, Value: 550})

	position, ok := s.positions.Position("AAPL")
	s.Require().True(ok)
	s.InDelta(50.0, position.UnrealizedPnL.TakeOr(0), 1e-9)
	s.InDelta(550.0, position.Value.TakeOr(0), 1e-9)
}

func (s *EventDispatcherTestSuite) TestOpenOrderSnapshot() {
	s.gateway.EXPECT().RequestOpenOrders(gomock.Any()).DoAndReturn(func(context.Context) error {
		s.dispatcher.Dispatch(types.OpenOrderEvent{
			RequestID:    7,
			Symbol:       "MSFT",
			Action:       types.OrderActionBuy,
			Kind:         types.OrderKindLimit,
			Quantity:     3,
			LimitPrice:   300,
			TrailPercent: 0,
			Status:       types.OrderStatusSubmitted,
		})
		s.dispatcher.Dispatch(types.OpenOrderEndEvent{})

		return nil
	})

	s.Require().NoError(s.orders.Refresh(s.ctx))
	s.True(s.orders.HasLiveOrder("MSFT"))
}

func (s *EventDispatcherTestSuite) TestErrorEvent_RejectsTrackedOrder() {
	now := time.Date(2024, time.June, 3, 15, 0, 0, 0, time.UTC)
	s.orders.RecordSubmitted(types.NewOrderFromSpec(12, "AAPL", types.OrderSpec{
		Action:       types.OrderActionBuy,
		Kind:         types.OrderKindLimit,
		Quantity:     1,
		LimitPrice:   10,
		TrailPercent: 0,
		TimeInForce:  types.TimeInForceDay,
	}, now))
	s.Require().True(s.orders.HasLiveOrder("AAPL"))

	s.dispatcher.Dispatch(types.ErrorEvent{RequestID: 99, Code: 200, Message: "unknown request"})
	s.True(s.orders.HasLiveOrder("AAPL"))

	s.dispatcher.Dispatch(types.ErrorEvent{RequestID: 12, Code: 201, Message: "order rejected"})
	s.False(s.orders.HasLiveOrder("AAPL"))

	order, ok := s.orders.Order(12)
	s.Require().True(ok)
	s.Equal(types.OrderStatusRejected, order.Status)
}

func (s *EventDispatcherTestSuite) TestConnectionClosed_SignalsOnce() {
	s.dispatcher.Dispatch(types.ConnectionClosedEvent{})
	s.dispatcher.Dispatch(types.ConnectionClosedEvent{})

	select {
	case <-s.dispatcher.Closed():
	default:
		s.Fail("expected a closed signal")
	}

	select {
	case <-s.dispatcher.Closed():
		s.Fail("signals should coalesce")
	default:
	}
}
