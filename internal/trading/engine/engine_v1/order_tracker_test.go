package engine_v1

import (
	"context"
	"testing"
	"time"

	"github.com/rxtech-lab/equity-trader/internal/logger"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/mocks"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type OrderTrackerTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	gateway *mocks.MockGateway
	state   *SessionState
	tracker *OrderTracker
	ctx     context.Context
	now     time.Time
}

func TestOrderTrackerTestSuite(t *testing.T) {
	suite.Run(t, new(OrderTrackerTestSuite))
}

func (s *OrderTrackerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gateway = mocks.NewMockGateway(s.ctrl)
	s.state = NewSessionState()
	s.tracker = NewOrderTracker(s.state, s.gateway, 50*time.Millisecond, logger.NewNopLogger())
	s.ctx = context.Background()
	s.now = time.Date(2024, time.June, 3, 15, 0, 0, 0, time.UTC)
}

func (s *OrderTrackerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func openOrder(id int64, symbol string, status types.OrderStatus) types.OpenOrderEvent {
	return types.OpenOrderEvent{
		RequestID:    id,
		Symbol:       symbol,
		Action:       types.OrderActionBuy,
		Kind:         types.OrderKindLimit,
		Quantity:     5,
		LimitPrice:   90,
		TrailPercent: 0,
		Status:       status,
	}
}

func (s *OrderTrackerTestSuite) limitBuy(id int64, symbol string) types.Order {
	return types.NewOrderFromSpec(id, symbol, types.OrderSpec{
		Action:       types.OrderActionBuy,
		Kind:         types.OrderKindLimit,
		Quantity:     5,
		LimitPrice:   90,
		TrailPercent: 0,
		TimeInForce:  types.TimeInForceDay,
	}, s.now)
}

// snapshot makes the next RequestOpenOrders answer with rows; before runs first, inside the refresh.
func (s *OrderTrackerTestSuite) snapshot(before func(), rows ...types.OpenOrderEvent) {
	s.gateway.EXPECT().RequestOpenOrders(gomock.Any()).DoAndReturn(func(context.Context) error {
		if before != nil {
			before()
		}

		for _, row := range rows {
			s.tracker.OnOpenOrder(row)
		}

		s.tracker.OnOpenOrderEnd()

		return nil
	})
}

func (s *OrderTrackerTestSuite) TestRefresh_ReplacesLiveSet() {
	s.snapshot(nil, openOrder(1, "AAPL", types.OrderStatusSubmitted), openOrder(2, "MSFT", types.OrderStatusSubmitted))
	s.Require().NoError(s.tracker.Refresh(s.ctx))
	s.True(s.tracker.HasLiveOrder("AAPL"))
	s.True(s.tracker.HasLiveOrder("MSFT"))

	s.snapshot(nil, openOrder(2, "MSFT", types.OrderStatusPartiallyFilled))
	s.Require().NoError(s.tracker.Refresh(s.ctx))
	s.False(s.tracker.HasLiveOrder("AAPL"))

	order, ok := s.tracker.Order(2)
	s.Require().True(ok)
	s.Equal(types.OrderStatusPartiallyFilled, order.Status)
}

func (s *OrderTrackerTestSuite) TestRecordSubmitted_VisibleAtOnce() {
	s.tracker.RecordSubmitted(s.limitBuy(7, "AAPL"))

	s.True(s.tracker.HasLiveOrder("AAPL"))
	s.False(s.tracker.HasLiveOrder("MSFT"))
}

func (s *OrderTrackerTestSuite) TestLocalOrderSubmittedBeforeRefreshDroppedWhenNotReported() {
	s.tracker.RecordSubmitted(s.limitBuy(7, "AAPL"))

	s.snapshot(nil)
	s.Require().NoError(s.tracker.Refresh(s.ctx))

	s.False(s.tracker.HasLiveOrder("AAPL"))
	_, ok := s.tracker.Order(7)
	s.False(ok)
}

func (s *OrderTrackerTestSuite) TestLocalOrderSubmittedDuringRefreshKept() {
	s.snapshot(func() {
		s.tracker.RecordSubmitted(s.limitBuy(8, "NVDA"))
	})
	s.Require().NoError(s.tracker.Refresh(s.ctx))

	s.True(s.tracker.HasLiveOrder("NVDA"))

	// The next snapshot is requested after the submission, so its silence means the order is gone.
	s.snapshot(nil)
	s.Require().NoError(s.tracker.Refresh(s.ctx))
	s.False(s.tracker.HasLiveOrder("NVDA"))
}

func (s *OrderTrackerTestSuite) TestReportedLocalOrderKeepsSubmissionTime() {
	s.tracker.RecordSubmitted(s.limitBuy(9, "AAPL"))

	s.snapshot(nil, openOrder(9, "AAPL", types.OrderStatusSubmitted))
	s.Require().NoError(s.tracker.Refresh(s.ctx))

	order, ok := s.tracker.Order(9)
	s.Require().True(ok)
	s.Equal(types.OrderStatusSubmitted, order.Status)
	s.Equal(s.now, order.SubmittedAt)
}

func (s *OrderTrackerTestSuite) TestRefresh_TimeoutKeepsLastKnown() {
	s.tracker.RecordSubmitted(s.limitBuy(7, "AAPL"))

	s.gateway.EXPECT().RequestOpenOrders(gomock.Any()).Return(nil)

	err := s.tracker.Refresh(s.ctx)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeSnapshotTimeout))
	s.True(s.tracker.HasLiveOrder("AAPL"))

	s.tracker.OnOpenOrderEnd()
	s.True(s.tracker.HasLiveOrder("AAPL"))
}

func (s *OrderTrackerTestSuite) TestRefresh_Cancelled() {
	s.gateway.EXPECT().RequestOpenOrders(gomock.Any()).Return(nil)

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	err := s.tracker.Refresh(ctx)
	s.True(errors.HasCode(err, errors.ErrCodeSnapshotTimeout))
}

func (s *OrderTrackerTestSuite) TestMarkRejected() {
	s.tracker.RecordSubmitted(s.limitBuy(7, "AAPL"))

	s.True(s.tracker.MarkRejected(7))
	s.False(s.tracker.HasLiveOrder("AAPL"))
	s.False(s.tracker.MarkRejected(7))
	s.False(s.tracker.MarkRejected(99))

	order, _ := s.tracker.Order(7)
	s.Equal(types.OrderStatusRejected, order.Status)
}

func (s *OrderTrackerTestSuite) TestOrdersSortedByRequestID() {
	s.tracker.RecordSubmitted(s.limitBuy(9, "AAPL"))
	s.tracker.RecordSubmitted(s.limitBuy(3, "MSFT"))
	s.tracker.RecordSubmitted(s.limitBuy(5, "NVDA"))

	orders := s.tracker.Orders()
	s.Require().Len(orders, 3)
	s.Equal(int64(3), orders[0].RequestID)
	s.Equal(int64(5), orders[1].RequestID)
	s.Equal(int64(9), orders[2].RequestID)
}

func (s *OrderTrackerTestSuite) TestRefresh_TailOfAbandonedRequestNotPromoted() {
	s.snapshot(nil, openOrder(1, "AAPL", types.OrderStatusSubmitted))
	s.Require().NoError(s.tracker.Refresh(s.ctx))

	s.gateway.EXPECT().RequestOpenOrders(gomock.Any()).Return(nil)
	s.True(errors.HasCode(s.tracker.Refresh(s.ctx), errors.ErrCodeSnapshotTimeout))

	// Only the end marker of the abandoned request arrives during the next refresh.
	s.gateway.EXPECT().RequestOpenOrders(gomock.Any()).DoAndReturn(func(context.Context) error {
		s.tracker.OnOpenOrderEnd()

		return nil
	})

	err := s.tracker.Refresh(s.ctx)
	s.True(errors.HasCode(err, errors.ErrCodeSnapshotTimeout))
	s.True(s.tracker.HasLiveOrder("AAPL"))
}

func (s *OrderTrackerTestSuite) TestRefresh_CompletesAfterAbandonedTail() {
	s.gateway.EXPECT().RequestOpenOrders(gomock.Any()).Return(nil)
	s.Require().Error(s.tracker.Refresh(s.ctx))

	s.gateway.EXPECT().RequestOpenOrders(gomock.Any()).DoAndReturn(func(context.Context) error {
		s.tracker.OnOpenOrder(openOrder(3, "MSFT", types.OrderStatusSubmitted))
		s.tracker.OnOpenOrderEnd()

		s.tracker.OnOpenOrder(openOrder(1, "AAPL", types.OrderStatusSubmitted))
		s.tracker.OnOpenOrderEnd()

		return nil
	})

	s.Require().NoError(s.tracker.Refresh(s.ctx))
	s.True(s.tracker.HasLiveOrder("AAPL"))
	s.False(s.tracker.HasLiveOrder("MSFT"))
}

func (s *OrderTrackerTestSuite) TestForgetAbandoned_NextEndMarkerCompletes() {
	s.gateway.EXPECT().RequestOpenOrders(gomock.Any()).Return(nil)
	s.Require().Error(s.tracker.Refresh(s.ctx))

	s.tracker.ForgetAbandoned()

	s.snapshot(nil, openOrder(1, "AAPL", types.OrderStatusSubmitted))
	s.Require().NoError(s.tracker.Refresh(s.ctx))
	s.True(s.tracker.HasLiveOrder("AAPL"))
}
