package engine_v1

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rxtech-lab/equity-trader/internal/config"
	"github.com/rxtech-lab/equity-trader/internal/logger"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/mocks"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type CandidateTrackerTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	gateway *mocks.MockGateway
	state   *SessionState
	tracker *CandidateTracker
	ctx     context.Context
}

func TestCandidateTrackerTestSuite(t *testing.T) {
	suite.Run(t, new(CandidateTrackerTestSuite))
}

func (s *CandidateTrackerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gateway = mocks.NewMockGateway(s.ctrl)
	s.state = NewSessionState()
	s.state.SeedRequestIDs(10)
	s.tracker = NewCandidateTracker(s.state, s.gateway, logger.NewNopLogger())
	s.ctx = context.Background()
}

func (s *CandidateTrackerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *CandidateTrackerTestSuite) track(tickers ...string) {
	candidates := make([]config.CandidateConfig, 0, len(tickers))
	for _, ticker := range tickers {
		candidates = append(candidates, config.CandidateConfig{Ticker: ticker, Reason: "watch " + ticker})
	}

	s.gateway.EXPECT().SubscribeMarketData(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(len(tickers))
	s.Require().NoError(s.tracker.StartTracking(s.ctx, candidates))
}

func (s *CandidateTrackerTestSuite) TestStartTracking_AssignsSequentialIDs() {
	gomock.InOrder(
		s.gateway.EXPECT().SubscribeMarketData(gomock.Any(), int64(10), types.StockContract("AAPL")).Return(nil),
		s.gateway.EXPECT().SubscribeMarketData(gomock.Any(), int64(11), types.StockContract("MSFT")).Return(nil),
	)

	err := s.tracker.StartTracking(s.ctx, []config.CandidateConfig{
		{Ticker: "aapl", Reason: "dip buy"},
		{Ticker: " MSFT ", Reason: ""},
	})
	s.Require().NoError(err)

	candidates := s.tracker.Candidates()
	s.Require().Len(candidates, 2)
	s.Equal("AAPL", candidates[0].Symbol)
	s.Equal(int64(10), candidates[0].RequestID)
	s.Equal("dip buy", candidates[0].Reason)
	s.Equal("MSFT", candidates[1].Symbol)
	s.Equal(int64(11), candidates[1].RequestID)
	s.False(candidates[0].Ask.IsKnown())
	s.True(candidates[0].Rating.IsNone())
}

func (s *CandidateTrackerTestSuite) TestStartTracking_DuplicateTicker() {
	s.track("AAPL")

	err := s.tracker.StartTracking(s.ctx, []config.CandidateConfig{{Ticker: "AAPL", Reason: ""}})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeDuplicateTicker))
	s.Len(s.tracker.Candidates(), 1)
}

func (s *CandidateTrackerTestSuite) TestStartTracking_EmptyTickerDoesNotStopOthers() {
	s.gateway.EXPECT().SubscribeMarketData(gomock.Any(), int64(10), types.StockContract("NVDA")).Return(nil)

	err := s.tracker.StartTracking(s.ctx, []config.CandidateConfig{{Ticker: "  "}, {Ticker: "NVDA"}})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
	s.Equal([]string{"NVDA"}, s.tracker.Symbols())
}

func (s *CandidateTrackerTestSuite) TestStartTracking_SubscribeFailureForgetsCandidate() {
	s.gateway.EXPECT().SubscribeMarketData(gomock.Any(), int64(10), gomock.Any()).Return(fmt.Errorf("socket closed"))
	s.gateway.EXPECT().SubscribeMarketData(gomock.Any(), int64(11), gomock.Any()).Return(nil)

	err := s.tracker.StartTracking(s.ctx, []config.CandidateConfig{{Ticker: "AAPL"}, {Ticker: "MSFT"}})
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeRequestFailed))
	s.False(s.tracker.IsTracked("AAPL"))
	s.True(s.tracker.IsTracked("MSFT"))

	s.False(s.tracker.OnPriceUpdate(10, types.PriceFieldAsk, types.NewPrice(1)))
}

func (s *CandidateTrackerTestSuite) TestOnPriceUpdate() {
	s.track("AAPL")

	at := time.Date(2024, time.June, 3, 15, 0, 0, 0, time.UTC)
	s.tracker.now = func() time.Time { return at }

	s.True(s.tracker.OnPriceUpdate(10, types.PriceFieldAsk, types.NewPrice(101.5)))
	s.True(s.tracker.OnPriceUpdate(10, types.PriceFieldBid, types.ClosedPrice()))
	s.False(s.tracker.OnPriceUpdate(99, types.PriceFieldAsk, types.NewPrice(1)))
	s.False(s.tracker.OnPriceUpdate(10, types.PriceField("VOLUME"), types.NewPrice(1)))

	candidate := s.tracker.Candidates()[0]
	ask, ok := candidate.Ask.Value()
	s.True(ok)
	s.InDelta(101.5, ask, 1e-9)
	s.True(candidate.Bid.IsClosed())
	s.Equal(at, candidate.UpdatedAt)
}

func (s *CandidateTrackerTestSuite) TestStopTracking() {
	s.track("AAPL")

	s.gateway.EXPECT().CancelMarketData(gomock.Any(), int64(10)).Return(nil)
	s.Require().NoError(s.tracker.StopTracking(s.ctx, "aapl"))
	s.False(s.tracker.IsTracked("AAPL"))
	s.False(s.tracker.OnPriceUpdate(10, types.PriceFieldAsk, types.NewPrice(1)))

	err := s.tracker.StopTracking(s.ctx, "AAPL")
	s.True(errors.HasCode(err, errors.ErrCodeTickerNotTracked))
}

func (s *CandidateTrackerTestSuite) TestEnrichWithStatistics_IsolatesFailures() {
	s.track("AAPL", "MSFT")

	provider := mocks.NewMockStatisticsProvider(s.ctrl)
	provider.EXPECT().Fetch(gomock.Any(), "AAPL").Return(types.Statistics{}, fmt.Errorf("rate limited"))
	provider.EXPECT().Fetch(gomock.Any(), "MSFT").Return(types.Statistics{AvgDropPct: 2.5, AvgSpreadPct: 3.1}, nil)

	err := s.tracker.EnrichWithStatistics(s.ctx, provider)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeStatisticsFetchFailed))

	candidates := s.tracker.Candidates()
	s.True(candidates[0].AvgDrawdownPct.IsNone())
	s.InDelta(2.5, candidates[1].AvgDrawdownPct.TakeOr(0), 1e-9)
	s.InDelta(3.1, candidates[1].AvgSpreadPct.TakeOr(0), 1e-9)
}

func (s *CandidateTrackerTestSuite) TestEnrichWithStatistics_NilProvider() {
	s.NoError(s.tracker.EnrichWithStatistics(s.ctx, nil))
	s.NoError(s.tracker.EnrichWithRatings(s.ctx, nil))
}

func (s *CandidateTrackerTestSuite) TestEnrichWithRatings() {
	s.track("AAPL", "MSFT")

	provider := mocks.NewMockRatingsProvider(s.ctrl)
	provider.EXPECT().Fetch(gomock.Any(), []string{"AAPL", "MSFT"}).Return(map[string]float64{"AAPL": 9.2}, nil)

	s.Require().NoError(s.tracker.EnrichWithRatings(s.ctx, provider))

	candidates := s.tracker.Candidates()
	s.InDelta(9.2, candidates[0].Rating.TakeOr(0), 1e-9)
	s.True(candidates[1].Rating.IsNone())
}

func (s *CandidateTrackerTestSuite) TestEnrichWithRatings_BatchFailure() {
	s.track("AAPL")

	provider := mocks.NewMockRatingsProvider(s.ctrl)
	provider.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("503"))

	err := s.tracker.EnrichWithRatings(s.ctx, provider)
	s.True(errors.HasCode(err, errors.ErrCodeRatingsFetchFailed))
	s.True(s.tracker.Candidates()[0].Rating.IsNone())
}

func (s *CandidateTrackerTestSuite) TestUpdateTargetPrices() {
	s.track("AAPL")

	provider := mocks.NewMockStatisticsProvider(s.ctrl)
	provider.EXPECT().Fetch(gomock.Any(), "AAPL").Return(types.Statistics{AvgDropPct: 10}, nil)
	s.Require().NoError(s.tracker.EnrichWithStatistics(s.ctx, provider))

	s.tracker.UpdateTargetPrices()
	s.True(s.tracker.Candidates()[0].Target.IsNone())

	s.tracker.OnPriceUpdate(10, types.PriceFieldClose, types.NewPrice(50))
	s.tracker.UpdateTargetPrices()
	s.InDelta(45.0, s.tracker.Candidates()[0].Target.TakeOr(0), 1e-9)
}

func (s *CandidateTrackerTestSuite) TestResubscribe_ReusesOriginalIDs() {
	s.track("AAPL", "MSFT")

	gomock.InOrder(
		s.gateway.EXPECT().SubscribeMarketData(gomock.Any(), int64(10), types.StockContract("AAPL")).Return(nil),
		s.gateway.EXPECT().SubscribeMarketData(gomock.Any(), int64(11), types.StockContract("MSFT")).Return(fmt.Errorf("boom")),
	)

	err := s.tracker.Resubscribe(s.ctx)
	s.True(errors.HasCode(err, errors.ErrCodeRequestFailed))

	id, err := s.state.NextRequestID()
	s.Require().NoError(err)
	s.Equal(int64(12), id)
}
