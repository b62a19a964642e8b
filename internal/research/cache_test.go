package research

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/mocks"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type CacheTestSuite struct {
	suite.Suite
	ctrl  *gomock.Controller
	inner *mocks.MockStatisticsProvider
	cache *CachedStatisticsProvider
	now   time.Time
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func (s *CacheTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.inner = mocks.NewMockStatisticsProvider(s.ctrl)

	cache, err := NewCachedStatisticsProvider(s.inner, filepath.Join(s.T().TempDir(), "stats.db"), nil)
	s.Require().NoError(err)

	s.cache = cache
	s.now = time.Date(2024, 4, 2, 14, 0, 0, 0, time.UTC)
	s.cache.now = func() time.Time { return s.now }
}

func (s *CacheTestSuite) TearDownTest() {
	s.NoError(s.cache.Close())
}

func (s *CacheTestSuite) TestSecondFetchSameDayHitsCache() {
	stats := types.Statistics{AvgDropPct: 1.5, AvgSpreadPct: 3.25}
	s.inner.EXPECT().Fetch(gomock.Any(), "AAPL").Return(stats, nil).Times(1)

	first, err := s.cache.Fetch(context.Background(), "AAPL")
	s.Require().NoError(err)
	s.Equal(stats, first)

	second, err := s.cache.Fetch(context.Background(), "AAPL")
	s.Require().NoError(err)
	s.Equal(stats, second)
}

func (s *CacheTestSuite) TestNewMarketDateRefetches() {
	s.inner.EXPECT().Fetch(gomock.Any(), "AAPL").Return(types.Statistics{AvgDropPct: 1, AvgSpreadPct: 2}, nil)
	s.inner.EXPECT().Fetch(gomock.Any(), "AAPL").Return(types.Statistics{AvgDropPct: 3, AvgSpreadPct: 4}, nil)

	_, err := s.cache.Fetch(context.Background(), "AAPL")
	s.Require().NoError(err)

	s.now = s.now.Add(24 * time.Hour)

	stats, err := s.cache.Fetch(context.Background(), "AAPL")
	s.Require().NoError(err)
	s.Equal(3.0, stats.AvgDropPct)
}

func (s *CacheTestSuite) TestFailuresAreNotCached() {
	s.inner.EXPECT().Fetch(gomock.Any(), "MSFT").Return(types.Statistics{}, stderrors.New("upstream down"))
	s.inner.EXPECT().Fetch(gomock.Any(), "MSFT").Return(types.Statistics{AvgDropPct: 2, AvgSpreadPct: 3}, nil)

	_, err := s.cache.Fetch(context.Background(), "MSFT")
	s.Require().Error(err)

	stats, err := s.cache.Fetch(context.Background(), "MSFT")
	s.Require().NoError(err)
	s.Equal(2.0, stats.AvgDropPct)
}

func (s *CacheTestSuite) TestCacheSurvivesReopen() {
	path := filepath.Join(s.T().TempDir(), "reopen.db")
	stats := types.Statistics{AvgDropPct: 4, AvgSpreadPct: 6}

	s.inner.EXPECT().Fetch(gomock.Any(), "NVDA").Return(stats, nil).Times(1)

	first, err := NewCachedStatisticsProvider(s.inner, path, nil)
	s.Require().NoError(err)
	first.now = func() time.Time { return s.now }

	_, err = first.Fetch(context.Background(), "NVDA")
	s.Require().NoError(err)
	s.Require().NoError(first.Close())

	second, err := NewCachedStatisticsProvider(s.inner, path, nil)
	s.Require().NoError(err)
	second.now = func() time.Time { return s.now }

	defer second.Close()

	cached, err := second.Fetch(context.Background(), "NVDA")
	s.Require().NoError(err)
	s.Equal(stats, cached)
}
