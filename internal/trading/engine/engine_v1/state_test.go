package engine_v1

import (
	"sort"
	"sync"
	"testing"

	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SessionStateTestSuite struct {
	suite.Suite
	state *SessionState
}

func TestSessionStateTestSuite(t *testing.T) {
	suite.Run(t, new(SessionStateTestSuite))
}

func (s *SessionStateTestSuite) SetupTest() {
	s.state = NewSessionState()
}

func (s *SessionStateTestSuite) TestNextRequestID_Unseeded() {
	_, err := s.state.NextRequestID()
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeNotConnected))
	s.False(s.state.IsSeeded())
}

func (s *SessionStateTestSuite) TestNextRequestID_Sequential() {
	s.state.SeedRequestIDs(100)
	s.True(s.state.IsSeeded())

	for want := int64(100); want < 105; want++ {
		id, err := s.state.NextRequestID()
		s.Require().NoError(err)
		s.Equal(want, id)
	}
}

func (s *SessionStateTestSuite) TestNextRequestID_ConcurrentCallersGetContiguousRange() {
	const (
		seed    = int64(42)
		callers = 200
	)

	s.state.SeedRequestIDs(seed)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []int64
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			id, err := s.state.NextRequestID()
			s.NoError(err)

			mu.Lock()
			ids = append(ids, id)
			mu.Unlock()
		}()
	}

	wg.Wait()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	s.Require().Len(ids, callers)

	for i, id := range ids {
		s.Equal(seed+int64(i), id)
	}
}

func (s *SessionStateTestSuite) TestSeedRequestIDs_NeverRewinds() {
	s.state.SeedRequestIDs(10)
	_, _ = s.state.NextRequestID()
	_, _ = s.state.NextRequestID()

	s.state.SeedRequestIDs(5)

	id, err := s.state.NextRequestID()
	s.Require().NoError(err)
	s.Equal(int64(12), id)

	s.state.SeedRequestIDs(50)

	id, err = s.state.NextRequestID()
	s.Require().NoError(err)
	s.Equal(int64(50), id)
}

func (s *SessionStateTestSuite) TestIssue_ConsumesIDOnFailure() {
	s.state.SeedRequestIDs(1)

	id, err := s.state.Issue(func(int64) error {
		return errors.New(errors.ErrCodeRequestFailed, "boom")
	})
	s.Error(err)
	s.Equal(int64(1), id)

	var sent int64

	id, err = s.state.Issue(func(requestID int64) error {
		sent = requestID

		return nil
	})
	s.Require().NoError(err)
	s.Equal(int64(2), id)
	s.Equal(int64(2), sent)
}

func (s *SessionStateTestSuite) TestIssue_Unseeded() {
	called := false

	_, err := s.state.Issue(func(int64) error {
		called = true

		return nil
	})
	s.Error(err)
	s.False(called)
}

func (s *SessionStateTestSuite) TestReissue_KeepsCounter() {
	s.state.SeedRequestIDs(7)

	var sent int64

	s.Require().NoError(s.state.Reissue(3, func(requestID int64) error {
		sent = requestID

		return nil
	}))
	s.Equal(int64(3), sent)

	id, err := s.state.NextRequestID()
	s.Require().NoError(err)
	s.Equal(int64(7), id)
}

func (s *SessionStateTestSuite) TestAccountMetrics() {
	account := s.state.Account()
	s.True(account.ExcessLiquidity.IsNone())
	s.True(account.NetLiquidation.IsNone())
	s.True(account.DailyPnL.IsNone())

	s.True(s.state.SetAccountMetric(types.AccountMetricExcessLiquidity, 1500))
	s.True(s.state.SetAccountMetric(types.AccountMetricNetLiquidation, 25000))
	s.False(s.state.SetAccountMetric(types.AccountMetric("BuyingPower"), 1))
	s.state.SetAccountDailyPnL(-42)

	account = s.state.Account()
	s.InDelta(1500.0, account.ExcessLiquidity.TakeOr(0), 1e-9)
	s.InDelta(25000.0, account.NetLiquidation.TakeOr(0), 1e-9)
	s.InDelta(-42.0, account.DailyPnL.TakeOr(0), 1e-9)
}

func (s *SessionStateTestSuite) TestAccountSubscriptionsAreCopies() {
	s.state.bindAccountMetric(4, types.AccountMetricExcessLiquidity)
	s.state.bindAccountPnl(6)

	metrics, pnl := s.state.accountSubscriptions()
	s.Equal(map[int64]types.AccountMetric{4: types.AccountMetricExcessLiquidity}, metrics)
	s.Equal(int64(6), pnl.TakeOr(0))

	metrics[9] = types.AccountMetricNetLiquidation

	again, _ := s.state.accountSubscriptions()
	s.Len(again, 1)
}
