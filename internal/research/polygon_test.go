package research

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// mockPolygonAPIClient implements PolygonAPIClient for testing.
type mockPolygonAPIClient struct {
	iterator *mockPolygonIterator
	params   *models.ListAggsParams
}

func (m *mockPolygonAPIClient) ListAggs(_ context.Context, params *models.ListAggsParams, _ ...models.RequestOption) PolygonAggsIterator {
	m.params = params

	return m.iterator
}

// mockPolygonIterator implements PolygonAggsIterator for testing.
type mockPolygonIterator struct {
	aggs  []models.Agg
	index int
	err   error
}

func (m *mockPolygonIterator) Next() bool {
	if m.index < len(m.aggs) {
		m.index++

		return true
	}

	return false
}

func (m *mockPolygonIterator) Item() models.Agg {
	return m.aggs[m.index-1]
}

func (m *mockPolygonIterator) Err() error {
	return m.err
}

type PolygonTestSuite struct {
	suite.Suite
}

func TestPolygonSuite(t *testing.T) {
	suite.Run(t, new(PolygonTestSuite))
}

func (s *PolygonTestSuite) TestNewPolygonBarSourceRequiresKey() {
	_, err := NewPolygonBarSource("", 5)
	s.True(errors.HasCode(err, errors.ErrCodeMissingParameter))

	source, err := NewPolygonBarSource("test-key", 5)
	s.Require().NoError(err)
	s.NotNil(source)
}

func (s *PolygonTestSuite) TestDailyBars() {
	day := time.Date(2024, 5, 1, 4, 0, 0, 0, time.UTC)

	//nolint:exhaustruct // test fixture
	client := &mockPolygonAPIClient{
		iterator: &mockPolygonIterator{
			aggs: []models.Agg{
				{Open: 100, High: 104, Low: 97, Close: 102, Volume: 1000, Timestamp: models.Millis(day)},
				{Open: 102, High: 105, Low: 101, Close: 103, Volume: 900, Timestamp: models.Millis(day.AddDate(0, 0, 1))},
			},
		},
	}
	source := newPolygonBarSourceWithClient(client, 0)

	bars, err := source.DailyBars(context.Background(), "AAPL", day, day.AddDate(0, 0, 2))
	s.Require().NoError(err)
	s.Require().Len(bars, 2)
	s.Equal("AAPL", bars[0].Symbol)
	s.Equal(97.0, bars[0].Low)
	s.True(bars[1].Time.Equal(day.AddDate(0, 0, 1)))

	s.Equal("AAPL", client.params.Ticker)
	s.Equal(models.Day, client.params.Timespan)
	s.Equal(1, client.params.Multiplier)
}

func (s *PolygonTestSuite) TestDailyBarsIteratorError() {
	//nolint:exhaustruct // test fixture
	client := &mockPolygonAPIClient{
		iterator: &mockPolygonIterator{err: stderrors.New("rate limited")},
	}
	source := newPolygonBarSourceWithClient(client, 0)

	_, err := source.DailyBars(context.Background(), "AAPL", time.Now().AddDate(0, 0, -5), time.Now())
	s.True(errors.HasCode(err, errors.ErrCodeStatisticsFetchFailed))
}

func (s *PolygonTestSuite) TestDailyBarsCancelledWhileThrottled() {
	//nolint:exhaustruct // test fixture
	client := &mockPolygonAPIClient{iterator: &mockPolygonIterator{}}
	source := newPolygonBarSourceWithClient(client, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.DailyBars(ctx, "AAPL", time.Now().AddDate(0, 0, -5), time.Now())
	s.True(errors.HasCode(err, errors.ErrCodeStatisticsFetchFailed))
	s.Nil(client.params)
}
