package research

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"golang.org/x/time/rate"

	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
)

// PolygonAggsIterator is the iterator returned by ListAggs.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient abstracts the Polygon aggregates endpoint for testing.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type realPolygonClient struct {
	client *polygon.Client
}

func (r *realPolygonClient) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return r.client.ListAggs(ctx, params, options...)
}

// PolygonBarSource reads daily aggregates from Polygon, throttled to the plan's request rate.
type PolygonBarSource struct {
	client  PolygonAPIClient
	limiter *rate.Limiter
}

// NewPolygonBarSource creates a bar source. requestsPerMinute <= 0 disables throttling.
func NewPolygonBarSource(apiKey string, requestsPerMinute int) (*PolygonBarSource, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "polygon api key is required")
	}

	return newPolygonBarSourceWithClient(&realPolygonClient{client: polygon.New(apiKey)}, requestsPerMinute), nil
}

func newPolygonBarSourceWithClient(client PolygonAPIClient, requestsPerMinute int) *PolygonBarSource {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60), 1)
	}

	return &PolygonBarSource{
		client:  client,
		limiter: limiter,
	}
}

// DailyBars implements BarSource.
func (p *PolygonBarSource) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]types.Bar, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStatisticsFetchFailed, "rate limiter wait cancelled", err)
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(from),
		To:         models.Millis(to),
	}.WithLimit(50000)

	iter := p.client.ListAggs(ctx, params)

	bars := make([]types.Bar, 0)

	for iter.Next() {
		agg := iter.Item()
		bars = append(bars, types.Bar{
			Symbol: symbol,
			Time:   time.Time(agg.Timestamp),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if iter.Err() != nil {
		return nil, errors.Wrapf(errors.ErrCodeStatisticsFetchFailed, iter.Err(), "error iterating polygon aggregates for %s", symbol)
	}

	return bars, nil
}
