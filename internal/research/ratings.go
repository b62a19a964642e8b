package research

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/equity-trader/pkg/errors"
)

// RatingsDocument is the payload of the ratings endpoint and of the ratings file.
type RatingsDocument struct {
	Ratings map[string]float64 `json:"ratings" yaml:"ratings"`
}

// HTTPRatingsProvider fetches ratings from a JSON endpoint:
//
//	GET <url>?symbols=AAPL,MSFT  ->  {"ratings": {"AAPL": 9.1}}
type HTTPRatingsProvider struct {
	client *resty.Client
	url    string
}

// NewHTTPRatingsProvider creates an HTTP ratings provider. An empty token sends no Authorization header.
func NewHTTPRatingsProvider(url string, token string, timeout time.Duration) *HTTPRatingsProvider {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	if token != "" {
		client.SetAuthToken(token)
	}

	return &HTTPRatingsProvider{
		client: client,
		url:    url,
	}
}

// Fetch implements RatingsProvider.
func (p *HTTPRatingsProvider) Fetch(ctx context.Context, symbols []string) (map[string]float64, error) {
	var doc RatingsDocument

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("symbols", strings.Join(symbols, ",")).
		SetResult(&doc).
		Get(p.url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRatingsFetchFailed, "ratings request failed", err)
	}

	if resp.IsError() {
		return nil, errors.Newf(errors.ErrCodeRatingsFetchFailed, "ratings endpoint returned %d: %s", resp.StatusCode(), resp.String())
	}

	return pick(normalizeKeys(doc.Ratings), symbols), nil
}

// FileRatingsProvider reads ratings from a YAML file on every fetch so an
// external job can refresh it between runs.
type FileRatingsProvider struct {
	path string
}

func NewFileRatingsProvider(path string) *FileRatingsProvider {
	return &FileRatingsProvider{path: path}
}

// Fetch implements RatingsProvider.
func (p *FileRatingsProvider) Fetch(_ context.Context, symbols []string) (map[string]float64, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeRatingsFetchFailed, err, "failed to read ratings file %s", p.path)
	}

	var doc RatingsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeRatingsFetchFailed, err, "failed to parse ratings file %s", p.path)
	}

	return pick(normalizeKeys(doc.Ratings), symbols), nil
}

func normalizeKeys(ratings map[string]float64) map[string]float64 {
	normalized := make(map[string]float64, len(ratings))
	for symbol, rating := range ratings {
		normalized[strings.ToUpper(symbol)] = rating
	}

	return normalized
}
