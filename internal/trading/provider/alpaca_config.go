package tradingprovider

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
)

const (
	AlpacaPaperBaseURL = "https://paper-api.alpaca.markets"
	AlpacaLiveBaseURL  = "https://api.alpaca.markets"

	defaultAlpacaPollInterval = 2 * time.Second
	defaultAlpacaFeed         = "iex"
)

// AlpacaProviderConfig contains configuration for Alpaca trading.
type AlpacaProviderConfig struct {
	ApiKey         string `json:"apiKey" jsonschema:"title=API Key,description=Alpaca API key id" validate:"required" secret:"true"`
	SecretKey      string `json:"secretKey" jsonschema:"title=Secret Key,description=Alpaca API secret key" validate:"required" secret:"true"`
	BaseURL        string `json:"baseUrl,omitempty" jsonschema:"title=Base URL,description=Trading API endpoint; defaults to the paper or live endpoint" validate:"omitempty,url"`
	DataURL        string `json:"dataUrl,omitempty" jsonschema:"title=Data URL,description=Market data API endpoint" validate:"omitempty,url"`
	Feed           string `json:"feed,omitempty" jsonschema:"title=Feed,description=Market data feed,enum=iex,enum=sip,enum=delayed_sip,default=iex" validate:"omitempty,oneof=iex sip delayed_sip"`
	PollIntervalMs int    `json:"pollIntervalMs,omitempty" jsonschema:"title=Poll Interval,description=Milliseconds between quote and account polls,default=2000" validate:"gte=0"`
}

// Validate validates the AlpacaProviderConfig struct.
func (c *AlpacaProviderConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidProvider, "invalid alpaca provider config", err)
	}

	return nil
}

// PollInterval returns the configured poll interval or the default.
func (c *AlpacaProviderConfig) PollInterval() time.Duration {
	if c.PollIntervalMs <= 0 {
		return defaultAlpacaPollInterval
	}

	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// parseAlpacaConfig parses a JSON configuration string into an AlpacaProviderConfig.
func parseAlpacaConfig(jsonConfig string) (*AlpacaProviderConfig, error) {
	var config AlpacaProviderConfig
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidProvider, "failed to parse alpaca config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Feed == "" {
		config.Feed = defaultAlpacaFeed
	}

	return &config, nil
}
