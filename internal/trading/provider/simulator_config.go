package tradingprovider

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
)

const (
	defaultSimulatorAccount = "SIM0001"
	defaultSimulatorCash    = 100_000.0
	// defaultSimulatorSpread is the relative half spread used when a quote only carries a last price.
	defaultSimulatorSpread = 0.0005
)

// SimulatorQuote seeds one simulated ticker. Zero bid, ask, open or close are derived from last.
type SimulatorQuote struct {
	Bid   float64 `json:"bid" yaml:"bid" jsonschema:"title=Bid" validate:"gte=0"`
	Ask   float64 `json:"ask" yaml:"ask" jsonschema:"title=Ask" validate:"gte=0"`
	Last  float64 `json:"last" yaml:"last" jsonschema:"title=Last" validate:"gt=0"`
	Open  float64 `json:"open" yaml:"open" jsonschema:"title=Open" validate:"gte=0"`
	Close float64 `json:"close" yaml:"close" jsonschema:"title=Previous Close" validate:"gte=0"`
}

// SimulatorConfig contains configuration for the in-process paper gateway.
type SimulatorConfig struct {
	Account        string                    `json:"account" jsonschema:"title=Account,description=Simulated account id,default=SIM0001"`
	StartingCash   float64                   `json:"startingCash" jsonschema:"title=Starting Cash,description=Initial cash balance in USD,default=100000" validate:"gte=0"`
	Quotes         map[string]SimulatorQuote `json:"quotes" jsonschema:"title=Quotes,description=Initial quote per ticker" validate:"dive"`
	TickIntervalMs int                       `json:"tickIntervalMs" jsonschema:"title=Tick Interval,description=Milliseconds between random-walk ticks; 0 disables ticking" validate:"gte=0"`
	Volatility     float64                   `json:"volatility" jsonschema:"title=Volatility,description=Per-tick standard deviation of returns" validate:"gte=0,lt=1"`
	Seed           int64                     `json:"seed" jsonschema:"title=Seed,description=Random seed for reproducible runs"`
	MarketClosed   bool                      `json:"marketClosed" jsonschema:"title=Market Closed,description=Report quote fields as closed"`
	FirstRequestID int64                     `json:"firstRequestId" jsonschema:"title=First Request ID,default=1" validate:"gte=0"`
}

// Validate validates the SimulatorConfig struct.
func (c *SimulatorConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidProvider, "invalid simulator provider config", err)
	}

	return nil
}

func (c *SimulatorConfig) applyDefaults() {
	if c.Account == "" {
		c.Account = defaultSimulatorAccount
	}

	if c.StartingCash == 0 {
		c.StartingCash = defaultSimulatorCash
	}

	if c.FirstRequestID == 0 {
		c.FirstRequestID = 1
	}

	for symbol, quote := range c.Quotes {
		c.Quotes[symbol] = quote.normalized()
	}
}

func (q SimulatorQuote) normalized() SimulatorQuote {
	if q.Bid == 0 {
		q.Bid = roundCents(q.Last * (1 - defaultSimulatorSpread))
	}

	if q.Ask == 0 {
		q.Ask = roundCents(q.Last * (1 + defaultSimulatorSpread))
	}

	if q.Open == 0 {
		q.Open = q.Last
	}

	if q.Close == 0 {
		q.Close = q.Last
	}

	return q
}

// parseSimulatorConfig parses a JSON configuration string into a SimulatorConfig.
func parseSimulatorConfig(jsonConfig string) (*SimulatorConfig, error) {
	var config SimulatorConfig
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidProvider, "failed to parse simulator config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.applyDefaults()

	return &config, nil
}
