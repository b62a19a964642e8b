package tradingprovider

import (
	"encoding/json"
	"sort"

	"github.com/rxtech-lab/equity-trader/internal/logger"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
	"github.com/rxtech-lab/equity-trader/pkg/schema"
)

type ProviderType string

const (
	ProviderAlpacaPaper ProviderType = "alpaca-paper"
	ProviderAlpacaLive  ProviderType = "alpaca-live"
	ProviderSimulator   ProviderType = "simulator"
)

type ProviderInfo struct {
	Name           string `json:"name"`
	DisplayName    string `json:"displayName"`
	Description    string `json:"description"`
	IsPaperTrading bool   `json:"isPaperTrading"`
}

var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderAlpacaPaper: {
		Name:           string(ProviderAlpacaPaper),
		DisplayName:    "Alpaca Paper",
		Description:    "Alpaca paper trading account for US equities without real funds",
		IsPaperTrading: true,
	},
	ProviderAlpacaLive: {
		Name:           string(ProviderAlpacaLive),
		DisplayName:    "Alpaca Live",
		Description:    "Alpaca live brokerage account for real-funds US equity trading",
		IsPaperTrading: false,
	},
	ProviderSimulator: {
		Name:           string(ProviderSimulator),
		DisplayName:    "Simulator",
		Description:    "In-process gateway with a random-walk market for dry runs and tests",
		IsPaperTrading: true,
	},
}

// GetSupportedProviders returns the provider names in sorted order.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	sort.Strings(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific trading provider.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported trading provider: %s", providerName)
	}

	return info, nil
}

// GetProviderConfigSchema returns the JSON schema for a provider's configuration.
func GetProviderConfigSchema(providerName string) (string, error) {
	switch ProviderType(providerName) {
	case ProviderAlpacaPaper, ProviderAlpacaLive:
		return schema.ToJSONSchema(AlpacaProviderConfig{
			ApiKey:         "",
			SecretKey:      "",
			BaseURL:        "",
			DataURL:        "",
			Feed:           "",
			PollIntervalMs: 0,
		})
	case ProviderSimulator:
		return schema.ToJSONSchema(SimulatorConfig{
			Account:        "",
			StartingCash:   0,
			Quotes:         nil,
			TickIntervalMs: 0,
			Volatility:     0,
			Seed:           0,
			MarketClosed:   false,
			FirstRequestID: 0,
		})
	default:
		return "", errors.Newf(errors.ErrCodeInvalidProvider, "unsupported trading provider: %s", providerName)
	}
}

// GetProviderSecretFields returns the config keys holding credentials for a provider.
func GetProviderSecretFields(providerName string) []string {
	switch ProviderType(providerName) {
	case ProviderAlpacaPaper, ProviderAlpacaLive:
		return schema.SecretFields(AlpacaProviderConfig{}) //nolint:exhaustruct // only tags are read
	default:
		return nil
	}
}

// ParseProviderConfig parses a JSON configuration string for the given provider.
func ParseProviderConfig(providerName string, jsonConfig string) (any, error) {
	switch ProviderType(providerName) {
	case ProviderAlpacaPaper, ProviderAlpacaLive:
		return parseAlpacaConfig(jsonConfig)
	case ProviderSimulator:
		return parseSimulatorConfig(jsonConfig)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported trading provider: %s", providerName)
	}
}

// ParseProviderConfigMap parses a decoded YAML provider_config block.
func ParseProviderConfigMap(providerName string, raw map[string]any) (any, error) {
	if raw == nil {
		raw = map[string]any{}
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidProvider, "failed to encode provider config", err)
	}

	return ParseProviderConfig(providerName, string(data))
}

// NewGateway creates a gateway based on the provider type.
func NewGateway(providerType ProviderType, config any, log *logger.Logger) (Gateway, error) {
	switch providerType {
	case ProviderAlpacaPaper, ProviderAlpacaLive:
		cfg, ok := config.(*AlpacaProviderConfig)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeInvalidProvider, "invalid config type for %s provider", providerType)
		}

		gateway, err := NewAlpacaGateway(*cfg, providerType == ProviderAlpacaPaper, log)
		if err != nil {
			return nil, err
		}

		return gateway, nil

	case ProviderSimulator:
		cfg, ok := config.(*SimulatorConfig)
		if !ok {
			return nil, errors.Newf(errors.ErrCodeInvalidProvider, "invalid config type for %s provider", providerType)
		}

		return NewSimulator(*cfg), nil

	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported trading provider: %s", providerType)
	}
}
