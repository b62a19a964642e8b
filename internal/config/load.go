package config

import (
	"bytes"
	"os"

	"github.com/rxtech-lab/equity-trader/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvAlpacaAPIKey    = "ALPACA_API_KEY"
	EnvAlpacaAPISecret = "ALPACA_API_SECRET"
	EnvApcaKeyID       = "APCA_API_KEY_ID"
	EnvApcaSecretKey   = "APCA_API_SECRET_KEY"
	EnvPolygonAPIKey   = "POLYGON_API_KEY"
	EnvLogLevel        = "EQT_LOG_LEVEL"
)

// Load reads, defaults, overrides from the environment and validates the config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return Parse(data, os.LookupEnv)
}

// Parse decodes YAML config data. lookupEnv supplies environment overrides.
func Parse(data []byte, lookupEnv func(string) (string, bool)) (*Config, error) {
	var cfg Config

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	cfg.ApplyDefaults()
	cfg.applyEnv(lookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv overrides credentials and the log level from the environment.
// Both the ALPACA_* and the SDK's own APCA_* names are accepted.
func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) {
	if lookupEnv == nil {
		return
	}

	if c.Gateway.ProviderConfig == nil {
		c.Gateway.ProviderConfig = map[string]any{}
	}

	if key, ok := firstEnv(lookupEnv, EnvAlpacaAPIKey, EnvApcaKeyID); ok {
		c.Gateway.ProviderConfig["apiKey"] = key
	}

	if secret, ok := firstEnv(lookupEnv, EnvAlpacaAPISecret, EnvApcaSecretKey); ok {
		c.Gateway.ProviderConfig["secretKey"] = secret
	}

	if key, ok := lookupEnv(EnvPolygonAPIKey); ok && key != "" {
		c.Research.Statistics.APIKey = key
	}

	if level, ok := lookupEnv(EnvLogLevel); ok && level != "" {
		c.LogLevel = level
	}
}

func firstEnv(lookupEnv func(string) (string, bool), names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := lookupEnv(name); ok && v != "" {
			return v, true
		}
	}

	return "", false
}
