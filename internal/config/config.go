// Package config loads and validates the trader configuration file.
package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/equity-trader/internal/version"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
	"github.com/rxtech-lab/equity-trader/pkg/schema"
)

// Default configuration values.
const (
	DefaultWorkerInterval    = 60 * time.Second
	DefaultUIInterval        = 2 * time.Second
	DefaultConnectTimeout    = 10 * time.Second
	DefaultSnapshotTimeout   = 5 * time.Second
	DefaultLookbackDays      = 30
	DefaultRequestsPerMinute = 5
	DefaultRatingsTimeout    = 10 * time.Second
	DefaultDataDir           = "./data"
	DefaultMetricsListen     = ":9090"
)

// Config is the root of the trader configuration file.
type Config struct {
	// Version is the configuration format version, checked against the engine version.
	Version string `yaml:"version" json:"version" jsonschema:"title=Version,description=Configuration format version,default=1.0" validate:"required"`

	// LogLevel is the zap level for the process logger.
	LogLevel string `yaml:"log_level" json:"log_level" jsonschema:"title=Log level,enum=debug,enum=info,enum=warn,enum=error,default=info" validate:"omitempty,oneof=debug info warn error"`

	Gateway    GatewayConfig     `yaml:"gateway" json:"gateway" jsonschema:"title=Gateway"`
	Trading    TradingConfig     `yaml:"trading" json:"trading" jsonschema:"title=Trading thresholds"`
	Schedule   ScheduleConfig    `yaml:"schedule" json:"schedule" jsonschema:"title=Schedule"`
	Candidates []CandidateConfig `yaml:"candidates" json:"candidates" jsonschema:"title=Candidates,description=Tickers evaluated for entry" validate:"required,min=1,unique=Ticker,dive"`
	Research   ResearchConfig    `yaml:"research" json:"research" jsonschema:"title=Research providers"`
	Output     OutputConfig      `yaml:"output" json:"output" jsonschema:"title=Output"`
	Metrics    MetricsConfig     `yaml:"metrics" json:"metrics" jsonschema:"title=Metrics and presentation server"`
}

// GatewayConfig selects and parameterises the brokerage gateway.
type GatewayConfig struct {
	Provider string `yaml:"provider" json:"provider" jsonschema:"title=Provider,enum=alpaca-paper,enum=alpaca-live,enum=simulator" validate:"required"`
	Host     string `yaml:"host" json:"host" jsonschema:"title=Host,default=127.0.0.1"`
	Port     int    `yaml:"port" json:"port" jsonschema:"title=Port,default=7497" validate:"gte=0,lte=65535"`
	ClientID int    `yaml:"client_id" json:"client_id" jsonschema:"title=Client id,default=1"`
	Account  string `yaml:"account" json:"account" jsonschema:"title=Account id"`

	ConnectTimeout  time.Duration `yaml:"connect_timeout" json:"connect_timeout" jsonschema:"title=Connect timeout"`
	SnapshotTimeout time.Duration `yaml:"snapshot_timeout" json:"snapshot_timeout" jsonschema:"title=Snapshot timeout,description=Bounded wait for a positions or orders snapshot"`

	// ProviderConfig is passed to the provider's config parser as JSON.
	ProviderConfig map[string]any `yaml:"provider_config" json:"provider_config" jsonschema:"title=Provider specific configuration"`
}

// TradingConfig holds the decision thresholds.
type TradingConfig struct {
	// ProfitPct is the unrealized profit percentage above which a trailing stop is placed.
	ProfitPct float64 `yaml:"profit_pct" json:"profit_pct" jsonschema:"title=Profit threshold %,exclusiveMinimum=0" validate:"gt=0"`
	// LossPct is the unrealized loss percentage, negative, below which the position is sold at market.
	LossPct float64 `yaml:"loss_pct" json:"loss_pct" jsonschema:"title=Loss threshold %,exclusiveMaximum=0" validate:"lt=0"`
	// TrailPct is the trailing distance of the profit-taking stop.
	TrailPct float64 `yaml:"trail_pct" json:"trail_pct" jsonschema:"title=Trailing stop %,exclusiveMinimum=0,exclusiveMaximum=100" validate:"gt=0,lt=100"`
	// BulkAmountUSD is the cash allocated to each new position.
	BulkAmountUSD float64 `yaml:"bulk_amount_usd" json:"bulk_amount_usd" jsonschema:"title=Bulk amount USD,exclusiveMinimum=0" validate:"gt=0"`
}

// TechnicalBreak is a daily local-time window in which decision cycles are skipped.
type TechnicalBreak struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	From    string `yaml:"from" json:"from" jsonschema:"title=From,description=HH:MM local time" validate:"required_if=Enabled true,omitempty,datetime=15:04"`
	To      string `yaml:"to" json:"to" jsonschema:"title=To,description=HH:MM local time" validate:"required_if=Enabled true,omitempty,datetime=15:04"`
}

// ScheduleConfig holds the two cadences.
type ScheduleConfig struct {
	WorkerInterval time.Duration  `yaml:"worker_interval" json:"worker_interval" jsonschema:"title=Decision cadence"`
	UIInterval     time.Duration  `yaml:"ui_interval" json:"ui_interval" jsonschema:"title=Presentation cadence"`
	TechnicalBreak TechnicalBreak `yaml:"technical_break" json:"technical_break" jsonschema:"title=Technical break"`
}

// CandidateConfig is one ticker to track.
type CandidateConfig struct {
	Ticker string `yaml:"ticker" json:"ticker" jsonschema:"title=Ticker" validate:"required"`
	Reason string `yaml:"reason" json:"reason" jsonschema:"title=Reason"`
}

// StaticStatistics are fixed statistics for one ticker.
type StaticStatistics struct {
	AvgDropPct   float64 `yaml:"avg_drop_pct" json:"avg_drop_pct" validate:"gte=0"`
	AvgSpreadPct float64 `yaml:"avg_spread_pct" json:"avg_spread_pct" validate:"gte=0"`
}

// StatisticsConfig selects the statistics provider.
type StatisticsConfig struct {
	Provider          string                      `yaml:"provider" json:"provider" jsonschema:"enum=polygon,enum=static,enum=none,default=none" validate:"omitempty,oneof=polygon static none"`
	APIKey            string                      `yaml:"api_key" json:"api_key" secret:"true"`
	LookbackDays      int                         `yaml:"lookback_days" json:"lookback_days" validate:"gte=0"`
	RequestsPerMinute int                         `yaml:"requests_per_minute" json:"requests_per_minute" validate:"gte=0"`
	CachePath         string                      `yaml:"cache_path" json:"cache_path" jsonschema:"description=SQLite file caching statistics per market date"`
	Static            map[string]StaticStatistics `yaml:"static" json:"static" validate:"dive"`
}

// RatingsConfig selects the ratings provider.
type RatingsConfig struct {
	Provider string             `yaml:"provider" json:"provider" jsonschema:"enum=http,enum=file,enum=static,enum=none,default=none" validate:"omitempty,oneof=http file static none"`
	URL      string             `yaml:"url" json:"url" validate:"required_if=Provider http,omitempty,url"`
	Path     string             `yaml:"path" json:"path" validate:"required_if=Provider file"`
	Token    string             `yaml:"token" json:"token" secret:"true"`
	Timeout  time.Duration      `yaml:"timeout" json:"timeout"`
	Static   map[string]float64 `yaml:"static" json:"static"`
}

// ResearchConfig groups the external data collectors.
type ResearchConfig struct {
	Statistics StatisticsConfig `yaml:"statistics" json:"statistics"`
	Ratings    RatingsConfig    `yaml:"ratings" json:"ratings"`
}

// OutputConfig holds output locations.
type OutputConfig struct {
	// DataDir receives {date}/run_N session folders.
	DataDir string `yaml:"data_dir" json:"data_dir" jsonschema:"default=./data"`
	// AuditDir receives buys.txt, losses.txt and profits.txt. Defaults to DataDir.
	AuditDir string `yaml:"audit_dir" json:"audit_dir"`
}

// MetricsConfig controls the HTTP server exposing metrics and state.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Listen  string `yaml:"listen" json:"listen" jsonschema:"default=:9090"`
}

// ApplyDefaults fills unset optional values.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Gateway.ConnectTimeout <= 0 {
		c.Gateway.ConnectTimeout = DefaultConnectTimeout
	}

	if c.Gateway.SnapshotTimeout <= 0 {
		c.Gateway.SnapshotTimeout = DefaultSnapshotTimeout
	}

	if c.Schedule.WorkerInterval <= 0 {
		c.Schedule.WorkerInterval = DefaultWorkerInterval
	}

	if c.Schedule.UIInterval <= 0 {
		c.Schedule.UIInterval = DefaultUIInterval
	}

	if c.Research.Statistics.Provider == "" {
		c.Research.Statistics.Provider = "none"
	}

	if c.Research.Statistics.LookbackDays <= 0 {
		c.Research.Statistics.LookbackDays = DefaultLookbackDays
	}

	if c.Research.Statistics.RequestsPerMinute <= 0 {
		c.Research.Statistics.RequestsPerMinute = DefaultRequestsPerMinute
	}

	if c.Research.Ratings.Provider == "" {
		c.Research.Ratings.Provider = "none"
	}

	if c.Research.Ratings.Timeout <= 0 {
		c.Research.Ratings.Timeout = DefaultRatingsTimeout
	}

	if c.Output.DataDir == "" {
		c.Output.DataDir = DefaultDataDir
	}

	if c.Output.AuditDir == "" {
		c.Output.AuditDir = c.Output.DataDir
	}

	if c.Metrics.Listen == "" {
		c.Metrics.Listen = DefaultMetricsListen
	}

	for i := range c.Candidates {
		c.Candidates[i].Ticker = strings.ToUpper(strings.TrimSpace(c.Candidates[i].Ticker))
	}
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	if err := c.Trading.Validate(); err != nil {
		return err
	}

	if c.Schedule.TechnicalBreak.Enabled && c.Schedule.TechnicalBreak.From == c.Schedule.TechnicalBreak.To {
		return errors.New(errors.ErrCodeInvalidSchedule, "technical break from and to must differ")
	}

	if c.Research.Statistics.Provider == "polygon" && c.Research.Statistics.APIKey == "" {
		return errors.New(errors.ErrCodeMissingParameter, "polygon statistics provider requires an api key (research.statistics.api_key or POLYGON_API_KEY)")
	}

	if err := version.CheckConfigCompatibility(version.Version, c.Version); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidVersion, "incompatible configuration version", err)
	}

	return nil
}

// Validate checks the threshold sign conventions: profit positive, loss negative.
// NaN and infinite values are rejected before any comparison.
func (t TradingConfig) Validate() error {
	thresholds := []struct {
		name  string
		value float64
	}{
		{"profit_pct", t.ProfitPct},
		{"loss_pct", t.LossPct},
		{"trail_pct", t.TrailPct},
		{"bulk_amount_usd", t.BulkAmountUSD},
	}

	for _, threshold := range thresholds {
		if math.IsNaN(threshold.value) || math.IsInf(threshold.value, 0) {
			return errors.Newf(errors.ErrCodeInvalidThreshold, "%s must be a finite number, got %v", threshold.name, threshold.value)
		}
	}

	if t.ProfitPct <= 0 {
		return errors.Newf(errors.ErrCodeInvalidThreshold, "profit_pct must be a positive percentage, got %v", t.ProfitPct)
	}

	if t.LossPct >= 0 {
		return errors.Newf(errors.ErrCodeInvalidThreshold, "loss_pct must be a negative percentage, got %v", t.LossPct)
	}

	if t.TrailPct <= 0 || t.TrailPct >= 100 {
		return errors.Newf(errors.ErrCodeInvalidThreshold, "trail_pct must be between 0 and 100, got %v", t.TrailPct)
	}

	if t.BulkAmountUSD <= 0 {
		return errors.Newf(errors.ErrCodeInvalidThreshold, "bulk_amount_usd must be positive, got %v", t.BulkAmountUSD)
	}

	return nil
}

// Tickers returns the candidate tickers in configuration order.
func (c *Config) Tickers() []string {
	tickers := make([]string, 0, len(c.Candidates))
	for _, candidate := range c.Candidates {
		tickers = append(tickers, candidate.Ticker)
	}

	return tickers
}

// InBreak reports whether the local time of t falls into the technical break.
// A window whose end is before its start wraps past midnight.
func (b TechnicalBreak) InBreak(t time.Time) bool {
	if !b.Enabled {
		return false
	}

	from, err := time.Parse("15:04", b.From)
	if err != nil {
		return false
	}

	to, err := time.Parse("15:04", b.To)
	if err != nil {
		return false
	}

	now := t.Hour()*60 + t.Minute()
	start := from.Hour()*60 + from.Minute()
	end := to.Hour()*60 + to.Minute()

	if start < end {
		return now >= start && now < end
	}

	return now >= start || now < end
}

// GetConfigSchema returns the JSON schema for Config.
func GetConfigSchema() (string, error) {
	return schema.ToJSONSchema(&Config{}) //nolint:exhaustruct // Empty config for schema generation
}

// Summary renders a short human-readable description with secrets masked.
func (c *Config) Summary() string {
	var b strings.Builder

	fmt.Fprintf(&b, "version: %s\n", c.Version)
	fmt.Fprintf(&b, "gateway: %s (%s:%d client %d)\n", c.Gateway.Provider, c.Gateway.Host, c.Gateway.Port, c.Gateway.ClientID)
	fmt.Fprintf(&b, "thresholds: profit>%.2f%% loss<%.2f%% trail=%.2f%% bulk=$%.2f\n",
		c.Trading.ProfitPct, c.Trading.LossPct, c.Trading.TrailPct, c.Trading.BulkAmountUSD)
	fmt.Fprintf(&b, "cadence: worker=%s ui=%s\n", c.Schedule.WorkerInterval, c.Schedule.UIInterval)

	if c.Schedule.TechnicalBreak.Enabled {
		fmt.Fprintf(&b, "technical break: %s-%s\n", c.Schedule.TechnicalBreak.From, c.Schedule.TechnicalBreak.To)
	}

	fmt.Fprintf(&b, "candidates: %s\n", strings.Join(c.Tickers(), ", "))
	fmt.Fprintf(&b, "statistics: %s, ratings: %s\n", c.Research.Statistics.Provider, c.Research.Ratings.Provider)
	fmt.Fprintf(&b, "output: data=%s audit=%s\n", c.Output.DataDir, c.Output.AuditDir)

	return b.String()
}
