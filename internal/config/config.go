// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Vision    VisionConfig    `yaml:"vision"`
	LLM       LLMConfig       `yaml:"llm"`
	Valuation ValuationConfig `yaml:"valuation"`
	Rates     RatesConfig     `yaml:"rates"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// SearchConfig defines market price search settings.
type SearchConfig struct {
	APIKey    string          `yaml:"api_key"`
	URL       string          `yaml:"url"`
	Location  string          `yaml:"location"`
	Currency  string          `yaml:"currency"`
	Sites     []string        `yaml:"sites"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines search API rate limiting settings.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// VisionConfig defines photo analysis settings.
type VisionConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Model   string `yaml:"model"`
}

// LLMConfig defines text generation backend settings, used for spec
// extraction and report prose.
type LLMConfig struct {
	Backend      string             `yaml:"backend"` // ollama, anthropic, openai_compat
	Ollama       OllamaConfig       `yaml:"ollama"`
	Anthropic    AnthropicConfig    `yaml:"anthropic"`
	OpenAICompat OpenAICompatConfig `yaml:"openai_compat"`
	Timeout      time.Duration      `yaml:"timeout"`
}

// OllamaConfig defines Ollama-specific settings.
type OllamaConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// AnthropicConfig defines Anthropic API settings.
type AnthropicConfig struct {
	Model string `yaml:"model"`
}

// OpenAICompatConfig defines OpenAI-compatible endpoint settings.
type OpenAICompatConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// ValuationConfig defines pricing tables and aggregation parameters.
type ValuationConfig struct {
	// Penalties maps issue types to base score deductions.
	Penalties map[string]float64 `yaml:"penalties"`
	// Multipliers maps condition grades to price multipliers in [0,1].
	Multipliers map[string]float64 `yaml:"multipliers"`

	MinSamples     int           `yaml:"min_samples"`
	LowPercentile  int           `yaml:"low_percentile"`
	HighPercentile int           `yaml:"high_percentile"`
	DedupWindow    time.Duration `yaml:"dedup_window"`

	LowClampFactor        float64       `yaml:"low_clamp_factor"`
	HighConfidenceSamples int           `yaml:"high_confidence_samples"`
	FallbackDiscount      float64       `yaml:"fallback_discount"`
	ReferenceTTL          time.Duration `yaml:"reference_ttl"`
}

// RatesConfig defines the static currency conversion table.
type RatesConfig struct {
	Base  string             `yaml:"base"`
	Table map[string]float64 `yaml:"table"`
}

// ScheduleConfig defines cron intervals.
type ScheduleConfig struct {
	PruneInterval time.Duration `yaml:"prune_interval"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applySearchDefaults(&cfg.Search)
	applyVisionDefaults(&cfg.Vision)
	applyLLMDefaults(&cfg.LLM)
	applyValuationDefaults(&cfg.Valuation)
	applyRatesDefaults(&cfg.Rates)
	applyScheduleDefaults(&cfg.Schedule)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applySearchDefaults(s *SearchConfig) {
	if s.URL == "" {
		s.URL = "https://serpapi.com/search.json"
	}
	if s.Location == "" {
		s.Location = "Cairo, Egypt"
	}
	if s.Currency == "" {
		s.Currency = "EGP"
	}
	if s.RateLimit.PerSecond == 0 {
		s.RateLimit.PerSecond = 1.0
	}
	if s.RateLimit.Burst == 0 {
		s.RateLimit.Burst = 5
	}
	if s.RateLimit.DailyLimit == 0 {
		s.RateLimit.DailyLimit = 250
	}
}

func applyVisionDefaults(v *VisionConfig) {
	if v.URL == "" {
		v.URL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if v.Model == "" {
		v.Model = "gemini-1.5-flash"
	}
}

func applyLLMDefaults(l *LLMConfig) {
	if l.Backend == "" {
		l.Backend = "ollama"
	}
	if l.Timeout == 0 {
		l.Timeout = 30 * time.Second
	}
}

func applyValuationDefaults(v *ValuationConfig) {
	if v.MinSamples == 0 {
		v.MinSamples = 3
	}
	if v.LowPercentile == 0 {
		v.LowPercentile = 10
	}
	if v.HighPercentile == 0 {
		v.HighPercentile = 90
	}
	if v.DedupWindow == 0 {
		v.DedupWindow = 5 * time.Minute
	}
	if v.LowClampFactor == 0 {
		v.LowClampFactor = 0.5
	}
	if v.HighConfidenceSamples == 0 {
		v.HighConfidenceSamples = 8
	}
	if v.FallbackDiscount == 0 {
		v.FallbackDiscount = 0.70
	}
	if v.ReferenceTTL == 0 {
		v.ReferenceTTL = 24 * time.Hour
	}
}

func applyRatesDefaults(r *RatesConfig) {
	if r.Base == "" {
		r.Base = "EGP"
	}
}

func applyScheduleDefaults(s *ScheduleConfig) {
	if s.PruneInterval == 0 {
		s.PruneInterval = 6 * time.Hour
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if cfg.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}
	if cfg.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}

	switch cfg.LLM.Backend {
	case "ollama":
		if cfg.LLM.Ollama.Endpoint == "" {
			errs = append(
				errs,
				fmt.Errorf("llm.ollama.endpoint is required when backend is ollama"),
			)
		}
	case "anthropic":
		// API key comes from env, model must be set.
		if cfg.LLM.Anthropic.Model == "" {
			errs = append(
				errs,
				fmt.Errorf("llm.anthropic.model is required when backend is anthropic"),
			)
		}
	case "openai_compat":
		if cfg.LLM.OpenAICompat.Endpoint == "" {
			errs = append(
				errs,
				fmt.Errorf("llm.openai_compat.endpoint is required when backend is openai_compat"),
			)
		}
	default:
		errs = append(
			errs,
			fmt.Errorf(
				"llm.backend must be one of: ollama, anthropic, openai_compat (got %q)",
				cfg.LLM.Backend,
			),
		)
	}

	v := cfg.Valuation
	if v.LowPercentile <= 0 || v.HighPercentile >= 100 || v.LowPercentile >= v.HighPercentile {
		errs = append(errs, fmt.Errorf(
			"valuation percentiles must satisfy 0 < low < high < 100 (got %d, %d)",
			v.LowPercentile, v.HighPercentile,
		))
	}
	for grade, m := range v.Multipliers {
		if m < 0 || m > 1 {
			errs = append(errs, fmt.Errorf(
				"valuation.multipliers.%s must be within [0,1] (got %g)", grade, m,
			))
		}
	}
	for issue, p := range v.Penalties {
		if p < 0 {
			errs = append(errs, fmt.Errorf(
				"valuation.penalties.%s must be non-negative (got %g)", issue, p,
			))
		}
	}
	if v.FallbackDiscount <= 0 || v.FallbackDiscount > 1 {
		errs = append(errs, fmt.Errorf(
			"valuation.fallback_discount must be within (0,1] (got %g)", v.FallbackDiscount,
		))
	}

	for code, rate := range cfg.Rates.Table {
		if rate <= 0 {
			errs = append(errs, fmt.Errorf(
				"rates.table.%s must be positive (got %g)", code, rate,
			))
		}
	}

	return errors.Join(errs...)
}
