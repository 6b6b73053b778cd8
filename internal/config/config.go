// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the encoder: json or console.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DataPath is the dataset file loaded at startup.
	DataPath string `koanf:"data_path"`

	// DataFormat is json or sqlite.
	DataFormat string `koanf:"data_format"`

	// DropOrphans logs and skips jobs of unknown technicians instead of
	// refusing to start.
	DropOrphans bool `koanf:"drop_orphans"`

	// CORSOrigin is sent as Access-Control-Allow-Origin.
	CORSOrigin string `koanf:"cors_origin"`

	Insight Insight `koanf:"insight"`
	Redis   Redis   `koanf:"redis"`
}

// Insight configures the language-model collaborator.
type Insight struct {
	// Enabled turns the ai-insights endpoint on when an API key is present.
	Enabled bool `koanf:"enabled"`

	// APIKey falls back to ANTHROPIC_API_KEY when empty.
	APIKey string `koanf:"api_key"`

	BaseURL    string `koanf:"base_url"`
	Model      string `koanf:"model"`
	MaxTokens  int    `koanf:"max_tokens"`
	TimeoutMS  int    `koanf:"timeout_ms"`
	MaxRetries int    `koanf:"max_retries"`

	// RatePerSec and Burst bound outbound model calls.
	RatePerSec float64 `koanf:"rate_per_sec"`
	Burst      int     `koanf:"burst"`

	// CacheTTLSeconds is how long structured answers stay in redis.
	// Zero disables the cache.
	CacheTTLSeconds int `koanf:"cache_ttl_s"`
}

// Timeout returns the per-call timeout.
func (i Insight) Timeout() time.Duration {
	return time.Duration(i.TimeoutMS) * time.Millisecond
}

// CacheTTL returns the cache lifetime.
func (i Insight) CacheTTL() time.Duration {
	return time.Duration(i.CacheTTLSeconds) * time.Second
}

// Active reports whether the generator should be built.
func (i Insight) Active() bool {
	return i.Enabled && i.APIKey != ""
}

// Redis configures the insight cache. An empty Addr disables it.
type Redis struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// New creates a Config with defaults. The context is accepted first to
// keep the project-wide signature convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:   "info",
		LogFormat:  "json",
		Addr:       ":5000",
		DataPath:   "data/technicians.json",
		DataFormat: "json",
		CORSOrigin: "*",
		Insight: Insight{
			Enabled:         true,
			BaseURL:         "https://api.anthropic.com/v1",
			Model:           "claude-sonnet-4-20250514",
			MaxTokens:       1024,
			TimeoutMS:       60_000,
			MaxRetries:      2,
			RatePerSec:      2,
			Burst:           4,
			CacheTTLSeconds: 3600,
		},
	}
}
