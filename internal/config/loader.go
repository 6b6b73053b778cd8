package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment knobs read outside the TECHRANK_ namespace.
const (
	EnvPrefix     = "TECHRANK_"
	EnvConfigFile = "TECHRANK_CONFIG"
	EnvDotenv     = "TECHRANK_DOTENV"
	EnvAPIKey     = "ANTHROPIC_API_KEY"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. .env file, if present, copied into the process environment
//  3. file (YAML) if TECHRANK_CONFIG is set
//  4. env (prefix TECHRANK_, "__" separates nested keys)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	dotenv := os.Getenv(EnvDotenv)
	if dotenv == "" {
		dotenv = ".env"
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, dotenv, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TECHRANK_DATA_PATH -> data_path, TECHRANK_INSIGHT__API_KEY -> insight.api_key.
	envProvider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if cfg.Insight.APIKey == "" {
		cfg.Insight.APIKey = os.Getenv(EnvAPIKey)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Validate reports the first invalid field as ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DataPath == "":
		return fmt.Errorf("%w: data_path must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.DataFormat) {
	case "json", "sqlite":
	default:
		return fmt.Errorf("%w: data_format %q is not json or sqlite", ErrInvalidConfig, c.DataFormat)
	}
	switch c.LogFormat {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: log_format %q is not json or console", ErrInvalidConfig, c.LogFormat)
	}
	if c.Insight.MaxRetries < 0 || c.Insight.MaxTokens < 0 || c.Insight.TimeoutMS < 0 {
		return fmt.Errorf("%w: insight limits must not be negative", ErrInvalidConfig)
	}
	if c.Insight.RatePerSec < 0 || c.Insight.Burst < 0 || c.Insight.CacheTTLSeconds < 0 {
		return fmt.Errorf("%w: insight rate and cache settings must not be negative", ErrInvalidConfig)
	}
	return nil
}
