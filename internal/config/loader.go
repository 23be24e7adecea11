package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering, low to high precedence:
//  1. defaults (New())
//  2. YAML file if CLUTCH_CONFIG is set
//  3. NEO4J_* and OPENAI_API_KEY (the variables of the original .env)
//  4. CLUTCH_* env
//
// A .env file in the working directory is read first when present; it never
// overrides variables already set in the process environment.
func Load(_ context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: .env: %w", ErrLoadConfig, err)
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv("CLUTCH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// NEO4J_URI -> neo4j_uri
	if err := k.Load(env.Provider("NEO4J_", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	// OPENAI_API_KEY -> llm_api_key
	openai := env.Provider("OPENAI_", ".", func(s string) string {
		return "llm_" + strings.TrimPrefix(strings.ToLower(s), "openai_")
	})
	if err := k.Load(openai, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// CLUTCH_QUERY_TIMEOUT_MS -> query_timeout_ms
	clutch := env.Provider("CLUTCH_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "clutch_")
	})
	if err := k.Load(clutch, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MatchThreshold < 0 || c.MatchThreshold > 1:
		return fmt.Errorf("%w: match_threshold must be within [0,1]", ErrInvalidConfig)
	case c.MaxResults < 0:
		return fmt.Errorf("%w: max_results must not be negative", ErrInvalidConfig)
	case c.ClutchWindowSeconds <= 0:
		return fmt.Errorf("%w: clutch_window_seconds must be positive", ErrInvalidConfig)
	case c.OvertimeSeconds <= 0:
		return fmt.Errorf("%w: overtime_seconds must be positive", ErrInvalidConfig)
	}
	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path required for sqlite store", ErrInvalidConfig)
		}
	case StoreNeo4j:
		if c.Neo4jURI == "" {
			return fmt.Errorf("%w: neo4j_uri required for neo4j store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	return nil
}
