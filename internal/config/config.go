// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keys are flat snake_case names shared by the YAML file and the environment.
// - New() returns defaults; Load(ctx) layers file and environment on top.
// - Validation failures wrap ErrInvalidConfig.
package config

// Store backends.
const (
	StoreMemory = "memory"
	StoreNeo4j  = "neo4j"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Store selects the graph backend: memory, neo4j or sqlite.
	Store      string `koanf:"store"`
	SQLitePath string `koanf:"sqlite_path"`

	// Neo4j connection. The unprefixed NEO4J_* variables also land here.
	Neo4jURI         string `koanf:"neo4j_uri"`
	Neo4jUser        string `koanf:"neo4j_user"`
	Neo4jPassword    string `koanf:"neo4j_password"`
	Neo4jDatabase    string `koanf:"neo4j_database"`
	Neo4jMaxPoolSize int    `koanf:"neo4j_max_pool_size"`
	Neo4jTimeoutMS   int    `koanf:"neo4j_timeout_ms"`

	// Language model. OPENAI_API_KEY lands in LLMAPIKey.
	LLMProvider  string `koanf:"llm_provider"`
	LLMBaseURL   string `koanf:"llm_base_url"`
	LLMModel     string `koanf:"llm_model"`
	LLMAPIKey    string `koanf:"llm_api_key"`
	LLMTimeoutMS int    `koanf:"llm_timeout_ms"`

	// Assisted enables the language-model fallback when no template matches.
	Assisted bool `koanf:"assisted"`
	// MatchThreshold is the minimum template confidence in [0,1].
	MatchThreshold float64 `koanf:"match_threshold"`
	// MaxResults caps ranked rows; 0 means unbounded.
	MaxResults int `koanf:"max_results"`

	QueryTimeoutMS   int `koanf:"query_timeout_ms"`
	NarrateTimeoutMS int `koanf:"narrate_timeout_ms"`

	// ClutchWindowSeconds is the classifier window; 30 unless extended.
	ClutchWindowSeconds int `koanf:"clutch_window_seconds"`
	// OvertimeSeconds is the length of an overtime period.
	OvertimeSeconds int `koanf:"overtime_seconds"`

	// IngestQueueSize bounds the row queue between reader and writer.
	IngestQueueSize int `koanf:"ingest_queue_size"`
	// DataFiles are play-by-play CSVs ingested at startup.
	DataFiles []string `koanf:"data_files"`

	// TraceStdout exports pipeline spans to stdout.
	TraceStdout bool `koanf:"trace_stdout"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		Store:               StoreMemory,
		SQLitePath:          "clutch.db",
		Neo4jUser:           "neo4j",
		Neo4jMaxPoolSize:    50,
		Neo4jTimeoutMS:      10_000,
		LLMProvider:         "openai",
		LLMModel:            "gpt-4o-mini",
		LLMTimeoutMS:        30_000,
		Assisted:            false,
		MatchThreshold:      0.5,
		MaxResults:          0,
		QueryTimeoutMS:      5_000,
		NarrateTimeoutMS:    30_000,
		ClutchWindowSeconds: 30,
		OvertimeSeconds:     300,
		IngestQueueSize:     1024,
	}
}
