package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/clutch/internal/adapters/llm"
	"github.com/okian/clutch/internal/adapters/repository"
	"github.com/okian/clutch/internal/config"
	"github.com/okian/clutch/pkg/logger"
)

// OpenStore connects the backend named by cfg.Store.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, error) {
	opts := []repository.Option{
		repository.WithLogger(log.Named("store")),
		repository.WithConnectTimeout(ms(cfg.Neo4jTimeoutMS)),
	}
	switch cfg.Store {
	case config.StoreMemory:
		return repository.NewMemStore(opts...), nil
	case config.StoreSQLite:
		return repository.NewSQLiteStore(ctx, cfg.SQLitePath, opts...)
	case config.StoreNeo4j:
		opts = append(opts,
			repository.WithMaxPoolSize(cfg.Neo4jMaxPoolSize),
			repository.WithDatabase(cfg.Neo4jDatabase),
		)
		return repository.NewNeo4jStore(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown store %q", config.ErrInvalidConfig, cfg.Store)
	}
}

// NewLanguageModel returns a client when one is usable: a key is set or the
// provider runs locally. A nil client disables narration and assistance.
func NewLanguageModel(cfg *config.Config, log logger.Logger) (*llm.Client, error) {
	local := cfg.LLMProvider == "ollama" || cfg.LLMProvider == "lmstudio" || cfg.LLMBaseURL != ""
	if cfg.LLMAPIKey == "" && !local {
		return nil, nil
	}
	opts := []llm.Option{
		llm.WithAPIKey(cfg.LLMAPIKey),
		llm.WithModel(cfg.LLMModel),
		llm.WithLogger(log.Named("llm")),
	}
	if cfg.LLMBaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.LLMBaseURL))
	}
	return llm.New(cfg.LLMProvider, opts...)
}

// NewFromConfig opens the store and language model named by cfg and wires a
// Service over them. The caller owns Close.
func NewFromConfig(ctx context.Context, cfg *config.Config, log logger.Logger, extra ...Option) (*Service, error) {
	store, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithLogger(log),
		WithAssisted(cfg.Assisted),
		WithMatchThreshold(cfg.MatchThreshold),
		WithMaxResults(cfg.MaxResults),
		WithTimeouts(ms(cfg.QueryTimeoutMS), ms(cfg.LLMTimeoutMS), ms(cfg.NarrateTimeoutMS)),
		WithClutchWindow(cfg.ClutchWindowSeconds),
		WithOvertimeSeconds(cfg.OvertimeSeconds),
		WithQueueSize(cfg.IngestQueueSize),
	}
	client, err := NewLanguageModel(cfg, log)
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}
	if client != nil {
		opts = append(opts, WithLanguageModel(client))
	} else if cfg.Assisted {
		log.Warn(ctx, "assisted synthesis requested without a language model; template path only")
	}
	svc, err := New(store, append(opts, extra...)...)
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}
	return svc, nil
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
