package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	app "github.com/okian/clutch/internal/app"
	"github.com/okian/clutch/internal/config"
	"github.com/okian/clutch/pkg/logger"
)

type rootOptions struct {
	store   string
	sqlite  string
	format  string
	verbose bool
	trace   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "clutchctl",
		Short: "Query NBA clutch moments from play-by-play data",
		Long: `clutchctl loads NBA play-by-play CSVs into a graph store and answers
natural-language questions about clutch baskets (made shots or free throws in
the fourth period or overtime with 30 seconds or less on the clock).

Configuration comes from the same sources as the server: a .env file,
CLUTCH_CONFIG (YAML), NEO4J_* / OPENAI_API_KEY and CLUTCH_* variables.
Flags override them.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.store, "store", "", "Graph store: memory, sqlite or neo4j (default from config)")
	root.PersistentFlags().StringVar(&opts.sqlite, "sqlite-path", "", "SQLite database file")
	root.PersistentFlags().StringVar(&opts.format, "format", string(FormatHuman), "Output format (human, json)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")
	root.PersistentFlags().BoolVar(&opts.trace, "trace", false, "Print pipeline spans to stderr")

	root.AddCommand(
		newIngestCmd(opts),
		newAskCmd(opts),
		newTemplatesCmd(opts),
		newCypherCmd(opts),
	)
	return root
}

// loadConfig layers the persistent flags over the loaded configuration.
func (o *rootOptions) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if o.store != "" {
		cfg.Store = o.store
	}
	if o.sqlite != "" {
		cfg.SQLitePath = o.sqlite
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open wires a service for one command. The returned cleanup closes the
// store and flushes spans.
func (o *rootOptions) open(cmd *cobra.Command, extra ...app.Option) (*app.Service, *config.Config, func(), error) {
	ctx := cmd.Context()
	cfg, err := o.loadConfig(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(cmd.ErrOrStderr())); err != nil {
		return nil, nil, nil, fmt.Errorf("logger: %w", err)
	}
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	_ = logger.SetLevelString(level)

	stopTracing := func(context.Context) error { return nil }
	if o.trace || cfg.TraceStdout {
		if stopTracing, err = app.InitTracing(os.Stderr, "clutchctl"); err != nil {
			return nil, nil, nil, err
		}
	}

	svc, err := app.NewFromConfig(ctx, cfg, logger.Get(), extra...)
	if err != nil {
		_ = stopTracing(ctx)
		return nil, nil, nil, err
	}
	cleanup := func() {
		_ = svc.Close(context.Background())
		_ = stopTracing(context.Background())
	}
	return svc, cfg, cleanup, nil
}
