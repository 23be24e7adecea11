package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/clutch/internal/adapters/ingest"
)

func newIngestCmd(root *rootOptions) *cobra.Command {
	var parallel int
	cmd := &cobra.Command{
		Use:   "ingest <file.csv[.gz]>...",
		Short: "Load play-by-play files into the graph store",
		Long: `Load NBA play-by-play CSV files (plain or gzip) into the configured store.

Files are parsed concurrently and written one at a time. Rows already stored
are counted as duplicates; rows that break the schema are skipped and counted
as violations.

Examples:
  clutchctl ingest --store sqlite data/1996-97.csv.gz
  clutchctl ingest --store neo4j --parallel 8 data/*.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(root.format)
			if err != nil {
				return err
			}
			svc, _, cleanup, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			batches := make([]ingest.Batch, len(args))
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(max(parallel, 1))
			for i, path := range args {
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					f, err := ingest.Open(path)
					if err != nil {
						return err
					}
					defer f.Close()
					b, err := ingest.ReadPlays(f)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					batches[i] = b
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			var total ingest.Report
			out := cmd.OutOrStdout()
			for i, b := range batches {
				report, err := svc.IngestBatch(ctx, b)
				if err != nil {
					return fmt.Errorf("%s: %w", args[i], err)
				}
				total.Add(report)
				if format == FormatHuman {
					fmt.Fprintf(out, "%s: rows=%d events=%d duplicates=%d violations=%d\n",
						args[i], report.Rows, report.Events, report.Duplicates, report.Violations)
				}
			}
			if format == FormatJSON {
				return writeJSON(out, total)
			}
			if len(args) > 1 {
				fmt.Fprintf(out, "total: rows=%d events=%d duplicates=%d violations=%d\n",
					total.Rows, total.Events, total.Duplicates, total.Violations)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "Files parsed concurrently")
	return cmd
}
