package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/clutch/internal/adapters/repository"
)

type renderedQuery struct {
	Template string `json:"template"`
	Path     string `json:"path"`
	Query    string `json:"query"`
	Params   any    `json:"params"`
}

func newCypherCmd(root *rootOptions) *cobra.Command {
	var sql bool
	cmd := &cobra.Command{
		Use:   "cypher <question>",
		Short: "Show the query a question compiles to",
		Long: `Synthesize a question and print the Cypher (or, with --sql, the SQLite
query) the stores would run, without touching any store.

Example:
  clutchctl cypher "Clutch baskets by Steve Kerr in the last 10 seconds of game 0049600088"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(root.format)
			if err != nil {
				return err
			}
			root.store = "memory"
			svc, _, cleanup, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			q, err := svc.Synthesize(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			res := renderedQuery{Template: q.Template, Path: q.Path}
			if sql {
				res.Query, res.Params, err = repository.RenderSQL(q)
			} else {
				res.Query, res.Params, err = repository.RenderCypher(q)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == FormatJSON {
				return writeJSON(out, res)
			}
			fmt.Fprintf(out, "// template: %s (%s)\n%s\n", res.Template, res.Path, res.Query)
			fmt.Fprintf(out, "// params: %v\n", res.Params)
			return nil
		},
	}
	cmd.Flags().BoolVar(&sql, "sql", false, "Render SQLite SQL instead of Cypher")
	return cmd
}
