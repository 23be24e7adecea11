package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	app "github.com/okian/clutch/internal/app"
	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/internal/domain/synth"
)

type askResult struct {
	RequestID      string            `json:"request_id"`
	Template       string            `json:"template"`
	Path           string            `json:"path"`
	Params         map[string]any    `json:"params,omitempty"`
	Rows           []model.ResultRow `json:"rows"`
	Narration      string            `json:"narration,omitempty"`
	NarrationError string            `json:"narration_error,omitempty"`
}

func newAskCmd(root *rootOptions) *cobra.Command {
	var (
		narrate  bool
		assisted bool
		limit    int
		data     []string
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a clutch question",
		Long: `Answer a natural-language question about clutch moments.

The question is mapped onto a template; with --assisted a language model
translates questions no template matches. --narrate asks the model for a
short summary of the rows.

Examples:
  clutchctl ask "Who scored in the final 30 seconds of games 49600083 and 49600087?"
  clutchctl ask --data pbp.csv "What were Michael Jordan's clutch shots?"
  clutchctl ask --narrate --store sqlite "Game-winning shots in the last 5 seconds"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(root.format)
			if err != nil {
				return err
			}
			var extra []app.Option
			if cmd.Flags().Changed("assisted") {
				extra = append(extra, app.WithAssisted(assisted))
			}
			svc, _, cleanup, err := root.open(cmd, extra...)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			for _, path := range data {
				if _, err := svc.IngestFile(ctx, path); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}

			ans, err := svc.Ask(ctx, app.AskRequest{
				Question: strings.Join(args, " "),
				Narrate:  narrate,
				Limit:    limit,
			})
			out := cmd.OutOrStdout()
			var nm *synth.NoMatchError
			if errors.As(err, &nm) && format == FormatHuman {
				fmt.Fprintln(out, "No template matches that question. Closest templates:")
				for _, s := range nm.Nearest {
					fmt.Fprintf(out, "  %-14s %.2f  e.g. %q\n", s.Name, s.Confidence, s.Example)
				}
				return err
			}
			if err != nil {
				return err
			}

			if format == FormatJSON {
				res := askResult{
					RequestID: ans.RequestID,
					Template:  ans.Query.Template,
					Path:      ans.Query.Path,
					Params:    ans.Query.Params,
					Rows:      ans.Rows,
					Narration: ans.Narration,
				}
				if ans.NarrationErr != nil {
					res.NarrationError = ans.NarrationErr.Error()
				}
				return writeJSON(out, res)
			}

			fmt.Fprintf(out, "template: %s (%s)\n\n", ans.Query.Template, ans.Query.Path)
			if err := writeRows(out, ans.Rows); err != nil {
				return err
			}
			switch {
			case ans.Narration != "":
				fmt.Fprintf(out, "\n%s\n", ans.Narration)
			case ans.NarrationErr != nil:
				fmt.Fprintf(cmd.ErrOrStderr(), "narration unavailable: %v\n", ans.NarrationErr)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&narrate, "narrate", false, "Narrate the rows with the language model")
	cmd.Flags().BoolVar(&assisted, "assisted", false, "Let the language model translate unmatched questions")
	cmd.Flags().IntVar(&limit, "limit", 0, "Row cap (0 keeps the template default)")
	cmd.Flags().StringSliceVar(&data, "data", nil, "Play-by-play files to ingest before asking")
	return cmd
}
