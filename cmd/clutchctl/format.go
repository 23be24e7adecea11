package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/okian/clutch/internal/domain/model"
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

func parseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatJSON, FormatHuman:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

// writeRows prints ranked rows as an aligned table.
func writeRows(w io.Writer, rows []model.ResultRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No clutch moments found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GAME\tPERIOD\tCLOCK\tSCORER\tSCORE\tLEAD\tPLAY")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d:%02d\t%s\t%s\t%s\t%s\n",
			r.Game, period(r.Period), r.SecLeft/60, r.SecLeft%60, r.Scorer, r.Score.String(), r.Lead, r.Desc)
	}
	return tw.Flush()
}

func period(p int) string {
	if p > 4 {
		return fmt.Sprintf("OT%d", p-4)
	}
	return fmt.Sprintf("Q%d", p)
}
