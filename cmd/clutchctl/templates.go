package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTemplatesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the question templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseFormat(root.format)
			if err != nil {
				return err
			}
			// The catalog needs no store; an in-memory one avoids dialing.
			root.store = "memory"
			svc, _, cleanup, err := root.open(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			tmpls := svc.Templates()
			if format == FormatJSON {
				return writeJSON(out, tmpls)
			}
			for _, t := range tmpls {
				fmt.Fprintf(out, "%s\n  %s\n", t.Name, t.Description)
				params := make([]string, 0, len(t.Params))
				for _, p := range t.Params {
					s := p.Name + ":" + p.Type
					if p.Required {
						s += " (required)"
					}
					params = append(params, s)
				}
				if len(params) > 0 {
					fmt.Fprintf(out, "  params: %s\n", strings.Join(params, ", "))
				}
				for _, ex := range t.Examples {
					fmt.Fprintf(out, "  e.g. %s\n", ex)
				}
			}
			return nil
		},
	}
}
