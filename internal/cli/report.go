// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/gemaraproj/statement-screener/internal/store"
)

const (
	// maxValueWidth bounds the match columns of the report table.
	maxValueWidth  = 60
	matchSeparator = "; "
)

func newReportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report DIR",
		Short: "Print the evidence of a completed run",
		Long: `Report reads a run directory written by "screener run", checks the detail
files against the CSV summary and prints one row per confirmed document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := a.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			records, err := store.Load(args[0])
			if err != nil {
				return fmt.Errorf("failed to read run directory: %w", err)
			}
			log.Debug("Loaded evidence records", "run_dir", args[0], "records", len(records))

			renderReport(cmd.OutOrStdout(), records)
			return nil
		},
	}
}

// renderReport writes records as a table.
func renderReport(w io.Writer, records []store.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Options.SeparateRows = true
	t.Style().Format.Footer = text.FormatDefault

	t.AppendHeader(table.Row{"#", "URL", "Primary Matches", "Organization References"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, WidthMax: maxValueWidth},
		{Number: 4, WidthMax: maxValueWidth},
	})

	for _, r := range records {
		t.AppendRow(table.Row{
			r.Sequence,
			r.URL,
			strings.Join(r.Primary, matchSeparator),
			strings.Join(r.Organization, matchSeparator),
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d documents", len(records)), "", ""})
	t.Render()
}
