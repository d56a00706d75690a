package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/sarchlab/hwverify/datarecording"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "report <recording>",
		Short: "Summarize a recording made by run --record.",
		Long: `Report prints the run properties, the number of comparisons ` +
			`and errors of every checker, and the first mismatches of a ` +
			`recording. The .sqlite3 extension may be left out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			if filepath.Ext(file) == "" {
				file += ".sqlite3"
			}

			return report(cmd.Context(), cmd.OutOrStdout(), file, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "mismatches", "m", 10,
		"number of mismatches to list, 0 for all")

	return cmd
}

func report(ctx context.Context, w io.Writer, file string, limit int) error {
	reader, err := datarecording.Open(file)
	if err != nil {
		return err
	}
	defer reader.Close()

	info, err := reader.ExecInfo(ctx)
	if err != nil {
		return err
	}

	for _, p := range info {
		fmt.Fprintf(w, "%-18s %s\n", p.Property, p.Value)
	}

	summary, err := reader.CheckSummary(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%-24s %10s %10s\n", "checker", "checked", "errors")
	for _, s := range summary {
		fmt.Fprintf(w, "%-24s %10d %10d\n", s.Checker, s.Checked, s.Errors)
	}

	if limit < 0 {
		limit = 0
	}

	mismatches, total, err := reader.Mismatches(ctx, limit)
	if err != nil {
		return err
	}

	if total == 0 {
		return nil
	}

	fmt.Fprintf(w, "\n%d of %d mismatches\n", len(mismatches), total)
	for _, m := range mismatches {
		fmt.Fprintf(w, "t=%d %s %s: expected %d, got %d\n",
			m.Time, m.Checker, m.Label, m.Expected, m.Actual)
	}

	return nil
}
