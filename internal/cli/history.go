package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"interiordesigner/internal/storage"
)

func newHistoryCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recorded sessions (requires DATABASE_URL)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if e.cfg.Database == "" {
				fmt.Fprintln(out, "No session index configured; set DATABASE_URL to record sessions.")
				return nil
			}
			ctx := cmd.Context()
			store, err := storage.NewStore(ctx, e.cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListSessions(ctx)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}
			printRecords(out, records)
			return nil
		},
	}
}

func printRecords(w io.Writer, records []storage.Record) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tROOMS\tRECS\tIMAGES\tWARNINGS\tREPORT")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n", r.ID, strings.Join(r.RoomTypes, ", "), r.Recommendations, r.GeneratedImages, r.Warnings, r.ReportPath)
	}
	tw.Flush()
}
