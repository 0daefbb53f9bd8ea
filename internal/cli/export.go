package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"interiordesigner/internal/apperr"
	"interiordesigner/internal/dataset"
	"interiordesigner/internal/storage"
)

func newExportCommand(e *env) *cobra.Command {
	var (
		outputPath string
		opts       dataset.Options
	)
	cmd := &cobra.Command{
		Use:   "export-dataset",
		Short: "Write recorded sessions as prompt/completion JSONL (requires DATABASE_URL)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if e.cfg.Database == "" {
				return apperr.Configuration("export-dataset", "DATABASE_URL is required to export sessions")
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
			ids := make([]string, 0, len(records))
			for _, r := range records {
				ids = append(ids, r.ID)
			}
			sessions, err := dataset.Load(ctx, store, ids)
			if err != nil {
				return err
			}
			examples, err := dataset.BuildExamples(sessions, opts)
			if err != nil {
				return err
			}
			if len(examples) == 0 {
				return fmt.Errorf("no sessions matched the export filters")
			}
			if err := dataset.WriteJSONL(outputPath, examples); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d examples to %s\n", len(examples), outputPath)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&outputPath, "out", "dataset.jsonl", "Where to write the JSONL dataset")
	flags.IntVar(&opts.MinRecommendations, "min-recommendations", 3, "Minimum number of recommendations per session")
	flags.StringVar(&opts.Style, "style", "", "Only export sessions with this style preference")
	return cmd
}
