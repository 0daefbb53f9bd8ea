package cli

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"interiordesigner/internal/apperr"
	"interiordesigner/internal/design"
	"interiordesigner/internal/report"
	"interiordesigner/internal/workspace"
)

func newTestPDFCommand(e *env) *cobra.Command {
	var outputFormat string
	cmd := &cobra.Command{
		Use:   "test-pdf",
		Short: "Render a report from built-in sample data (no API calls)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := design.ParseFormat(outputFormat)
			if err != nil {
				return apperr.Validation("test-pdf", err.Error())
			}
			ws, err := workspace.New(e.cfg.OutputDir, clockwork.NewRealClock()).Create()
			if err != nil {
				return err
			}

			session := design.SampleSession(ws.ID, ws.CreatedAt)
			session.Dir = ws.Path
			session.Format = format
			path, err := report.Save(session, format)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sample report written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", "pdf", "Output format: pdf, md")
	return cmd
}
