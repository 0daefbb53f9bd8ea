package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"interiordesigner/internal/tui"
)

func newModelsCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available Claude models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			tui.PrintModels(out, e.cfg.Claude.Model)
			fmt.Fprintln(out, "\nUse with: --model <name>")
			return nil
		},
	}
}
