// Package cli wires configuration and components into the interior-designer
// command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"interiordesigner/internal/config"
	"interiordesigner/internal/logging"
)

// env is shared by every subcommand once the root's pre-run has loaded it.
type env struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg    config.Config
	logger *slog.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:           "interior-designer",
		Short:         "AI-powered interior design assistant",
		Long:          `interior-designer analyzes room photos with the claude CLI, produces prioritized design recommendations, optionally visualizes them with an image model and writes a markdown or PDF report per session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(e.configPath)
			if err != nil {
				return err
			}
			if e.logLevel != "" {
				cfg.Log.Level = e.logLevel
			}
			if e.logFormat != "" {
				cfg.Log.Format = e.logFormat
			}
			e.cfg = cfg
			e.logger = logging.InitWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&e.configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	root.PersistentFlags().StringVar(&e.logFormat, "log-format", "", "Log format: text or json (overrides LOG_FORMAT)")

	root.AddCommand(
		newAnalyzeCommand(e),
		newModelsCommand(e),
		newTestPDFCommand(e),
		newTestImageCommand(e),
		newServeCommand(e),
		newHistoryCommand(e),
		newExportCommand(e),
		newHashPasswordCommand(),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}
