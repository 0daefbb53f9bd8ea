package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"interiordesigner/internal/config"
	"interiordesigner/internal/prompts"
	"interiordesigner/internal/vision"
	"interiordesigner/internal/workspace"
)

const defaultTestPrompt = "A modern minimalist living room with a gray sofa and wooden floor"

func newTestImageCommand(e *env) *cobra.Command {
	var prompt, imagePath, model string
	cmd := &cobra.Command{
		Use:   "test-image",
		Short: "Run a single image generation call and save the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := e.cfg.Images
			if model != "" {
				overrideImageModel(&cfg, model)
			}
			if err := (config.Config{Images: cfg}).RequireImages(); err != nil {
				return err
			}

			var (
				base []byte
				err  error
			)
			fullPrompt := prompt
			if imagePath != "" {
				base, err = vision.PrepareImage(imagePath, vision.MaxImageDimension)
				fullPrompt = prompts.ImageEdit(prompt)
			} else {
				base, err = vision.BlankCanvas(1024, 768)
			}
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			editor, err := vision.NewEditor(ctx, cfg, e.logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Provider: %s\nPrompt: %s\n", cfg.Provider, prompt)
			if imagePath != "" {
				fmt.Fprintf(out, "Input image: %s\n", imagePath)
			}
			fmt.Fprintln(out, "Sending request...")

			result, err := editor.Edit(ctx, vision.EditRequest{Image: base, MIME: "image/jpeg", Prompt: fullPrompt})
			if err != nil {
				return err
			}

			ws, err := workspace.New(e.cfg.OutputDir, clockwork.NewRealClock()).Create()
			if err != nil {
				return err
			}
			rel, err := ws.WriteGenerated("test-01"+result.Extension(), result.Data)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved: %s\n", filepath.Join(ws.Path, rel))
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&prompt, "prompt", "p", defaultTestPrompt, "Text prompt for image generation")
	flags.StringVarP(&imagePath, "image", "i", "", "Optional input image to edit")
	flags.StringVarP(&model, "model", "m", "", "Override the provider's image model")
	return cmd
}

// overrideImageModel sets the model of the selected provider.
func overrideImageModel(cfg *config.ImageConfig, model string) {
	model = strings.TrimSpace(model)
	switch cfg.Provider {
	case config.ProviderGemini:
		cfg.GeminiModel = model
	case config.ProviderVertex:
		cfg.VertexModel = model
	default:
		cfg.OpenRouterModel = model
	}
}
