package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"interiordesigner/internal/apperr"
	"interiordesigner/internal/design"
	"interiordesigner/internal/llm"
	"interiordesigner/internal/pipeline"
	"interiordesigner/internal/tui"
)

type analyzeOptions struct {
	style        string
	budget       string
	needs        string
	colors       []string
	model        string
	outputFormat string
	noImages     bool
	plain        bool
}

func newAnalyzeCommand(e *env) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <image>...",
		Short: "Analyze room photos and generate design recommendations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, e, opts, args)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.style, "style", "s", "", "Preferred style (modern, rustic, minimalist, etc.)")
	flags.StringVarP(&opts.budget, "budget", "b", "", "Budget level: low, medium, high")
	flags.StringVarP(&opts.needs, "needs", "n", "", "Specific requirements")
	flags.StringSliceVar(&opts.colors, "colors", nil, "Preferred colors, comma separated")
	flags.StringVarP(&opts.model, "model", "m", "", "Claude model: "+llm.ModelNames()+" (defaults to CLAUDE_MODEL)")
	flags.StringVarP(&opts.outputFormat, "output-format", "f", "pdf", "Output format: pdf, md")
	flags.BoolVar(&opts.noImages, "no-images", false, "Skip AI image generation")
	flags.BoolVar(&opts.plain, "plain", false, "Print plain progress lines instead of a spinner")
	return cmd
}

// request validates the flags and turns them into a pipeline request.
func (o *analyzeOptions) request(images []string) (pipeline.Request, error) {
	for _, img := range images {
		info, err := os.Stat(img)
		if err != nil {
			return pipeline.Request{}, apperr.IO("analyze", "image not found: "+img, err)
		}
		if info.IsDir() {
			return pipeline.Request{}, apperr.Validation("analyze", img+" is a directory")
		}
	}

	prefs := design.Preferences{
		Style:           strings.TrimSpace(o.style),
		Budget:          strings.ToLower(strings.TrimSpace(o.budget)),
		ColorPreference: o.colors,
		SpecificNeeds:   strings.TrimSpace(o.needs),
	}
	if err := prefs.Validate(); err != nil {
		return pipeline.Request{}, apperr.Validation("analyze", err.Error())
	}
	model := strings.ToLower(strings.TrimSpace(o.model))
	if model != "" && !llm.IsKnownModel(model) {
		return pipeline.Request{}, apperr.Validation("analyze", fmt.Sprintf("model must be one of %s", llm.ModelNames()))
	}
	format, err := design.ParseFormat(o.outputFormat)
	if err != nil {
		return pipeline.Request{}, apperr.Validation("analyze", err.Error())
	}

	return pipeline.Request{
		RunID:          uuid.NewString(),
		Images:         images,
		Preferences:    prefs,
		Model:          model,
		Format:         format,
		GenerateImages: !o.noImages,
	}, nil
}

func runAnalyze(cmd *cobra.Command, e *env, opts *analyzeOptions, args []string) error {
	req, err := opts.request(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	model := req.Model
	if model == "" {
		model = e.cfg.Claude.Model
	}
	fmt.Fprintf(out, "Interior Design AI Assistant\nModel: %s\nImages: %d\n", model, len(req.Images))
	if req.Preferences.Style != "" {
		fmt.Fprintf(out, "Style: %s\n", req.Preferences.Style)
	}
	if req.Preferences.Budget != "" {
		fmt.Fprintf(out, "Budget: %s\n", req.Preferences.Budget)
	}
	fmt.Fprintln(out)

	work := func(ctx context.Context) (design.Session, error) {
		return a.pipeline.Run(ctx, req)
	}
	var session design.Session
	if opts.plain || !tui.IsInteractive(out) {
		session, err = tui.RunPlain(ctx, out, a.broker, req.RunID, work)
	} else {
		session, err = tui.Run(ctx, out, "Designing your room", a.broker, req.RunID, work)
	}
	if err != nil {
		return err
	}

	tui.PrintSession(out, session)
	return nil
}
