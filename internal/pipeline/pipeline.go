// Package pipeline sequences room analysis, visualization and report
// rendering as an ordered list of stages over a result value.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"interiordesigner/internal/apperr"
	"interiordesigner/internal/design"
	"interiordesigner/internal/events"
	"interiordesigner/internal/llm"
	"interiordesigner/internal/metrics"
	"interiordesigner/internal/vision"
	"interiordesigner/internal/workspace"
)

// Stage names, in execution order.
const (
	StageAnalyze   = "analyze"
	StageRecommend = "recommend"
	StageSummarize = "summarize"
	StageWorkspace = "workspace"
	StageVisualize = "visualize"
	StageRender    = "render"
	StageArchive   = "archive"
	StageRecord    = "record"
	StageComplete  = "complete"
)

// Analyzer produces the structured content of a report.
type Analyzer interface {
	AnalyzeRoom(ctx context.Context, imagePath string, prefs design.Preferences) (design.RoomAnalysis, error)
	Recommend(ctx context.Context, analysis design.RoomAnalysis, prefs design.Preferences) ([]design.Recommendation, error)
	Summarize(ctx context.Context, analysis design.RoomAnalysis, recs []design.Recommendation, prefs design.Preferences) (string, error)
}

// Archiver mirrors finished session files somewhere durable and returns
// their locations.
type Archiver interface {
	Archive(ctx context.Context, sessionID, dir string, files []string) ([]string, error)
}

// Recorder keeps an index of completed sessions.
type Recorder interface {
	SaveSession(ctx context.Context, session design.Session) error
}

// Renderer writes the report files and returns the report path.
type Renderer func(session design.Session, format design.Format) (string, error)

// Request is the input to one run.
type Request struct {
	RunID          string
	Images         []string
	Preferences    design.Preferences
	Model          string
	Format         design.Format
	GenerateImages bool
}

// Validate checks the request before any work starts.
func (r Request) Validate() error {
	if len(r.Images) == 0 {
		return apperr.Validation("pipeline", "at least one image is required")
	}
	if err := r.Preferences.Validate(); err != nil {
		return apperr.Validation("pipeline", err.Error())
	}
	if r.Model != "" && !llm.IsKnownModel(r.Model) {
		return apperr.Validation("pipeline", fmt.Sprintf("unknown model %q (available: %s)", r.Model, llm.ModelNames()))
	}
	if _, err := design.ParseFormat(string(r.Format)); err != nil {
		return apperr.Validation("pipeline", err.Error())
	}
	return nil
}

// Result is the value threaded through the stages. Stages return a new
// Result rather than mutating the one they receive.
type Result struct {
	Request   Request
	Session   design.Session
	Workspace workspace.Session
}

// Stage is one named step of a run.
type Stage struct {
	Name  string
	Fatal bool
	Run   func(ctx context.Context, in Result) (Result, error)
}

// Options configures a Pipeline.
type Options struct {
	Analyzer    Analyzer
	Editor      vision.ImageEditor
	Provider    string
	MinPriority design.Priority
	Workspace   *workspace.Workspace
	Render      Renderer
	Archiver    Archiver
	Recorder    Recorder
	Events      events.Publisher
	Metrics     *metrics.PipelineMetrics
	Clock       clockwork.Clock
	Logger      *slog.Logger
}

// Pipeline runs analysis requests end to end.
type Pipeline struct {
	analyzer    Analyzer
	editor      vision.ImageEditor
	provider    string
	minPriority design.Priority
	workspace   *workspace.Workspace
	render      Renderer
	archiver    Archiver
	recorder    Recorder
	events      events.Publisher
	metrics     *metrics.PipelineMetrics
	clock       clockwork.Clock
	logger      *slog.Logger
}

// New constructs a pipeline. Analyzer, Workspace and Render are required.
func New(opts Options) (*Pipeline, error) {
	if opts.Analyzer == nil {
		return nil, apperr.Configuration("pipeline", "analyzer is required")
	}
	if opts.Workspace == nil {
		return nil, apperr.Configuration("pipeline", "workspace is required")
	}
	if opts.Render == nil {
		return nil, apperr.Configuration("pipeline", "renderer is required")
	}
	p := &Pipeline{
		analyzer:    opts.Analyzer,
		editor:      opts.Editor,
		provider:    opts.Provider,
		minPriority: opts.MinPriority,
		workspace:   opts.Workspace,
		render:      opts.Render,
		archiver:    opts.Archiver,
		recorder:    opts.Recorder,
		events:      opts.Events,
		metrics:     opts.Metrics,
		clock:       opts.Clock,
		logger:      opts.Logger,
	}
	if p.minPriority == "" {
		p.minPriority = design.PriorityHigh
	}
	if p.provider == "" {
		p.provider = "unknown"
	}
	if p.events == nil {
		p.events = events.Discard
	}
	if p.clock == nil {
		p.clock = clockwork.NewRealClock()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p, nil
}

// ImagesEnabled reports whether an image editor is configured.
func (p *Pipeline) ImagesEnabled() bool {
	return p.editor != nil
}

// Stages returns the ordered stage list for a run.
func (p *Pipeline) Stages() []Stage {
	return []Stage{
		{Name: StageAnalyze, Fatal: true, Run: p.analyze},
		{Name: StageRecommend, Fatal: true, Run: p.recommend},
		{Name: StageSummarize, Fatal: true, Run: p.summarize},
		{Name: StageWorkspace, Fatal: true, Run: p.prepareWorkspace},
		{Name: StageVisualize, Run: p.visualize},
		{Name: StageRender, Fatal: true, Run: p.renderReport},
		{Name: StageArchive, Run: p.archive},
		{Name: StageRecord, Run: p.record},
	}
}

// Run executes every stage in order and returns the finished session.
func (p *Pipeline) Run(ctx context.Context, req Request) (design.Session, error) {
	if req.Format == "" {
		req.Format = design.FormatPDF
	}
	if err := req.Validate(); err != nil {
		p.finish(req, err)
		return design.Session{}, err
	}
	ctx = llm.WithModel(ctx, req.Model)

	state := Result{
		Request: req,
		Session: design.Session{
			Model:       req.Model,
			Format:      req.Format,
			Preferences: req.Preferences,
			InputImages: append([]string(nil), req.Images...),
		},
	}

	for _, stage := range p.Stages() {
		if err := ctx.Err(); err != nil {
			err = apperr.Service("pipeline", "cancelled before "+stage.Name, err)
			p.finish(req, err)
			return design.Session{}, err
		}
		started := p.clock.Now()
		next, err := stage.Run(ctx, state)
		p.metrics.ObserveStage(stage.Name, p.clock.Since(started))
		if err != nil {
			if stage.Fatal {
				p.logger.Error("pipeline stage failed", "stage", stage.Name, "run_id", req.RunID, "error", err)
				p.finish(req, err)
				return design.Session{}, err
			}
			// Non-fatal stages report problems as warnings on the session.
			next = state.withWarning(fmt.Sprintf("%s: %v", stage.Name, err))
		}
		p.metrics.AddWarnings(len(next.Session.Warnings) - len(state.Session.Warnings))
		state = next
	}

	p.finish(req, nil)
	p.progress(req, StageComplete, "Complete!")
	return state.Session, nil
}

func (p *Pipeline) finish(req Request, err error) {
	if err == nil {
		p.metrics.ObserveRun(metrics.OutcomeSuccess, "")
		return
	}
	kind, _ := apperr.KindOf(err)
	p.metrics.ObserveRun(metrics.OutcomeFailure, string(kind))
	p.events.Publish(events.Event{
		RunID: req.RunID,
		Stage: StageComplete,
		Done:  true,
		Error: err.Error(),
		Time:  p.clock.Now(),
	})
}

func (p *Pipeline) progress(req Request, stage, message string) {
	p.events.Publish(events.Event{
		RunID:   req.RunID,
		Stage:   stage,
		Message: message,
		Done:    stage == StageComplete,
		Time:    p.clock.Now(),
	})
}

func (r Result) withWarning(msg string) Result {
	warnings := make([]string, 0, len(r.Session.Warnings)+1)
	warnings = append(warnings, r.Session.Warnings...)
	r.Session.Warnings = append(warnings, msg)
	return r
}
