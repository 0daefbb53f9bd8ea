package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interiordesigner/internal/apperr"
	"interiordesigner/internal/design"
	"interiordesigner/internal/events"
	"interiordesigner/internal/llm"
	"interiordesigner/internal/metrics"
	"interiordesigner/internal/report"
	"interiordesigner/internal/vision"
	"interiordesigner/internal/workspace"
)

type fakeAnalyzer struct {
	analyzeErr error
	recs       []design.Recommendation
	summary    string
	calls      []string
	models     []string
}

func (f *fakeAnalyzer) AnalyzeRoom(ctx context.Context, imagePath string, _ design.Preferences) (design.RoomAnalysis, error) {
	f.calls = append(f.calls, "analyze:"+filepath.Base(imagePath))
	f.models = append(f.models, llm.ModelFromContext(ctx))
	if f.analyzeErr != nil {
		return design.RoomAnalysis{}, f.analyzeErr
	}
	return design.RoomAnalysis{RoomType: "living room", Style: "modern"}, nil
}

func (f *fakeAnalyzer) Recommend(_ context.Context, _ design.RoomAnalysis, _ design.Preferences) ([]design.Recommendation, error) {
	f.calls = append(f.calls, "recommend")
	return f.recs, nil
}

func (f *fakeAnalyzer) Summarize(_ context.Context, _ design.RoomAnalysis, recs []design.Recommendation, _ design.Preferences) (string, error) {
	f.calls = append(f.calls, "summarize")
	if f.summary == "" {
		return "A bright room with potential.", nil
	}
	return f.summary, nil
}

type fakeEditor struct {
	mu      sync.Mutex
	failOn  string
	prompts []string
}

func (f *fakeEditor) Edit(_ context.Context, req vision.EditRequest) (vision.ImageResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, req.Prompt)
	if f.failOn != "" && strings.Contains(req.Prompt, f.failOn) {
		return vision.ImageResult{}, apperr.Service("openrouter", "status 500: upstream error", nil)
	}
	return vision.ImageResult{Data: []byte("fake-png"), MIME: "image/png"}, nil
}

type fakeArchiver struct {
	files []string
	err   error
}

func (f *fakeArchiver) Archive(_ context.Context, _ string, _ string, files []string) ([]string, error) {
	f.files = files
	if f.err != nil {
		return nil, f.err
	}
	return []string{"s3://bucket/" + files[0]}, nil
}

type fakeRecorder struct {
	saved []design.Session
}

func (f *fakeRecorder) SaveSession(_ context.Context, s design.Session) error {
	f.saved = append(f.saved, s)
	return nil
}

func sampleRecs() []design.Recommendation {
	return []design.Recommendation{
		{Category: "decor", Priority: design.PriorityLow, Description: "Add plants", ImageEditPrompt: "add plants"},
		{Category: "lighting", Priority: design.PriorityHigh, Description: "Add a floor lamp", ImageEditPrompt: "add a brass floor lamp"},
		{Category: "colors", Priority: design.PriorityMedium, Description: "Paint accent wall", ImageEditPrompt: "paint the back wall sage"},
		{Category: "furniture", Priority: design.PriorityHigh, Description: "Swap the sofa", ImageEditPrompt: "replace the sofa"},
		{Category: "storage", Priority: design.PriorityHigh, Description: "Add shelving"},
	}
}

func writeRoomImage(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 48))))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

type harness struct {
	pipeline *Pipeline
	analyzer *fakeAnalyzer
	editor   *fakeEditor
	archiver *fakeArchiver
	recorder *fakeRecorder
	metrics  *metrics.PipelineMetrics
	root     string
	image    string
	events   []events.Event
	mu       sync.Mutex
}

func newHarness(t *testing.T, withEditor bool) *harness {
	t.Helper()
	h := &harness{
		analyzer: &fakeAnalyzer{recs: sampleRecs()},
		editor:   &fakeEditor{},
		recorder: &fakeRecorder{},
		metrics:  metrics.NewPipelineMetrics(prometheus.NewRegistry()),
		root:     filepath.Join(t.TempDir(), "output"),
		image:    writeRoomImage(t, t.TempDir(), "room.png"),
	}
	clock := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))
	opts := Options{
		Analyzer:  h.analyzer,
		Provider:  "openrouter",
		Workspace: workspace.New(h.root, clock),
		Render:    report.Save,
		Recorder:  h.recorder,
		Events: events.PublisherFunc(func(e events.Event) {
			h.mu.Lock()
			h.events = append(h.events, e)
			h.mu.Unlock()
		}),
		Metrics: h.metrics,
		Clock:   clock,
	}
	if withEditor {
		opts.Editor = h.editor
	}
	p, err := New(opts)
	require.NoError(t, err)
	h.pipeline = p
	return h
}

func (h *harness) request(format design.Format, images bool) Request {
	return Request{
		RunID:          "run-1",
		Images:         []string{h.image},
		Preferences:    design.Preferences{Style: "modern", Budget: "medium"},
		Format:         format,
		GenerateImages: images,
	}
}

func TestRunMarkdownWithoutImages(t *testing.T) {
	h := newHarness(t, true)

	session, err := h.pipeline.Run(context.Background(), h.request(design.FormatMarkdown, false))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(session.Dir, report.MarkdownFile), session.ReportPath)
	assert.FileExists(t, session.ReportPath)
	assert.FileExists(t, filepath.Join(session.Dir, report.AnalysisFile))
	assert.NoFileExists(t, filepath.Join(session.Dir, report.PDFFile))

	entries, err := os.ReadDir(filepath.Join(session.Dir, workspace.GeneratedDir))
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, h.editor.prompts)
	assert.Empty(t, session.GeneratedImages)
	assert.Empty(t, session.Warnings)

	assert.Equal(t, []string{filepath.Join(workspace.OriginalDir, "room.png")}, session.OriginalImages)
	assert.FileExists(t, filepath.Join(session.Dir, workspace.OriginalDir, "room.png"))

	md, err := os.ReadFile(session.ReportPath)
	require.NoError(t, err)
	text := string(md)
	var last int
	for i, rec := range session.Recommendations {
		heading := "### " + string(rune('1'+i)) + ". " + rec.Title()
		pos := strings.Index(text, heading)
		require.Greater(t, pos, last, "section %q out of order", heading)
		last = pos
	}
}

func TestRunOrdersRecommendationsByPriority(t *testing.T) {
	h := newHarness(t, false)

	session, err := h.pipeline.Run(context.Background(), h.request(design.FormatMarkdown, false))
	require.NoError(t, err)

	var got []string
	for _, r := range session.Recommendations {
		got = append(got, r.Category)
	}
	assert.Equal(t, []string{"lighting", "furniture", "storage", "colors", "decor"}, got)
}

func TestRunParseErrorWritesNothing(t *testing.T) {
	h := newHarness(t, true)
	h.analyzer.analyzeErr = apperr.Parse("vision", "failed to parse room analysis", errors.New("invalid character"))

	_, err := h.pipeline.Run(context.Background(), h.request(design.FormatPDF, true))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindParse))

	_, statErr := os.Stat(h.root)
	assert.True(t, os.IsNotExist(statErr), "no output directory should be created")
	assert.Empty(t, h.recorder.saved)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.RunsTotal.WithLabelValues(metrics.OutcomeFailure, "parse")))

	last := h.events[len(h.events)-1]
	assert.True(t, last.Done)
	assert.NotEmpty(t, last.Error)
}

func TestRunImageFailureIsNonFatal(t *testing.T) {
	h := newHarness(t, true)
	h.editor.failOn = "brass floor lamp"

	session, err := h.pipeline.Run(context.Background(), h.request(design.FormatMarkdown, true))
	require.NoError(t, err)

	// lighting (index 0) failed, furniture (index 1) succeeded; storage has no prompt.
	require.Len(t, h.editor.prompts, 2)
	require.Len(t, session.GeneratedImages, 1)
	img := session.GeneratedImages[0]
	assert.Equal(t, 1, img.Recommendation)
	assert.Equal(t, filepath.Join(workspace.GeneratedDir, "rec-02-furniture.png"), img.Path)
	assert.Equal(t, "replace the sofa", img.PromptUsed)
	assert.FileExists(t, filepath.Join(session.Dir, img.Path))

	require.Len(t, session.Warnings, 1)
	assert.Contains(t, session.Warnings[0], "recommendation 1 (lighting)")

	md, err := os.ReadFile(session.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "### 1. Lighting")
	assert.Contains(t, string(md), "![Furniture visualization](generated/rec-02-furniture.png)")
	assert.Contains(t, string(md), "## Notes")

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ImageCalls.WithLabelValues("openrouter", metrics.OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.ImageCalls.WithLabelValues("openrouter", metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Warnings))
}

func TestRunMinPriorityWidensEligibility(t *testing.T) {
	h := newHarness(t, true)
	h.pipeline.minPriority = design.PriorityMedium

	session, err := h.pipeline.Run(context.Background(), h.request(design.FormatMarkdown, true))
	require.NoError(t, err)
	assert.Len(t, session.GeneratedImages, 3)
	for _, p := range h.editor.prompts {
		assert.Contains(t, p, "Keep the room structure")
		assert.NotContains(t, p, "add plants")
	}
}

func TestRunWithoutEditorSkipsVisualization(t *testing.T) {
	h := newHarness(t, false)

	session, err := h.pipeline.Run(context.Background(), h.request(design.FormatMarkdown, true))
	require.NoError(t, err)
	assert.Empty(t, session.GeneratedImages)
	assert.False(t, h.pipeline.ImagesEnabled())
}

func TestRunPDF(t *testing.T) {
	h := newHarness(t, true)

	session, err := h.pipeline.Run(context.Background(), h.request(design.FormatPDF, false))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(session.Dir, report.PDFFile), session.ReportPath)
	data, err := os.ReadFile(session.ReportPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestRunArchivesAndRecords(t *testing.T) {
	h := newHarness(t, true)
	h.archiver = &fakeArchiver{}
	h.pipeline.archiver = h.archiver

	session, err := h.pipeline.Run(context.Background(), h.request(design.FormatMarkdown, false))
	require.NoError(t, err)

	assert.Equal(t, []string{report.MarkdownFile, report.AnalysisFile, filepath.Join(workspace.OriginalDir, "room.png")}, h.archiver.files)
	assert.Equal(t, []string{"s3://bucket/report.md"}, session.ArchiveURLs)
	require.Len(t, h.recorder.saved, 1)
	assert.Equal(t, session.ID, h.recorder.saved[0].ID)
}

func TestRunArchiveFailureIsWarning(t *testing.T) {
	h := newHarness(t, true)
	h.pipeline.archiver = &fakeArchiver{err: errors.New("access denied")}

	session, err := h.pipeline.Run(context.Background(), h.request(design.FormatMarkdown, false))
	require.NoError(t, err)
	require.Len(t, session.Warnings, 1)
	assert.Equal(t, "archive: access denied", session.Warnings[0])
}

func TestRunPublishesStageEvents(t *testing.T) {
	h := newHarness(t, true)

	_, err := h.pipeline.Run(context.Background(), h.request(design.FormatMarkdown, true))
	require.NoError(t, err)

	var stages []string
	for _, e := range h.events {
		assert.Equal(t, "run-1", e.RunID)
		if len(stages) == 0 || stages[len(stages)-1] != e.Stage {
			stages = append(stages, e.Stage)
		}
	}
	assert.Equal(t, []string{StageAnalyze, StageRecommend, StageSummarize, StageWorkspace, StageVisualize, StageRender, StageComplete}, stages)
	assert.True(t, h.events[len(h.events)-1].Done)
}

func TestRunPassesModelOverride(t *testing.T) {
	h := newHarness(t, false)
	req := h.request(design.FormatMarkdown, false)
	req.Model = "Opus"

	_, err := h.pipeline.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"opus"}, h.analyzer.models)
}

func TestRequestValidate(t *testing.T) {
	h := newHarness(t, false)
	cases := map[string]func(*Request){
		"no images":     func(r *Request) { r.Images = nil },
		"bad budget":    func(r *Request) { r.Preferences.Budget = "unlimited" },
		"unknown model": func(r *Request) { r.Model = "gpt" },
		"bad format":    func(r *Request) { r.Format = "docx" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := h.request(design.FormatMarkdown, false)
			mutate(&req)
			_, err := h.pipeline.Run(context.Background(), req)
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation), "got %v", err)
		})
	}
	assert.Empty(t, h.analyzer.calls)
}

func TestRunMissingImageIsIOError(t *testing.T) {
	h := newHarness(t, false)
	req := h.request(design.FormatMarkdown, false)
	req.Images = []string{filepath.Join(t.TempDir(), "nope.jpg")}

	_, err := h.pipeline.Run(context.Background(), req)
	assert.True(t, apperr.IsKind(err, apperr.KindIO))
}

func TestRunCancelledContext(t *testing.T) {
	h := newHarness(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.pipeline.Run(ctx, h.request(design.FormatMarkdown, false))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindService))
	assert.Empty(t, h.analyzer.calls)
}

func TestStagesOrder(t *testing.T) {
	h := newHarness(t, false)
	var names []string
	for _, s := range h.pipeline.Stages() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{StageAnalyze, StageRecommend, StageSummarize, StageWorkspace, StageVisualize, StageRender, StageArchive, StageRecord}, names)
}

func TestWithWarningDoesNotAlias(t *testing.T) {
	warnings := make([]string, 1, 4)
	warnings[0] = "first"
	in := Result{Session: design.Session{Warnings: warnings}}

	a := in.withWarning("a")
	b := in.withWarning("b")

	assert.Equal(t, []string{"first"}, in.Session.Warnings)
	assert.Equal(t, []string{"first", "a"}, a.Session.Warnings)
	assert.Equal(t, []string{"first", "b"}, b.Session.Warnings)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.True(t, apperr.IsKind(err, apperr.KindConfiguration))
	_, err = New(Options{Analyzer: &fakeAnalyzer{}})
	assert.True(t, apperr.IsKind(err, apperr.KindConfiguration))
	_, err = New(Options{Analyzer: &fakeAnalyzer{}, Workspace: workspace.New(t.TempDir(), nil)})
	assert.True(t, apperr.IsKind(err, apperr.KindConfiguration))
}
