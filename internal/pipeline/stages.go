package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"interiordesigner/internal/apperr"
	"interiordesigner/internal/design"
	"interiordesigner/internal/metrics"
	"interiordesigner/internal/prompts"
	"interiordesigner/internal/report"
	"interiordesigner/internal/vision"
	"interiordesigner/internal/workspace"
)

func (p *Pipeline) analyze(ctx context.Context, in Result) (Result, error) {
	images := in.Request.Images
	analyses := make([]design.RoomAnalysis, 0, len(images))
	for i, img := range images {
		p.progress(in.Request, StageAnalyze, fmt.Sprintf("Analyzing room %d of %d...", i+1, len(images)))
		abs, err := filepath.Abs(img)
		if err != nil {
			return in, apperr.IO("pipeline", "resolve "+img, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return in, apperr.IO("pipeline", "image "+img, err)
		}
		analysis, err := p.analyzer.AnalyzeRoom(ctx, abs, in.Request.Preferences)
		if err != nil {
			return in, err
		}
		analyses = append(analyses, analysis)
	}
	out := in
	out.Session.Analyses = analyses
	return out, nil
}

func (p *Pipeline) recommend(ctx context.Context, in Result) (Result, error) {
	var all []design.Recommendation
	for i, analysis := range in.Session.Analyses {
		p.progress(in.Request, StageRecommend, fmt.Sprintf("Generating recommendations for room %d...", i+1))
		recs, err := p.analyzer.Recommend(ctx, analysis, in.Request.Preferences)
		if err != nil {
			return in, err
		}
		all = append(all, recs...)
	}
	out := in
	out.Session.Recommendations = design.SortByPriority(all)
	return out, nil
}

func (p *Pipeline) summarize(ctx context.Context, in Result) (Result, error) {
	p.progress(in.Request, StageSummarize, "Generating summary...")
	var first design.RoomAnalysis
	if len(in.Session.Analyses) > 0 {
		first = in.Session.Analyses[0]
	}
	summary, err := p.analyzer.Summarize(ctx, first, in.Session.Recommendations, in.Request.Preferences)
	if err != nil {
		return in, err
	}
	out := in
	out.Session.Summary = summary
	return out, nil
}

func (p *Pipeline) prepareWorkspace(_ context.Context, in Result) (Result, error) {
	p.progress(in.Request, StageWorkspace, "Creating session...")
	ws, err := p.workspace.Create()
	if err != nil {
		return in, err
	}
	originals := make([]string, 0, len(in.Request.Images))
	for i, img := range in.Request.Images {
		rel, err := ws.CopyOriginal(img, i)
		if err != nil {
			return in, err
		}
		originals = append(originals, rel)
	}

	out := in
	out.Workspace = ws
	out.Session.ID = ws.ID
	out.Session.CreatedAt = ws.CreatedAt
	out.Session.Dir = ws.Path
	out.Session.OriginalImages = originals
	p.logger.Info("session created", "session_id", ws.ID, "dir", ws.Path, "run_id", in.Request.RunID)
	return out, nil
}

// eligible returns the indexes of recommendations that should get a
// visualization.
func (p *Pipeline) eligible(recs []design.Recommendation) []int {
	var idx []int
	for i, rec := range recs {
		if rec.ImageEditPrompt != "" && rec.Priority.AtLeast(p.minPriority) {
			idx = append(idx, i)
		}
	}
	return idx
}

func (p *Pipeline) visualize(ctx context.Context, in Result) (Result, error) {
	if !in.Request.GenerateImages {
		return in, nil
	}
	if p.editor == nil {
		p.logger.Warn("image generation requested but no image provider is configured", "run_id", in.Request.RunID)
		return in, nil
	}
	targets := p.eligible(in.Session.Recommendations)
	if len(targets) == 0 {
		return in, nil
	}

	base, err := vision.PrepareImage(in.Request.Images[0], vision.MaxImageDimension)
	if err != nil {
		return in, err
	}

	out := in
	generated := append([]design.GeneratedImage(nil), in.Session.GeneratedImages...)
	for n, i := range targets {
		if err := ctx.Err(); err != nil {
			return out, apperr.Service("pipeline", "image generation cancelled", err)
		}
		rec := in.Session.Recommendations[i]
		p.progress(in.Request, StageVisualize, fmt.Sprintf("Generating visualization %d of %d (%s)...", n+1, len(targets), rec.Title()))

		started := p.clock.Now()
		result, err := p.editor.Edit(ctx, vision.EditRequest{
			Image:  base,
			MIME:   "image/jpeg",
			Prompt: prompts.ImageEdit(rec.ImageEditPrompt),
		})
		if err != nil {
			p.metrics.ObserveImage(p.provider, metrics.OutcomeFailure, p.clock.Since(started))
			p.logger.Warn("image generation failed", "recommendation", i+1, "category", rec.Category, "error", err)
			out = out.withWarning(fmt.Sprintf("image generation failed for recommendation %d (%s): %v", i+1, rec.Category, err))
			continue
		}
		p.metrics.ObserveImage(p.provider, metrics.OutcomeSuccess, p.clock.Since(started))

		rel, err := in.Workspace.WriteGenerated(workspace.GeneratedName(i, rec.Category, result.Extension()), result.Data)
		if err != nil {
			out = out.withWarning(fmt.Sprintf("could not save visualization for recommendation %d (%s): %v", i+1, rec.Category, err))
			continue
		}
		generated = append(generated, design.GeneratedImage{
			Recommendation: i,
			Path:           rel,
			MIME:           result.MIME,
			PromptUsed:     rec.ImageEditPrompt,
			Description:    fmt.Sprintf("%s - %s", rec.Title(), design.Truncate(rec.Description, 50)),
		})
	}
	out.Session.GeneratedImages = generated
	return out, nil
}

func (p *Pipeline) renderReport(_ context.Context, in Result) (Result, error) {
	p.progress(in.Request, StageRender, "Saving report...")
	path, err := p.render(in.Session, in.Request.Format)
	if err != nil {
		return in, err
	}
	out := in
	out.Session.ReportPath = path
	return out, nil
}

func (p *Pipeline) archive(ctx context.Context, in Result) (Result, error) {
	if p.archiver == nil {
		return in, nil
	}
	p.progress(in.Request, StageArchive, "Archiving session files...")
	files := []string{report.FileName(in.Request.Format), report.AnalysisFile}
	files = append(files, in.Session.OriginalImages...)
	for _, img := range in.Session.GeneratedImages {
		files = append(files, img.Path)
	}
	urls, err := p.archiver.Archive(ctx, in.Session.ID, in.Session.Dir, files)
	if err != nil {
		return in, err
	}
	out := in
	out.Session.ArchiveURLs = urls
	return out, nil
}

func (p *Pipeline) record(ctx context.Context, in Result) (Result, error) {
	if p.recorder == nil {
		return in, nil
	}
	if err := p.recorder.SaveSession(ctx, in.Session); err != nil {
		return in, err
	}
	return in, nil
}
