package cli

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"interiordesigner/internal/config"
	"interiordesigner/internal/design"
	"interiordesigner/internal/events"
	"interiordesigner/internal/llm"
	"interiordesigner/internal/media"
	"interiordesigner/internal/metrics"
	"interiordesigner/internal/pipeline"
	"interiordesigner/internal/report"
	"interiordesigner/internal/storage"
	"interiordesigner/internal/vision"
	"interiordesigner/internal/workspace"
)

// app holds the components shared by analyze and serve.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	workspace *workspace.Workspace
	store     storage.Store
	broker    *events.Broker
	registry  *prometheus.Registry
	pipeline  *pipeline.Pipeline
}

// newApp wires the pipeline from configuration. The caller must Close it.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	if err := cfg.RequireClaude(); err != nil {
		return nil, err
	}

	var editor vision.ImageEditor
	if cfg.ImageGenerationEnabled() {
		ed, err := vision.NewEditor(ctx, cfg.Images, logger)
		if err != nil {
			return nil, err
		}
		editor = ed
		logger.Info("image editor ready", "provider", cfg.Images.Provider)
	} else {
		logger.Info("image generation disabled", "reason", cfg.RequireImages())
	}

	store, err := storage.NewStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		Analyzer:    vision.NewAnalyzer(llm.NewClaudeCLI(cfg.Claude.Binary, cfg.Claude.Model, cfg.Claude.Timeout, logger), logger),
		Editor:      editor,
		Provider:    cfg.Images.Provider,
		MinPriority: design.Priority(cfg.Images.MinPriority),
		Workspace:   workspace.New(cfg.OutputDir, clockwork.NewRealClock()),
		Render:      report.Save,
		Recorder:    store,
		Clock:       clockwork.NewRealClock(),
		Logger:      logger,
	}

	if cfg.ArchiveEnabled() {
		uploader, err := media.NewUploader(ctx, mediaConfig(cfg.Media))
		if err != nil {
			store.Close()
			return nil, err
		}
		if archiver := media.NewArchiver(uploader); archiver != nil {
			opts.Archiver = archiver
			logger.Info("session archive ready", "bucket", cfg.Media.Bucket)
		}
	}

	broker := events.NewBroker()
	registry := metrics.NewRegistry()
	opts.Events = broker
	opts.Metrics = metrics.NewPipelineMetrics(registry)

	p, err := pipeline.New(opts)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		workspace: opts.Workspace,
		store:     store,
		broker:    broker,
		registry:  registry,
		pipeline:  p,
	}, nil
}

// Close releases the session index.
func (a *app) Close() {
	a.store.Close()
}

func mediaConfig(m config.MediaConfig) media.Config {
	return media.Config{
		Bucket:         m.Bucket,
		Region:         m.Region,
		Endpoint:       m.Endpoint,
		PublicURL:      m.PublicURL,
		KeyPrefix:      m.KeyPrefix,
		ForcePathStyle: m.ForcePathStyle,

		AccessKeyID:     m.AccessKeyID,
		SecretAccessKey: m.SecretAccessKey,
	}
}
