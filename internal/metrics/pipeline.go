package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// PipelineMetrics tracks analysis runs and their stages.
type PipelineMetrics struct {
	RunsTotal     *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	ImageCalls    *prometheus.CounterVec
	ImageDuration *prometheus.HistogramVec
	Warnings      prometheus.Counter
}

// NewPipelineMetrics creates and registers pipeline metrics on reg.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome and failing error kind.",
		}, []string{"outcome", "kind"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds.",
			Buckets:   []float64{.01, .1, .5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"stage"}),
		ImageCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "images",
			Name:      "calls_total",
			Help:      "Image generation calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ImageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "images",
			Name:      "call_duration_seconds",
			Help:      "Image generation call latency in seconds.",
			Buckets:   []float64{1, 5, 10, 20, 40, 60, 120},
		}, []string{"provider"}),
		Warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "warnings_total",
			Help:      "Non-fatal problems recorded on sessions.",
		}),
	}
	reg.MustRegister(m.RunsTotal, m.StageDuration, m.ImageCalls, m.ImageDuration, m.Warnings)
	return m
}

// ObserveRun records a finished run. kind is empty on success.
func (m *PipelineMetrics) ObserveRun(outcome, kind string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome, kind).Inc()
}

// ObserveStage records how long stage took.
func (m *PipelineMetrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveImage records one image generation call.
func (m *PipelineMetrics) ObserveImage(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ImageCalls.WithLabelValues(provider, outcome).Inc()
	if outcome != OutcomeSkipped {
		m.ImageDuration.WithLabelValues(provider).Observe(d.Seconds())
	}
}

// AddWarnings counts n newly recorded warnings.
func (m *PipelineMetrics) AddWarnings(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Warnings.Add(float64(n))
}
