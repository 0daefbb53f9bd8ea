package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)

	m.ObserveRun(OutcomeSuccess, "")
	m.ObserveRun(OutcomeFailure, "parse")
	m.ObserveRun(OutcomeFailure, "parse")
	m.ObserveStage("analyze", 2*time.Second)
	m.ObserveImage("openrouter", OutcomeSuccess, time.Second)
	m.ObserveImage("openrouter", OutcomeFailure, time.Second)
	m.ObserveImage("openrouter", OutcomeSkipped, 0)
	m.AddWarnings(2)
	m.AddWarnings(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(OutcomeSuccess, "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues(OutcomeFailure, "parse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImageCalls.WithLabelValues("openrouter", OutcomeSkipped)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Warnings))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration))

	expected := `
# HELP interior_designer_images_calls_total Image generation calls by provider and outcome.
# TYPE interior_designer_images_calls_total counter
interior_designer_images_calls_total{outcome="failure",provider="openrouter"} 1
interior_designer_images_calls_total{outcome="skipped",provider="openrouter"} 1
interior_designer_images_calls_total{outcome="success",provider="openrouter"} 1
`
	require.NoError(t, testutil.CollectAndCompare(m.ImageCalls, strings.NewReader(expected)))
}

func TestNilPipelineMetricsIsSafe(t *testing.T) {
	var m *PipelineMetrics
	m.ObserveRun(OutcomeSuccess, "")
	m.ObserveStage("render", time.Millisecond)
	m.ObserveImage("gemini", OutcomeFailure, time.Millisecond)
	m.AddWarnings(1)
}

func TestHTTPMiddlewareUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/sessions/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {})

	for _, path := range []string{"/api/sessions/a", "/api/sessions/b", "/metrics"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/sessions/{id}", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlightGauge))
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := NewRegistry()
	NewPipelineMetrics(reg).ObserveRun(OutcomeSuccess, "")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "interior_designer_pipeline_runs_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
