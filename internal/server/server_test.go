package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"interiordesigner/internal/auth"
	"interiordesigner/internal/events"
	"interiordesigner/internal/metrics"
	"interiordesigner/internal/sessions"
	"interiordesigner/internal/storage"
)

func newRouter(t *testing.T, creds auth.Credentials) http.Handler {
	t.Helper()
	mw, err := auth.NewMiddleware(creds)
	require.NoError(t, err)
	reg := metrics.NewRegistry()
	return Router(Options{
		Sessions: sessions.Handler{
			Store:  storage.NewInMemoryStore(),
			Broker: events.NewBroker(),
		},
		Auth:     mw,
		Metrics:  metrics.NewHTTPMetrics(reg),
		Exporter: metrics.Handler(reg),
	})
}

func TestHealthAndMetricsAreOpen(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	router := newRouter(t, auth.Credentials{User: "u", PasswordHash: string(hash)})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "interior_designer_http_requests_total")
	assert.Contains(t, rec.Body.String(), `status_code="401"`)
}

func TestAPIReachableWithoutAuthConfigured(t *testing.T) {
	router := newRouter(t, auth.Credentials{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Interior Designer")
}

func TestNewConfiguresTimeouts(t *testing.T) {
	srv := New(Options{Port: "8501", Sessions: sessions.Handler{}})
	assert.Equal(t, ":8501", srv.Addr)
	assert.Greater(t, srv.WriteTimeout, srv.ReadTimeout)
	assert.NotNil(t, srv.ErrorLog)
}
