// Package server assembles the HTTP router for the web UI and API.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"interiordesigner/internal/auth"
	"interiordesigner/internal/metrics"
	"interiordesigner/internal/sessions"
)

// Options carries what the router needs.
type Options struct {
	Port     string
	Sessions sessions.Handler
	Auth     auth.Middleware
	Metrics  *metrics.HTTPMetrics
	Exporter http.Handler
	Logger   *slog.Logger
}

// New constructs the HTTP server with routes and middleware. Pipeline runs
// happen inside the request, so the write timeout covers a full run.
func New(opts Options) *http.Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	srv := &http.Server{
		Addr:         ":" + opts.Port,
		Handler:      Router(opts),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	logger.Info("server ready", "addr", srv.Addr)
	return srv
}

// Router builds the chi router on its own so tests can serve it directly.
func Router(opts Options) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(opts.Logger))
	router.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
	}

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	if opts.Exporter != nil {
		router.Handle("/metrics", opts.Exporter)
	}

	h := opts.Sessions
	router.Group(func(r chi.Router) {
		r.Use(opts.Auth.Require)
		r.Get("/", h.Index)
		r.Post("/logout", opts.Auth.Logout)
		r.Route("/api", func(r chi.Router) {
			r.Route("/sessions", func(r chi.Router) {
				r.Get("/", h.List)
				r.Post("/", h.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Get)
					r.Get("/report", h.Report)
				})
			})
			r.Get("/events", h.StreamEvents)
		})
	})

	return router
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
