// Package sessions exposes the design pipeline over HTTP: an upload form,
// session creation, the session index, report downloads and progress events.
package sessions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"interiordesigner/internal/apperr"
	"interiordesigner/internal/design"
	"interiordesigner/internal/events"
	"interiordesigner/internal/llm"
	"interiordesigner/internal/media"
	"interiordesigner/internal/pipeline"
	"interiordesigner/internal/report"
	"interiordesigner/internal/storage"
	"interiordesigner/internal/workspace"
)

const (
	maxImageBytes = 10 * 1024 * 1024 // 10 MB
	maxImages     = 5
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (design.Session, error)
}

// Handler bundles dependencies for session endpoints.
type Handler struct {
	Runner        Runner
	Store         storage.Store
	Workspace     *workspace.Workspace
	Staging       media.Uploader
	Broker        *events.Broker
	ImagesEnabled bool
	Logger        *slog.Logger
}

type createRequest struct {
	RunID          string
	Preferences    design.Preferences
	Model          string
	Format         design.Format
	GenerateImages bool
	uploads        []uploadPayload
}

type uploadPayload struct {
	data        []byte
	filename    string
	contentType string
}

// Create handles POST /api/sessions.
func (h Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := parseCreateRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.GenerateImages && !h.ImagesEnabled {
		h.logger().Warn("image generation requested but no provider is configured", "run_id", req.RunID)
		req.GenerateImages = false
	}

	paths, cleanup, err := h.stage(r.Context(), req.uploads)
	defer cleanup()
	if err != nil {
		h.logger().Error("stage uploads failed", "run_id", req.RunID, "error", err)
		http.Error(w, "could not store images", http.StatusInternalServerError)
		return
	}

	session, err := h.Runner.Run(r.Context(), pipeline.Request{
		RunID:          req.RunID,
		Images:         paths,
		Preferences:    req.Preferences,
		Model:          req.Model,
		Format:         req.Format,
		GenerateImages: req.GenerateImages,
	})
	if err != nil {
		h.logger().Error("design run failed", "run_id", req.RunID, "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("X-Run-ID", req.RunID)
	writeJSON(w, http.StatusCreated, session)
}

// List handles GET /api/sessions.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListSessions(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Get handles GET /api/sessions/{id}.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.Store.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Report handles GET /api/sessions/{id}/report.
func (h Handler) Report(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dir, err := h.Workspace.Resolve(id)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	path := ""
	if session, err := h.Store.GetSession(r.Context(), id); err == nil && session.ReportPath != "" {
		path = filepath.Join(dir, filepath.Base(session.ReportPath))
	} else {
		for _, format := range []design.Format{design.FormatPDF, design.FormatMarkdown} {
			candidate := filepath.Join(dir, report.FileName(format))
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		http.Error(w, "report not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+"-"+filepath.Base(path)))
	http.ServeFile(w, r, path)
}

// StreamEvents handles GET /api/events as a server-sent event stream.
// An optional run query parameter limits the stream to one run.
func (h Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	runID := r.URL.Query().Get("run")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.Broker.SubscribeRun(runID)
	defer h.Broker.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: progress\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// stage writes uploads to the staging area and returns their paths. cleanup
// removes whatever was staged and is always safe to call.
func (h Handler) stage(ctx context.Context, uploads []uploadPayload) ([]string, func(), error) {
	paths := make([]string, 0, len(uploads))
	cleanup := func() {
		for _, p := range paths {
			_ = os.Remove(p)
		}
	}
	for _, up := range uploads {
		res, err := h.Staging.Upload(ctx, media.UploadInput{
			Filename:    up.filename,
			ContentType: up.contentType,
			Body:        bytes.NewReader(up.data),
			Size:        int64(len(up.data)),
		})
		if err != nil {
			return nil, cleanup, err
		}
		paths = append(paths, res.Key)
	}
	return paths, cleanup, nil
}

func (h Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func parseCreateRequest(r *http.Request) (createRequest, error) {
	const maxFormMemory = maxImageBytes + (1 << 20)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return createRequest{}, fmt.Errorf("invalid multipart payload: %w", err)
	}

	req := createRequest{
		RunID: strings.TrimSpace(r.FormValue("run_id")),
		Preferences: design.Preferences{
			Style:         strings.TrimSpace(r.FormValue("style")),
			Budget:        strings.ToLower(strings.TrimSpace(r.FormValue("budget"))),
			SpecificNeeds: strings.TrimSpace(r.FormValue("needs")),
		},
		Model:  strings.ToLower(strings.TrimSpace(r.FormValue("model"))),
		Format: design.FormatPDF,
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	if colors := strings.TrimSpace(r.FormValue("colors")); colors != "" {
		for _, c := range strings.Split(colors, ",") {
			if c = strings.TrimSpace(c); c != "" {
				req.Preferences.ColorPreference = append(req.Preferences.ColorPreference, c)
			}
		}
	}
	if err := req.Preferences.Validate(); err != nil {
		return req, err
	}
	if req.Model != "" && !llm.IsKnownModel(req.Model) {
		return req, fmt.Errorf("unknown model %q (available: %s)", req.Model, llm.ModelNames())
	}
	if raw := strings.TrimSpace(r.FormValue("output_format")); raw != "" {
		format, err := design.ParseFormat(raw)
		if err != nil {
			return req, err
		}
		req.Format = format
	}
	if raw := strings.TrimSpace(r.FormValue("generate_images")); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return req, fmt.Errorf("generate_images must be true or false")
		}
		req.GenerateImages = enabled
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		return req, errors.New("at least one image is required")
	}
	if len(files) > maxImages {
		return req, fmt.Errorf("at most %d images per session", maxImages)
	}
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			return req, fmt.Errorf("could not read image: %w", err)
		}
		data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
		file.Close()
		if err != nil {
			return req, fmt.Errorf("read image: %w", err)
		}
		if len(data) > maxImageBytes {
			return req, fmt.Errorf("%s is too large (max %d MB)", header.Filename, maxImageBytes/(1024*1024))
		}
		if len(data) == 0 {
			return req, fmt.Errorf("%s is empty", header.Filename)
		}
		contentType := header.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(data)
		}
		if !strings.HasPrefix(contentType, "image/") {
			return req, fmt.Errorf("%s is not an image", header.Filename)
		}
		req.uploads = append(req.uploads, uploadPayload{
			data:        data,
			filename:    header.Filename,
			contentType: contentType,
		})
	}
	return req, nil
}

// statusFor maps a classified pipeline error to an HTTP status.
func statusFor(err error) int {
	kind, _ := apperr.KindOf(err)
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindConfiguration:
		return http.StatusServiceUnavailable
	case apperr.KindParse, apperr.KindService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
