package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"interiordesigner/internal/apperr"
	"interiordesigner/internal/config"
)

// ImageEditor produces an edited version of a room photo.
type ImageEditor interface {
	Edit(ctx context.Context, req EditRequest) (ImageResult, error)
}

// EditRequest is a base image plus the full edit prompt.
type EditRequest struct {
	Image  []byte
	MIME   string
	Prompt string
}

// ImageResult is a rendered image payload.
type ImageResult struct {
	Data []byte
	MIME string
}

// Extension returns the file extension matching the result's MIME type.
func (r ImageResult) Extension() string {
	switch strings.ToLower(r.MIME) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func (r EditRequest) validate(op string) error {
	if len(r.Image) == 0 {
		return apperr.Configuration(op, "base image is required")
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return apperr.Configuration(op, "edit prompt is required")
	}
	return nil
}

func (r EditRequest) mime() string {
	if strings.TrimSpace(r.MIME) == "" {
		return "image/jpeg"
	}
	return r.MIME
}

// NewEditor builds the editor for the configured provider. It returns a
// configuration error when the provider lacks credentials.
func NewEditor(ctx context.Context, cfg config.ImageConfig, logger *slog.Logger) (ImageEditor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiEditor(cfg.GeminiAPIKey, cfg.GeminiModel, timeout), nil
	case config.ProviderVertex:
		return NewVertexEditor(ctx, VertexConfig{
			ProjectID:       cfg.VertexProjectID,
			Location:        cfg.VertexLocation,
			Model:           cfg.VertexModel,
			CredentialsFile: cfg.VertexCredentialsFile,
		}, timeout)
	case config.ProviderOpenRouter, "":
		return NewOpenRouterEditor(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.OpenRouterBaseURL, timeout, logger), nil
	}
	return nil, apperr.Configuration("vision", fmt.Sprintf("unknown image provider %q", cfg.Provider))
}

// decodeDataURL splits a data: URL into its MIME type and decoded bytes.
func decodeDataURL(raw string) ([]byte, string, error) {
	if !strings.HasPrefix(raw, "data:") {
		return nil, "", fmt.Errorf("not a data URL")
	}
	header, payload, ok := strings.Cut(raw, ",")
	if !ok {
		return nil, "", fmt.Errorf("invalid data URL")
	}
	mime := strings.TrimPrefix(header, "data:")
	mime, _, _ = strings.Cut(mime, ";")
	if mime == "" {
		mime = "image/png"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode data URL: %w", err)
	}
	return data, mime, nil
}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
