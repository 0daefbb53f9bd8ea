package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"interiordesigner/internal/apperr"
	"interiordesigner/internal/design"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	openRouterReferer        = "https://interior-designer.local"
	openRouterTitle          = "Interior Designer AI"
)

// OpenRouterEditor edits images through OpenRouter's chat completions API
// using a model with image output.
type OpenRouterEditor struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *slog.Logger
	enabled bool
}

// NewOpenRouterEditor constructs an editor authenticating with apiKey.
func NewOpenRouterEditor(apiKey, model, baseURL string, timeout time.Duration, logger *slog.Logger) *OpenRouterEditor {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	apiKey = strings.TrimSpace(apiKey)
	transport := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey}),
		Base:   http.DefaultTransport,
	}
	return &OpenRouterEditor{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   strings.TrimSpace(model),
		client:  &http.Client{Timeout: timeout, Transport: transport},
		logger:  logger,
		enabled: apiKey != "" && apiKey != "sk-or-...",
	}
}

type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
	B64JSON  string        `json:"b64_json,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Modalities []string      `json:"modalities"`
}

type chatMessage struct {
	Role    string            `json:"role"`
	Content []chatContentPart `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
			Images  []struct {
				Type     string       `json:"type"`
				ImageURL chatImageURL `json:"image_url"`
			} `json:"images"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Edit sends the base image and prompt and returns the first image in the
// response.
func (e *OpenRouterEditor) Edit(ctx context.Context, req EditRequest) (ImageResult, error) {
	if e == nil || !e.enabled {
		return ImageResult{}, apperr.Configuration("openrouter", "OPENROUTER_API_KEY is not configured")
	}
	if err := req.validate("openrouter"); err != nil {
		return ImageResult{}, err
	}

	body, err := json.Marshal(chatRequest{
		Model: e.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatContentPart{
				{Type: "text", Text: req.Prompt},
				{Type: "image_url", ImageURL: &chatImageURL{URL: dataURL(req.mime(), req.Image)}},
			},
		}},
		Modalities: []string{"image", "text"},
	})
	if err != nil {
		return ImageResult{}, apperr.Service("openrouter", "encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return ImageResult{}, apperr.Service("openrouter", "build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("HTTP-Referer", openRouterReferer)
	httpReq.Header.Set("X-Title", openRouterTitle)

	start := time.Now()
	resp, err := e.client.Do(httpReq)
	if err != nil {
		return ImageResult{}, apperr.Service("openrouter", "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ImageResult{}, apperr.Service("openrouter", "read response", err)
	}
	if resp.StatusCode >= 300 {
		return ImageResult{}, apperr.Service("openrouter", fmt.Sprintf("status %d: %s", resp.StatusCode, design.Truncate(strings.TrimSpace(string(raw)), 300)), nil)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ImageResult{}, apperr.Service("openrouter", "decode response", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return ImageResult{}, apperr.Service("openrouter", parsed.Error.Message, nil)
	}

	result, ok := extractImage(parsed)
	if !ok {
		return ImageResult{}, apperr.Service("openrouter", fmt.Sprintf("could not extract image from response (model %s): %s", e.model, design.Truncate(string(raw), 500)), nil)
	}
	e.logger.Debug("openrouter image generated", "model", e.model, "bytes", len(result.Data), "elapsed", time.Since(start))
	return result, nil
}

func extractImage(resp chatResponse) (ImageResult, bool) {
	for _, choice := range resp.Choices {
		for _, img := range choice.Message.Images {
			if data, mime, err := decodeDataURL(img.ImageURL.URL); err == nil {
				return ImageResult{Data: data, MIME: mime}, true
			}
		}

		var parts []chatContentPart
		if len(choice.Message.Content) == 0 || json.Unmarshal(choice.Message.Content, &parts) != nil {
			continue
		}
		for _, part := range parts {
			switch part.Type {
			case "image_url":
				if part.ImageURL == nil {
					continue
				}
				if data, mime, err := decodeDataURL(part.ImageURL.URL); err == nil {
					return ImageResult{Data: data, MIME: mime}, true
				}
			case "image":
				if part.B64JSON == "" {
					continue
				}
				if data, err := base64.StdEncoding.DecodeString(part.B64JSON); err == nil {
					return ImageResult{Data: data, MIME: "image/png"}, true
				}
			}
		}
	}
	return ImageResult{}, false
}
