package vision

import (
	"context"
	"strings"
	"time"

	"google.golang.org/genai"

	"interiordesigner/internal/apperr"
)

const defaultGeminiImageModel = "gemini-2.5-flash-image"

// GeminiEditor edits images with a Gemini model that returns inline image
// parts.
type GeminiEditor struct {
	apiKey  string
	model   string
	timeout time.Duration
	baseURL string
}

// NewGeminiEditor constructs an editor for the Gemini API.
func NewGeminiEditor(apiKey, model string, timeout time.Duration) *GeminiEditor {
	if strings.TrimSpace(model) == "" {
		model = defaultGeminiImageModel
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &GeminiEditor{
		apiKey:  strings.TrimSpace(apiKey),
		model:   strings.TrimPrefix(strings.TrimSpace(model), "models/"),
		timeout: timeout,
	}
}

// Edit sends the prompt and base image and returns the first inline image.
func (g *GeminiEditor) Edit(ctx context.Context, req EditRequest) (ImageResult, error) {
	if g == nil || g.apiKey == "" {
		return ImageResult{}, apperr.Configuration("gemini", "GEMINI_API_KEY is not configured")
	}
	if err := req.validate("gemini"); err != nil {
		return ImageResult{}, err
	}

	childCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	clientCfg := &genai.ClientConfig{APIKey: g.apiKey, Backend: genai.BackendGeminiAPI}
	if g.baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}
	client, err := genai.NewClient(childCtx, clientCfg)
	if err != nil {
		return ImageResult{}, apperr.Service("gemini", "create client", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(req.Prompt),
			genai.NewPartFromBytes(req.Image, req.mime()),
		}, genai.RoleUser),
	}
	resp, err := client.Models.GenerateContent(childCtx, g.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return ImageResult{}, apperr.Service("gemini", "generate content", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ImageResult{}, apperr.Service("gemini", "response has no candidates", nil)
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mime := part.InlineData.MIMEType
		if strings.TrimSpace(mime) == "" {
			mime = "image/png"
		}
		return ImageResult{Data: part.InlineData.Data, MIME: mime}, nil
	}
	return ImageResult{}, apperr.Service("gemini", "response contained no image data", nil)
}
