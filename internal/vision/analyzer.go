package vision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"interiordesigner/internal/apperr"
	"interiordesigner/internal/design"
	"interiordesigner/internal/llm"
	"interiordesigner/internal/prompts"
)

const excerptLength = 500

// Analyzer turns room photos into structured analyses, recommendations and
// a written summary using a language model client.
type Analyzer struct {
	client llm.Client
	logger *slog.Logger
}

// NewAnalyzer constructs an analyzer backed by the given client.
func NewAnalyzer(client llm.Client, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{client: client, logger: logger}
}

// AnalyzeRoom asks the model to read imagePath and describe the room.
func (a *Analyzer) AnalyzeRoom(ctx context.Context, imagePath string, prefs design.Preferences) (design.RoomAnalysis, error) {
	if a == nil || a.client == nil {
		return design.RoomAnalysis{}, apperr.Configuration("vision", "analyzer unavailable")
	}
	if strings.TrimSpace(imagePath) == "" {
		return design.RoomAnalysis{}, apperr.Configuration("vision", "image path required")
	}

	response, err := a.client.Complete(ctx, prompts.RoomAnalysis(imagePath, prefs))
	if err != nil {
		return design.RoomAnalysis{}, err
	}
	analysis, err := parseRoomAnalysis(response)
	if err != nil {
		return design.RoomAnalysis{}, err
	}
	a.logger.Debug("room analyzed", "image", imagePath, "room_type", analysis.RoomType, "observations", len(analysis.Observations))
	return analysis, nil
}

// Recommend produces recommendations for a single analysis, ordered by
// priority with the model's order kept among equal priorities.
func (a *Analyzer) Recommend(ctx context.Context, analysis design.RoomAnalysis, prefs design.Preferences) ([]design.Recommendation, error) {
	if a == nil || a.client == nil {
		return nil, apperr.Configuration("vision", "analyzer unavailable")
	}
	prompt, err := prompts.Recommendations(analysis, prefs)
	if err != nil {
		return nil, err
	}
	response, err := a.client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	recs, err := parseRecommendations(response)
	if err != nil {
		return nil, err
	}
	return design.SortByPriority(recs), nil
}

// Summarize writes the executive summary for the report.
func (a *Analyzer) Summarize(ctx context.Context, analysis design.RoomAnalysis, recs []design.Recommendation, prefs design.Preferences) (string, error) {
	if a == nil || a.client == nil {
		return "", apperr.Configuration("vision", "analyzer unavailable")
	}
	prompt, err := prompts.Summary(analysis, recs, prefs)
	if err != nil {
		return "", err
	}
	response, err := a.client.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

func parseRoomAnalysis(response string) (design.RoomAnalysis, error) {
	var analysis design.RoomAnalysis
	if err := json.Unmarshal([]byte(extractJSON(response)), &analysis); err != nil {
		return design.RoomAnalysis{}, parseError("room analysis", response, err)
	}
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"room_type", analysis.RoomType},
		{"current_style", analysis.Style},
		{"lighting_assessment", analysis.LightingAssessment},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return design.RoomAnalysis{}, parseError("room analysis", response, fmt.Errorf("missing %s", strings.Join(missing, ", ")))
	}
	return analysis, nil
}

type rawRecommendation struct {
	Category           string   `json:"category"`
	Priority           string   `json:"priority"`
	CurrentState       string   `json:"current_state"`
	Recommendation     string   `json:"recommendation"`
	EstimatedCost      string   `json:"estimated_cost"`
	ProductSuggestions []string `json:"product_suggestions"`
	ImageEditPrompt    string   `json:"image_edit_prompt"`
}

func parseRecommendations(response string) ([]design.Recommendation, error) {
	payload := []byte(extractJSON(response))

	var raw []rawRecommendation
	if err := json.Unmarshal(payload, &raw); err != nil {
		var wrapped struct {
			Recommendations []rawRecommendation `json:"recommendations"`
		}
		if werr := json.Unmarshal(payload, &wrapped); werr != nil || wrapped.Recommendations == nil {
			return nil, parseError("recommendations", response, err)
		}
		raw = wrapped.Recommendations
	}
	if raw == nil {
		return nil, parseError("recommendations", response, errors.New("expected a list of recommendations"))
	}

	recs := make([]design.Recommendation, 0, len(raw))
	for i, r := range raw {
		priority, err := design.ParsePriority(r.Priority)
		if err != nil {
			return nil, parseError("recommendations", response, fmt.Errorf("item %d: %w", i+1, err))
		}
		if strings.TrimSpace(r.Category) == "" || strings.TrimSpace(r.Recommendation) == "" {
			return nil, parseError("recommendations", response, fmt.Errorf("item %d: category and recommendation are required", i+1))
		}
		recs = append(recs, design.Recommendation{
			Category:           strings.ToLower(strings.TrimSpace(r.Category)),
			Priority:           priority,
			CurrentState:       strings.TrimSpace(r.CurrentState),
			Description:        strings.TrimSpace(r.Recommendation),
			EstimatedCost:      strings.TrimSpace(r.EstimatedCost),
			ProductSuggestions: r.ProductSuggestions,
			ImageEditPrompt:    strings.TrimSpace(r.ImageEditPrompt),
		})
	}
	return recs, nil
}

func parseError(what, response string, cause error) error {
	return apperr.Parse("vision", fmt.Sprintf("failed to parse %s (response: %q)", what, design.Truncate(response, excerptLength)), cause)
}
