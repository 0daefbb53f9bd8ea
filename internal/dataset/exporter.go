// Package dataset turns recorded sessions into prompt/completion pairs for
// evaluating or fine-tuning the recommendation step.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"interiordesigner/internal/design"
	"interiordesigner/internal/prompts"
)

// Example represents a single prompt/completion pair.
type Example struct {
	SessionID           string `json:"session_id"`
	Model               string `json:"model"`
	RoomType            string `json:"room_type"`
	Style               string `json:"style,omitempty"`
	InputText           string `json:"input_text"`
	OutputText          string `json:"output_text"`
	RecommendationCount int    `json:"recommendation_count"`
}

// Options control which sessions are exported.
type Options struct {
	MinRecommendations int
	Style              string
}

// SessionSource loads recorded sessions.
type SessionSource interface {
	GetSession(ctx context.Context, id string) (design.Session, error)
}

// Load fetches each id from src, skipping none; a missing session is an error.
func Load(ctx context.Context, src SessionSource, ids []string) ([]design.Session, error) {
	sessions := make([]design.Session, 0, len(ids))
	for _, id := range ids {
		s, err := src.GetSession(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("dataset: load session %s: %w", id, err)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// BuildExamples converts sessions to a consistent JSONL-friendly dataset.
// Only the first room analysis of a session is used, matching what the
// recommendation prompt receives.
func BuildExamples(sessions []design.Session, opts Options) ([]Example, error) {
	if opts.MinRecommendations <= 0 {
		opts.MinRecommendations = 3
	}
	style := strings.ToLower(strings.TrimSpace(opts.Style))

	var examples []Example
	for _, s := range sessions {
		if len(s.Analyses) == 0 || len(s.Recommendations) < opts.MinRecommendations {
			continue
		}
		if style != "" && strings.ToLower(strings.TrimSpace(s.Preferences.Style)) != style {
			continue
		}
		prompt, err := prompts.Recommendations(s.Analyses[0], s.Preferences)
		if err != nil {
			return nil, fmt.Errorf("dataset: build prompt for session %s: %w", s.ID, err)
		}
		output, err := json.MarshalIndent(s.Recommendations, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("dataset: encode recommendations for session %s: %w", s.ID, err)
		}
		examples = append(examples, Example{
			SessionID:           s.ID,
			Model:               s.Model,
			RoomType:            s.Analyses[0].RoomType,
			Style:               s.Preferences.Style,
			InputText:           prompt,
			OutputText:          string(output),
			RecommendationCount: len(s.Recommendations),
		})
	}
	return examples, nil
}

// WriteJSONL serializes examples to disk as JSON Lines.
func WriteJSONL(path string, examples []Example) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create %s: %w", path, err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, ex := range examples {
		if err := enc.Encode(ex); err != nil {
			return fmt.Errorf("dataset: write %s: %w", path, err)
		}
	}
	return file.Close()
}
