package design

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

// Budget levels accepted from the user.
var Budgets = []string{"low", "medium", "high"}

// Preferences captures what the user asked for.
type Preferences struct {
	Style           string   `json:"style,omitempty"`
	Budget          string   `json:"budget,omitempty"`
	ColorPreference []string `json:"color_preferences,omitempty"`
	SpecificNeeds   string   `json:"specific_needs,omitempty"`
}

// Validate rejects budgets outside low/medium/high.
func (p Preferences) Validate() error {
	if p.Budget == "" {
		return nil
	}
	for _, b := range Budgets {
		if p.Budget == b {
			return nil
		}
	}
	return fmt.Errorf("budget must be low, medium, or high")
}

// Observation is a single issue noticed in the photo.
type Observation struct {
	Issue    string `json:"issue"`
	Location string `json:"location,omitempty"`
}

// RoomAnalysis is the structured description of one room photo.
type RoomAnalysis struct {
	RoomType                 string        `json:"room_type"`
	Style                    string        `json:"current_style"`
	Layout                   string        `json:"layout,omitempty"`
	EstimatedDimensions      string        `json:"estimated_dimensions,omitempty"`
	Observations             []Observation `json:"observations,omitempty"`
	ExistingFurniture        []string      `json:"existing_furniture,omitempty"`
	LightingAssessment       string        `json:"lighting_assessment,omitempty"`
	ColorPalette             []string      `json:"color_palette,omitempty"`
	Strengths                []string      `json:"strengths,omitempty"`
	ImprovementOpportunities []string      `json:"improvement_opportunities,omitempty"`
}

// Priority ranks a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority normalizes s into a Priority.
func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh, nil
	case PriorityMedium:
		return PriorityMedium, nil
	case PriorityLow:
		return PriorityLow, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// Rank orders priorities high first. Unknown priorities sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// AtLeast reports whether p is as urgent as min.
func (p Priority) AtLeast(min Priority) bool {
	return p.Rank() <= min.Rank()
}

// Recommendation is one actionable suggestion.
type Recommendation struct {
	Category           string   `json:"category"`
	Priority           Priority `json:"priority"`
	CurrentState       string   `json:"current_state,omitempty"`
	Description        string   `json:"recommendation"`
	EstimatedCost      string   `json:"estimated_cost,omitempty"`
	ProductSuggestions []string `json:"product_suggestions,omitempty"`
	ImageEditPrompt    string   `json:"image_edit_prompt,omitempty"`
}

// Title is the display heading for the recommendation.
func (r Recommendation) Title() string {
	return TitleCase(r.Category)
}

// SortByPriority returns a copy of recs ordered high → low. Recommendations
// with equal priority keep the order the analysis returned them in.
func SortByPriority(recs []Recommendation) []Recommendation {
	sorted := append([]Recommendation(nil), recs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority.Rank() < sorted[j].Priority.Rank()
	})
	return sorted
}

// GeneratedImage is a visualization produced for one recommendation.
type GeneratedImage struct {
	Recommendation int    `json:"recommendation"`
	Path           string `json:"path"`
	MIME           string `json:"mime"`
	PromptUsed     string `json:"prompt_used"`
	Description    string `json:"description"`
}

// Format is the report output format.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatMarkdown Format = "md"
)

// ParseFormat accepts "pdf" or "md".
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatMarkdown, "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("output format must be pdf or md")
}

// Session is one end-to-end analysis run and its artifacts.
type Session struct {
	ID              string           `json:"session_id"`
	CreatedAt       time.Time        `json:"created_at"`
	Model           string           `json:"model"`
	Format          Format           `json:"output_format"`
	Preferences     Preferences      `json:"preferences"`
	InputImages     []string         `json:"input_images"`
	OriginalImages  []string         `json:"original_images,omitempty"`
	Analyses        []RoomAnalysis   `json:"room_analyses"`
	Recommendations []Recommendation `json:"recommendations"`
	GeneratedImages []GeneratedImage `json:"generated_images"`
	Summary         string           `json:"summary"`
	Warnings        []string         `json:"warnings,omitempty"`
	Dir             string           `json:"output_dir"`
	ReportPath      string           `json:"report_path,omitempty"`
	ArchiveURLs     []string         `json:"archive_urls,omitempty"`
}

// ImageFor returns the generated image for recommendation idx, if any.
func (s Session) ImageFor(idx int) (GeneratedImage, bool) {
	for _, img := range s.GeneratedImages {
		if img.Recommendation == idx {
			return img, true
		}
	}
	return GeneratedImage{}, false
}

// TitleCase upper-cases the first letter of each word.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// Truncate shortens s to at most n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
