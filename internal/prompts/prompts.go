package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"interiordesigner/internal/design"
)

const notSpecified = "not specified"

const roomAnalysisTemplate = `Read the image file at %s and analyze it.

Analyze this room image and provide a detailed assessment.

User Preferences:
%s

Please analyze the room and provide your response as a JSON object with the following structure:
{
    "room_type": "type of room (e.g., living room, bedroom, kitchen)",
    "current_style": "current design style of the room",
    "layout": "how the space is arranged and how people move through it",
    "estimated_dimensions": "rough estimate of room size if possible",
    "observations": [{"issue": "a concrete problem you can see", "location": "where in the room"}],
    "existing_furniture": ["list", "of", "furniture", "items"],
    "lighting_assessment": "assessment of natural and artificial lighting",
    "color_palette": ["current", "color", "palette"],
    "strengths": ["positive", "aspects", "of", "the", "room"],
    "improvement_opportunities": ["areas", "that", "could", "be", "improved"]
}

Be specific and actionable in your analysis. Focus on practical observations that can inform design recommendations.

Important: Return ONLY the JSON object, no additional text.`

const recommendationsTemplate = `Based on the room analysis below, provide detailed design recommendations.

Room Analysis:
%s

User Preferences:
%s

Please provide 3-5 prioritized recommendations as a JSON array. Each recommendation should follow this structure:
{
    "category": "furniture/lighting/colors/decor/layout/storage",
    "current_state": "what currently exists",
    "recommendation": "specific actionable recommendation",
    "priority": "high/medium/low",
    "estimated_cost": "cost range like '$100-300' or 'low/medium/high'",
    "product_suggestions": ["specific", "product", "suggestions"],
    "image_edit_prompt": "a detailed prompt for an AI image generator to visualize this change - describe exactly what should change in the room while keeping everything else the same"
}

Focus on practical, achievable improvements that match the user's style and budget. For the image_edit_prompt, be very specific about what should change (e.g., "Replace the old brown leather couch with a modern gray L-shaped sectional sofa, keep all other furniture and room elements exactly the same").

Important: Return ONLY the JSON array, no additional text.`

const summaryTemplate = `Based on the room analysis and recommendations below, write a brief executive summary (2-3 paragraphs) that:
1. Highlights the key strengths of the current space
2. Identifies the top 2-3 priorities for improvement
3. Provides an overall vision for the redesigned space

Room Analysis:
%s

Recommendations:
%s

User Preferences:
%s

Write the summary in a warm, encouraging tone that helps the user feel excited about their design project.`

const imageEditTemplate = `Edit this room image according to the following instructions.
Keep the room structure, walls, windows, and floor exactly the same.
Only modify what is specifically requested:

%s

Maintain photorealistic quality and natural lighting.`

// RoomAnalysis builds the prompt asking the CLI to read and assess imagePath.
func RoomAnalysis(imagePath string, prefs design.Preferences) string {
	return fmt.Sprintf(roomAnalysisTemplate, imagePath, FormatPreferences(prefs))
}

// Recommendations builds the prompt turning an analysis into suggestions.
func Recommendations(analysis design.RoomAnalysis, prefs design.Preferences) (string, error) {
	payload, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return "", fmt.Errorf("prompts: marshal analysis: %w", err)
	}
	return fmt.Sprintf(recommendationsTemplate, payload, FormatPreferences(prefs)), nil
}

// Summary builds the executive summary prompt.
func Summary(analysis design.RoomAnalysis, recs []design.Recommendation, prefs design.Preferences) (string, error) {
	analysisJSON, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return "", fmt.Errorf("prompts: marshal analysis: %w", err)
	}
	if recs == nil {
		recs = []design.Recommendation{}
	}
	recsJSON, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("prompts: marshal recommendations: %w", err)
	}
	return fmt.Sprintf(summaryTemplate, analysisJSON, recsJSON, FormatPreferences(prefs)), nil
}

// ImageEdit wraps a recommendation's edit instruction with guard rails that
// keep the room's structure intact.
func ImageEdit(instruction string) string {
	return fmt.Sprintf(imageEditTemplate, strings.TrimSpace(instruction))
}

// FormatPreferences renders preferences as the bullet list used in every prompt.
func FormatPreferences(prefs design.Preferences) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Style preference: %s\n", orNotSpecified(prefs.Style))
	fmt.Fprintf(&b, "- Budget: %s\n", orNotSpecified(prefs.Budget))
	if len(prefs.ColorPreference) > 0 {
		fmt.Fprintf(&b, "- Preferred colors: %s\n", strings.Join(prefs.ColorPreference, ", "))
	}
	fmt.Fprintf(&b, "- Specific needs: %s", orNotSpecified(prefs.SpecificNeeds))
	return b.String()
}

func orNotSpecified(value string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return notSpecified
}
