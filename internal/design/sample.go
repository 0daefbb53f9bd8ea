package design

import "time"

// SampleSession returns a fully populated session used to exercise the
// renderers without calling any external service.
func SampleSession(id string, createdAt time.Time) Session {
	return Session{
		ID:        id,
		CreatedAt: createdAt,
		Model:     "sonnet",
		Preferences: Preferences{
			Style:  "contemporary",
			Budget: "medium",
		},
		Analyses: []RoomAnalysis{{
			RoomType:            "living room",
			Style:               "Contemporary-Transitional with clean lines",
			EstimatedDimensions: "15' x 20' – approximately 300 sq ft",
			Layout:              "Sofa faces the TV wall, open walkway to the dining area",
			Observations: []Observation{
				{Issue: "Bare walls", Location: "above the sofa"},
				{Issue: "Single overhead light source", Location: "ceiling centre"},
			},
			ExistingFurniture:        []string{"Gray sectional sofa", "Light wood coffee table", "Floor lamp"},
			LightingAssessment:       "Good natural light from windows – could use accent lighting",
			ColorPalette:             []string{"Warm white", "Light gray", "Natural wood tones"},
			Strengths:                []string{"Open floor plan", "Neutral palette", "Quality flooring"},
			ImprovementOpportunities: []string{"Add statement lighting", "Layer textures", "Include artwork"},
		}},
		Recommendations: []Recommendation{
			{
				Category:           "lighting",
				Priority:           PriorityHigh,
				CurrentState:       "Room relies on natural light and basic fixtures",
				Description:        "Install a modern pendant light or chandelier as a focal point – consider dimmable options",
				EstimatedCost:      "$200–$500 for quality fixture",
				ProductSuggestions: []string{"West Elm Mobile Chandelier", "CB2 Sputnik Pendant"},
			},
			{
				Category:           "decor",
				Priority:           PriorityHigh,
				CurrentState:       "Walls are bare with no artwork or visual interest",
				Description:        "Create a gallery wall or add large-scale artwork above the sofa",
				EstimatedCost:      "$150–$400 depending on pieces",
				ProductSuggestions: []string{"Society6 prints", "Local artist originals"},
			},
			{
				Category:           "textiles",
				Priority:           PriorityMedium,
				CurrentState:       "Limited soft textures in the space",
				Description:        "Add throw pillows, blankets, and an area rug to layer textures",
				EstimatedCost:      "$300–$600 for complete set",
				ProductSuggestions: []string{"Ruggable washable rugs", "Pottery Barn throw pillows"},
			},
		},
		Summary: "This living room analysis reveals a well-maintained space with strong foundational elements.\n\n" +
			"The room's greatest assets include its open floor plan, neutral color palette, and quality light wood flooring. " +
			"These create a versatile canvas for design enhancement.\n\n" +
			"Key recommendations focus on three areas: lighting improvements to create ambiance, wall decor to add visual interest, " +
			"and textile layering to increase comfort and warmth.",
	}
}
