package gemini

import (
	"fmt"

	"google.golang.org/genai"
)

// TrendinessResponse is the model's assessment of how trendy a place is.
type TrendinessResponse struct {
	TrendinessScore float64 `json:"trendiness_score"`
	Reasoning       string  `json:"reasoning"`
}

// TrendinessPrompt asks for a popularity assessment of a single place.
func TrendinessPrompt(name, location string) string {
	return fmt.Sprintf(`Assess how trendy and popular the place %q in %q is right now.

Consider recent buzz, social media presence, whether it is a current hotspot
or a fading establishment, and how often locals and visitors talk about it.

Score from 0.0 (obscure or declining) to 1.0 (extremely trendy right now).
A solid, well-regarded but unremarkable place scores around 0.5.`, name, location)
}

// TrendinessSchema constrains the reply to a score and a short reasoning.
func TrendinessSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"trendiness_score": {
				Type:        genai.TypeNumber,
				Description: "Trendiness from 0.0 (obscure) to 1.0 (extremely trendy), 0.5 is neutral",
			},
			"reasoning": {
				Type:        genai.TypeString,
				Description: "One or two sentences explaining the score",
			},
		},
		PropertyOrdering: []string{"trendiness_score", "reasoning"},
		Required:         []string{"trendiness_score"},
	}
}

// EnrichmentResponse carries the model's estimated attributes for an
// activity whose source data was too thin to classify directly.
type EnrichmentResponse struct {
	DurationHours float64 `json:"duration_hours"`
	Cost          float64 `json:"cost"`
	ActivityType  string  `json:"activity_type"`
	IndoorOutdoor string  `json:"indoor_outdoor"`
	EnergyLevel   int     `json:"energy_level"`
	Confidence    float64 `json:"confidence"`
	Description   string  `json:"description"`
	Highlights    string  `json:"highlights"`
}

// EnrichmentPrompt asks for practical planning attributes of an activity.
func EnrichmentPrompt(title, category, address string) string {
	return fmt.Sprintf(`Estimate practical attributes for planning a visit to %q
(category: %s, near: %s).

Provide:
- duration_hours: typical visit length in hours (between 0.5 and 4.0)
- cost: estimated cost per person in dollars (0 for free)
- activity_type: one of "meals", "entertainment", "events", "scenery", "culture", "shopping", "physical_activity", "general"
- indoor_outdoor: "indoor", "outdoor", or "mixed"
- energy_level: physical effort required, 1 (relaxed) to 10 (strenuous)
- confidence: how confident you are in these estimates, 0.0 to 1.0
- description: one sentence on what a visitor does there
- highlights: one short phrase naming the standout feature`, title, category, address)
}

// EnrichmentSchema constrains the reply to the planning attributes.
func EnrichmentSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"duration_hours": {
				Type:        genai.TypeNumber,
				Description: "Typical visit length in hours, 0.5 to 4.0",
			},
			"cost": {
				Type:        genai.TypeNumber,
				Description: "Estimated cost per person in dollars, 0 for free",
			},
			"activity_type": {
				Type:        genai.TypeString,
				Enum:        []string{"meals", "entertainment", "events", "scenery", "culture", "shopping", "physical_activity", "general"},
				Description: "Best-fit activity category",
			},
			"indoor_outdoor": {
				Type:        genai.TypeString,
				Enum:        []string{"indoor", "outdoor", "mixed"},
				Description: "Where the activity takes place",
			},
			"energy_level": {
				Type:        genai.TypeInteger,
				Description: "Physical effort from 1 (relaxed) to 10 (strenuous)",
			},
			"confidence": {
				Type:        genai.TypeNumber,
				Description: "Confidence in these estimates, 0.0 to 1.0",
			},
			"description": {
				Type:        genai.TypeString,
				Description: "One sentence on what a visitor does there",
			},
			"highlights": {
				Type:        genai.TypeString,
				Description: "Short phrase naming the standout feature",
			},
		},
		PropertyOrdering: []string{"duration_hours", "cost", "activity_type", "indoor_outdoor", "energy_level", "confidence", "description", "highlights"},
		Required:         []string{"duration_hours", "indoor_outdoor", "energy_level", "confidence"},
	}
}

// PageEvent is one event the model extracted from a listings page.
type PageEvent struct {
	Title       string  `json:"title"`
	Location    string  `json:"location"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Cost        float64 `json:"cost"`
}

// PageEvents wraps the extracted event list.
type PageEvents struct {
	Events []PageEvent `json:"events"`
}

// EventsPrompt asks the model to pull structured events out of a scraped
// listings page that has been converted to markdown.
func EventsPrompt(city, markdown string) string {
	return fmt.Sprintf(`Extract upcoming public events in or near %s from this
events page. Ignore navigation, ads, and past events. Estimate a ticket cost
in dollars when the page does not state one (0 for free events).

PAGE CONTENT:
%s`, city, markdown)
}

// EventsSchema constrains the reply to a list of structured events.
func EventsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"events": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":       {Type: genai.TypeString},
						"location":    {Type: genai.TypeString},
						"date":        {Type: genai.TypeString},
						"category":    {Type: genai.TypeString, Description: "e.g. festival, concert, market, show"},
						"description": {Type: genai.TypeString},
						"cost":        {Type: genai.TypeNumber, Description: "Estimated ticket cost in dollars, 0 for free"},
					},
					Required: []string{"title"},
				},
			},
		},
		Required: []string{"events"},
	}
}
