// Package activity defines the canonical candidate record that flows through
// the itinerary pipeline, plus the category heuristics used to classify raw
// place and event data from external sources.
package activity

import "strings"

// Category is one of the fixed interest categories a user can request.
// Legacy synonyms (food, physical, cultural, general) still appear in data
// from older sources and are accepted everywhere a Category is matched.
type Category string

// Interest categories.
const (
	Meals            Category = "meals"
	Bites            Category = "bites"
	Entertainment    Category = "entertainment"
	Events           Category = "events"
	Scenery          Category = "scenery"
	Culture          Category = "culture"
	Shopping         Category = "shopping"
	PhysicalActivity Category = "physical_activity"

	// Legacy synonyms.
	Food     Category = "food"
	Physical Category = "physical"
	Cultural Category = "cultural"
	General  Category = "general"
)

// InterestCategories is the set of categories a request may ask for.
var InterestCategories = []Category{
	Meals, Bites, Entertainment, Events, Scenery, Culture, Shopping, PhysicalActivity,
}

// IndoorOutdoor describes where an activity takes place.
type IndoorOutdoor string

const (
	Indoor  IndoorOutdoor = "indoor"
	Outdoor IndoorOutdoor = "outdoor"
	Mixed   IndoorOutdoor = "mixed"
)

// Activity is the canonical unit flowing through the pipeline. Records are
// produced by source normalizers and enriched/scored by later stages; scoring
// stages return copies rather than mutating records shared across goroutines.
type Activity struct {
	PlaceID       string        `json:"place_id"`
	Title         string        `json:"title"`
	Lat           float64       `json:"lat"`
	Lon           float64       `json:"lon"`
	Address       string        `json:"location,omitempty"`
	Type          Category      `json:"activity_type"`
	DurationHours float64       `json:"duration_hours"`
	Cost          float64       `json:"cost"`
	IndoorOutdoor IndoorOutdoor `json:"indoor_outdoor"`
	EnergyLevel   int           `json:"energy_level"`
	Confidence    float64       `json:"confidence"`
	Rating        float64       `json:"rating,omitempty"`
	Tags          []string      `json:"types,omitempty"`
	Description   string        `json:"description,omitempty"`
	Highlights    string        `json:"highlights,omitempty"`
	IsNewPlace    bool          `json:"is_new_place,omitempty"`

	// Assigned by the itinerary assembler.
	StartTime string `json:"start_time,omitempty"`
	MealType  string `json:"meal_type,omitempty"`

	// Scoring fields, populated by pkg/scoring.
	CostScore       float64 `json:"cost_score"`
	DistanceScore   float64 `json:"distance_score"`
	RatingScore     float64 `json:"rating_score"`
	BaseScore       float64 `json:"base_score"`
	TrendinessScore float64 `json:"trendiness_score"`
	FinalScore      float64 `json:"final_score"`
}

// Key returns the identity used for deduplication: the stable place ID when
// the source provided one, otherwise the display title.
func (a *Activity) Key() string {
	if a.PlaceID != "" {
		return a.PlaceID
	}
	return a.Title
}

// IsMeal reports whether the activity counts against the meal cap.
func (a *Activity) IsMeal() bool {
	return a.Type == Meals || a.Type == Food
}

// MatchesInterest reports whether the activity satisfies an interest, either
// by category membership or by a synonym keyword appearing in its title.
func (a *Activity) MatchesInterest(interest Category) bool {
	keywords := interestSynonyms[interest]
	if keywords == nil {
		keywords = []string{string(interest)}
	}
	for _, kw := range keywords {
		if string(a.Type) == kw {
			return true
		}
	}
	title := strings.ToLower(a.Title)
	for _, kw := range keywords {
		if strings.Contains(title, kw) {
			return true
		}
	}
	return false
}

// ValidInterests filters a caller-supplied interest list down to the fixed
// category set. Unknown entries are dropped; an empty or entirely invalid
// list defaults to entertainment, so a request never hard-fails on interests.
func ValidInterests(requested []string) []Category {
	var valid []Category
	for _, r := range requested {
		c := Category(strings.ToLower(strings.TrimSpace(r)))
		for _, known := range InterestCategories {
			if c == known {
				valid = append(valid, c)
				break
			}
		}
	}
	if len(valid) == 0 {
		return []Category{Entertainment}
	}
	return valid
}
