package activity

import "strings"

// interestSynonyms maps an interest category to the keywords that satisfy it,
// either as an activity type or as a substring of the title. The category's
// own name is always first so exact type matches are cheap.
var interestSynonyms = map[Category][]string{
	Meals:            {"meals", "food", "restaurant", "meal"},
	Bites:            {"bites", "cafe", "snack", "bakery"},
	Entertainment:    {"entertainment", "movie", "theater", "cinema", "show", "club", "bar"},
	Events:           {"events", "festival", "concert", "amusement"},
	Scenery:          {"scenery", "park", "landmark", "viewpoint", "garden"},
	Culture:          {"culture", "museum", "gallery", "library", "cultural"},
	Shopping:         {"shopping", "store", "mall", "market"},
	PhysicalActivity: {"physical", "gym", "sports", "fitness", "stadium"},
}

// categoryTags maps source place-type tags to interest categories. Order
// matters: the first rule whose tag appears in the record's tag list wins,
// so food tags take precedence over the generic tourist_attraction tag.
var categoryTags = []struct {
	category Category
	tags     []string
}{
	{Meals, []string{"restaurant", "meal_takeaway", "meal_delivery", "food"}},
	{Bites, []string{"cafe", "bakery", "snack"}},
	{Scenery, []string{"park", "natural_feature", "tourist_attraction", "landmark"}},
	{Culture, []string{"museum", "art_gallery", "library", "cultural"}},
	{Entertainment, []string{"movie_theater", "night_club", "bar", "club", "show"}},
	{Shopping, []string{"shopping_mall", "store", "market", "retail"}},
	{PhysicalActivity, []string{"gym", "sports_complex", "fitness_center", "stadium"}},
	{Events, []string{"amusement_park", "event", "festival"}},
}

// CategoryFromTags classifies a place record by its source tags. Unmatched
// tag sets fall back to the generic category; event records carry their own
// default in the events source.
func CategoryFromTags(tags []string) Category {
	for _, rule := range categoryTags {
		for _, want := range rule.tags {
			for _, have := range tags {
				if strings.EqualFold(have, want) {
					return rule.category
				}
			}
		}
	}
	return General
}

// SearchType returns the place-search type used to find candidates for an
// interest category.
func SearchType(interest Category) string {
	switch interest {
	case Meals, Food:
		return "restaurant"
	case Bites:
		return "cafe"
	case Entertainment:
		return "movie_theater"
	case Events:
		return "amusement_park"
	case Scenery:
		return "park"
	case Culture, Cultural:
		return "museum"
	case Shopping:
		return "shopping_mall"
	case PhysicalActivity, Physical:
		return "gym"
	default:
		return "tourist_attraction"
	}
}

var outdoorTags = map[string]bool{
	"park": true, "natural_feature": true, "zoo": true,
	"stadium": true, "amusement_park": true, "campground": true,
}

var indoorTags = map[string]bool{
	"restaurant": true, "museum": true, "shopping_mall": true,
	"movie_theater": true, "gym": true, "bar": true, "cafe": true,
	"library": true, "art_gallery": true,
}

// IndoorOutdoorFromTags guesses the setting from source tags: the outdoor
// list is checked first, then the indoor list, and everything else defaults
// to indoor.
func IndoorOutdoorFromTags(tags []string) IndoorOutdoor {
	for _, t := range tags {
		if outdoorTags[strings.ToLower(t)] {
			return Outdoor
		}
	}
	for _, t := range tags {
		if indoorTags[strings.ToLower(t)] {
			return Indoor
		}
	}
	return Indoor
}

// DefaultDuration estimates the time an activity takes, in hours.
func DefaultDuration(c Category) float64 {
	switch c {
	case Meals:
		return 2.0
	case Bites:
		return 1.0
	case Food:
		return 1.5
	case Scenery, Shopping:
		return 2.0
	case Culture, Cultural:
		return 2.5
	case Entertainment, Events:
		return 2.0
	case PhysicalActivity, Physical:
		return 1.5
	default:
		return 1.5
	}
}

// DefaultEnergy estimates how energetic an activity is on a 1-10 scale.
func DefaultEnergy(c Category) int {
	switch c {
	case PhysicalActivity, Physical:
		return 8
	case Food, Meals, Bites:
		return 3
	case Culture, Cultural:
		return 4
	case Scenery:
		return 6
	default:
		return 5
	}
}

// DefaultConfidence derives a classification confidence from the source
// rating: unrated records get a neutral 0.5, rated ones scale with rating
// and cap at 1.0.
func DefaultConfidence(rating float64) float64 {
	if rating <= 0 {
		return 0.5
	}
	c := rating / 5.0
	if c > 1.0 {
		return 1.0
	}
	return c
}

// costByPriceLevel maps the place API's enumerated price levels to an
// estimated cost in dollars.
var costByPriceLevel = map[string]float64{
	"PRICE_LEVEL_FREE":           0,
	"PRICE_LEVEL_INEXPENSIVE":    15,
	"PRICE_LEVEL_MODERATE":       30,
	"PRICE_LEVEL_EXPENSIVE":      60,
	"PRICE_LEVEL_VERY_EXPENSIVE": 100,
}

// CostFromPriceLevel converts a price-level string to dollars, returning a
// moderate default for unknown or unspecified levels.
func CostFromPriceLevel(level string) float64 {
	if cost, ok := costByPriceLevel[level]; ok {
		return cost
	}
	return 25
}

// legacy numeric price levels from the older place-search API.
var costByLegacyLevel = [...]float64{0, 15, 35, 60, 120}

// CostFromLegacyLevel converts the older 0-4 integer price level to dollars.
func CostFromLegacyLevel(level int) float64 {
	if level >= 0 && level < len(costByLegacyLevel) {
		return costByLegacyLevel[level]
	}
	return 35
}

// FallbackCoordinates returns deterministic coordinates near an origin for
// a record whose source carried no geometry, spread by its position in the
// result list so co-sourced records do not collapse onto one point.
func FallbackCoordinates(originLat, originLon float64, index int) (lat, lon float64) {
	offset := 0.001 * float64(index)
	return originLat + offset, originLon + offset
}
