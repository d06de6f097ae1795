package activity

import (
	"math"
	"testing"
)

func TestCategoryFromTags(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want Category
	}{
		{"restaurant", []string{"restaurant", "point_of_interest"}, Meals},
		{"cafe", []string{"cafe", "store"}, Bites},
		{"food beats attraction", []string{"restaurant", "tourist_attraction"}, Meals},
		{"park", []string{"park"}, Scenery},
		{"museum", []string{"museum", "point_of_interest"}, Culture},
		{"night club", []string{"night_club"}, Entertainment},
		{"mall", []string{"shopping_mall"}, Shopping},
		{"gym", []string{"gym"}, PhysicalActivity},
		{"amusement park", []string{"amusement_park"}, Events},
		{"unknown defaults", []string{"establishment"}, General},
		{"empty defaults", nil, General},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CategoryFromTags(tc.tags); got != tc.want {
				t.Errorf("CategoryFromTags(%v) = %q, want %q", tc.tags, got, tc.want)
			}
		})
	}
}

func TestIndoorOutdoorFromTags(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want IndoorOutdoor
	}{
		{"park is outdoor", []string{"park"}, Outdoor},
		{"museum is indoor", []string{"museum"}, Indoor},
		{"outdoor tag wins over indoor", []string{"restaurant", "park"}, Outdoor},
		{"unknown defaults to indoor", []string{"establishment"}, Indoor},
		{"empty defaults to indoor", nil, Indoor},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IndoorOutdoorFromTags(tc.tags); got != tc.want {
				t.Errorf("IndoorOutdoorFromTags(%v) = %q, want %q", tc.tags, got, tc.want)
			}
		})
	}
}

func TestMatchesInterest(t *testing.T) {
	tests := []struct {
		name     string
		act      Activity
		interest Category
		want     bool
	}{
		{"exact type", Activity{Title: "Thai Palace", Type: Meals}, Meals, true},
		{"legacy food type", Activity{Title: "Diner", Type: Food}, Meals, true},
		{"title keyword", Activity{Title: "City Museum of Art", Type: Entertainment}, Culture, true},
		{"cafe counts as bites", Activity{Title: "Corner Cafe", Type: Entertainment}, Bites, true},
		{"no match", Activity{Title: "Bowling Lanes", Type: Entertainment}, Scenery, false},
		{"bar satisfies entertainment", Activity{Title: "Rooftop Bar", Type: General}, Entertainment, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.act.MatchesInterest(tc.interest); got != tc.want {
				t.Errorf("MatchesInterest(%q) = %v, want %v", tc.interest, got, tc.want)
			}
		})
	}
}

func TestValidInterests(t *testing.T) {
	got := ValidInterests([]string{"meals", "bogus", " Scenery "})
	if len(got) != 2 || got[0] != Meals || got[1] != Scenery {
		t.Errorf("ValidInterests = %v, want [meals scenery]", got)
	}

	if got := ValidInterests(nil); len(got) != 1 || got[0] != Entertainment {
		t.Errorf("empty interests = %v, want [entertainment]", got)
	}
	if got := ValidInterests([]string{"nope"}); len(got) != 1 || got[0] != Entertainment {
		t.Errorf("invalid interests = %v, want [entertainment]", got)
	}
}

func TestKey(t *testing.T) {
	a := Activity{PlaceID: "abc", Title: "Place"}
	if a.Key() != "abc" {
		t.Errorf("Key with place_id = %q, want abc", a.Key())
	}
	a.PlaceID = ""
	if a.Key() != "Place" {
		t.Errorf("Key without place_id = %q, want Place", a.Key())
	}
}

func TestCostFromPriceLevel(t *testing.T) {
	if got := CostFromPriceLevel("PRICE_LEVEL_FREE"); got != 0 {
		t.Errorf("free = %v, want 0", got)
	}
	if got := CostFromPriceLevel("PRICE_LEVEL_VERY_EXPENSIVE"); got != 100 {
		t.Errorf("very expensive = %v, want 100", got)
	}
	if got := CostFromPriceLevel(""); got != 25 {
		t.Errorf("unknown = %v, want 25", got)
	}
}

func TestFallbackCoordinates(t *testing.T) {
	lat, lon := FallbackCoordinates(43.46, -80.52, 3)
	if math.Abs(lat-43.463) > 1e-9 || math.Abs(lon-(-80.517)) > 1e-9 {
		t.Errorf("FallbackCoordinates = (%v, %v), want (43.463, -80.517)", lat, lon)
	}
	lat0, lon0 := FallbackCoordinates(43.46, -80.52, 0)
	if lat0 != 43.46 || lon0 != -80.52 {
		t.Errorf("index 0 should be the origin, got (%v, %v)", lat0, lon0)
	}
}
