package scoring

import (
	"math"
	"testing"

	"github.com/sidequest-dev/sidequest/pkg/activity"
)

func TestCostScore(t *testing.T) {
	tests := []struct {
		name   string
		cost   float64
		budget float64
		want   float64
	}{
		{"free activity", 0, 50, 1.0},
		{"free activity no budget", 0, 0, 1.0},
		{"no budget constraint", 30, 0, 0.5},
		{"over budget", 60, 50, 0.0},
		{"exactly at budget", 50, 50, 0.0},
		{"near budget", 45, 50, 0.2},
		{"moderate", 30, 50, 0.6},
		{"comfortably cheap", 10, 50, 1.0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CostScore(tc.cost, tc.budget); got != tc.want {
				t.Errorf("CostScore(%v, %v) = %v, want %v", tc.cost, tc.budget, got, tc.want)
			}
		})
	}
}

func TestDistanceScore(t *testing.T) {
	const oLat, oLon = 43.46, -80.52
	tests := []struct {
		name     string
		lat, lon float64
		want     float64
	}{
		{"missing coordinates", 0, 0, 0.5},
		{"missing longitude", 43.46, 0, 0.5},
		{"same point", oLat, oLon, 1.0},
		{"very close", oLat + 0.005, oLon, 1.0},
		{"close", oLat + 0.03, oLon, 0.8},
		{"moderate", oLat + 0.08, oLon, 0.6},
		{"far", oLat + 0.15, oLon, 0.4},
		{"very far", oLat + 0.5, oLon, 0.2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DistanceScore(tc.lat, tc.lon, oLat, oLon); got != tc.want {
				t.Errorf("DistanceScore(%v, %v) = %v, want %v", tc.lat, tc.lon, got, tc.want)
			}
		})
	}
}

func TestRatingScore(t *testing.T) {
	tests := []struct {
		rating float64
		want   float64
	}{
		{0, 0.5},
		{-1, 0.5},
		{1, 0.0},
		{3, 0.5},
		{5, 1.0},
		{4.2, 0.8},
	}
	for _, tc := range tests {
		got := RatingScore(tc.rating)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("RatingScore(%v) = %v, want %v", tc.rating, got, tc.want)
		}
	}
}

func TestScoreAllDoesNotMutateInput(t *testing.T) {
	in := []activity.Activity{{Title: "Park", Lat: 43.46, Lon: -80.52, Rating: 4.0}}
	out := ScoreAll(in, Context{Budget: 50, OriginLat: 43.46, OriginLon: -80.52}, DefaultWeights)

	if in[0].BaseScore != 0 {
		t.Errorf("input record mutated: base score %v", in[0].BaseScore)
	}
	// cost 0 -> 1.0, distance 0 -> 1.0, rating 4 -> 0.75
	want := 0.3*1.0 + 0.3*1.0 + 0.2*0.75
	if math.Abs(out[0].BaseScore-want) > 1e-9 {
		t.Errorf("BaseScore = %v, want %v", out[0].BaseScore, want)
	}
	if out[0].FinalScore != out[0].BaseScore {
		t.Errorf("FinalScore should equal BaseScore before trendiness, got %v", out[0].FinalScore)
	}
}

func TestScoreAllUsesWholeBudget(t *testing.T) {
	// A $20 meal against a $50 total budget is comfortably cheap, no
	// matter how many interests the request listed.
	in := []activity.Activity{{Title: "Thai Palace", Type: activity.Meals, Cost: 20}}
	out := ScoreAll(in, Context{Budget: 50}, DefaultWeights)
	if out[0].CostScore != 1.0 {
		t.Errorf("CostScore = %v, want 1.0", out[0].CostScore)
	}
}

func TestScoreAllSeedsNeutralTrendiness(t *testing.T) {
	in := []activity.Activity{{Title: "Park"}, {Title: "Cafe", Cost: 12}}
	out := ScoreAll(in, Context{Budget: 50}, DefaultWeights)
	for _, a := range out {
		if a.TrendinessScore != 0.5 {
			t.Errorf("%s TrendinessScore = %v, want neutral 0.5", a.Title, a.TrendinessScore)
		}
	}
}

func TestApplyTrendiness(t *testing.T) {
	a := activity.Activity{Title: "Club", BaseScore: 0.6, FinalScore: 0.6}
	boosted := ApplyTrendiness(a, 0.9, DefaultWeights)
	if math.Abs(boosted.FinalScore-(0.6+0.9*0.2)) > 1e-9 {
		t.Errorf("FinalScore = %v, want %v", boosted.FinalScore, 0.6+0.9*0.2)
	}
	if boosted.BaseScore != 0.6 {
		t.Errorf("BaseScore changed to %v", boosted.BaseScore)
	}
	// Re-applying with a new signal replaces the old boost.
	again := ApplyTrendiness(boosted, 0.5, DefaultWeights)
	if math.Abs(again.FinalScore-(0.6+0.5*0.2)) > 1e-9 {
		t.Errorf("re-applied FinalScore = %v, want %v", again.FinalScore, 0.6+0.5*0.2)
	}
}

func TestSelectTop(t *testing.T) {
	pool := []activity.Activity{
		{Title: "A", Type: activity.Meals, BaseScore: 0.5},
		{Title: "B", Type: activity.Meals, BaseScore: 0.9},
		{Title: "C", Type: activity.Meals, BaseScore: 0.7},
		{Title: "D", Type: activity.Scenery, BaseScore: 0.4},
	}
	top := SelectTop(pool, 2)
	if len(top) != 3 {
		t.Fatalf("len = %d, want 3", len(top))
	}
	if top[0].Title != "B" || top[1].Title != "C" {
		t.Errorf("meals order = %q, %q, want B, C", top[0].Title, top[1].Title)
	}
	if top[2].Title != "D" {
		t.Errorf("scenery survivor = %q, want D", top[2].Title)
	}

	if got := SelectTop(pool, 0); got != nil {
		t.Errorf("perCategory 0 should return nil, got %v", got)
	}
}

func TestSelectTopStableOnTies(t *testing.T) {
	pool := []activity.Activity{
		{Title: "First", Type: activity.Meals, BaseScore: 0.5},
		{Title: "Second", Type: activity.Meals, BaseScore: 0.5},
	}
	top := SelectTop(pool, 1)
	if len(top) != 1 || top[0].Title != "First" {
		t.Errorf("tie should keep input order, got %v", top)
	}
}
