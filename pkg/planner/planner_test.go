package planner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/sidequest-dev/sidequest/pkg/activity"
	"github.com/sidequest-dev/sidequest/pkg/geocode"
	"github.com/sidequest-dev/sidequest/pkg/itinerary"
	"github.com/sidequest-dev/sidequest/pkg/profile"
)

type fakePlaces struct {
	byType map[string][]activity.Activity
	err    error
	calls  int
}

func (f *fakePlaces) SearchNearby(_ context.Context, _, _, _ float64, placeType string, _ int) ([]activity.Activity, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byType[placeType], nil
}

type fakeEvents struct {
	acts []activity.Activity
	err  error
}

func (f *fakeEvents) Search(_ context.Context, _ string, _, _ float64) ([]activity.Activity, error) {
	return f.acts, f.err
}

type fakeGeocoder struct {
	loc *geocode.Location
	err error
}

func (f *fakeGeocoder) Forward(_ context.Context, _ string) (*geocode.Location, error) {
	return f.loc, f.err
}

func (f *fakeGeocoder) CityFor(_ context.Context, _, _ float64) string {
	return "Waterloo"
}

type fakeTrends struct {
	scores map[string]float64
}

func (f *fakeTrends) Score(_ context.Context, name, _ string) float64 {
	if s, ok := f.scores[name]; ok {
		return s
	}
	return 0.5
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mealAct(title, placeID string, rating float64) activity.Activity {
	return activity.Activity{
		PlaceID: placeID, Title: title, Lat: 43.46, Lon: -80.52,
		Type: activity.Meals, DurationHours: 2, Cost: 25, Rating: rating, Confidence: 0.8,
	}
}

func parkAct(title, placeID string) activity.Activity {
	return activity.Activity{
		PlaceID: placeID, Title: title, Lat: 43.47, Lon: -80.53,
		Type: activity.Scenery, DurationHours: 2, Cost: 0, Rating: 4.2, Confidence: 0.8,
	}
}

func TestGenerateItinerary(t *testing.T) {
	src := &fakePlaces{byType: map[string][]activity.Activity{
		"restaurant": {mealAct("Thai Palace", "p1", 4.5), mealAct("Burger Barn", "p2", 3.8)},
		"park":       {parkAct("Victoria Park", "p3")},
	}}
	p := New(
		WithPlaceSources(src),
		WithLogger(testLogger()),
	)

	it, err := p.GenerateItinerary(context.Background(), itinerary.Request{
		UserID:         "u1",
		Lat:            43.46,
		Lon:            -80.52,
		Interests:      []string{"meals", "scenery"},
		Budget:         100,
		AvailableHours: 6,
	})
	if err != nil {
		t.Fatalf("GenerateItinerary: %v", err)
	}
	if len(it.Activities) != 2 {
		t.Fatalf("got %d stops, want 2: %+v", len(it.Activities), it.Activities)
	}
	if it.Summary == itinerary.EmptySummary {
		t.Error("summary should describe the stops")
	}
	for _, a := range it.Activities {
		if a.StartTime == "" {
			t.Errorf("%s has no scheduled time", a.Title)
		}
		if a.BaseScore == 0 {
			t.Errorf("%s was not scored", a.Title)
		}
		if a.TrendinessScore != 0.5 {
			t.Errorf("%s trendiness = %v, want the neutral 0.5 when no scorer is configured", a.Title, a.TrendinessScore)
		}
	}
}

func TestGenerateItineraryGeocodesLocation(t *testing.T) {
	src := &fakePlaces{byType: map[string][]activity.Activity{
		"restaurant": {mealAct("Thai Palace", "p1", 4.5)},
	}}
	p := New(
		WithPlaceSources(src),
		WithGeocoder(&fakeGeocoder{loc: &geocode.Location{Latitude: 43.46, Longitude: -80.52, City: "Waterloo"}}),
		WithLogger(testLogger()),
	)

	it, err := p.GenerateItinerary(context.Background(), itinerary.Request{
		Location:       "Waterloo, Ontario",
		Interests:      []string{"meals"},
		AvailableHours: 4,
	})
	if err != nil {
		t.Fatalf("GenerateItinerary: %v", err)
	}
	if len(it.Activities) != 1 {
		t.Fatalf("got %d stops, want 1", len(it.Activities))
	}
}

func TestGenerateItineraryNoLocation(t *testing.T) {
	p := New(WithLogger(testLogger()))
	if _, err := p.GenerateItinerary(context.Background(), itinerary.Request{Interests: []string{"meals"}}); err == nil {
		t.Error("expected error for request without location")
	}
}

func TestGenerateItineraryRejectsBadTimes(t *testing.T) {
	p := New(WithLogger(testLogger()))
	_, err := p.GenerateItinerary(context.Background(), itinerary.Request{
		Lat: 43.46, Lon: -80.52, Interests: []string{"meals"}, StartTime: "noonish",
	})
	if err == nil {
		t.Error("unparseable start time should be rejected")
	}
}

func TestGenerateItineraryDerivesHoursFromWindow(t *testing.T) {
	// Three meal candidates but only a half-day window; the meal cap must
	// come from the start/end pair, not an explicit hour count.
	src := &fakePlaces{byType: map[string][]activity.Activity{
		"restaurant": {mealAct("Thai Palace", "p1", 4.5), mealAct("Burger Barn", "p2", 4.1), mealAct("Diner", "p3", 3.9)},
	}}
	p := New(WithPlaceSources(src), WithLogger(testLogger()))

	it, err := p.GenerateItinerary(context.Background(), itinerary.Request{
		Lat: 43.46, Lon: -80.52,
		Interests: []string{"meals", "meals", "meals"},
		StartTime: "10:00", EndTime: "16:00",
	})
	if err != nil {
		t.Fatalf("GenerateItinerary: %v", err)
	}
	var meals int
	for _, a := range it.Activities {
		if a.IsMeal() {
			meals++
		}
	}
	if meals > 2 {
		t.Errorf("got %d meals in a 6-hour window, want at most 2", meals)
	}
}

func TestGenerateItineraryGeocodeFailure(t *testing.T) {
	p := New(
		WithGeocoder(&fakeGeocoder{err: errors.New("quota")}),
		WithLogger(testLogger()),
	)
	_, err := p.GenerateItinerary(context.Background(), itinerary.Request{
		Location: "Nowhere", Interests: []string{"meals"},
	})
	if err == nil {
		t.Error("expected error when geocoding fails")
	}
}

func TestSourceChainFallsThrough(t *testing.T) {
	failing := &fakePlaces{err: errors.New("api down")}
	working := &fakePlaces{byType: map[string][]activity.Activity{
		"restaurant": {mealAct("Thai Palace", "p1", 4.5)},
	}}
	p := New(WithPlaceSources(failing, working), WithLogger(testLogger()))

	it, err := p.GenerateItinerary(context.Background(), itinerary.Request{
		Lat: 43.46, Lon: -80.52, Interests: []string{"meals"}, AvailableHours: 4,
	})
	if err != nil {
		t.Fatalf("GenerateItinerary: %v", err)
	}
	if failing.calls == 0 {
		t.Error("first source in the chain should be tried")
	}
	if len(it.Activities) != 1 || it.Activities[0].Title != "Thai Palace" {
		t.Errorf("stops = %+v, want Thai Palace from second source", it.Activities)
	}
}

func TestEmptyPoolUsesStaticFallbacks(t *testing.T) {
	p := New(
		WithPlaceSources(&fakePlaces{byType: map[string][]activity.Activity{}}),
		WithLogger(testLogger()),
	)

	it, err := p.GenerateItinerary(context.Background(), itinerary.Request{
		Lat: 43.46, Lon: -80.52, Interests: []string{"meals", "scenery"}, AvailableHours: 6,
	})
	if err != nil {
		t.Fatalf("GenerateItinerary: %v", err)
	}
	if len(it.Activities) == 0 {
		t.Fatal("static fallbacks should still produce an itinerary")
	}
}

func TestHistoryFilterSetsAllVisited(t *testing.T) {
	store := profile.NewMemoryStore()
	ctx := context.Background()
	if err := store.RecordVisit(ctx, "u1", profile.Visit{PlaceID: "p1", PlaceName: "Thai Palace"}); err != nil {
		t.Fatal(err)
	}

	src := &fakePlaces{byType: map[string][]activity.Activity{
		"restaurant": {mealAct("Thai Palace", "p1", 4.5)},
	}}
	p := New(WithPlaceSources(src), WithProfileStore(store), WithLogger(testLogger()))

	it, err := p.GenerateItinerary(ctx, itinerary.Request{
		UserID: "u1", Lat: 43.46, Lon: -80.52, Interests: []string{"meals"}, AvailableHours: 4,
	})
	if err != nil {
		t.Fatalf("GenerateItinerary: %v", err)
	}
	if !it.Metadata.AllPlacesVisited {
		t.Error("AllPlacesVisited should be set when history covers the whole pool")
	}
	if len(it.Activities) == 0 {
		t.Error("repeat places should still be offered rather than an empty plan")
	}
}

func TestHistoryFilterDropsVisitedFromItinerary(t *testing.T) {
	store := profile.NewMemoryStore()
	ctx := context.Background()
	if err := store.RecordVisit(ctx, "u1", profile.Visit{PlaceID: "p1", PlaceName: "Thai Palace"}); err != nil {
		t.Fatal(err)
	}

	src := &fakePlaces{byType: map[string][]activity.Activity{
		"restaurant": {mealAct("Thai Palace", "p1", 4.8), mealAct("Burger Barn", "p2", 4.0)},
	}}
	p := New(WithPlaceSources(src), WithProfileStore(store), WithLogger(testLogger()))

	it, err := p.GenerateItinerary(ctx, itinerary.Request{
		UserID: "u1", Lat: 43.46, Lon: -80.52, Interests: []string{"meals"}, AvailableHours: 4,
	})
	if err != nil {
		t.Fatalf("GenerateItinerary: %v", err)
	}
	if len(it.Activities) != 1 || it.Activities[0].Title != "Burger Barn" {
		t.Fatalf("stops = %+v, want the unvisited Burger Barn", it.Activities)
	}
	if !it.Activities[0].IsNewPlace || it.Metadata.UnvisitedPlaces != 1 {
		t.Errorf("survivor should count as a new place: %+v", it.Metadata)
	}
}

func TestActivitiesConsideredReportsFullPool(t *testing.T) {
	// Five candidates, a shortlist of one: the metadata still reports how
	// many distinct candidates were in play.
	src := &fakePlaces{byType: map[string][]activity.Activity{
		"restaurant": {
			mealAct("Thai Palace", "p1", 4.5),
			mealAct("Burger Barn", "p2", 4.1),
			mealAct("Diner", "p3", 3.9),
			mealAct("Noodle House", "p4", 4.3),
			mealAct("Taqueria", "p5", 4.0),
		},
	}}
	p := New(WithPlaceSources(src), WithTopPerCategory(1), WithLogger(testLogger()))

	it, err := p.GenerateItinerary(context.Background(), itinerary.Request{
		Lat: 43.46, Lon: -80.52, Interests: []string{"meals"}, AvailableHours: 4,
	})
	if err != nil {
		t.Fatalf("GenerateItinerary: %v", err)
	}
	if it.Metadata.ActivitiesConsidered != 5 {
		t.Errorf("ActivitiesConsidered = %d, want 5", it.Metadata.ActivitiesConsidered)
	}
}

func TestAnonymousRequestCountsNewPlaces(t *testing.T) {
	src := &fakePlaces{byType: map[string][]activity.Activity{
		"restaurant": {mealAct("Thai Palace", "p1", 4.5)},
		"park":       {parkAct("Victoria Park", "p3")},
	}}
	p := New(WithPlaceSources(src), WithLogger(testLogger()))

	it, err := p.GenerateItinerary(context.Background(), itinerary.Request{
		Lat: 43.46, Lon: -80.52, Interests: []string{"meals", "scenery"}, AvailableHours: 6,
	})
	if err != nil {
		t.Fatalf("GenerateItinerary: %v", err)
	}
	if it.Metadata.UnvisitedPlaces != len(it.Activities) {
		t.Errorf("UnvisitedPlaces = %d, want %d: without history every stop is a discovery",
			it.Metadata.UnvisitedPlaces, len(it.Activities))
	}
}

func TestTrendinessBoostReordersCandidates(t *testing.T) {
	// Two meal spots with identical base attributes; the trendier one
	// should be picked.
	src := &fakePlaces{byType: map[string][]activity.Activity{
		"restaurant": {mealAct("Quiet Diner", "p1", 4.0), mealAct("Hype Kitchen", "p2", 4.0)},
	}}
	p := New(
		WithPlaceSources(src),
		WithTrendScorer(&fakeTrends{scores: map[string]float64{"Hype Kitchen": 1.0, "Quiet Diner": 0.0}}),
		WithLogger(testLogger()),
	)

	it, err := p.GenerateItinerary(context.Background(), itinerary.Request{
		Lat: 43.46, Lon: -80.52, Interests: []string{"meals"}, AvailableHours: 4,
	})
	if err != nil {
		t.Fatalf("GenerateItinerary: %v", err)
	}
	if len(it.Activities) != 1 || it.Activities[0].Title != "Hype Kitchen" {
		t.Errorf("pick = %+v, want Hype Kitchen", it.Activities)
	}
	if it.Activities[0].TrendinessScore != 1.0 {
		t.Errorf("trendiness = %v, want 1.0", it.Activities[0].TrendinessScore)
	}
}

func TestDedupe(t *testing.T) {
	pool := []activity.Activity{
		{PlaceID: "p1", Title: "Thai Palace"},
		{PlaceID: "p1", Title: "Thai Palace (dup)"},
		{Title: "City Park"},
		{Title: "City Park"},
	}
	out := dedupe(pool)
	if len(out) != 2 {
		t.Errorf("dedupe kept %d, want 2: %+v", len(out), out)
	}
}

func TestRecordVisits(t *testing.T) {
	store := profile.NewMemoryStore()
	p := New(WithProfileStore(store), WithLogger(testLogger()))

	it := &itinerary.Itinerary{Activities: []activity.Activity{
		{PlaceID: "p1", Title: "Thai Palace"},
		{Title: "City Park"},
	}}
	if err := p.RecordVisits(context.Background(), "u1", it); err != nil {
		t.Fatalf("RecordVisits: %v", err)
	}

	visits, err := store.Visits(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(visits) != 2 {
		t.Errorf("recorded %d visits, want 2", len(visits))
	}
}
