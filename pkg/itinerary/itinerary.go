// Package itinerary assembles a scored candidate pool into a scheduled
// itinerary: one activity per requested interest, meal limits, scheduling
// with time slots, and a human-readable summary. Assembly is rule-based and
// deterministic; it always produces a result, even from an empty pool.
package itinerary

import (
	"fmt"
	"strings"
	"time"

	"github.com/sidequest-dev/sidequest/pkg/activity"
)

// DefaultStartTime is used when a request does not say when the outing
// begins.
const DefaultStartTime = "09:00"

// transitBuffer is the gap scheduled between consecutive activities.
const transitBuffer = 15 * time.Minute

// EmptySummary is the summary of an itinerary with no activities.
const EmptySummary = "No activities available."

// Request describes what the user wants out of an itinerary. Energy and
// IndoorOutdoor are accepted preferences carried through to the caller's
// records; selection itself does not filter on them.
type Request struct {
	UserID           string   `json:"user_id"`
	Location         string   `json:"location,omitempty"`
	Lat              float64  `json:"lat,omitempty"`
	Lon              float64  `json:"lon,omitempty"`
	TravelDistanceKM float64  `json:"travel_distance_km,omitempty"`
	Interests        []string `json:"interests"`
	Budget           float64  `json:"budget"`
	AvailableHours   float64  `json:"available_hours,omitempty"`
	StartTime        string   `json:"start_time,omitempty"`
	EndTime          string   `json:"end_time,omitempty"`
	Energy           int      `json:"energy,omitempty"`
	IndoorOutdoor    string   `json:"indoor_outdoor,omitempty"`
}

// Validate rejects structurally invalid input. Missing data is tolerated
// everywhere else in the pipeline, but an unparseable time string is a
// caller mistake worth reporting.
func (r Request) Validate() error {
	if r.StartTime != "" {
		if _, err := time.Parse("15:04", r.StartTime); err != nil {
			return fmt.Errorf("invalid start_time %q: want HH:MM", r.StartTime)
		}
	}
	if r.EndTime != "" {
		if _, err := time.Parse("15:04", r.EndTime); err != nil {
			return fmt.Errorf("invalid end_time %q: want HH:MM", r.EndTime)
		}
	}
	return nil
}

// Hours is the available time window. An explicit start/end pair wins over
// AvailableHours; windows crossing midnight wrap forward.
func (r Request) Hours() float64 {
	if r.StartTime != "" && r.EndTime != "" {
		start, err1 := time.Parse("15:04", r.StartTime)
		end, err2 := time.Parse("15:04", r.EndTime)
		if err1 == nil && err2 == nil {
			h := end.Sub(start).Hours()
			if h < 0 {
				h += 24
			}
			return h
		}
	}
	return r.AvailableHours
}

// Metadata carries generation details alongside the itinerary.
type Metadata struct {
	GeneratedAt           time.Time `json:"generated_at"`
	InterestsCovered      []string  `json:"interests_covered"`
	ActivitiesConsidered  int       `json:"activities_considered"`
	ActivitiesSelected    int       `json:"activities_selected"`
	ActivitiesInItinerary int       `json:"activities_in_itinerary"`
	UnvisitedPlaces       int       `json:"unvisited_places"`
	AllPlacesVisited      bool      `json:"all_places_visited,omitempty"`
}

// Itinerary is the assembled plan.
type Itinerary struct {
	Metadata   Metadata            `json:"metadata"`
	Summary    string              `json:"summary"`
	Activities []activity.Activity `json:"activities"`
	TotalCost  float64             `json:"total_cost"`
	TotalHours float64             `json:"total_hours"`
}

// Assemble builds an itinerary from a candidate pool. The pool is expected
// to arrive sorted by preference (highest final score first per category);
// for each interest, the first unused matching candidate wins.
func Assemble(req Request, pool []activity.Activity) Itinerary {
	interests := activity.ValidInterests(req.Interests)

	used := make(map[string]bool, len(pool))
	var selected []activity.Activity

	// One activity per interest, first match in pool order.
	var unmatched []activity.Category
	for _, interest := range interests {
		match, ok := pickFirst(pool, used, func(a *activity.Activity) bool {
			return a.MatchesInterest(interest)
		})
		if !ok {
			unmatched = append(unmatched, interest)
			continue
		}
		selected = append(selected, match)
	}

	// Interests nothing matched still deserve a stop: take the best
	// remaining candidate of any kind.
	for range unmatched {
		filler, ok := pickFirst(pool, used, func(*activity.Activity) bool { return true })
		if !ok {
			break
		}
		selected = append(selected, filler)
	}

	selectedCount := len(selected)

	hours := req.Hours()
	selected = enforceMealCap(selected, hours)
	selected = dropCafesWhenRushed(selected, interests, hours)
	selected = spreadMeals(selected, hours)
	schedule(selected, req.StartTime)

	var totalCost, totalHours float64
	var newPlaces int
	for _, a := range selected {
		totalCost += a.Cost
		totalHours += a.DurationHours
		if a.IsNewPlace {
			newPlaces++
		}
	}

	var covered []string
	if len(selected) > 0 {
		covered = make([]string, len(interests))
		for i, interest := range interests {
			covered[i] = string(interest)
		}
	}
	missed := missedInterests(interests, selected)

	return Itinerary{
		Activities: selected,
		Summary:    summarize(selected, missed, newPlaces, totalCost, totalHours),
		TotalCost:  totalCost,
		TotalHours: totalHours,
		Metadata: Metadata{
			GeneratedAt:           time.Now().UTC(),
			InterestsCovered:      covered,
			ActivitiesConsidered:  len(pool),
			ActivitiesSelected:    selectedCount,
			ActivitiesInItinerary: len(selected),
			UnvisitedPlaces:       newPlaces,
		},
	}
}

// missedInterests lists requested interests with no matching stop in the
// final selection. A filler stop of another kind still leaves its interest
// missed here; only the summary calls this out.
func missedInterests(interests []activity.Category, selected []activity.Activity) []string {
	var missed []string
	for _, interest := range interests {
		found := false
		for i := range selected {
			if selected[i].MatchesInterest(interest) {
				found = true
				break
			}
		}
		if !found {
			missed = append(missed, string(interest))
		}
	}
	return missed
}

// pickFirst returns the first unused pool entry satisfying the predicate,
// marking it used. Identity is the place ID when present, title otherwise,
// so the same venue from two sources is still picked at most once.
func pickFirst(pool []activity.Activity, used map[string]bool, match func(*activity.Activity) bool) (activity.Activity, bool) {
	for i := range pool {
		key := pool[i].Key()
		if used[key] {
			continue
		}
		if match(&pool[i]) {
			used[key] = true
			return pool[i], true
		}
	}
	return activity.Activity{}, false
}

// mealCap is how many meal stops fit in the available time.
func mealCap(availableHours float64) int {
	if availableHours >= 8 {
		return 3
	}
	return 2
}

// enforceMealCap drops surplus meal stops, keeping the ones the pipeline is
// most confident about. Non-meal activities are untouched and relative
// order is preserved.
func enforceMealCap(selected []activity.Activity, availableHours float64) []activity.Activity {
	limit := mealCap(availableHours)

	var mealCount int
	for _, a := range selected {
		if a.IsMeal() {
			mealCount++
		}
	}
	if mealCount <= limit {
		return selected
	}

	keep := make(map[int]bool, limit)
	for len(keep) < limit {
		best, bestConf := -1, -1.0
		for i, a := range selected {
			if !a.IsMeal() || keep[i] {
				continue
			}
			if a.Confidence > bestConf {
				best, bestConf = i, a.Confidence
			}
		}
		if best < 0 {
			break
		}
		keep[best] = true
	}

	out := selected[:0]
	for i, a := range selected {
		if a.IsMeal() && !keep[i] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// dropCafesWhenRushed removes coffee-shop stops from short outings that
// already include a meal and entertainment. With under four hours there is
// no room for both a meal and a snack break.
func dropCafesWhenRushed(selected []activity.Activity, interests []activity.Category, availableHours float64) []activity.Activity {
	if availableHours >= 4 {
		return selected
	}
	if !hasAll(interests, activity.Meals, activity.Bites, activity.Entertainment) {
		return selected
	}

	out := selected[:0]
	for _, a := range selected {
		if a.Type == activity.Bites && cafeTitled(a.Title) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func cafeTitled(title string) bool {
	t := strings.ToLower(title)
	return strings.Contains(t, "cafe") || strings.Contains(t, "coffee") || strings.Contains(t, "snack")
}

func hasAll(interests []activity.Category, want ...activity.Category) bool {
	for _, w := range want {
		found := false
		for _, i := range interests {
			if i == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// spreadMeals tags surviving meal stops sequentially as breakfast, lunch,
// and dinner. The tags are informational hints for the reader; selection
// order is never changed. Short outings or single-meal plans stay untagged.
func spreadMeals(selected []activity.Activity, availableHours float64) []activity.Activity {
	var mealIdx []int
	for i := range selected {
		if selected[i].IsMeal() {
			mealIdx = append(mealIdx, i)
		}
	}
	if len(mealIdx) < 2 || availableHours <= 4 {
		return selected
	}

	tags := []string{"breakfast", "lunch", "dinner"}
	for n, i := range mealIdx {
		if n < len(tags) {
			selected[i].MealType = tags[n]
		}
	}
	return selected
}

// schedule assigns start times front to back, inserting a transit buffer
// between stops. Unparseable start times fall back to the default.
func schedule(selected []activity.Activity, startTime string) {
	clock, err := time.Parse("15:04", startTime)
	if err != nil {
		clock, _ = time.Parse("15:04", DefaultStartTime)
	}

	for i := range selected {
		selected[i].StartTime = clock.Format("15:04")
		clock = clock.Add(time.Duration(selected[i].DurationHours*float64(time.Hour)) + transitBuffer)
	}
}

func summarize(selected []activity.Activity, missed []string, newPlaces int, totalCost, totalHours float64) string {
	if len(selected) == 0 {
		return EmptySummary
	}

	titles := make([]string, len(selected))
	for i, a := range selected {
		titles[i] = a.Title
	}

	var list string
	switch len(titles) {
	case 1:
		list = titles[0]
	case 2:
		list = titles[0] + " and " + titles[1]
	default:
		list = strings.Join(titles[:len(titles)-1], ", ") + ", and " + titles[len(titles)-1]
	}

	summary := fmt.Sprintf("A %d-stop itinerary featuring %s, about %.1f hours for an estimated $%.0f.",
		len(selected), list, totalHours, totalCost)

	if len(missed) > 0 {
		summary += fmt.Sprintf(" Could not find suitable activities for: %s.", strings.Join(missed, ", "))
	}
	if newPlaces > 0 {
		plural := ""
		if newPlaces > 1 {
			plural = "s"
		}
		summary += fmt.Sprintf(" You'll discover %d new place%s you haven't visited before.", newPlaces, plural)
	}
	return summary
}
