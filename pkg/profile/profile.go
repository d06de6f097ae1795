// Package profile tracks which places a user has already visited and
// filters them out of candidate pools so itineraries favor new places.
package profile

import (
	"context"
	"strings"
	"time"

	"github.com/sidequest-dev/sidequest/pkg/activity"
)

// Visit records one visit to a place.
type Visit struct {
	VisitedAt time.Time `json:"visited_at"`
	PlaceID   string    `json:"place_id,omitempty"`
	PlaceName string    `json:"place_name"`
}

// Store persists visit history per user.
type Store interface {
	Visits(ctx context.Context, userID string) ([]Visit, error)
	RecordVisit(ctx context.Context, userID string, v Visit) error
	Close()
}

// FilterUnvisited removes already-visited places from a candidate pool,
// matching by place ID when available and by case-insensitive name
// otherwise. When filtering would empty the pool entirely the original pool
// is returned and allVisited is true, so the caller can still produce an
// itinerary (of repeat places) instead of nothing.
func FilterUnvisited(pool []activity.Activity, visits []Visit) (filtered []activity.Activity, allVisited bool) {
	if len(visits) == 0 {
		// No history means every place is a first visit.
		for i := range pool {
			pool[i].IsNewPlace = true
		}
		return pool, false
	}

	visitedIDs := make(map[string]bool, len(visits))
	visitedNames := make(map[string]bool, len(visits))
	for _, v := range visits {
		if v.PlaceID != "" {
			visitedIDs[v.PlaceID] = true
		}
		if v.PlaceName != "" {
			visitedNames[strings.ToLower(v.PlaceName)] = true
		}
	}

	filtered = make([]activity.Activity, 0, len(pool))
	for _, a := range pool {
		if a.PlaceID != "" && visitedIDs[a.PlaceID] {
			continue
		}
		if visitedNames[strings.ToLower(a.Title)] {
			continue
		}
		a.IsNewPlace = true
		filtered = append(filtered, a)
	}

	if len(filtered) == 0 && len(pool) > 0 {
		return pool, true
	}
	return filtered, false
}
