// Package scoring ranks candidate activities against a user's budget,
// location, and the candidate's own rating, and narrows the pool to the
// strongest candidates per category before the expensive enrichment stage.
package scoring

import (
	"math"
	"sort"

	"github.com/sidequest-dev/sidequest/pkg/activity"
)

// Weights control how much each component contributes to the ranking.
type Weights struct {
	Cost       float64
	Distance   float64
	Rating     float64
	Trendiness float64
}

// DefaultWeights is the production weighting. Trendiness is applied as an
// additive boost on top of the base score rather than folded into it.
var DefaultWeights = Weights{
	Cost:       0.3,
	Distance:   0.3,
	Rating:     0.2,
	Trendiness: 0.2,
}

// Context carries the per-request inputs the component scores depend on.
type Context struct {
	// Budget is the user's total budget for the outing. Zero or negative
	// means no budget constraint.
	Budget    float64
	OriginLat float64
	OriginLon float64
}

// CostScore rewards activities that fit comfortably inside the user's total
// budget. Free activities always score 1.0; with no budget constraint every
// paid activity is neutral.
func CostScore(cost, budget float64) float64 {
	if cost <= 0 {
		return 1.0
	}
	if budget <= 0 {
		return 0.5
	}
	ratio := cost / budget
	switch {
	case ratio >= 1.0:
		return 0.0
	case ratio >= 0.8:
		return 0.2
	case ratio >= 0.5:
		return 0.6
	default:
		return 1.0
	}
}

// DistanceScore rewards proximity to the user, measured as euclidean
// distance in coordinate degrees. Records with a missing coordinate are
// scored neutrally rather than penalized.
func DistanceScore(lat, lon, originLat, originLon float64) float64 {
	if lat == 0 || lon == 0 {
		return 0.5
	}
	d := math.Sqrt(math.Pow(lat-originLat, 2) + math.Pow(lon-originLon, 2))
	switch {
	case d <= 0.01:
		return 1.0
	case d <= 0.05:
		return 0.8
	case d <= 0.1:
		return 0.6
	case d <= 0.2:
		return 0.4
	default:
		return 0.2
	}
}

// RatingScore maps a 1-5 source rating linearly onto [0,1]. Unrated records
// get a neutral 0.5.
func RatingScore(rating float64) float64 {
	if rating <= 0 {
		return 0.5
	}
	return (rating - 1.0) / 4.0
}

// ScoreAll computes component and base scores for every candidate, returning
// scored copies. Trendiness starts at a neutral 0.5 prior; the re-scoring
// stage overwrites it for the candidates it evaluates. The input slice is
// not modified, so callers can hand the same pool to concurrent stages
// safely.
func ScoreAll(candidates []activity.Activity, sc Context, w Weights) []activity.Activity {
	scored := make([]activity.Activity, len(candidates))
	for i, a := range candidates {
		a.CostScore = CostScore(a.Cost, sc.Budget)
		a.DistanceScore = DistanceScore(a.Lat, a.Lon, sc.OriginLat, sc.OriginLon)
		a.RatingScore = RatingScore(a.Rating)
		a.TrendinessScore = 0.5
		a.BaseScore = w.Cost*a.CostScore + w.Distance*a.DistanceScore + w.Rating*a.RatingScore
		a.FinalScore = a.BaseScore
		scored[i] = a
	}
	return scored
}

// ApplyTrendiness folds a trendiness signal into the final score as an
// additive boost. The base score is left untouched so the boost is
// idempotent and re-applicable.
func ApplyTrendiness(a activity.Activity, trendiness float64, w Weights) activity.Activity {
	a.TrendinessScore = trendiness
	a.FinalScore = a.BaseScore + trendiness*w.Trendiness
	return a
}

// SelectTop narrows the pool to the highest base-scoring candidates in each
// category, preserving the first-seen category order so output stays
// deterministic for a given input ordering.
func SelectTop(candidates []activity.Activity, perCategory int) []activity.Activity {
	if perCategory <= 0 {
		return nil
	}
	groups := make(map[activity.Category][]activity.Activity)
	var order []activity.Category
	for _, a := range candidates {
		if _, seen := groups[a.Type]; !seen {
			order = append(order, a.Type)
		}
		groups[a.Type] = append(groups[a.Type], a)
	}

	var top []activity.Activity
	for _, cat := range order {
		group := groups[cat]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].BaseScore > group[j].BaseScore
		})
		n := perCategory
		if n > len(group) {
			n = len(group)
		}
		top = append(top, group[:n]...)
	}
	return top
}
