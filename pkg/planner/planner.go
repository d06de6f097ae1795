// Package planner orchestrates the itinerary pipeline: resolve the request
// location, fan out to activity sources concurrently, filter and score the
// pool, enrich and trend-boost the shortlist, and assemble the final
// itinerary.
package planner

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/sidequest-dev/sidequest/pkg/activity"
	"github.com/sidequest-dev/sidequest/pkg/geocode"
	"github.com/sidequest-dev/sidequest/pkg/itinerary"
	"github.com/sidequest-dev/sidequest/pkg/metrics"
	"github.com/sidequest-dev/sidequest/pkg/places"
	"github.com/sidequest-dev/sidequest/pkg/profile"
	"github.com/sidequest-dev/sidequest/pkg/scoring"
	"github.com/sidequest-dev/sidequest/pkg/trendiness"
)

// PlaceSource finds candidate activities of one place type near a
// coordinate. Sources are tried in order until one returns candidates. A
// radius of zero means the source's own default.
type PlaceSource interface {
	SearchNearby(ctx context.Context, lat, lon, radiusKM float64, placeType string, maxResults int) ([]activity.Activity, error)
}

// EventSource finds event candidates for a city.
type EventSource interface {
	Search(ctx context.Context, city string, lat, lon float64) ([]activity.Activity, error)
}

// Geocoder resolves locations both ways.
type Geocoder interface {
	Forward(ctx context.Context, location string) (*geocode.Location, error)
	CityFor(ctx context.Context, lat, lon float64) string
}

// TrendScorer rates how trendy a place currently is.
type TrendScorer interface {
	Score(ctx context.Context, name, location string) float64
}

// Enricher upgrades shortlisted candidates with better attribute estimates.
type Enricher interface {
	EnrichAll(ctx context.Context, candidates []activity.Activity) []activity.Activity
}

// Planner generates itineraries.
type Planner struct {
	geocoder     Geocoder
	events       EventSource
	enricher     Enricher
	trends       TrendScorer
	profiles     profile.Store
	logger       *slog.Logger
	memo         *otter.Cache[string, activity.Activity]
	placeSources []PlaceSource
	weights      scoring.Weights
	perInterest  int
	topPerCat    int
}

// Option configures a Planner.
type Option func(*Planner)

// WithPlaceSources sets the ordered place-source chain.
func WithPlaceSources(sources ...PlaceSource) Option {
	return func(p *Planner) { p.placeSources = sources }
}

// WithEventSource sets the event source.
func WithEventSource(s EventSource) Option {
	return func(p *Planner) { p.events = s }
}

// WithGeocoder sets the geocoder.
func WithGeocoder(g Geocoder) Option {
	return func(p *Planner) { p.geocoder = g }
}

// WithEnricher sets the shortlist enricher.
func WithEnricher(e Enricher) Option {
	return func(p *Planner) { p.enricher = e }
}

// WithTrendScorer sets the trendiness scorer.
func WithTrendScorer(t TrendScorer) Option {
	return func(p *Planner) { p.trends = t }
}

// WithProfileStore sets the visit-history store.
func WithProfileStore(s profile.Store) Option {
	return func(p *Planner) { p.profiles = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

// WithWeights overrides the scoring weights.
func WithWeights(w scoring.Weights) Option {
	return func(p *Planner) { p.weights = w }
}

// WithCandidatesPerInterest sets how many candidates each source fetch asks
// for per interest.
func WithCandidatesPerInterest(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.perInterest = n
		}
	}
}

// WithTopPerCategory sets the shortlist width per category.
func WithTopPerCategory(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.topPerCat = n
		}
	}
}

// New creates a planner.
func New(opts ...Option) *Planner {
	p := &Planner{
		logger:      slog.Default(),
		weights:     scoring.DefaultWeights,
		perInterest: 10,
		topPerCat:   3,
		memo:        otter.Must(&otter.Options[string, activity.Activity]{MaximumSize: 10_000}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GenerateItinerary runs the full pipeline for one request. It fails only
// when the request location cannot be resolved at all; every later stage
// degrades instead of failing.
func (p *Planner) GenerateItinerary(ctx context.Context, req itinerary.Request) (*itinerary.Itinerary, error) {
	start := time.Now()
	defer func() {
		metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	lat, lon, err := p.resolveLocation(ctx, &req)
	if err != nil {
		return nil, err
	}

	interests := activity.ValidInterests(req.Interests)
	pool, usedFallback := p.gatherCandidates(ctx, lat, lon, req.TravelDistanceKM, interests)

	pool = dedupe(pool)
	considered := len(pool)

	scored := scoring.ScoreAll(pool, scoring.Context{
		Budget:    req.Budget,
		OriginLat: lat,
		OriginLon: lon,
	}, p.weights)

	shortlist := scoring.SelectTop(scored, p.topPerCat)
	shortlist = p.enrichShortlist(ctx, shortlist)
	shortlist = p.boostTrendiness(ctx, shortlist, req.Location)

	// Highest final score first; ties keep category grouping stable.
	sort.SliceStable(shortlist, func(i, j int) bool {
		return shortlist[i].FinalScore > shortlist[j].FinalScore
	})

	// History filtering runs after the final re-score, just before
	// assembly, so scores are comparable across users.
	allVisited := false
	filtered := false
	if p.profiles != nil && req.UserID != "" {
		visits, err := p.profiles.Visits(ctx, req.UserID)
		if err != nil {
			p.logger.Warn("visit history unavailable, skipping filter",
				"user", req.UserID, "error", err)
		} else {
			shortlist, allVisited = profile.FilterUnvisited(shortlist, visits)
			filtered = true
		}
	}
	if !filtered {
		// Without history every place counts as a discovery.
		for i := range shortlist {
			shortlist[i].IsNewPlace = true
		}
	}

	result := itinerary.Assemble(req, shortlist)
	result.Metadata.AllPlacesVisited = allVisited
	result.Metadata.ActivitiesConsidered = considered

	switch {
	case len(result.Activities) == 0:
		metrics.ItinerariesGenerated.WithLabelValues("empty").Inc()
	case usedFallback:
		metrics.ItinerariesGenerated.WithLabelValues("fallback").Inc()
	default:
		metrics.ItinerariesGenerated.WithLabelValues("ok").Inc()
	}

	p.logger.Info("itinerary generated",
		"user", req.UserID,
		"stops", len(result.Activities),
		"candidates", result.Metadata.ActivitiesConsidered,
		"fallback", usedFallback,
		"elapsed", time.Since(start))
	return &result, nil
}

func (p *Planner) resolveLocation(ctx context.Context, req *itinerary.Request) (lat, lon float64, err error) {
	if req.Lat != 0 || req.Lon != 0 {
		return req.Lat, req.Lon, nil
	}
	if req.Location == "" {
		return 0, 0, errors.New("request has neither coordinates nor a location")
	}
	if p.geocoder == nil {
		return 0, 0, errors.New("no geocoder configured for location lookup")
	}

	loc, err := p.geocoder.Forward(ctx, req.Location)
	if err != nil {
		return 0, 0, err
	}
	req.Lat, req.Lon = loc.Latitude, loc.Longitude
	return loc.Latitude, loc.Longitude, nil
}

// gatherCandidates fans out to every source concurrently: one fetch per
// interest through the place-source chain, plus the event source. A pool
// that ends up empty is replaced by static fallback activities.
func (p *Planner) gatherCandidates(ctx context.Context, lat, lon, radiusKM float64, interests []activity.Category) (pool []activity.Activity, usedFallback bool) {
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, interest := range interests {
		wg.Add(1)
		go func(interest activity.Category) {
			defer wg.Done()
			found := p.searchPlaceChain(ctx, lat, lon, radiusKM, interest)
			mu.Lock()
			pool = append(pool, found...)
			mu.Unlock()
		}(interest)
	}

	if p.events != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			city := geocode.DefaultCity
			if p.geocoder != nil {
				city = p.geocoder.CityFor(ctx, lat, lon)
			}
			found, err := p.events.Search(ctx, city, lat, lon)
			if err != nil {
				p.logger.Warn("event search failed", "city", city, "error", err)
				metrics.SourceErrors.WithLabelValues("events").Inc()
				return
			}
			metrics.SourceResults.WithLabelValues("events").Add(float64(len(found)))
			mu.Lock()
			pool = append(pool, found...)
			mu.Unlock()
		}()
	}

	wg.Wait()

	if len(pool) == 0 {
		p.logger.Warn("no candidates from any source, using static fallbacks",
			"lat", lat, "lon", lon)
		pool = places.FallbackActivities(lat, lon)
		metrics.SourceResults.WithLabelValues("fallback").Add(float64(len(pool)))
		return pool, true
	}
	return pool, false
}

func (p *Planner) searchPlaceChain(ctx context.Context, lat, lon, radiusKM float64, interest activity.Category) []activity.Activity {
	placeType := activity.SearchType(interest)
	for _, source := range p.placeSources {
		found, err := source.SearchNearby(ctx, lat, lon, radiusKM, placeType, p.perInterest)
		if err != nil {
			p.logger.Warn("place search failed", "type", placeType, "error", err)
			metrics.SourceErrors.WithLabelValues("places").Inc()
			continue
		}
		if len(found) > 0 {
			metrics.SourceResults.WithLabelValues("places").Add(float64(len(found)))
			return found
		}
	}
	return nil
}

// enrichShortlist enriches candidates, memoizing by identity so repeated
// requests do not re-enrich the same venue.
func (p *Planner) enrichShortlist(ctx context.Context, shortlist []activity.Activity) []activity.Activity {
	if p.enricher == nil {
		return shortlist
	}

	out := make([]activity.Activity, len(shortlist))
	var toEnrich []activity.Activity
	var toEnrichIdx []int

	for i, a := range shortlist {
		if memoized, ok := p.memo.GetIfPresent(a.Key()); ok {
			// Scores belong to this request; only the enriched
			// attributes carry over.
			a.DurationHours = memoized.DurationHours
			a.IndoorOutdoor = memoized.IndoorOutdoor
			a.EnergyLevel = memoized.EnergyLevel
			a.Confidence = memoized.Confidence
			a.Description = memoized.Description
			a.Highlights = memoized.Highlights
			out[i] = a
			continue
		}
		toEnrich = append(toEnrich, a)
		toEnrichIdx = append(toEnrichIdx, i)
	}

	if len(toEnrich) > 0 {
		enriched := p.enricher.EnrichAll(ctx, toEnrich)
		for j, a := range enriched {
			out[toEnrichIdx[j]] = a
			p.memo.Set(a.Key(), a)
		}
	}
	return out
}

func (p *Planner) boostTrendiness(ctx context.Context, shortlist []activity.Activity, location string) []activity.Activity {
	if p.trends == nil {
		return shortlist
	}

	boosted := make([]activity.Activity, len(shortlist))
	var wg sync.WaitGroup
	for i, a := range shortlist {
		wg.Add(1)
		go func(i int, a activity.Activity) {
			defer wg.Done()
			score := p.trends.Score(ctx, a.Title, location)
			if score == trendiness.Neutral {
				metrics.TrendinessLookups.WithLabelValues("neutral").Inc()
			} else {
				metrics.TrendinessLookups.WithLabelValues("scored").Inc()
			}
			boosted[i] = scoring.ApplyTrendiness(a, score, p.weights)
		}(i, a)
	}
	wg.Wait()
	return boosted
}

// dedupe keeps the first occurrence of each venue across sources.
func dedupe(pool []activity.Activity) []activity.Activity {
	seen := make(map[string]bool, len(pool))
	out := pool[:0]
	for _, a := range pool {
		key := a.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

// RecordVisits marks every stop of an itinerary as visited for a user.
func (p *Planner) RecordVisits(ctx context.Context, userID string, it *itinerary.Itinerary) error {
	if p.profiles == nil || userID == "" || it == nil {
		return nil
	}
	for _, a := range it.Activities {
		v := profile.Visit{PlaceID: a.PlaceID, PlaceName: a.Title, VisitedAt: time.Now()}
		if err := p.profiles.RecordVisit(ctx, userID, v); err != nil {
			return err
		}
	}
	return nil
}
