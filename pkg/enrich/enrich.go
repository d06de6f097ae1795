// Package enrich fills in the planning attributes of shortlisted candidates
// using Gemini, falling back to the heuristic defaults each record already
// carries when the model is unavailable or slow.
package enrich

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sidequest-dev/sidequest/pkg/activity"
	"github.com/sidequest-dev/sidequest/pkg/gemini"
	"google.golang.org/genai"
)

// DefaultTimeout bounds a single enrichment call. An itinerary is never
// worth waiting on a stuck model call for.
const DefaultTimeout = 10 * time.Second

// Interpreter extracts structured data from a prompt. *gemini.Client
// satisfies it.
type Interpreter interface {
	Generate(ctx context.Context, prompt string, schema *genai.Schema, out any) error
}

// Enricher upgrades candidate records with model-estimated attributes.
type Enricher struct {
	interpreter Interpreter
	logger      *slog.Logger
	timeout     time.Duration
}

// New creates an enricher. A nil interpreter disables enrichment entirely,
// leaving heuristic defaults in place.
func New(interpreter Interpreter, timeout time.Duration, logger *slog.Logger) *Enricher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{interpreter: interpreter, timeout: timeout, logger: logger}
}

// Enrich returns a copy of the activity with model-estimated attributes.
// Any failure returns the input unchanged; the heuristics already populated
// workable values.
func (e *Enricher) Enrich(ctx context.Context, a activity.Activity) activity.Activity {
	if e.interpreter == nil {
		return a
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var resp gemini.EnrichmentResponse
	prompt := gemini.EnrichmentPrompt(a.Title, string(a.Type), a.Address)
	if err := e.interpreter.Generate(ctx, prompt, gemini.EnrichmentSchema(), &resp); err != nil {
		e.logger.Debug("enrichment failed, keeping heuristic defaults",
			"title", a.Title, "error", err)
		return a
	}

	return apply(a, resp)
}

// EnrichAll enriches candidates concurrently, preserving input order.
func (e *Enricher) EnrichAll(ctx context.Context, candidates []activity.Activity) []activity.Activity {
	enriched := make([]activity.Activity, len(candidates))
	if e.interpreter == nil {
		copy(enriched, candidates)
		return enriched
	}

	var wg sync.WaitGroup
	for i, a := range candidates {
		wg.Add(1)
		go func(i int, a activity.Activity) {
			defer wg.Done()
			enriched[i] = e.Enrich(ctx, a)
		}(i, a)
	}
	wg.Wait()
	return enriched
}

// apply folds validated model estimates into a copy of the record. Out of
// range values are ignored field by field rather than discarding the whole
// response.
func apply(a activity.Activity, resp gemini.EnrichmentResponse) activity.Activity {
	if resp.DurationHours >= 0.5 && resp.DurationHours <= 4.0 {
		a.DurationHours = resp.DurationHours
	}
	// A zero cost from the model is indistinguishable from an omitted
	// field, so free-place estimates keep the heuristic value.
	if resp.Cost > 0 {
		a.Cost = resp.Cost
	}
	if t := activity.Category(resp.ActivityType); t != "" && knownCategory(t) {
		a.Type = t
	}
	switch activity.IndoorOutdoor(resp.IndoorOutdoor) {
	case activity.Indoor, activity.Outdoor, activity.Mixed:
		a.IndoorOutdoor = activity.IndoorOutdoor(resp.IndoorOutdoor)
	}
	if resp.EnergyLevel >= 1 && resp.EnergyLevel <= 10 {
		a.EnergyLevel = resp.EnergyLevel
	}
	if resp.Confidence > 0 && resp.Confidence <= 1 {
		a.Confidence = resp.Confidence
	}
	if resp.Description != "" {
		a.Description = resp.Description
	}
	if resp.Highlights != "" {
		a.Highlights = resp.Highlights
	}
	return a
}

func knownCategory(c activity.Category) bool {
	if c == activity.General {
		return true
	}
	for _, known := range activity.InterestCategories {
		if c == known {
			return true
		}
	}
	return false
}
