// Package metrics exposes Prometheus instrumentation for the itinerary
// pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ItinerariesGenerated counts generated itineraries by outcome.
	ItinerariesGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sidequest",
		Subsystem: "planner",
		Name:      "itineraries_generated_total",
		Help:      "Number of itineraries generated, labeled by outcome (ok, empty, fallback).",
	}, []string{"outcome"})

	// GenerationDuration observes end-to-end itinerary generation time.
	GenerationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sidequest",
		Subsystem: "planner",
		Name:      "generation_duration_seconds",
		Help:      "Time spent assembling an itinerary, including source fan-out and enrichment.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	// SourceResults counts candidates contributed per source.
	SourceResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sidequest",
		Subsystem: "sources",
		Name:      "candidates_total",
		Help:      "Number of candidate activities fetched, labeled by source (places, events, fallback).",
	}, []string{"source"})

	// SourceErrors counts failed source fetches.
	SourceErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sidequest",
		Subsystem: "sources",
		Name:      "errors_total",
		Help:      "Number of source fetch failures, labeled by source.",
	}, []string{"source"})

	// TrendinessLookups counts trendiness resolutions by result.
	TrendinessLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sidequest",
		Subsystem: "trendiness",
		Name:      "lookups_total",
		Help:      "Number of trendiness lookups, labeled by result (hit, assessed, neutral).",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		ItinerariesGenerated,
		GenerationDuration,
		SourceResults,
		SourceErrors,
		TrendinessLookups,
	)
}
