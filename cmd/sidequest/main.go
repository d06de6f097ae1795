// Package main implements the sidequest CLI for generating day itineraries
// from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/sidequest-dev/sidequest/pkg/config"
	"github.com/sidequest-dev/sidequest/pkg/enrich"
	"github.com/sidequest-dev/sidequest/pkg/events"
	"github.com/sidequest-dev/sidequest/pkg/gemini"
	"github.com/sidequest-dev/sidequest/pkg/geocode"
	"github.com/sidequest-dev/sidequest/pkg/httpcache"
	"github.com/sidequest-dev/sidequest/pkg/itinerary"
	"github.com/sidequest-dev/sidequest/pkg/places"
	"github.com/sidequest-dev/sidequest/pkg/planner"
	"github.com/sidequest-dev/sidequest/pkg/profile"
	"github.com/sidequest-dev/sidequest/pkg/trendiness"
)

var (
	configPath  = flag.String("config", "", "Path to YAML config file")
	interestsFl = flag.String("interests", "meals,scenery", "Comma-separated interests")
	budget      = flag.Float64("budget", 100, "Total budget in dollars")
	hours       = flag.Float64("hours", 6, "Available hours (ignored when -end is set)")
	startTime   = flag.String("start", itinerary.DefaultStartTime, "Start time (HH:MM)")
	endTime     = flag.String("end", "", "End time (HH:MM)")
	distance    = flag.Float64("distance", 0, "Search radius in km (0 = default)")
	userID      = flag.String("user", "", "User ID for visit-history filtering")
	lat         = flag.Float64("lat", 0, "Latitude (alternative to a location argument)")
	lon         = flag.Float64("lon", 0, "Longitude (alternative to a location argument)")
	record      = flag.Bool("record", false, "Record the itinerary stops as visited")
	noCache     = flag.Bool("no-cache", false, "Disable response caching")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("sidequest CLI v1.0.0")
		return
	}

	location := strings.Join(flag.Args(), " ")
	if location == "" && *lat == 0 && *lon == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <location>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	p, cleanup, err := buildPlanner(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	req := itinerary.Request{
		UserID:           *userID,
		Location:         location,
		Lat:              *lat,
		Lon:              *lon,
		TravelDistanceKM: *distance,
		Interests:        strings.Split(*interestsFl, ","),
		Budget:           *budget,
		AvailableHours:   *hours,
		StartTime:        *startTime,
		EndTime:          *endTime,
	}

	result, err := p.GenerateItinerary(ctx, req)
	if err != nil {
		logger.Error("itinerary generation failed", "error", err)
		os.Exit(1)
	}

	printItinerary(result)

	if *record && *userID != "" {
		if err := p.RecordVisits(ctx, *userID, result); err != nil {
			logger.Error("recording visits failed", "error", err)
		}
	}
}

func buildPlanner(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*planner.Planner, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var respCache *httpcache.Cache
	if !*noCache {
		var err error
		respCache, err = httpcache.New(ctx, cfg.Cache.Dir, cfg.Cache.ResponseTTL.Std(), logger)
		if err != nil {
			logger.Warn("response cache unavailable, running uncached", "error", err)
		} else {
			cleanups = append(cleanups, func() {
				if err := respCache.Close(); err != nil {
					logger.Error("closing response cache", "error", err)
				}
			})
		}
	}

	httpClient := httpcache.NewClient(respCache, &http.Client{Timeout: 30 * time.Second}, logger)

	var interpreter *gemini.Client
	if cfg.Google.GeminiAPIKey != "" || cfg.Google.GCPProject != "" {
		var modelCache gemini.ResponseCache
		if respCache != nil {
			modelCache = respCache
		}
		interpreter = gemini.NewClient(cfg.Google.GeminiAPIKey, cfg.Google.GeminiModel, cfg.Google.GCPProject, modelCache, logger)
	}

	var store profile.Store
	if cfg.Database.URL != "" {
		pgStore, err := profile.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("visit store: %w", err)
		}
		store = pgStore
	} else {
		store = profile.NewMemoryStore()
	}
	cleanups = append(cleanups, store.Close)

	opts := []planner.Option{
		planner.WithPlaceSources(places.NewClient(cfg.Google.MapsAPIKey, httpClient, logger)),
		planner.WithGeocoder(geocode.NewClient(cfg.Google.MapsAPIKey, httpClient, logger)),
		planner.WithProfileStore(store),
		planner.WithLogger(logger),
		planner.WithCandidatesPerInterest(cfg.Planner.CandidatesPerInterest),
		planner.WithTopPerCategory(cfg.Planner.TopPerCategory),
	}

	if interpreter != nil {
		opts = append(opts,
			planner.WithEventSource(events.NewSource(httpClient, interpreter, logger)),
			planner.WithEnricher(enrich.New(interpreter, cfg.Planner.EnrichmentTimeout.Std(), logger)),
			planner.WithTrendScorer(trendiness.New(
				interpreter,
				trendiness.NewMemoryCache(cfg.Cache.TrendinessTTL.Std()),
				cfg.Planner.TrendinessTimeout.Std(),
				logger,
			)),
		)
	}

	return planner.New(opts...), cleanup, nil
}

func printItinerary(it *itinerary.Itinerary) {
	header := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgYellow)
	dim := color.New(color.Faint)

	fmt.Println()
	header.Println("🗺️  Your Itinerary")
	fmt.Println(strings.Repeat("─", 50))

	if len(it.Activities) == 0 {
		fmt.Println(it.Summary)
		return
	}

	for _, a := range it.Activities {
		label.Printf("%s  ", a.StartTime)
		fmt.Printf("%s", a.Title)
		if a.MealType != "" {
			dim.Printf(" (%s)", a.MealType)
		}
		fmt.Println()

		details := fmt.Sprintf("      %.1fh · $%.0f · %s", a.DurationHours, a.Cost, a.Type)
		if a.IsNewPlace {
			details += " · new to you"
		}
		dim.Println(details)
		if a.Description != "" {
			dim.Printf("      %s\n", a.Description)
		}
	}

	fmt.Println(strings.Repeat("─", 50))
	fmt.Printf("💰 Total: $%.0f over %.1f hours\n", it.TotalCost, it.TotalHours)
	fmt.Printf("📝 %s\n", it.Summary)
	if it.Metadata.AllPlacesVisited {
		dim.Println("   (you have been everywhere nearby; repeats included)")
	}
	fmt.Println()
}
