// Package main implements the sidequest HTTP API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

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
	configPath = flag.String("config", "", "Path to YAML config file")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("sidequest server v1.0.0")
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	level := cfg.SlogLevel()
	if *verbose {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler)

	logger.Info("server configuration",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"gin_mode", cfg.Server.GinMode,
		"cache_dir", cfg.Cache.Dir,
		"gemini_model", cfg.Google.GeminiModel,
		"has_maps_key", cfg.Google.MapsAPIKey != "",
		"has_gemini_key", cfg.Google.GeminiAPIKey != "",
		"has_database", cfg.Database.URL != "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, cleanup, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(app.requestID())
	router.Use(app.requestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", app.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(app.rateLimit())
	{
		v1.POST("/itinerary", app.handleGenerate)
		v1.POST("/visits", app.handleRecordVisit)
		v1.GET("/users/:id/visits", app.handleListVisits)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

type app struct {
	planner  *planner.Planner
	profiles profile.Store
	limiter  *rateLimiter
	logger   *slog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	respCache, err := httpcache.New(ctx, cfg.Cache.Dir, cfg.Cache.ResponseTTL.Std(), logger)
	if err != nil {
		logger.Warn("response cache unavailable, running uncached", "error", err)
		respCache = nil
	} else {
		cleanups = append(cleanups, func() {
			if err := respCache.Close(); err != nil {
				logger.Error("closing response cache", "error", err)
			}
		})
	}

	httpClient := httpcache.NewClient(respCache, &http.Client{Timeout: 30 * time.Second}, logger)

	var store profile.Store
	if cfg.Database.URL != "" {
		pgStore, err := profile.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("visit store: %w", err)
		}
		store = pgStore
	} else {
		logger.Warn("no database configured, visit history is in-memory only")
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

	if cfg.Google.GeminiAPIKey != "" || cfg.Google.GCPProject != "" {
		var modelCache gemini.ResponseCache
		if respCache != nil {
			modelCache = respCache
		}
		interpreter := gemini.NewClient(cfg.Google.GeminiAPIKey, cfg.Google.GeminiModel, cfg.Google.GCPProject, modelCache, logger)
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
	} else {
		logger.Warn("no Gemini credentials, enrichment and trendiness are disabled")
	}

	return &app{
		planner:  planner.New(opts...),
		profiles: store,
		limiter:  newRateLimiter(cfg.Server.RateLimitRPS),
		logger:   logger,
	}, cleanup, nil
}

func (a *app) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "sidequest"})
}

func (a *app) handleGenerate(c *gin.Context) {
	var req itinerary.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := a.planner.GenerateItinerary(c.Request.Context(), req)
	if err != nil {
		a.logger.Error("itinerary generation failed", "error", err,
			"request_id", c.GetString("request_id"))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

type visitRequest struct {
	UserID    string     `json:"user_id" binding:"required"`
	PlaceID   string     `json:"place_id"`
	PlaceName string     `json:"place_name" binding:"required"`
	VisitedAt *time.Time `json:"visited_at"`
}

func (a *app) handleRecordVisit(c *gin.Context) {
	var req visitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	visit := profile.Visit{PlaceID: req.PlaceID, PlaceName: req.PlaceName}
	if req.VisitedAt != nil {
		visit.VisitedAt = *req.VisitedAt
	}

	if err := a.profiles.RecordVisit(c.Request.Context(), req.UserID, visit); err != nil {
		a.logger.Error("recording visit failed", "error", err, "user", req.UserID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record visit"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *app) handleListVisits(c *gin.Context) {
	userID := c.Param("id")
	visits, err := a.profiles.Visits(c.Request.Context(), userID)
	if err != nil {
		a.logger.Error("listing visits failed", "error", err, "user", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load visits"})
		return
	}
	if visits == nil {
		visits = []profile.Visit{}
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "visits": visits})
}

func (a *app) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (a *app) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/metrics" || c.Request.URL.Path == "/healthz" {
			return
		}
		a.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString("request_id"))
	}
}

func (a *app) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.limiter.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

type rateLimiter struct {
	requests map[string][]time.Time
	limit    int
	mu       sync.Mutex
}

func newRateLimiter(perMinute int) *rateLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    perMinute,
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Minute)

	var valid []time.Time
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[ip] = valid
		return false
	}

	rl.requests[ip] = append(valid, now)
	return true
}
