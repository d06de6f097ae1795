// Package config loads application configuration from an optional YAML file
// with environment variable overrides. A .env file is honored for local
// development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the service and CLI.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Google     GoogleConfig     `yaml:"google"`
	Database   DatabaseConfig   `yaml:"database"`
	Cache      CacheConfig      `yaml:"cache"`
	Planner    PlannerConfig    `yaml:"planner"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	GinMode        string `yaml:"gin_mode"`
	AllowedOrigins string `yaml:"allowed_origins"`
	RateLimitRPS   int    `yaml:"rate_limit_rps"`
}

// GoogleConfig holds Google API credentials.
type GoogleConfig struct {
	MapsAPIKey   string `yaml:"maps_api_key"`
	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`
	GCPProject   string `yaml:"gcp_project"`
}

// DatabaseConfig holds the visit-history store settings. An empty URL means
// the in-memory store is used.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// Duration wraps time.Duration so YAML values like "90s" or "24h" parse.
type Duration time.Duration

// UnmarshalYAML parses a duration string or a plain number of nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		n, intErr := strconv.ParseInt(value.Value, 10, 64)
		if intErr != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		parsed = time.Duration(n)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// CacheConfig holds response and trendiness cache settings.
type CacheConfig struct {
	Dir           string   `yaml:"dir"`
	ResponseTTL   Duration `yaml:"response_ttl"`
	TrendinessTTL Duration `yaml:"trendiness_ttl"`
}

// PlannerConfig holds pipeline tuning knobs.
type PlannerConfig struct {
	CandidatesPerInterest int      `yaml:"candidates_per_interest"`
	TopPerCategory        int      `yaml:"top_per_category"`
	TrendinessTimeout     Duration `yaml:"trendiness_timeout"`
	EnrichmentTimeout     Duration `yaml:"enrichment_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load builds configuration from defaults, an optional YAML file (path may
// be empty), and environment variable overrides, in that order. A .env file
// in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			GinMode:        "release",
			AllowedOrigins: "*",
			RateLimitRPS:   10,
		},
		Google: GoogleConfig{
			GeminiModel: "gemini-2.5-flash-lite",
		},
		Cache: CacheConfig{
			Dir:           defaultCacheDir(),
			ResponseTTL:   Duration(time.Hour),
			TrendinessTTL: Duration(24 * time.Hour),
		},
		Planner: PlannerConfig{
			CandidatesPerInterest: 10,
			TopPerCategory:        3,
			TrendinessTimeout:     Duration(5 * time.Second),
			EnrichmentTimeout:     Duration(10 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("SERVER_PORT", cfg.Server.Port)
	cfg.Server.GinMode = getEnv("GIN_MODE", cfg.Server.GinMode)
	cfg.Server.AllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Server.RateLimitRPS = getEnvInt("RATE_LIMIT_RPS", cfg.Server.RateLimitRPS)

	cfg.Google.MapsAPIKey = getEnv("GOOGLE_MAPS_API_KEY", cfg.Google.MapsAPIKey)
	cfg.Google.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.Google.GeminiAPIKey)
	cfg.Google.GeminiModel = getEnv("GEMINI_MODEL", cfg.Google.GeminiModel)
	cfg.Google.GCPProject = getEnv("GCP_PROJECT", cfg.Google.GCPProject)

	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)

	cfg.Cache.Dir = getEnv("CACHE_DIR", cfg.Cache.Dir)
	cfg.Cache.ResponseTTL = getEnvDuration("CACHE_RESPONSE_TTL", cfg.Cache.ResponseTTL)
	cfg.Cache.TrendinessTTL = getEnvDuration("CACHE_TRENDINESS_TTL", cfg.Cache.TrendinessTTL)

	cfg.Planner.CandidatesPerInterest = getEnvInt("PLANNER_CANDIDATES_PER_INTEREST", cfg.Planner.CandidatesPerInterest)
	cfg.Planner.TopPerCategory = getEnvInt("PLANNER_TOP_PER_CATEGORY", cfg.Planner.TopPerCategory)
	cfg.Planner.TrendinessTimeout = getEnvDuration("PLANNER_TRENDINESS_TIMEOUT", cfg.Planner.TrendinessTimeout)
	cfg.Planner.EnrichmentTimeout = getEnvDuration("PLANNER_ENRICHMENT_TIMEOUT", cfg.Planner.EnrichmentTimeout)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + "/sidequest"
	}
	return "/tmp/sidequest-cache"
}

// SlogLevel maps the configured level string to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Logging.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback Duration) Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return Duration(d)
}
