package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Cache.TrendinessTTL.Std() != 24*time.Hour {
		t.Errorf("trendiness TTL = %v, want 24h", cfg.Cache.TrendinessTTL)
	}
	if cfg.Planner.TopPerCategory != 3 {
		t.Errorf("top per category = %d, want 3", cfg.Planner.TopPerCategory)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: 9090
planner:
  top_per_category: 5
  trendiness_timeout: 2s
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Planner.TopPerCategory != 5 {
		t.Errorf("top per category = %d, want 5", cfg.Planner.TopPerCategory)
	}
	if cfg.Planner.TrendinessTimeout.Std() != 2*time.Second {
		t.Errorf("trendiness timeout = %v, want 2s", cfg.Planner.TrendinessTimeout)
	}
	// Unset fields keep their defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q", cfg.Server.Host)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, env should win over file", cfg.Server.Port)
	}
	if cfg.Google.GeminiAPIKey != "test-key" {
		t.Errorf("gemini key = %q", cfg.Google.GeminiAPIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestSlogLevel(t *testing.T) {
	cfg := defaults()
	cfg.Logging.Level = "debug"
	if cfg.SlogLevel().String() != "DEBUG" {
		t.Errorf("level = %v", cfg.SlogLevel())
	}
	cfg.Logging.Level = "bogus"
	if cfg.SlogLevel().String() != "INFO" {
		t.Errorf("unknown level should default to info, got %v", cfg.SlogLevel())
	}
}
