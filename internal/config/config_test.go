package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if len(cfg.Sources.Feeds) == 0 {
		t.Error("expected feeds to be populated")
	}
	for _, f := range cfg.Sources.Feeds {
		if len(f.Country) != 3 {
			t.Errorf("feed %s should carry an ISO3 country, got %q", f.URL, f.Country)
		}
	}

	if cfg.Classification.Provider != "ollama" {
		t.Errorf("expected provider 'ollama', got %q", cfg.Classification.Provider)
	}
	if cfg.Classification.Timeout != 120*time.Second {
		t.Errorf("expected 120s timeout, got %v", cfg.Classification.Timeout)
	}
	if cfg.Translation.OnFailure != "skip" {
		t.Errorf("expected on_failure skip, got %q", cfg.Translation.OnFailure)
	}
	if cfg.Processing.DelayBetweenCalls != time.Second {
		t.Errorf("expected 1s delay, got %v", cfg.Processing.DelayBetweenCalls)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
classification:
  provider: openai
  model: gpt-4o
database:
  engine: postgres
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Classification.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", cfg.Classification.Provider)
	}
	if cfg.Database.Engine != "postgres" {
		t.Errorf("expected postgres engine, got %q", cfg.Database.Engine)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Classification.OllamaURL != "http://localhost:11434" {
		t.Errorf("expected default ollama_url, got %q", cfg.Classification.OllamaURL)
	}
	if cfg.Classification.MaxAttempts != 3 || cfg.Filter.MinCountries != 2 {
		t.Errorf("expected default attempts and threshold, got %d and %d",
			cfg.Classification.MaxAttempts, cfg.Filter.MinCountries)
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"engine":    "database:\n  engine: mysql\n",
		"provider":  "classification:\n  provider: bard\n",
		"policy":    "translation:\n  on_failure: retry\n",
		"threshold": "filter:\n  min_countries: 0\n",
		"attempts":  "classification:\n  max_attempts: 0\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parse([]byte(data)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Sources.Feeds) == 0 {
		t.Error("expected feeds to be populated from file")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}
	if !strings.HasSuffix(cfg.DatabasePath(), "geomonitor.db") {
		t.Errorf("unexpected default database path %q", cfg.DatabasePath())
	}

	cfg.Output.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected /custom/path, got %q", cfg.GetDataDir())
	}
	cfg.Database.Path = "/tmp/x.db"
	if cfg.DatabasePath() != "/tmp/x.db" {
		t.Errorf("expected explicit path, got %q", cfg.DatabasePath())
	}
}

func TestResolveConfigPathExplicit(t *testing.T) {
	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("GEOMONITOR_TEST_DSN=postgres://x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GEOMONITOR_TEST_DSN", "")
	os.Unsetenv("GEOMONITOR_TEST_DSN")

	if err := LoadEnv(path, filepath.Join(dir, "absent.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := &Config{Database: Database{DSNEnv: "GEOMONITOR_TEST_DSN"}}
	if cfg.DatabaseDSN() != "postgres://x" {
		t.Errorf("expected DSN from .env, got %q", cfg.DatabaseDSN())
	}
}
