package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadLayersYamlOverDefaults(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/betsnipe_test")

	path := writeConfig(t, `
scrape_interval_seconds: 5
min_profit_percentage: 2.5
providers_enabled: [mozzart, maxbet]
providers:
  mozzart:
    enabled: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ScrapeIntervalSeconds != 5 {
		t.Errorf("scrape interval = %d, want 5 from yaml", cfg.ScrapeIntervalSeconds)
	}
	if cfg.MinProfitPercentage != 2.5 {
		t.Errorf("min profit = %v, want 2.5 from yaml", cfg.MinProfitPercentage)
	}

	// Knobs the file does not mention keep their defaults.
	if cfg.RequestTimeoutSeconds != 30 {
		t.Errorf("request timeout = %d, want default 30", cfg.RequestTimeoutSeconds)
	}
	if cfg.Redis.Stream != "betsnipe.events" {
		t.Errorf("redis stream = %q, want default", cfg.Redis.Stream)
	}
	if cfg.ReadHeaderTimeout() != 5*time.Second {
		t.Errorf("read header timeout = %v, want default 5s", cfg.ReadHeaderTimeout())
	}

	if cfg.ProviderEnabled("mozzart") {
		t.Error("mozzart enabled despite its enabled: false block")
	}
	if !cfg.ProviderEnabled("maxbet") {
		t.Error("maxbet disabled despite being listed")
	}
	if cfg.ProviderEnabled("topbet") {
		t.Error("topbet enabled despite not being listed")
	}
}

func TestLoadEnvWinsOverYaml(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/betsnipe_test")
	t.Setenv("SCRAPE_INTERVAL_SECONDS", "7")

	path := writeConfig(t, "scrape_interval_seconds: 3\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ScrapeIntervalSeconds != 7 {
		t.Errorf("scrape interval = %d, want 7 from env", cfg.ScrapeIntervalSeconds)
	}
	if cfg.CycleDeadline() != 14*time.Second {
		t.Errorf("cycle deadline = %v, want 14s", cfg.CycleDeadline())
	}
}

func TestLoadRejectsMissingDBURL(t *testing.T) {
	t.Setenv("DB_URL", "")

	if _, err := Load(""); err == nil {
		t.Fatal("Load succeeded without DB_URL")
	}
}

func TestLoadRejectsZeroInterval(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/betsnipe_test")

	path := writeConfig(t, "scrape_interval_seconds: 0\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted a zero scrape interval")
	}
}
