package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"vastai-scraper/models"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DATA_DIR", "SCHEDULE", "LISTING_TYPES", "USER_AGENT", "HEALTHCHECK_URL",
		"QUERY_FILE", "REQUEST_TIMEOUT_MS", "MAX_RETRIES", "OFFERS_DATABASE_URL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DataDir != "./data" {
		t.Errorf("DataDir: got %q", cfg.DataDir)
	}
	if cfg.Schedule != "*/5 * * * *" {
		t.Errorf("Schedule: got %q", cfg.Schedule)
	}
	if len(cfg.ListingTypes) != 2 || cfg.ListingTypes[0] != models.ListingAsk || cfg.ListingTypes[1] != models.ListingBid {
		t.Errorf("ListingTypes: got %v", cfg.ListingTypes)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout: got %v", cfg.RequestTimeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries: got %d", cfg.MaxRetries)
	}
	if cfg.RetryBackoffCap != 10*time.Second {
		t.Errorf("RetryBackoffCap: got %v", cfg.RetryBackoffCap)
	}
	if cfg.HealthcheckURL != "" {
		t.Errorf("HealthcheckURL: got %q, want empty", cfg.HealthcheckURL)
	}
	if cfg.Query.Limit != 512 || cfg.Query.GPUNames[0] != "RTX 5090" {
		t.Errorf("Query: got %+v", cfg.Query)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATA_DIR", "/tmp/offers")
	t.Setenv("SCHEDULE", "0 * * * *")
	t.Setenv("LISTING_TYPES", " ask , ,bid,reserved")
	t.Setenv("USER_AGENT", "custom/2.0")
	t.Setenv("HEALTHCHECK_URL", "https://hc.example.com/ping")
	t.Setenv("MAX_RETRIES", "not-a-number")
	t.Setenv("QUERY_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DataDir != "/tmp/offers" || cfg.Schedule != "0 * * * *" || cfg.UserAgent != "custom/2.0" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	want := []models.ListingType{"ask", "bid", "reserved"}
	if len(cfg.ListingTypes) != len(want) {
		t.Fatalf("ListingTypes: got %v, want %v", cfg.ListingTypes, want)
	}
	for i := range want {
		if cfg.ListingTypes[i] != want[i] {
			t.Errorf("ListingTypes[%d]: got %q, want %q", i, cfg.ListingTypes[i], want[i])
		}
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("invalid MAX_RETRIES should fall back to 3, got %d", cfg.MaxRetries)
	}
	if cfg.HealthcheckURL != "https://hc.example.com/ping" {
		t.Errorf("HealthcheckURL: got %q", cfg.HealthcheckURL)
	}
}

func TestLoadQueryOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.yml")
	body := "gpu_names: [\"RTX 4090\", \"H100 SXM\"]\nlimit: 64\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	q, err := LoadQuery(path)
	if err != nil {
		t.Fatalf("LoadQuery: %v", err)
	}

	if len(q.GPUNames) != 2 || q.GPUNames[1] != "H100 SXM" {
		t.Errorf("GPUNames: got %v", q.GPUNames)
	}
	if q.Limit != 64 {
		t.Errorf("Limit: got %d, want 64", q.Limit)
	}
	if q.MinDuration != 21600 || q.ResourceType != "gpu" {
		t.Errorf("unset keys should keep defaults, got %+v", q)
	}
}

func TestLoadQueryRejectsEmptyGPUList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.yml")
	if err := os.WriteFile(path, []byte("gpu_names: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadQuery(path); err == nil {
		t.Fatal("expected error for empty gpu_names")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{DataDir: "./data", ListingTypes: []models.ListingType{models.ListingAsk}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg.ListingTypes = nil
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty listing types")
	}

	cfg = &Config{DataDir: " ", ListingTypes: []models.ListingType{models.ListingAsk}}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for blank data dir")
	}
}
