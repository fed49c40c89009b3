package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_BASE_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.StorageBaseURL != "http://localhost:8080/static" {
		t.Fatalf("StorageBaseURL = %q", cfg.StorageBaseURL)
	}
	if cfg.FalModel != "fal-ai/flux/dev" {
		t.Fatalf("FalModel = %q", cfg.FalModel)
	}
	if cfg.RenderConcurrency != 3 {
		t.Fatalf("RenderConcurrency = %d, want 3", cfg.RenderConcurrency)
	}
	if cfg.JobTimeout != 5*time.Minute {
		t.Fatalf("JobTimeout = %v, want 5m", cfg.JobTimeout)
	}
	if cfg.FreeDailyLimit != 5 || cfg.PremiumDailyLimit != 10 {
		t.Fatalf("daily limits = %d/%d, want 5/10", cfg.FreeDailyLimit, cfg.PremiumDailyLimit)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig accepted a missing JWT_SECRET")
	}
}

func TestLoadConfigHonorsOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("STORAGE_BASE_URL", "https://cdn.example.com/static")
	t.Setenv("JOB_TIMEOUT_SECONDS", "60")
	t.Setenv("RENDER_CONCURRENCY", "2")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.StorageBaseURL != "https://cdn.example.com/static" {
		t.Fatalf("StorageBaseURL = %q", cfg.StorageBaseURL)
	}
	if cfg.JobTimeout != time.Minute {
		t.Fatalf("JobTimeout = %v, want 1m", cfg.JobTimeout)
	}
	if cfg.RenderConcurrency != 2 {
		t.Fatalf("RenderConcurrency = %d, want 2", cfg.RenderConcurrency)
	}
}
