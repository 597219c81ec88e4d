package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.JournalMode != "memory" || cfg.AptitudeCache != "memory" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AptitudeTTL != 72*time.Hour {
		t.Fatalf("aptitude ttl got %v, want 72h", cfg.AptitudeTTL)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.env")
	if err := os.WriteFile(path, []byte("JOURNAL_MODE=sqlite\nREDIS_DB=3\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	// godotenv never overrides variables that are already set.
	t.Setenv("JOURNAL_MODE", "")
	os.Unsetenv("JOURNAL_MODE")
	t.Setenv("REDIS_DB", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JournalMode != "sqlite" {
		t.Fatalf("journal mode got %q, want sqlite", cfg.JournalMode)
	}
	if cfg.RedisDB != 5 {
		t.Fatalf("redis db got %d, want 5 from the environment", cfg.RedisDB)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("REDIS_DB", "not-an-int")
	var cfg Config
	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
