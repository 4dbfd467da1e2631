package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LISTEN_ADDR", "DATABASE_PATH", "PAGE_SIZE", "LOG_DEBUG"} {
		t.Setenv(key, "")
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Fatalf("expected listen addr :8080, got %q", cfg.ListenAddr)
	}
	if cfg.DatabasePath != "habits.db" {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath)
	}
	if cfg.PageSize != 10 {
		t.Fatalf("expected page size 10, got %d", cfg.PageSize)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habits.yaml")
	content := "port: \"9000\"\ndatabase_path: /tmp/from-file.db\npage_size: 25\nlog_debug: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("PORT", "")
	t.Setenv("LOG_DEBUG", "")
	t.Setenv("DATABASE_PATH", "  /tmp/from-env.db ")
	t.Setenv("PAGE_SIZE", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.ListenAddr != ":9000" {
		t.Fatalf("expected listen addr from file port, got %q", cfg.ListenAddr)
	}
	if cfg.DatabasePath != "/tmp/from-env.db" {
		t.Fatalf("expected env to win, got %q", cfg.DatabasePath)
	}
	if cfg.PageSize != 25 || !cfg.LogDebug {
		t.Fatalf("expected file values, got page_size=%d log_debug=%v", cfg.PageSize, cfg.LogDebug)
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("PAGE_SIZE", "ten")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for non-numeric PAGE_SIZE")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
