package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := Load(nil)

	if cfg.DataDir != "./data" {
		t.Errorf("Expected ./data, got %s", cfg.DataDir)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("Expected :8080, got %s", cfg.ListenAddr)
	}
	if cfg.PruneSchedule != "@daily" {
		t.Errorf("Expected @daily, got %s", cfg.PruneSchedule)
	}
	if cfg.RetentionDays != 0 {
		t.Errorf("Expected 0 retention days, got %d", cfg.RetentionDays)
	}
	if cfg.IsMCPEnabled() {
		t.Error("Expected MCP to be disabled without a token")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NETGEN_DATA_DIR", "/var/lib/netgen")
	t.Setenv("NETGEN_BEARER_TOKEN", "secret")
	t.Setenv("NETGEN_RETENTION_DAYS", "30")

	cfg := Load(nil)

	if cfg.DataDir != "/var/lib/netgen" {
		t.Errorf("Expected /var/lib/netgen, got %s", cfg.DataDir)
	}
	if cfg.BearerToken != "secret" {
		t.Errorf("Expected secret, got %s", cfg.BearerToken)
	}
	if cfg.RetentionDays != 30 {
		t.Errorf("Expected 30, got %d", cfg.RetentionDays)
	}
	if !cfg.IsMCPEnabled() {
		t.Error("Expected MCP to be enabled with a token")
	}
}

func TestLoadIgnoresBadRetention(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NETGEN_RETENTION_DAYS", "soon")

	if cfg := Load(nil); cfg.RetentionDays != 0 {
		t.Errorf("Expected 0, got %d", cfg.RetentionDays)
	}
}

func TestLoadEnvFileWinsOverEnvironment(t *testing.T) {
	dir := t.TempDir()
	envFile := "NETGEN_LISTEN_ADDR=:9999\n# comment\nNETGEN_LOG_LEVEL=\"debug\"\nOTHER_KEY=skipped\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(envFile), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Chdir(dir)
	t.Setenv("NETGEN_LISTEN_ADDR", ":7777")

	cfg := Load(nil)

	if cfg.ListenAddr != ":9999" {
		t.Errorf("Expected :9999 from .env, got %s", cfg.ListenAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected debug, got %s", cfg.LogLevel)
	}
	if cfg.ConfigFile != ".env" {
		t.Errorf("Expected .env as config source, got %q", cfg.ConfigFile)
	}
}

func TestLoadOptsWin(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NETGEN_DATA_DIR", "/from/env")

	cfg := Load(&Config{DataDir: "/from/flags", RetentionDays: 7})

	if cfg.DataDir != "/from/flags" {
		t.Errorf("Expected /from/flags, got %s", cfg.DataDir)
	}
	if cfg.RetentionDays != 7 {
		t.Errorf("Expected 7, got %d", cfg.RetentionDays)
	}
}
