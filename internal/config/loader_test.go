package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadWritesAndUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	logger := zerolog.Nop()

	cfg, resolved, err := Load(&logger, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Addr != ":8090" || cfg.Heartbeat != 30*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Backend.Bucket != "chat-files" {
		t.Fatalf("unexpected backend defaults: %+v", cfg.Backend)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config was not written back: %v", err)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	content := `
addr: ":9000"
log_level: debug
heartbeat: 10s
backend:
  url: https://backend.example
  api_key: file-key
local:
  enabled: true
  user_id: tester
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	logger := zerolog.Nop()
	cfg, _, err := Load(&logger, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.LogLevel != "debug" || cfg.Heartbeat != 10*time.Second {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Backend.URL != "https://backend.example" || cfg.Backend.APIKey != "file-key" {
		t.Fatalf("backend section not applied: %+v", cfg.Backend)
	}
	if !cfg.Local.Enabled || cfg.Local.UserID != "tester" {
		t.Fatalf("local section not applied: %+v", cfg.Local)
	}
	// untouched keys keep their defaults
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("default lost for untouched key: %v", cfg.ShutdownTimeout)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	if err := os.WriteFile(path, []byte("addr: \":9000\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WIRECHAT_ADDR", ":7777")
	t.Setenv("WIRECHAT_BACKEND_API_KEY", "env-key")

	logger := zerolog.Nop()
	cfg, _, err := Load(&logger, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7777" {
		t.Fatalf("env var should override file, got %q", cfg.Addr)
	}
	if cfg.Backend.APIKey != "env-key" {
		t.Fatalf("nested env var not applied, got %q", cfg.Backend.APIKey)
	}
}
