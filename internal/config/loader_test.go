package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromDefaultsOnly(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Gemini.Model != "gemini-1.5-flash" {
		t.Errorf("expected default model, got %q", cfg.Gemini.Model)
	}
	if cfg.Gemini.Timeout != 10*time.Second {
		t.Errorf("expected default gemini timeout, got %v", cfg.Gemini.Timeout)
	}
	if cfg.Gemini.APIKey != "" && os.Getenv("GEMINI_API_KEY") == "" {
		t.Errorf("expected empty api key by default")
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "triagedesk.yaml")
	yaml := `
server:
  port: "9090"
gemini:
  model: gemini-1.5-pro
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %q", cfg.Server.Port)
	}
	if cfg.Gemini.Model != "gemini-1.5-pro" {
		t.Errorf("expected yaml model, got %q", cfg.Gemini.Model)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected yaml log level, got %q", cfg.Logging.Level)
	}
	// Untouched sections keep defaults.
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected default nats url, got %q", cfg.NATS.URL)
	}
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "triagedesk.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9090\"\n"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	t.Setenv("TRIAGEDESK_PORT", "7070")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("TRIAGEDESK_BREAKER_TIMEOUT", "45s")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("expected env port 7070, got %q", cfg.Server.Port)
	}
	if cfg.Gemini.APIKey != "test-key" {
		t.Errorf("expected api key from env, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Breaker.Timeout != 45*time.Second {
		t.Errorf("expected breaker timeout 45s, got %v", cfg.Breaker.Timeout)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"empty dsn", func(c *Config) { c.Postgres.DSN = "" }},
		{"empty model", func(c *Config) { c.Gemini.Model = "" }},
		{"zero breaker failures", func(c *Config) { c.Breaker.MaxFailures = 0 }},
		{"zero parallel", func(c *Config) { c.Pipeline.MaxParallel = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			if err := validate(&cfg); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadFromMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "triagedesk.yaml")
	if err := os.WriteFile(path, []byte("server: [not a mapping"), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	if _, err := LoadFrom(path); err == nil {
		t.Error("expected error for malformed yaml, got nil")
	}
}
