package config_test

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gomarten/spur/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spur.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func validConfig() string {
	return `
server:
  host: "127.0.0.1"
  port: 9000
  read_timeout: 5s

logging:
  level: debug
  format: console

cors:
  enabled: true

limits:
  rate_requests: 100
`
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, validConfig()))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Server.Addr() != "127.0.0.1:9000" {
		t.Errorf("expected 127.0.0.1:9000, got %s", cfg.Server.Addr())
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected 5s read timeout, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 60*time.Second {
		t.Errorf("expected default write timeout, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}
	if len(cfg.CORS.AllowOrigins) != 1 || cfg.CORS.AllowOrigins[0] != "*" {
		t.Errorf("expected wildcard origin default, got %v", cfg.CORS.AllowOrigins)
	}
	if cfg.Limits.RateWindow != time.Minute {
		t.Errorf("expected 1m rate window, got %v", cfg.Limits.RateWindow)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("expected /metrics, got %s", cfg.Metrics.Path)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_SPUR_PORT", "7070")
	cfg, err := config.Load(writeConfig(t, "server:\n  port: ${TEST_SPUR_PORT}\n"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected 7070, got %d", cfg.Server.Port)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SPUR_SERVER_PORT", "9100")
	t.Setenv("SPUR_LOG_LEVEL", "warn")
	t.Setenv("SPUR_QUERY_RAW", "yes")
	t.Setenv("SPUR_CSRF_ORIGINS", "https://a.example, https://b.example")

	cfg, err := config.Load(writeConfig(t, validConfig()))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("expected 9100, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected warn, got %s", cfg.Logging.Level)
	}
	if !cfg.Query.RawValues {
		t.Error("expected raw query values")
	}
	if !cfg.CSRF.Enabled || len(cfg.CSRF.Origins) != 2 || cfg.CSRF.Origins[1] != "https://b.example" {
		t.Errorf("unexpected csrf %+v", cfg.CSRF)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SPUR_METRICS_ENABLED", "1")
	t.Setenv("SPUR_LIMIT_RATE_WINDOW", "30s")
	t.Setenv("SPUR_LIMIT_RATE", "10")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("expected default address, got %s", cfg.Server.Addr())
	}
	if !cfg.Metrics.Enabled {
		t.Error("expected metrics enabled")
	}
	if cfg.Limits.RateRequests != 10 || cfg.Limits.RateWindow != 30*time.Second {
		t.Errorf("unexpected limits %+v", cfg.Limits)
	}
}

func TestLoadWithFallback(t *testing.T) {
	cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected 8080, got %d", cfg.Server.Port)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "server: [", "parse config"},
		{"bad port", "server:\n  port: 70000\n", "server.port"},
		{"bad level", "logging:\n  level: loud\n", "logging.level"},
		{"bad format", "logging:\n  format: xml\n", "logging.format"},
		{"bad metrics path", "metrics:\n  path: metrics\n", "metrics.path"},
		{"negative body", "limits:\n  body_bytes: -1\n", "limits.body_bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := config.NewLoggerTo(&buf, config.LoggingConfig{Level: "warn", Format: "json"})
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected info to be filtered, got %s", out)
	}
	if !strings.Contains(out, `"message":"shown"`) || !strings.Contains(out, `"time"`) {
		t.Errorf("expected json line with time, got %s", out)
	}

	buf.Reset()
	log = config.NewLoggerTo(&buf, config.LoggingConfig{Level: "bogus", Format: "console"})
	log.Info().Msg("console")
	if strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), "console") {
		t.Errorf("expected console output, got %s", buf.String())
	}
}
