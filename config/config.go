// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SPUR_"

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Query   QueryConfig   `yaml:"query"`
	Metrics MetricsConfig `yaml:"metrics"`
	CORS    CORSConfig    `yaml:"cors"`
	CSRF    CSRFConfig    `yaml:"csrf"`
	Limits  LimitsConfig  `yaml:"limits"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// QueryConfig configures query-string parsing.
type QueryConfig struct {
	// RawValues turns off percent-decoding of string values.
	RawValues bool `yaml:"raw_values"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
	Prefix  string `yaml:"prefix"`  // Metric name prefix (default: spur)
}

// CORSConfig configures CORS headers.
type CORSConfig struct {
	Enabled          bool     `yaml:"enabled"`
	AllowOrigins     []string `yaml:"allow_origins"`
	AllowMethods     []string `yaml:"allow_methods"`
	AllowHeaders     []string `yaml:"allow_headers"`
	ExposeHeaders    []string `yaml:"expose_headers"`
	MaxAge           int      `yaml:"max_age"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// CSRFConfig configures the origin check on unsafe methods.
type CSRFConfig struct {
	Enabled bool     `yaml:"enabled"`
	Origins []string `yaml:"origins"`
}

// LimitsConfig configures request limits.
type LimitsConfig struct {
	BodyBytes    int64         `yaml:"body_bytes"`
	RateRequests int           `yaml:"rate_requests"`
	RateWindow   time.Duration `yaml:"rate_window"`
}

// Load reads configuration from a YAML file. Variables from a .env file
// next to the working directory are loaded first and ${VAR} references in
// the file are expanded.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	SPUR_SERVER_HOST        - Server host (default: 0.0.0.0)
//	SPUR_SERVER_PORT        - Server port (default: 8080)
//	SPUR_SERVER_READ_TIMEOUT, SPUR_SERVER_WRITE_TIMEOUT,
//	SPUR_SERVER_REQUEST_TIMEOUT, SPUR_SERVER_SHUTDOWN_TIMEOUT - durations
//	SPUR_LOG_LEVEL          - debug, info, warn, error (default: info)
//	SPUR_LOG_FORMAT         - json or console (default: json)
//	SPUR_QUERY_RAW          - keep query values percent-encoded
//	SPUR_METRICS_ENABLED    - Enable /metrics endpoint
//	SPUR_METRICS_PATH       - Metrics path (default: /metrics)
//	SPUR_CORS_ORIGINS       - Comma separated allowed origins, enables CORS
//	SPUR_CSRF_ORIGINS       - Comma separated trusted origins, enables CSRF
//	SPUR_LIMIT_BODY_BYTES   - Maximum request body size
//	SPUR_LIMIT_RATE         - Requests per window and client
//	SPUR_LIMIT_RATE_WINDOW  - Rate limit window
func LoadFromEnv() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	var cfg Config
	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadWithFallback loads path when it exists and the environment otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// loadDotEnv sets variables from file without overriding existing ones.
// A missing file is not an error.
func loadDotEnv(file string) error {
	if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", file, err)
	}
	return nil
}

// applyEnvOverrides applies SPUR_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := env("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := env("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	if v := env("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := env("QUERY_RAW"); v != "" {
		cfg.Query.RawValues = parseBool(v)
	}

	if v := env("METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := env("METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	if v := env("CORS_ORIGINS"); v != "" {
		cfg.CORS.Enabled = true
		cfg.CORS.AllowOrigins = splitList(v)
	}
	if v := env("CSRF_ORIGINS"); v != "" {
		cfg.CSRF.Enabled = true
		cfg.CSRF.Origins = splitList(v)
	}

	if v := env("LIMIT_BODY_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Limits.BodyBytes = n
		}
	}
	if v := env("LIMIT_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.RateRequests = n
		}
	}
	envDuration("LIMIT_RATE_WINDOW", &cfg.Limits.RateWindow)
}

func env(name string) string {
	return os.Getenv(EnvPrefix + name)
}

func envDuration(name string, dst *time.Duration) {
	if v := env(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.Prefix == "" {
		cfg.Metrics.Prefix = "spur"
	}
	if cfg.CORS.Enabled && len(cfg.CORS.AllowOrigins) == 0 {
		cfg.CORS.AllowOrigins = []string{"*"}
	}
	if cfg.Limits.RateRequests > 0 && cfg.Limits.RateWindow == 0 {
		cfg.Limits.RateWindow = time.Minute
	}
}

func validate(cfg *Config) error {
	var errs []error
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", cfg.Server.Port))
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be debug, info, warn or error, got %q", cfg.Logging.Level))
	}
	switch cfg.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", cfg.Logging.Format))
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path must start with /, got %q", cfg.Metrics.Path))
	}
	if cfg.Limits.BodyBytes < 0 {
		errs = append(errs, errors.New("limits.body_bytes must not be negative"))
	}
	if cfg.Limits.RateRequests < 0 {
		errs = append(errs, errors.New("limits.rate_requests must not be negative"))
	}
	return errors.Join(errs...)
}
