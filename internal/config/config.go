package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	SnapshotKeyPrefix  string
	SnapshotTTL        time.Duration
	CatalogPath        string
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	MaxBodyBytes       int64
	SessionIdleTTL     time.Duration
	SessionSweepEvery  time.Duration
	EventStream        string
	Obs                ObsConfig
}

// ObsConfig groups logging, metrics and tracing settings.
type ObsConfig struct {
	ServiceName     string
	LogFormat       string
	LogLevel        string
	MetricsEnabled  bool
	MetricsPath     string
	MetricsBuckets  string
	TracingEnabled  bool
	TracingExporter string
	TracingEndpoint string
	TracingSampling float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		SnapshotKeyPrefix:  valueOrDefault(k.String("SNAPSHOT_KEY_PREFIX"), "quote:snapshot:"),
		SnapshotTTL:        parseDuration(k.String("SNAPSHOT_TTL"), "720h"),
		CatalogPath:        strings.TrimSpace(k.String("CATALOG_PATH")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		RateLimitPerMinute: parseInt(k.String("RATE_LIMIT_PER_MINUTE"), 120),
		MaxBodyBytes:       int64(parseInt(k.String("MAX_BODY_BYTES"), 256<<10)),
		SessionIdleTTL:     parseDuration(k.String("SESSION_IDLE_TTL"), "30m"),
		SessionSweepEvery:  parseDuration(k.String("SESSION_SWEEP_INTERVAL"), "1m"),
		EventStream:        strings.TrimSpace(k.String("EVENT_STREAM")),
		Obs: ObsConfig{
			ServiceName:     valueOrDefault(k.String("OBS_SERVICE_NAME"), "quote-api"),
			LogFormat:       valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:        valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsEnabled:  parseBoolDefault(k.String("OBS_METRICS_ENABLED"), true),
			MetricsPath:     valueOrDefault(k.String("OBS_METRICS_PATH"), "/metrics"),
			MetricsBuckets:  k.String("OBS_METRICS_BUCKETS_MS"),
			TracingEnabled:  parseBoolDefault(k.String("OBS_TRACING_ENABLED"), false),
			TracingExporter: valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
			TracingEndpoint: k.String("OBS_TRACING_ENDPOINT"),
			TracingSampling: parseFloat(k.String("OBS_TRACING_SAMPLE_RATIO"), 1),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must not be negative"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}
	if c.SnapshotTTL < 0 {
		errs = append(errs, errors.New("SNAPSHOT_TTL must not be negative"))
	}
	if c.RedisURL == "" && c.EventStream != "" {
		errs = append(errs, errors.New("EVENT_STREAM requires REDIS_URL"))
	}
	return errors.Join(errs...)
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// UsesRedis reports whether snapshots and rate limits are backed by Redis.
func (c *Config) UsesRedis() bool {
	return c.RedisURL != ""
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
