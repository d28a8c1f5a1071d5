package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"PORT":                  "",
		"REDIS_URL":             "",
		"EVENT_STREAM":          "",
		"RATE_LIMIT_PER_MINUTE": "",
		"MAX_BODY_BYTES":        "",
		"SESSION_IDLE_TTL":      "",
		"OBS_METRICS_ENABLED":   "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.False(t, cfg.UsesRedis())
	require.Equal(t, "quote:snapshot:", cfg.SnapshotKeyPrefix)
	require.Equal(t, 120, cfg.RateLimitPerMinute)
	require.EqualValues(t, 256<<10, cfg.MaxBodyBytes)
	require.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	require.True(t, cfg.Obs.MetricsEnabled)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"PORT":                 ":9090",
		"REDIS_URL":            "redis://localhost:6379/0",
		"SNAPSHOT_TTL":         "2h",
		"SESSION_IDLE_TTL":     "bogus",
		"CORS_ALLOWED_ORIGINS": "https://a.example, ,https://b.example",
		"OBS_METRICS_ENABLED":  "off",
		"OBS_TRACING_EXPORTER": "stdout",
		"EVENT_STREAM":         "quote:events",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.True(t, cfg.UsesRedis())
	require.Equal(t, 2*time.Hour, cfg.SnapshotTTL)
	require.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.False(t, cfg.Obs.MetricsEnabled)
	require.Equal(t, "stdout", cfg.Obs.TracingExporter)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"REDIS_URL":      "",
		"EVENT_STREAM":   "quote:events",
		"MAX_BODY_BYTES": "-1",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "EVENT_STREAM")
	require.Contains(t, err.Error(), "MAX_BODY_BYTES")
}
