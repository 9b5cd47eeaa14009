package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("JWT_SECRET", "0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "memory", cfg.Database.Store)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, 12*time.Hour, cfg.Auth.JWTTTL)
	assert.InDelta(t, 0.7, cfg.Dispatch.FillThreshold, 1e-9)
	assert.True(t, cfg.Dispatch.FallbackEnabled)
	assert.True(t, cfg.Dispatch.UnlockOnCancel)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://dispatch@localhost/dispatch")
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("DISPATCH_FILL_THRESHOLD", "0.85")
	t.Setenv("DISPATCH_FALLBACK_ENABLED", "false")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://dispatch@localhost/dispatch", cfg.Database.URL)
	assert.InDelta(t, 0.85, cfg.Dispatch.FillThreshold, 1e-9)
	assert.False(t, cfg.Dispatch.FallbackEnabled)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]map[string]string{
		"postgres without url": {"STORE": "postgres", "DATABASE_URL": "", "JWT_SECRET": "0123456789abcdef"},
		"short secret":         {"STORE": "memory", "JWT_SECRET": "short"},
		"threshold above one":  {"STORE": "memory", "JWT_SECRET": "0123456789abcdef", "DISPATCH_FILL_THRESHOLD": "1.5"},
		"unknown store":        {"STORE": "sqlite", "JWT_SECRET": "0123456789abcdef"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
