package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 5*time.Minute, cfg.TokenCacheTTL)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Zero(t, cfg.TokenMaxAge)
	assert.Equal(t, cfg.RedisAddr, cfg.AsynqRedis().Addr)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TOKEN_MAX_AGE", "720h")
	t.Setenv("LOGIN_RATE_LIMIT_PER_MINUTE", "3")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 720*time.Hour, cfg.TokenMaxAge)
	assert.Equal(t, 3, cfg.LoginRateLimitPerMinute)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{PGDSN: "postgres://x", TokenPurgeCron: "@hourly"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty dsn", func(c *Config) { c.PGDSN = "" }},
		{"negative rate", func(c *Config) { c.RateLimitPerMinute = -1 }},
		{"negative max age", func(c *Config) { c.TokenMaxAge = -time.Second }},
		{"expiry without schedule", func(c *Config) { c.TokenMaxAge = time.Hour; c.TokenPurgeCron = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inkwell.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_ADDR=:9999\nRATE_LIMIT_PER_MINUTE=5\n"), 0o600))
	t.Setenv("INKWELL_ENV_FILE", path)
	t.Setenv("RATE_LIMIT_PER_MINUTE", "7")
	t.Cleanup(func() { _ = os.Unsetenv("APP_ADDR") })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.AppAddr)
	assert.Equal(t, 7, cfg.RateLimitPerMinute)
}

func TestLoadConfigMissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv("INKWELL_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	_, err := LoadConfig()
	assert.NoError(t, err)
}
