package app

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		PGDSN:              "postgres://localhost/bakeops",
		SessionTTL:         time.Hour,
		RateLimitPerMinute: 60,
		LogFormat:          "json",
		LogLevel:           "debug",
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid"},
		{name: "missing dsn", mutate: func(c *Config) { c.PGDSN = " " }, errMsg: "PG_DSN"},
		{name: "zero ttl", mutate: func(c *Config) { c.SessionTTL = 0 }, errMsg: "SESSION_TTL"},
		{name: "zero rate", mutate: func(c *Config) { c.RateLimitPerMinute = 0 }, errMsg: "RATE_LIMIT"},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, errMsg: "LOG_FORMAT"},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, errMsg: "LOG_LEVEL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			if tc.mutate != nil {
				tc.mutate(&cfg)
			}
			err := cfg.Validate()
			if tc.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PG_DSN", "postgres://env/bakeops")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example.com,https://shop.example.com")
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/bakeops", cfg.PGDSN)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"https://admin.example.com", "https://shop.example.com"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 5*time.Minute, cfg.DashboardCacheTTL)
}

func TestLoggerHonoursFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := validConfig()
	cfg.LogLevel = "warn"
	logger := newLogger(&buf, &cfg)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
}
