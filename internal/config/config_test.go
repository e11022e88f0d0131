package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "Family Gift Exchange", cfg.App.Name)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "gift_exchange", cfg.Database.Postgres.Database)
	assert.Equal(t, 25, cfg.Database.Postgres.MaxConnections)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 30*24*time.Hour, cfg.Session.RememberTTL)
	assert.Equal(t, 10, cfg.RateLimit.LoginPerMinute)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Session.SecureCookies)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_BASE_URL", "https://gifts.example.com")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("POSTGRES_MAX_CONNECTIONS", "50")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SECURE_COOKIES", "true")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://gifts.example.com", cfg.App.BaseURL)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 50, cfg.Database.Postgres.MaxConnections)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Session.SecureCookies)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestEnvParsingFallsBackOnGarbage(t *testing.T) {
	t.Setenv("POSTGRES_MAX_CONNECTIONS", "not-a-number")
	t.Setenv("SESSION_TTL", "not-a-duration")
	t.Setenv("SECURE_COOKIES", "not-a-bool")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Database.Postgres.MaxConnections)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.False(t, cfg.Session.SecureCookies)
}
