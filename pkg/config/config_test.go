package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "hajj_agencies", cfg.Database.Database)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 10, cfg.Assistant.MaxContextTurns)
	assert.Equal(t, 0.6, cfg.Assistant.FuzzyThreshold)
	assert.False(t, cfg.OTEL.Enabled)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ASSISTANT_MAX_CONTEXT_TURNS", "4")
	t.Setenv("ASSISTANT_FUZZY_THRESHOLD", "0.75")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Assistant.MaxContextTurns)
	assert.Equal(t, 0.75, cfg.Assistant.FuzzyThreshold)
	assert.True(t, cfg.OTEL.Enabled)
}

func TestEnvOverrideInvalidValueFallsBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p",
		Database: "hajj_agencies", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=hajj_agencies sslmode=disable", c.DatabaseDSN())
}

func TestRedisAddr(t *testing.T) {
	c := RedisConfig{Host: "cache", Port: 6379}
	assert.Equal(t, "cache:6379", c.RedisAddr())
}
