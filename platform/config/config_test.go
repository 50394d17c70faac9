package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/kanvaro")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, 20, cfg.GetSearchDefaultLimit())
	assert.Equal(t, 100, cfg.GetSearchMaxLimit())
	assert.False(t, cfg.GetSearchPartialResults())
	assert.Equal(t, 10, cfg.GetSearchRecentLimit())
	assert.Equal(t, 720*time.Hour, cfg.GetSearchRecentTTL())
	assert.Equal(t, "default", cfg.GetAsynqQueueName())
	assert.True(t, cfg.IsMigrationsEnabled())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.GetCORSOrigins())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SEARCH_DEFAULT_LIMIT", "10")
	t.Setenv("SEARCH_MAX_LIMIT", "50")
	t.Setenv("SEARCH_PARTIAL_RESULTS", "TRUE")
	t.Setenv("SEARCH_RECENT_TTL", "24h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.GetSearchDefaultLimit())
	assert.Equal(t, 50, cfg.GetSearchMaxLimit())
	assert.True(t, cfg.GetSearchPartialResults())
	assert.Equal(t, 24*time.Hour, cfg.GetSearchRecentTTL())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.GetCORSOrigins())
	assert.InDelta(t, 2.5, cfg.GetRateLimitRPS(), 1e-9)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database url", map[string]string{"DATABASE_URL": ""}},
		{"missing jwt secret", map[string]string{"JWT_ACCESS_SECRET": ""}},
		{"wildcard origin with credentials", map[string]string{"CORS_ORIGINS": "*", "CORS_ALLOW_CREDENTIALS": "true"}},
		{"no cors origins", map[string]string{"CORS_ORIGINS": " , "}},
		{"default above max", map[string]string{"SEARCH_DEFAULT_LIMIT": "200", "SEARCH_MAX_LIMIT": "100"}},
		{"zero default", map[string]string{"SEARCH_DEFAULT_LIMIT": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
