package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout.Duration())
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL.Duration())
	assert.Equal(t, 10, cfg.Pagination.PageSize)
	assert.Equal(t, 100, cfg.Pagination.MaxPageSize)
	assert.False(t, cfg.Redis.Enabled())
	assert.True(t, cfg.App.IsDev())
}

func TestLoadRedisURLAndDurations(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("REDIS_URL", "redis://default:pw@cache.internal:6380/2")
	t.Setenv("HTTP_WRITE_TIMEOUT", "15")
	t.Setenv("REDIS_DEFAULT_TTL", "5m")
	t.Setenv("HTTP_CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, "pw", cfg.Redis.Password)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 15*time.Second, cfg.HTTP.WriteTimeout.Duration())
	assert.Equal(t, 5*time.Minute, cfg.Redis.DefaultTTL.Duration())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.Origins())
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"postgres without dsn": {"STORAGE_DRIVER": "postgres"},
		"unknown driver":       {"STORAGE_DRIVER": "sqlite"},
		"bad rate":             {"STORAGE_DRIVER": "memory", "THROTTLE_ANON_RATE": "lots"},
		"secret outside dev":   {"STORAGE_DRIVER": "memory", "APP_ENV": "production"},
		"page size":            {"STORAGE_DRIVER": "memory", "PAGE_SIZE": "500"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
