package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PHARMA_APP_ENV", "PHARMA_APP_PORT", "PHARMA_DATABASE_DRIVER", "PHARMA_DATABASE_DSN",
		"PHARMA_AUTH_SECRET", "PHARMA_AUTH_TOKEN_TTL", "PHARMA_ALERTS_EXPIRY_DAYS", "PHARMA_ALERTS_TIMEZONE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.HTTPPort)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Contains(t, cfg.Database.DSN, "pharmacy.db")
		assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
		assert.Equal(t, 30, cfg.Alerts.ExpiryDays)
		assert.Equal(t, "@daily", cfg.Alerts.Schedule)
		assert.Equal(t, "console", cfg.Log.Format)
	})

	t.Run("reads PHARMA_ environment variables", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PHARMA_APP_PORT", "9090")
		t.Setenv("PHARMA_AUTH_TOKEN_TTL", "30m")
		t.Setenv("PHARMA_ALERTS_EXPIRY_DAYS", "14")
		t.Setenv("PHARMA_APP_CORS_ORIGINS", "https://till.example.com https://office.example.com")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, []string{"https://till.example.com", "https://office.example.com"}, cfg.App.CORSOrigins)
		assert.Equal(t, "9090", cfg.App.HTTPPort)
		assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
		assert.Equal(t, 14, cfg.Alerts.ExpiryDays)
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PHARMA_DATABASE_DRIVER", "oracle")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("pgx needs an explicit dsn", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PHARMA_DATABASE_DRIVER", "pgx")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("production refuses the development secret", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PHARMA_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "auth.secret")
	})
}
