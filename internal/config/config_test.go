package config

import (
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("STORAGE_DRIVER", StorageDriverMemory)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "Asia/Jakarta", cfg.App.SiteTimezone)
	assert.Equal(t, 0.5, cfg.Policy.HalfDayRatio)
	assert.True(t, cfg.Policy.LatePenaltyPerMinute.IsZero())
	assert.Equal(t, 4, cfg.Payroll.BatchConcurrency)
	assert.True(t, cfg.Cron.Enabled)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_PolicyOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POLICY_GRACE_MINUTES", "10")
	t.Setenv("POLICY_LATE_PENALTY_PER_MINUTE", "1500.50")
	t.Setenv("POLICY_STATUTORY_DEDUCTION_RATE", "0.02")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://hr.example.com, https://admin.example.com")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Policy.GraceMinutes)
	assert.True(t, cfg.Policy.LatePenaltyPerMinute.Equal(decimal.RequireFromString("1500.50")))
	assert.True(t, cfg.Policy.StatutoryRate.Equal(decimal.RequireFromString("0.02")))
	assert.Equal(t, []string{"https://hr.example.com", "https://admin.example.com"}, cfg.App.AllowedOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad port", "APP_PORT", "http"},
		{"bad penalty", "POLICY_ABSENCE_PENALTY_PER_DAY", "lots"},
		{"ratio out of range", "POLICY_HALF_DAY_RATIO", "1.5"},
		{"unknown driver", "STORAGE_DRIVER", "sqlite"},
		{"unknown timezone", "SITE_TIMEZONE", "Mars/Olympus"},
		{"zero concurrency", "PAYROLL_BATCH_CONCURRENCY", "0"},
		{"bad expiration", "JWT_ACCESS_EXPIRATION_TIME", "forever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate_PostgresRequiresPassword(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")
	t.Setenv("STORAGE_DRIVER", StorageDriverPostgres)
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}
