package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 365, cfg.HeatmapDays)
	assert.True(t, cfg.EnableScheduler)
	assert.Empty(t, cfg.AdminEmails)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://localhost/precedents")
	t.Setenv("ADMIN_EMAILS", " Root@Example.com ,, ops@example.com")
	t.Setenv("STUDY_TIMEZONE", "UTC")
	t.Setenv("NOTIFICATION_START_HOUR", "9")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, []string{"root@example.com", "ops@example.com"}, cfg.AdminEmails)
	assert.True(t, cfg.IsAdminEmail("ROOT@example.com"))
	assert.False(t, cfg.IsAdminEmail("user@example.com"))
	assert.Equal(t, 9, cfg.NotificationStartHour)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HEATMAP_DAYS=90\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("HEATMAP_DAYS") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.HeatmapDays)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DBDriver:              "sqlite3",
			DBDSN:                 ":memory:",
			SessionTTL:            time.Hour,
			HeatmapDays:           30,
			NotificationStartHour: 8,
			NotificationEndHour:   22,
			StudyTimezone:         "UTC",
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"dsn", func(c *Config) { c.DBDSN = "" }},
		{"ttl", func(c *Config) { c.SessionTTL = 0 }},
		{"heatmap", func(c *Config) { c.HeatmapDays = 0 }},
		{"hour range", func(c *Config) { c.NotificationEndHour = 24 }},
		{"hour order", func(c *Config) { c.NotificationStartHour = 23; c.NotificationEndHour = 1 }},
		{"timezone", func(c *Config) { c.StudyTimezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
