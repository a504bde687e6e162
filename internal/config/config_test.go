package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("RETENTION_DAYS", "")
	t.Setenv("RETENTION_SCHEDULE", "")
	t.Setenv("DEFAULT_OVERWRITE_METHOD", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 30, cfg.RetentionDays)
	require.Equal(t, "simple", cfg.DefaultOverwriteMethod)
	require.Equal(t, "02:00", cfg.RetentionSchedule)
	require.True(t, cfg.RetentionSchedulerEnabled)
	require.Empty(t, cfg.DatabaseURL)
	require.Equal(t, 1<<20, cfg.OverwriteChunkSize)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RETENTION_DAYS", "7")
	t.Setenv("DEFAULT_OVERWRITE_METHOD", "gutmann")
	t.Setenv("RETENTION_SCHEDULE", "0 */6 * * *")
	t.Setenv("RETENTION_SCHEDULER_ENABLED", "false")
	t.Setenv("SEARCH_INDEX_URL", "http://search:9200")
	t.Setenv("SEARCH_TIMEOUT", "2s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7, cfg.RetentionDays)
	require.Equal(t, "gutmann", cfg.DefaultOverwriteMethod)
	require.Equal(t, "0 */6 * * *", cfg.RetentionSchedule)
	require.False(t, cfg.RetentionSchedulerEnabled)
	require.Equal(t, 2*time.Second, cfg.SearchTimeout)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			ServerPort:             "8080",
			StorageRoot:            "./data",
			RequestTimeout:         time.Second,
			JWTSecret:              "secret",
			DBMaxConns:             10,
			DBMinConns:             2,
			RetentionDays:          30,
			OverwriteChunkSize:     1 << 20,
			DefaultOverwriteMethod: "dod",
			RetentionSchedule:      "02:00",
		}
	}

	base := valid()
	require.NoError(t, base.Validate())

	tests := map[string]func(c *Config){
		"missing secret":  func(c *Config) { c.JWTSecret = " " },
		"zero retention":  func(c *Config) { c.RetentionDays = 0 },
		"tiny chunks":     func(c *Config) { c.OverwriteChunkSize = 512 },
		"unknown method":  func(c *Config) { c.DefaultOverwriteMethod = "shred" },
		"inverted pool":   func(c *Config) { c.DBMinConns = 20 },
		"empty schedule":  func(c *Config) { c.RetentionSchedule = "" },
		"search no limit": func(c *Config) { c.SearchIndexURL = "http://search"; c.SearchTimeout = 0 },
	}

	for name, mutate := range tests {
		cfg := valid()
		mutate(&cfg)
		require.Error(t, cfg.Validate(), name)
	}
}
