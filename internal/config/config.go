package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"go-doc-lifecycle/internal/erasure"
)

type Config struct {
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration

	DatabaseURL string
	DBMaxConns  int
	DBMinConns  int

	StorageRoot        string
	OverwriteChunkSize int

	JWTSecret    string
	CORSOrigins  []string
	RateLimitRPM int

	RetentionDays             int
	DefaultOverwriteMethod    string
	RetentionSchedule         string
	RetentionSchedulerEnabled bool

	SearchIndexURL string
	SearchTimeout  time.Duration

	LogLevel  string
	LogFormat string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		ServerReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Minute),
		ServerIdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:  getInt("DB_MAX_CONNS", 10),
		DBMinConns:  getInt("DB_MIN_CONNS", 2),

		StorageRoot:        getEnv("STORAGE_ROOT", "./data"),
		OverwriteChunkSize: getInt("OVERWRITE_CHUNK_SIZE", 1<<20),

		JWTSecret:    strings.TrimSpace(os.Getenv("JWT_SECRET")),
		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM: getInt("RATE_LIMIT_RPM", 100),

		RetentionDays:             getInt("RETENTION_DAYS", 30),
		DefaultOverwriteMethod:    getEnv("DEFAULT_OVERWRITE_METHOD", "simple"),
		RetentionSchedule:         getEnv("RETENTION_SCHEDULE", "02:00"),
		RetentionSchedulerEnabled: getBool("RETENTION_SCHEDULER_ENABLED", true),

		SearchIndexURL: strings.TrimSpace(os.Getenv("SEARCH_INDEX_URL")),
		SearchTimeout:  getDuration("SEARCH_TIMEOUT", 5*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "pretty"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.StorageRoot == "" {
		return fmt.Errorf("STORAGE_ROOT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS (%d)", c.DBMaxConns)
	}

	if c.RetentionDays <= 0 {
		return fmt.Errorf("RETENTION_DAYS must be positive")
	}

	if c.OverwriteChunkSize < 4096 {
		return fmt.Errorf("OVERWRITE_CHUNK_SIZE must be at least 4096 bytes")
	}

	if _, err := erasure.ParseMethod(c.DefaultOverwriteMethod, erasure.MethodSimple); err != nil {
		return fmt.Errorf("DEFAULT_OVERWRITE_METHOD: %w", err)
	}

	if strings.TrimSpace(c.RetentionSchedule) == "" {
		return fmt.Errorf("RETENTION_SCHEDULE cannot be empty")
	}

	if c.SearchIndexURL != "" && c.SearchTimeout <= 0 {
		return fmt.Errorf("SEARCH_TIMEOUT must be positive")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
