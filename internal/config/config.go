// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/menabung/rebalancer/internal/modules/rebalancing"
	"github.com/menabung/rebalancer/internal/modules/yields"
	"github.com/menabung/rebalancer/internal/storage"
)

// Config holds application configuration
type Config struct {
	DataDir   string // Base directory for the store database, always absolute
	Port      int
	LogLevel  string
	LogPretty bool
	DevMode   bool

	YieldMode                  yields.Mode
	YieldCacheTTL              time.Duration
	SignificantChangeThreshold float64
	RefreshSchedule            string
	SnapshotRetention          time.Duration
	NotifyCooldown             time.Duration

	ThetanutsURL string
	AerodromeURL string
	StakingURL   string
	HTTPTimeout  time.Duration

	StoreBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	mode, err := yields.ParseMode(getEnv("YIELD_SOURCE_MODE", string(yields.ModeDemo)))
	if err != nil {
		return nil, err
	}

	backend, err := storage.ParseBackend(getEnv("STORE_BACKEND", storage.BackendSQLite))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:   absDataDir,
		Port:      getEnvAsInt("PORT", 8080),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),
		DevMode:   getEnvAsBool("DEV_MODE", false),

		YieldMode:                  mode,
		YieldCacheTTL:              getEnvAsDuration("YIELD_CACHE_TTL", yields.DefaultCacheTTL),
		SignificantChangeThreshold: getEnvAsFloat("SIGNIFICANT_CHANGE_THRESHOLD", yields.SignificantChangeThreshold),
		RefreshSchedule:            getEnv("YIELD_REFRESH_SCHEDULE", "@every "+yields.RefreshInterval.String()),
		SnapshotRetention:          getEnvAsDuration("SNAPSHOT_RETENTION", 7*24*time.Hour),
		NotifyCooldown:             time.Duration(getEnvAsFloat("NOTIFY_COOLDOWN_HOURS", rebalancing.DefaultNotifyCooldown.Hours()) * float64(time.Hour)),

		ThetanutsURL: getEnv("THETANUTS_API_URL", ""),
		AerodromeURL: getEnv("AERODROME_SUBGRAPH_URL", ""),
		StakingURL:   getEnv("STAKING_API_URL", ""),
		HTTPTimeout:  getEnvAsDuration("HTTP_TIMEOUT", 10*time.Second),

		StoreBackend:  backend,
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.StoreBackend == storage.BackendSQLite {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.YieldCacheTTL <= 0 {
		return fmt.Errorf("YIELD_CACHE_TTL must be positive, got %s", c.YieldCacheTTL)
	}
	if c.SignificantChangeThreshold <= 0 {
		return fmt.Errorf("SIGNIFICANT_CHANGE_THRESHOLD must be positive, got %v", c.SignificantChangeThreshold)
	}
	if c.NotifyCooldown < 0 {
		return fmt.Errorf("NOTIFY_COOLDOWN_HOURS must not be negative")
	}
	if c.StoreBackend == storage.BackendRedis && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required for the redis store backend")
	}
	return nil
}

// StorePath is the SQLite file used by the sqlite backend.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "store.db")
}

// AggregatorConfig is the yields configuration the core consumes.
func (c *Config) AggregatorConfig() yields.AggregatorConfig {
	return yields.AggregatorConfig{
		Mode:                       c.YieldMode,
		CacheTTL:                   c.YieldCacheTTL,
		SignificantChangeThreshold: c.SignificantChangeThreshold,
	}
}

// RemoteConfig is the live endpoint configuration.
func (c *Config) RemoteConfig() yields.RemoteConfig {
	return yields.RemoteConfig{
		ThetanutsURL: c.ThetanutsURL,
		AerodromeURL: c.AerodromeURL,
		StakingURL:   c.StakingURL,
		Timeout:      c.HTTPTimeout,
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
