// Package config loads service configuration from environment variables,
// falling back to defaults suitable for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/finledger/transaction-service/internal/infrastructure/cache"
	"github.com/finledger/transaction-service/internal/infrastructure/logger"
)

// Config holds everything the server needs to start.
type Config struct {
	Addr              string
	DBPath            string
	LogLevel          logger.Level
	ListingCacheSize  int
	ListingCacheTTL   time.Duration
	IdempotencyWindow time.Duration
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		Addr:              getEnv("SERVER_ADDR", ":8080"),
		DBPath:            getEnv("DB_PATH", "./data"),
		LogLevel:          logger.ParseLevel(getEnv("LOG_LEVEL", string(logger.InfoLevel))),
		ListingCacheSize:  getEnvInt("LISTING_CACHE_SIZE", cache.DefaultListingCapacity),
		ListingCacheTTL:   getEnvDuration("LISTING_CACHE_TTL", cache.DefaultListingTTL),
		IdempotencyWindow: getEnvDuration("IDEMPOTENCY_WINDOW", cache.DefaultIdempotencyWindow),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
