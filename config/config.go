// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service configuration.
type Config struct {
	// HTTP
	ListenAddr string

	// Upstream exchange
	BinanceBaseURL string

	// Infrastructure. RedisAddr empty disables the shared quote cache.
	RedisAddr     string
	RedisPassword string
	SQLitePath    string

	// Indicator cache stabilization window.
	CacheTTL time.Duration
}

// Load reads configuration with sensible defaults. A .env file in the
// working directory is applied first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Println("[config] loaded .env file")
	}

	return &Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		BinanceBaseURL: getEnv("BINANCE_BASE_URL", "https://api.binance.com"),
		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		SQLitePath:     getEnv("SQLITE_PATH", "data/candles.db"),
		CacheTTL:       getDurationMs("CACHE_TTL_MS", 5000),
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getDurationMs(key string, fallbackMs int) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(fallbackMs) * time.Millisecond
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[config] invalid %s=%q, using %dms", key, v, fallbackMs)
		return time.Duration(fallbackMs) * time.Millisecond
	}
	return time.Duration(n) * time.Millisecond
}
