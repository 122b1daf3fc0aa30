// Package config provides runtime configuration for the gateway.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds configuration knobs for the gateway and its collaborators.
type Config struct {
	APIKey           string        // upstream bearer credential; empty means fallback-only serving
	APIBase          string        // upstream catalog API base URL
	CacheTTL         time.Duration // validity window for cached Products
	SweepInterval    time.Duration // period of the background cache sweep
	UpstreamTimeout  time.Duration // per-candidate request timeout
	DefaultMarket    string
	MetricsNamespace string // empty disables CloudWatch metrics
	RunLocal         bool
	Port             string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvs(key string, defSec int) time.Duration {
	return time.Duration(atoienv(key, defSec)) * time.Second
}

func durenvms(key string, defMs int) time.Duration {
	return time.Duration(atoienv(key, defMs)) * time.Millisecond
}

// Load collects configuration from environment with defaults.
// A .env file is honored for local runs.
func Load() Config {
	_ = godotenv.Load() // loads .env if present

	return Config{
		APIKey:           os.Getenv("KICKS_API_KEY"),
		APIBase:          getenv("KICKS_API_BASE", "https://api.kicksdb.dev"),
		CacheTTL:         durenvs("CACHE_TTL_SECONDS", 600),
		SweepInterval:    durenvs("CACHE_SWEEP_SECONDS", 300),
		UpstreamTimeout:  durenvms("UPSTREAM_TIMEOUT_MS", 4000),
		DefaultMarket:    getenv("DEFAULT_MARKET", "US"),
		MetricsNamespace: os.Getenv("METRICS_NAMESPACE"),
		RunLocal:         os.Getenv("RUN_LOCAL") == "true",
		Port:             getenv("PORT", "8080"),
	}
}
