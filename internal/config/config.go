package config

import (
	"os"
	"strconv"
	"time"
)

// Storage backend identifiers.
const (
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type AppConfig struct {
	// Server
	HTTPAddr string

	// Snapshot storage
	StorageBackend string
	SnapshotPath   string
	RedisAddr      string
	RedisPass      string
	PostgresDSN    string

	// Auth
	AuthSecret string
	AuthIssuer string
	AuthTTL    time.Duration

	// Registry lookup (RDW open data)
	RegistryBaseURL  string
	RegistryCacheTTL time.Duration
	RegistryTimeout  time.Duration
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr: getEnv("HTTP_ADDR", ":8000"),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageFile),
		SnapshotPath:   getEnv("SNAPSHOT_PATH", "data/carlog_data.json"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:      getEnv("REDIS_PASS", ""),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),

		AuthSecret: getEnv("AUTH_SECRET", ""),
		AuthIssuer: getEnv("AUTH_ISSUER", "carlog-service"),
		AuthTTL:    getEnvDuration("AUTH_TTL", 720*time.Hour),

		RegistryBaseURL:  getEnv("REGISTRY_BASE_URL", "https://opendata.rdw.nl/resource/vkij-7mwc.json"),
		RegistryCacheTTL: getEnvDuration("REGISTRY_CACHE_TTL", 24*time.Hour),
		RegistryTimeout:  getEnvDuration("REGISTRY_TIMEOUT", 10*time.Second),
	}
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
