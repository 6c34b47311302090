package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	ListenAddr  string

	LogLevel string

	StoreHash     string
	StoreAPIToken string
	StoreAPIBase  string

	WebhookSecret string

	AttributeID int64
	VIPGroupID  int64

	DedupWindow   time.Duration
	RecencyWindow time.Duration
	SweepInterval time.Duration

	DedupBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

const (
	DedupBackendMemory = "memory"
	DedupBackendRedis  = "redis"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "loyara"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		ListenAddr:  getenv("LISTEN_ADDR", ":8080"),

		LogLevel: strings.ToLower(getenv("LOG_LEVEL", "info")),

		StoreHash:     strings.TrimSpace(getenv("STORE_HASH", "")),
		StoreAPIToken: strings.TrimSpace(getenv("STORE_API_TOKEN", "")),
		StoreAPIBase:  strings.TrimRight(getenv("STORE_API_BASE", "https://api.bigcommerce.com"), "/"),

		WebhookSecret: strings.TrimSpace(getenv("WEBHOOK_SECRET", "")),

		AttributeID: getenvInt64("QUALIFICATION_ATTRIBUTE_ID", 0),
		VIPGroupID:  getenvInt64("VIP_GROUP_ID", 0),

		DedupWindow:   getenvDuration("DEDUP_WINDOW", 60*time.Second),
		RecencyWindow: getenvDuration("RECENCY_WINDOW", 10*time.Minute),
		SweepInterval: getenvDuration("SWEEP_INTERVAL", 24*time.Hour),

		DedupBackend:  normalizeDedupBackend(getenv("DEDUP_BACKEND", DedupBackendMemory)),
		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
		RedisDB:       int(getenvInt64("REDIS_DB", 0)),
	}

	return cfg
}

func normalizeDedupBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case DedupBackendRedis:
		return DedupBackendRedis
	default:
		return DedupBackendMemory
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewPolicyHolder),
)
