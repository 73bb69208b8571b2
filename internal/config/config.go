package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries runtime settings for the AfyaLink API.
type Config struct {
	HTTPAddr     string
	PostgresDSN  string
	AuthSecret   string
	SessionTTL   time.Duration
	RateBurst    int
	RatePerSec   int
	MaxBodyBytes int64
}

// Load reads configuration from the environment, with optional .env support.
// A missing .env file is not an error; missing required values are.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:     getEnv("AFYA_HTTP_ADDR", ":8080"),
		PostgresDSN:  getEnv("AFYA_PG_DSN", ""),
		AuthSecret:   getEnv("AFYA_AUTH_SECRET", ""),
		SessionTTL:   getEnvAsDuration("AFYA_SESSION_TTL", 24*time.Hour),
		RateBurst:    getEnvAsInt("AFYA_RATE_BURST", 20),
		RatePerSec:   getEnvAsInt("AFYA_RATE_PER_SEC", 10),
		MaxBodyBytes: int64(getEnvAsInt("AFYA_MAX_BODY_BYTES", 1<<20)),
	}

	if cfg.AuthSecret == "" {
		return Config{}, errors.New("config: AFYA_AUTH_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil && value > 0 {
		return value
	}
	return defaultValue
}
