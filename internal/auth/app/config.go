package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/quillworks/quill/pkg/jwtx"
)

type Config struct {
	SigningSecret string // Required: HS256 signing key, at least 32 bytes
	Issuer        string // Issuer claim for tokens (default: quill-auth)
	Audience      []string // Optional: accepted audience values, comma separated

	AccessTokenTTL  time.Duration // Access token lifetime (default: 15m)
	RefreshTokenTTL time.Duration // Refresh token lifetime (default: 168h)

	DatabaseFile        string        // Path to SQLite database file (default: ./quill.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	CleanupInterval     time.Duration // Blacklist purge interval (default: 24h)
}

// LoadConfig reads configuration from the environment, with a .env file as
// a convenience for local development. Validation of the signing secret
// happens in app.New so the failure is logged properly.
func LoadConfig() Config {
	// Missing .env is the normal case in production.
	_ = godotenv.Load()

	cfg := Config{
		SigningSecret:       os.Getenv("QUILL_SIGNING_SECRET"),
		Issuer:              getEnvOrDefault("QUILL_ISSUER", "quill-auth"),
		AccessTokenTTL:      getEnvDurationOrDefault("QUILL_ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL:     getEnvDurationOrDefault("QUILL_REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		DatabaseFile:        getEnvOrDefault("QUILL_DATABASE_FILE", "quill.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		CleanupInterval:     getEnvDurationOrDefault("CLEANUP_INTERVAL", 24*time.Hour),
	}

	if aud := os.Getenv("QUILL_AUDIENCE"); aud != "" {
		for _, v := range strings.Split(aud, ",") {
			if v = strings.TrimSpace(v); v != "" {
				cfg.Audience = append(cfg.Audience, v)
			}
		}
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
