package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DBUrl       string
	FrontendURL string
	// Auth Configuration
	JWTSecret string // HS256 shared secret; leave empty to force JWKS (RS256)
	JWKSURL   string
	// Redis Configuration
	RedisURL      string
	RedisPassword string
	// Payment/Disclosure Configuration
	WebhookSecret string
	UnlockCost    int64 // credits per contact unlock
	// Search Configuration
	FacetCap int // max values returned per open-ended facet dimension
	// Rate Limiting Configuration
	RateLimitWindowSeconds   int
	RateLimitSearchThreshold int
	RateLimitUnlockThreshold int
}

func LoadConfig() (*Config, error) {
	// Only effective locally; ignored in production when the file is absent.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DBUrl:       getEnv("DATABASE_URL", ""),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		// Auth Configuration
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWKSURL:   getEnv("JWKS_URL", ""),
		// Redis Configuration
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		// Payment/Disclosure Configuration
		WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		UnlockCost:    int64(getEnvInt("UNLOCK_COST_CREDITS", 1)),
		// Search Configuration
		FacetCap: getEnvInt("FACET_CAP", 20),
		// Rate Limiting Configuration (with sensible defaults)
		RateLimitWindowSeconds:   getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitSearchThreshold: getEnvInt("RATE_LIMIT_SEARCH_THRESHOLD", 30),
		RateLimitUnlockThreshold: getEnvInt("RATE_LIMIT_UNLOCK_THRESHOLD", 10),
	}

	// Basic validation to avoid confusing panics later
	if cfg.DBUrl == "" {
		log.Println("WARNING: DATABASE_URL is missing. Application may fail to connect.")
	}

	if cfg.JWTSecret == "" && cfg.JWKSURL == "" {
		log.Println("WARNING: Neither JWT_SECRET nor JWKS_URL configured. Authenticated routes will reject all tokens.")
	}

	if cfg.WebhookSecret == "" {
		log.Println("WARNING: PAYMENT_WEBHOOK_SECRET not configured. Payment webhooks will be rejected.")
	}

	// Log Redis configuration status (helpful for debugging)
	if cfg.RedisURL == "" {
		log.Println("WARNING: REDIS_URL not configured. Rate limiting will use in-memory fallback.")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}
