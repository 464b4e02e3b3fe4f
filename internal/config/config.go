package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string

	// Database: a postgres URL or sqlite://<path>
	DatabaseURL string

	// JWT
	JWTSecret          string
	JWTExpirationHours int

	// Storage
	StoragePath string

	// Background Workers
	WorkerCount int

	// CORS
	AllowedOrigins []string

	// Email (Resend)
	ResendAPIKey string
	FromEmail    string
	OpsEmail     string

	// Sentry
	SentryDSN string

	// Schedule cache (Redis)
	RedisAddr        string
	ScheduleCacheTTL time.Duration

	// WhatsApp gateway
	WhatsAppGatewayURL string
	WhatsAppSession    string
	WhatsAppAPIKey     string
	WhatsAppSendDelay  time.Duration

	// Scheduled loan reminders, zero disables
	ReminderInterval time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		WorkerCount:        getEnvAsInt("WORKER_COUNT", 5),
		AllowedOrigins:     getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		ResendAPIKey:       getEnv("RESEND_API_KEY", ""),
		FromEmail:          getEnv("FROM_EMAIL", "noreply@sacco.local"),
		OpsEmail:           getEnv("OPS_EMAIL", ""),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		ScheduleCacheTTL:   time.Duration(getEnvAsInt("SCHEDULE_CACHE_TTL_MINUTES", 60)) * time.Minute,
		WhatsAppGatewayURL: strings.TrimRight(getEnv("WHATSAPP_GATEWAY_URL", ""), "/"),
		WhatsAppSession:    getEnv("WHATSAPP_SESSION", "default"),
		WhatsAppAPIKey:     getEnv("WHATSAPP_API_KEY", ""),
		WhatsAppSendDelay:  time.Duration(getEnvAsInt("WHATSAPP_SEND_DELAY_MS", 100)) * time.Millisecond,
		ReminderInterval:   time.Duration(getEnvAsInt("LOAN_REMINDER_INTERVAL_HOURS", 0)) * time.Hour,
	}

	// Validate required configuration
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" && cfg.IsProduction() {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	if cfg.WhatsAppSendDelay < 0 {
		return nil, fmt.Errorf("WHATSAPP_SEND_DELAY_MS must not be negative")
	}

	// Set default JWT secret for development
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
