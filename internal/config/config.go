// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/jobs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Scheduler
	SchedulerEnabled bool
	TimeZone         string // reference timezone for all HH:MM comparisons

	// Collaborator credentials
	AnthropicAPIKey  string
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	MailjetAPIKey    string
	MailjetSecretKey string
	EmailSender      string
	EmailSenderName  string

	// Admin
	AdminToken string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	return &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		SchedulerEnabled: envBool("SCHEDULER_ENABLED", true),
		TimeZone:         envOr("REFERENCE_TIMEZONE", "America/Denver"),

		AnthropicAPIKey:  envOr("ANTHROPIC_API_KEY", ""),
		TwilioAccountSID: envOr("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  envOr("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: envOr("TWILIO_PHONE_NUMBER", ""),
		MailjetAPIKey:    envOr("MAILJET_API_KEY", ""),
		MailjetSecretKey: envOr("MAILJET_SECRET_KEY", ""),
		EmailSender:      envOr("EMAIL_SENDER", "updates@dailyflake.com"),
		EmailSenderName:  envOr("EMAIL_SENDER_NAME", "The Daily Flake"),

		AdminToken: envOr("ADMIN_TOKEN", ""),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location resolves the reference timezone. All scrape and notification
// target times are compared against wall-clock time in this zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
