package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL   string
	LogLevel      string
	Port          string
	SweepInterval time.Duration

	// Notification channels; each is enabled when its settings are present.
	TelegramToken string
	SMTPAddr      string
	SMTPFrom      string
	SMTPUser      string
	SMTPPassword  string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		Port:          getEnvOrDefault("PORT", "8080"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		SMTPAddr:      os.Getenv("SMTP_ADDR"),
		SMTPFrom:      getEnvOrDefault("SMTP_FROM", "reminders@habitloop.local"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
	}

	if cfg.DatabaseURL = os.Getenv("DATABASE_URL"); cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	interval := getEnvOrDefault("SWEEP_INTERVAL", "30s")
	d, err := time.ParseDuration(interval)
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL %q: %w", interval, err)
	}
	cfg.SweepInterval = d

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
