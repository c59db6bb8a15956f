package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds the application configuration.
type Config struct {
	ServerPort         int
	DatabaseURL        string // Postgres URL or SQLite file path
	JWTSecret          string
	BcryptCost         int
	CookieSecure       bool
	CORSAllowedOrigins []string
	LogLevel           zerolog.Level
	LogFormat          string // "console" or "json"
	HeartbeatSchedule  string // cron spec, empty disables the heartbeat
}

var ErrMissingSecret = errors.New("JWT_SECRET must be set")

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first when present; real
// environment variables win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "5000"))
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", getEnv("PORT", ""))
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, ErrMissingSecret
	}

	cost, err := strconv.Atoi(getEnv("BCRYPT_COST", "12"))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	secure, err := strconv.ParseBool(getEnv("COOKIE_SECURE", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid COOKIE_SECURE: %w", err)
	}

	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	format := getEnv("LOG_FORMAT", "console")
	if format != "console" && format != "json" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", format)
	}

	return &Config{
		ServerPort:         port,
		DatabaseURL:        getEnv("DATABASE_URL", "./messagedrop.db"),
		JWTSecret:          secret,
		BcryptCost:         cost,
		CookieSecure:       secure,
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           level,
		LogFormat:          format,
		HeartbeatSchedule:  getEnv("HEARTBEAT_SCHEDULE", "@every 1m"),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
