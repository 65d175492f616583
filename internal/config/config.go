package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Host            string
	Port            int
	Environment     string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string

	// Logging
	LogLevel string

	// Uploads
	MaxUploadBytes    int64
	MaxFilesPerUpload int

	// Sessions
	SessionTTL           time.Duration
	SessionSweepInterval time.Duration

	// Parsing
	DateLayouts []string
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:                 getEnv("HOST", "127.0.0.1"),
		Port:                 getEnvInt("PORT", 8080),
		Environment:          getEnv("ENVIRONMENT", "development"),
		ShutdownTimeout:      getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		AllowedOrigins:       getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		MaxUploadBytes:       int64(getEnvInt("MAX_UPLOAD_BYTES", 10*1024*1024)),
		MaxFilesPerUpload:    getEnvInt("MAX_FILES_PER_UPLOAD", 20),
		SessionTTL:           getEnvDuration("SESSION_TTL", 2*time.Hour),
		SessionSweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		DateLayouts:          getEnvList("DATE_LAYOUTS", nil),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks ranges and required combinations
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be greater than 0")
	}
	if c.MaxFilesPerUpload <= 0 {
		return fmt.Errorf("MAX_FILES_PER_UPLOAD must be greater than 0")
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("SESSION_TTL cannot be negative")
	}
	if c.SessionTTL > 0 && c.SessionSweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be greater than 0 when SESSION_TTL is set")
	}
	if c.Environment == "production" && c.Host != "127.0.0.1" && c.Host != "localhost" {
		return fmt.Errorf("HOST must be a loopback address in production, got %q", c.Host)
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits a value on "|" so that date layouts may contain commas
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, "|") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
