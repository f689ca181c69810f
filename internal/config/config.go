// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Data store
	DatabaseURL string

	// Oracle credentials
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// SQL generation
	SQLBackend   string
	SQLModel     string
	OutputFormat string

	// Pre-provisioned assistant roles
	AnalystAssistantID string
	VizAssistantID     string

	// Run polling
	RunPollInterval time.Duration
	RunTimeout      time.Duration

	// NATS settings (event publishing is disabled when URL is empty)
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	runTimeout := getDurationEnv("RUN_TIMEOUT", 5*time.Minute)

	// A turn spans up to two polled runs plus tool execution, so the write
	// timeout must outlast the worst-case turn or slow-but-valid responses
	// get cut off mid-wait.
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 2*runTimeout+30*time.Second),

		// Data store
		DatabaseURL: getEnv("DATABASE_URL", "postgres://readonly_user@localhost:5432/statcast"),

		// Oracle
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		// SQL generation
		SQLBackend:   getEnv("SQL_BACKEND", "openai"),
		SQLModel:     getEnv("SQL_MODEL", "gpt-4o"),
		OutputFormat: getEnv("OUTPUT_FORMAT", "csv"),

		// Assistants
		AnalystAssistantID: getEnv("ANALYST_ASSISTANT_ID", ""),
		VizAssistantID:     getEnv("VIZ_ASSISTANT_ID", ""),

		// Run polling
		RunPollInterval: getDurationEnv("RUN_POLL_INTERVAL", 2*time.Second),
		RunTimeout:      runTimeout,

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
