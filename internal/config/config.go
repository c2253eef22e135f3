package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string

	// Optional redis-backed conversation store. Empty addr keeps
	// conversations in process memory (lost on restart).
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SessionTTL    time.Duration

	// Path for the local settings snapshot file. Empty disables
	// snapshotting; settings then live only in memory.
	SettingsSnapshotPath string

	// Per-IP throttle for the relay endpoints (chat + widget), in
	// requests per second. Zero, the default, disables throttling.
	ChatRateLimit float64
	ChatRateBurst int

	// Seeds for the default settings record. The admin panel can
	// overwrite all of these at runtime.
	OpenAIAPIKey       string
	LeadWebhookURL     string
	ChatWebhookURL     string
	SettingsWebhookURL string
	SummaryWebhookURL  string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "5000"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 72*time.Hour),

		SettingsSnapshotPath: getEnv("SETTINGS_SNAPSHOT_PATH", ""),

		ChatRateLimit: getEnvAsFloat("CHAT_RATE_LIMIT", 0),
		ChatRateBurst: getEnvAsInt("CHAT_RATE_BURST", 20),

		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		LeadWebhookURL:     getEnv("LEAD_WEBHOOK_URL", ""),
		ChatWebhookURL:     getEnv("CHAT_WEBHOOK_URL", ""),
		SettingsWebhookURL: getEnv("SETTINGS_WEBHOOK_URL", ""),
		SummaryWebhookURL:  getEnv("SUMMARY_WEBHOOK_URL", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an int or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float64 or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice retrieves a comma-separated environment variable as a slice
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
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
