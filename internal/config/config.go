package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// NATS configuration
	NatsURL            string
	NatsTurnSubject    string
	NatsHistorySubject string
	NatsTimeout        time.Duration

	// Redis session store
	RedisURL   string
	SessionTTL time.Duration

	// NLU configuration. All three of APIKey, Model and Endpoint must be set
	// for the extractor to be considered configured; anything less means the
	// bot runs in manual slot-filling mode.
	NLUAPIKey   string
	NLUModel    string
	NLUEndpoint string
	NLUTimeout  time.Duration

	// Dialog configuration
	Catalog        []string
	MaxDatePrompts int // 0 means unlimited re-prompts

	// Service configuration
	ServiceName string
	LogLevel    string
	LogFormat   string
}

func Load() *Config {
	return &Config{
		// NATS settings
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		NatsTurnSubject:    getEnv("NATS_TURN_SUBJECT", "orderbot.turn"),
		NatsHistorySubject: getEnv("NATS_HISTORY_SUBJECT", "orderbot.history"),
		NatsTimeout:        getDurationEnv("NATS_TIMEOUT", 30*time.Second),

		// Redis settings
		RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SessionTTL: getDurationEnv("SESSION_TTL", 30*time.Minute),

		// NLU settings
		NLUAPIKey:   getEnv("NLU_API_KEY", ""),
		NLUModel:    getEnv("NLU_MODEL", ""),
		NLUEndpoint: getEnv("NLU_ENDPOINT", ""),
		NLUTimeout:  getDurationEnv("NLU_TIMEOUT", 30*time.Second),

		// Dialog settings
		Catalog:        getListEnv("ORDER_CATALOG", []string{"rice", "sugar", "flour", "coffee", "tea", "milk"}),
		MaxDatePrompts: getIntEnv("MAX_DATE_PROMPTS", 0),

		// Service settings
		ServiceName: getEnv("SERVICE_NAME", "orderbot"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
	}
}

// NLUConfigured reports whether the intent extractor can be constructed.
// Absence of credentials is a valid state, not an error.
func (c *Config) NLUConfigured() bool {
	return c.NLUAPIKey != "" && c.NLUModel != "" && c.NLUEndpoint != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
