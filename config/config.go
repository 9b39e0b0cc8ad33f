package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port              string
	JWTSecret         string
	JWTExpiry         int // in hours
	LogLevel          string
	LogFormat         string
	MaxMessageLength  int
	MaxUsernameLength int
	HistoryLimit      int

	TypingTTL           time.Duration
	TypingSweepInterval time.Duration

	UploadDir     string
	MaxUploadSize int64

	AllowedOrigins []string

	// per-connection inbound event budget
	EventsPerSecond int
	EventBurst      int

	ShutdownTimeout time.Duration
}

func Load() Config {
	return Config{
		Port:                getEnv("PORT", "8081"),
		JWTSecret:           getEnv("JWT_SECRET", "dev-super-secret-change-me"),
		JWTExpiry:           getEnvAsInt("JWT_EXPIRY", 24),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "text"),
		MaxMessageLength:    getEnvAsInt("MAX_MESSAGE_LENGTH", 1000),
		MaxUsernameLength:   getEnvAsInt("MAX_USERNAME_LENGTH", 32),
		HistoryLimit:        getEnvAsInt("HISTORY_LIMIT", 50),
		TypingTTL:           getEnvAsDuration("TYPING_TTL", 5*time.Second),
		TypingSweepInterval: getEnvAsDuration("TYPING_SWEEP_INTERVAL", 2*time.Second),
		UploadDir:           getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadSize:       int64(getEnvAsInt("MAX_UPLOAD_SIZE", 10<<20)),
		AllowedOrigins:      getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		EventsPerSecond:     getEnvAsInt("WS_EVENTS_PER_SECOND", 10),
		EventBurst:          getEnvAsInt("WS_EVENT_BURST", 20),
		ShutdownTimeout:     getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("5s", "1m30s").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
