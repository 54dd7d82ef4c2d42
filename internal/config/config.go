package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/andikafarhan/coretan/internal/domain"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port string

	// Security
	AllowedOrigins []string

	// Storage
	DBPath string

	// Rate Limiting
	RateLimitAPI rate.Limit
	RateLimitWS  rate.Limit

	// Logging
	LogLevel string

	// WebSocket
	MaxMessageSize int

	// Rooms
	JoinTimeout     time.Duration
	RoomIdleTTL     time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Port:            "8080",
		AllowedOrigins:  []string{"http://localhost:8080", "http://localhost:3000"},
		DBPath:          "./data/coretan.db",
		RateLimitAPI:    domain.DefaultRateLimitAPI,
		RateLimitWS:     domain.DefaultRateLimitWS,
		LogLevel:        "info", // Options: info, silent
		MaxMessageSize:  domain.MaxMessageSize,
		JoinTimeout:     domain.DefaultJoinTimeout,
		RoomIdleTTL:     domain.DefaultRoomIdleTTL,
		CleanupInterval: domain.DefaultCleanupInterval,
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	// Server
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	// Security
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	// Storage
	if path := os.Getenv("DB_PATH"); path != "" {
		cfg.DBPath = path
	}

	// Rate Limiting
	if rl := os.Getenv("RATE_LIMIT_API"); rl != "" {
		if val, err := strconv.Atoi(rl); err == nil && val > 0 {
			cfg.RateLimitAPI = rate.Limit(val)
		}
	}

	if rl := os.Getenv("RATE_LIMIT_WS"); rl != "" {
		if val, err := strconv.Atoi(rl); err == nil && val > 0 {
			cfg.RateLimitWS = rate.Limit(val)
		}
	}

	// Logging
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	// WebSocket
	if size := os.Getenv("MAX_MESSAGE_SIZE"); size != "" {
		if val, err := strconv.Atoi(size); err == nil && val > 0 {
			cfg.MaxMessageSize = val
		}
	}

	// Rooms
	if ms := os.Getenv("JOIN_TIMEOUT_MS"); ms != "" {
		if val, err := strconv.Atoi(ms); err == nil && val > 0 {
			cfg.JoinTimeout = time.Duration(val) * time.Millisecond
		}
	}

	if hours := os.Getenv("ROOM_IDLE_TTL_HOURS"); hours != "" {
		if val, err := strconv.Atoi(hours); err == nil && val > 0 {
			cfg.RoomIdleTTL = time.Duration(val) * time.Hour
		}
	}

	if mins := os.Getenv("CLEANUP_INTERVAL_MINUTES"); mins != "" {
		if val, err := strconv.Atoi(mins); err == nil && val > 0 {
			cfg.CleanupInterval = time.Duration(val) * time.Minute
		}
	}

	return cfg
}

// parseOrigins parses comma-separated origins
func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// Global configuration instance
var AppConfig = LoadFromEnv()
