package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	LogLevel           string
	LoanMinDays        int
	LoanMaxDays        int
	LoanDefaultDays    int
	OverdueScanMinutes int
	SessionTTLMinutes  int
	RefreshTTLMinutes  int
	SessionRedisURL    string // empty means in-memory sessions
	RateLimitPerMinute int
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	minDays, err := intEnv("LOAN_MIN_DAYS", 1)
	if err != nil {
		return nil, err
	}
	maxDays, err := intEnv("LOAN_MAX_DAYS", 90)
	if err != nil {
		return nil, err
	}
	defaultDays, err := intEnv("LOAN_DEFAULT_DAYS", 14)
	if err != nil {
		return nil, err
	}
	scanMinutes, err := intEnv("OVERDUE_SCAN_INTERVAL_MINUTES", 5)
	if err != nil {
		return nil, err
	}
	sessionTTL, err := intEnv("SESSION_TTL_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := intEnv("REFRESH_TTL_MINUTES", 1440)
	if err != nil {
		return nil, err
	}
	rateLimit, err := intEnv("RATE_LIMIT_PER_MINUTE", 100)
	if err != nil {
		return nil, err
	}

	if minDays < 1 || maxDays < minDays {
		return nil, fmt.Errorf("loan day bounds invalid: min=%d max=%d", minDays, maxDays)
	}
	if defaultDays < minDays || defaultDays > maxDays {
		return nil, fmt.Errorf("LOAN_DEFAULT_DAYS %d outside [%d, %d]", defaultDays, minDays, maxDays)
	}

	return &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		ServerPort:         port,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LoanMinDays:        minDays,
		LoanMaxDays:        maxDays,
		LoanDefaultDays:    defaultDays,
		OverdueScanMinutes: scanMinutes,
		SessionTTLMinutes:  sessionTTL,
		RefreshTTLMinutes:  refreshTTL,
		SessionRedisURL:    os.Getenv("SESSION_REDIS_URL"),
		RateLimitPerMinute: rateLimit,
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
