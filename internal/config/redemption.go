package config

import (
	"os"
	"strconv"
	"time"
)

type RedemptionConfig struct {
	SessionTTL          time.Duration
	IssueGuardTTL       time.Duration
	MaxIssuePerCustomer int
	RateLimitWindow     time.Duration
	IssueBurst          int
	IssuePerSecond      float64
	NoteMaxLength       int
	DefaultPageLimit    int
	MaxPageLimit        int
}

func LoadRedemptionConfig() *RedemptionConfig {
	return &RedemptionConfig{
		SessionTTL:          getEnvAsDuration("SESSION_TTL", 12*time.Hour),
		IssueGuardTTL:       getEnvAsDuration("ISSUE_GUARD_TTL", 30*time.Second),
		MaxIssuePerCustomer: getEnvAsInt("MAX_ISSUE_PER_CUSTOMER", 10),
		RateLimitWindow:     getEnvAsDuration("ISSUE_RATE_LIMIT_WINDOW", 1*time.Hour),
		IssueBurst:          getEnvAsInt("ISSUE_BURST", 5),
		IssuePerSecond:      getEnvAsFloat("ISSUE_PER_SECOND", 2),
		NoteMaxLength:       getEnvAsInt("REDEMPTION_NOTE_MAX_LENGTH", 200),
		DefaultPageLimit:    getEnvAsInt("STATEMENT_DEFAULT_PAGE_LIMIT", 20),
		MaxPageLimit:        getEnvAsInt("STATEMENT_MAX_PAGE_LIMIT", 100),
	}
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
