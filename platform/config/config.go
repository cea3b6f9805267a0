// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetStaleLeadMaxAge() time.Duration
	GetStaleLeadSweepInterval() time.Duration
}

// RateLimitConfig provides settings for intake rate limiting.
type RateLimitConfig interface {
	GetRedisURL() string
	GetIntakeRateLimit() int
	GetIntakeRateWindow() time.Duration
}

// CaptchaConfig provides settings for the abuse-challenge verifier.
type CaptchaConfig interface {
	GetCaptchaVerifyURL() string
	GetCaptchaSecret() string
	IsCaptchaEnabled() bool
}

// IdentityConfig provides settings for guest account provisioning.
type IdentityConfig interface {
	GetProvisionRetryDelay() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                    string
	HTTPAddr               string
	DatabaseURL            string
	JWTAccessSecret        string
	CORSAllowAll           bool
	CORSOrigins            []string
	CORSAllowCreds         bool
	RedisURL               string
	AsynqQueueName         string
	AsynqConcurrency       int
	StaleLeadMaxAge        time.Duration
	StaleLeadSweepInterval time.Duration
	IntakeRateLimit        int
	IntakeRateWindow       time.Duration
	CaptchaVerifyURL       string
	CaptchaSecret          string
	ProvisionRetryDelay    time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                    { return c.RedisURL }
func (c *Config) GetAsynqQueueName() string              { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int               { return c.AsynqConcurrency }
func (c *Config) GetStaleLeadMaxAge() time.Duration      { return c.StaleLeadMaxAge }
func (c *Config) GetStaleLeadSweepInterval() time.Duration {
	return c.StaleLeadSweepInterval
}

// RateLimitConfig implementation
func (c *Config) GetIntakeRateLimit() int            { return c.IntakeRateLimit }
func (c *Config) GetIntakeRateWindow() time.Duration { return c.IntakeRateWindow }

// CaptchaConfig implementation
func (c *Config) GetCaptchaVerifyURL() string { return c.CaptchaVerifyURL }
func (c *Config) GetCaptchaSecret() string    { return c.CaptchaSecret }
func (c *Config) IsCaptchaEnabled() bool      { return c.CaptchaSecret != "" }

// IdentityConfig implementation
func (c *Config) GetProvisionRetryDelay() time.Duration { return c.ProvisionRetryDelay }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		JWTAccessSecret:        getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		CORSAllowCreds:         strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:               getEnv("REDIS_URL", ""),
		AsynqQueueName:         getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:       mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		StaleLeadMaxAge:        mustDuration(getEnv("STALE_LEAD_MAX_AGE", "720h")),
		StaleLeadSweepInterval: mustDuration(getEnv("STALE_LEAD_SWEEP_INTERVAL", "1h")),
		IntakeRateLimit:        mustInt(getEnv("INTAKE_RATE_LIMIT", "10")),
		IntakeRateWindow:       mustDuration(getEnv("INTAKE_RATE_WINDOW", "1m")),
		CaptchaVerifyURL:       getEnv("CAPTCHA_VERIFY_URL", "https://challenges.cloudflare.com/turnstile/v0/siteverify"),
		CaptchaSecret:          getEnv("CAPTCHA_SECRET", ""),
		ProvisionRetryDelay:    mustDuration(getEnv("PROVISION_RETRY_DELAY", "250ms")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
