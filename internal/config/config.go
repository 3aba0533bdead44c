package config

import (
	"fmt"
	"time"

	"github.com/RishiKendai/aegis-console/internal/configs/env"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	ServerPort  string
	MetricsPort string

	// Scanning service
	ScannerBaseURL string
	ScannerTimeout time.Duration

	// MongoDB
	MongoURI                   string
	MongoDBName                string
	MongoAssignmentsCollection string

	// Redis
	RedisHost         string
	RedisPassword     string
	RedisDB           int
	RedisTokenPrefix  string
	TokenTTL          time.Duration
	RedisStatusPrefix string
	StatusTTL         time.Duration

	// JWT
	JWTSecret string
	JWTIssuer string

	// Rate Limiting
	RateLimitRPS float64

	// Concurrency
	MaxConcurrentScans int

	// Sessions
	SessionIdleTimeout time.Duration

	// Logging
	LogLevel  string
	LogPretty bool
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Server
	cfg.ServerPort = env.GetEnv("SERVER_PORT", "8080")
	cfg.MetricsPort = env.GetEnv("METRICS_PORT", "2112")

	// Scanning service
	cfg.ScannerBaseURL = env.GetEnv("SCANNER_BASE_URL", "")
	cfg.ScannerTimeout = time.Duration(env.GetEnvInt("SCANNER_TIMEOUT_SECONDS", 120)) * time.Second

	// MongoDB
	cfg.MongoURI = env.GetEnv("MONGO_URI", "")
	cfg.MongoDBName = env.GetEnv("MONGO_DB_NAME", "")
	cfg.MongoAssignmentsCollection = env.GetEnv("MONGO_ASSIGNMENTS_COLLECTION", "assignments")

	// Redis
	cfg.RedisHost = env.GetEnv("REDIS_HOST", "localhost:6379")
	cfg.RedisPassword = env.GetEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = env.GetEnvInt("REDIS_DB", 0)
	cfg.RedisTokenPrefix = env.GetEnv("REDIS_TOKEN_PREFIX", "scanner_token:")
	cfg.TokenTTL = time.Duration(env.GetEnvInt("TOKEN_TTL_HOURS", 12)) * time.Hour
	cfg.RedisStatusPrefix = env.GetEnv("REDIS_STATUS_PREFIX", "plagiarism_scan_status:")
	cfg.StatusTTL = time.Duration(env.GetEnvInt("STATUS_TTL_HOURS", 12)) * time.Hour

	// JWT
	cfg.JWTSecret = env.GetEnv("JWT_SECRET", "")
	cfg.JWTIssuer = env.GetEnv("JWT_ISSUER", "aegis")

	// Rate Limiting
	cfg.RateLimitRPS = env.GetEnvFloat("RATE_LIMIT_RPS", 10.0)

	// Concurrency
	cfg.MaxConcurrentScans = env.GetEnvInt("MAX_CONCURRENT_SCANS", 4)

	// Sessions
	cfg.SessionIdleTimeout = time.Duration(env.GetEnvInt("SESSION_IDLE_TIMEOUT_MINUTES", 60)) * time.Minute

	// Logging
	cfg.LogLevel = env.GetEnv("LOG_LEVEL", "info")
	cfg.LogPretty = env.GetEnvBool("LOG_PRETTY", false)

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ScannerBaseURL == "" {
		return fmt.Errorf("SCANNER_BASE_URL is required")
	}
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.MongoDBName == "" {
		return fmt.Errorf("MONGO_DB_NAME is required")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be greater than 0")
	}
	if c.MaxConcurrentScans <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_SCANS must be greater than 0")
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT_MINUTES must be greater than 0")
	}
	if c.TokenTTL <= 0 || c.StatusTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL_HOURS and STATUS_TTL_HOURS must be greater than 0")
	}
	return nil
}
