package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lexportal/lexportal/pkg/observability"
	"github.com/lexportal/lexportal/pkg/storage/postgres"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Postgres configuration
	Postgres postgres.ConnectionConfig

	// Redis configuration
	Redis RedisConfig

	// Billing configuration
	Billing BillingConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// RedisConfig holds the subscription read-cache configuration
type RedisConfig struct {
	Enabled    bool
	URL        string
	Password   string
	DB         int
	MaxRetries int
	PoolSize   int
}

// BillingConfig holds subscription lifecycle settings
type BillingConfig struct {
	// SweepSchedule is a cron expression for the past-due lapse sweep.
	SweepSchedule string

	// PaymentMode selects the payment authorizer: "null" approves every
	// charge and is only suitable outside production.
	PaymentMode string

	// EntitlementCacheSize bounds the per-user entitlement store registry.
	EntitlementCacheSize int

	// RateLimitPerMinute caps requests per caller per minute, with
	// RateLimitBurst of headroom for short spikes. Zero disables limiting.
	RateLimitPerMinute int
	RateLimitBurst     int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Postgres:      loadPostgresConfig(),
		Redis:         loadRedisConfig(),
		Billing:       loadBillingConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("LEXPORTAL_HOST", "0.0.0.0"),
		Port:            getEnv("LEXPORTAL_PORT", "8080"),
		ReadTimeout:     getEnvDuration("LEXPORTAL_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("LEXPORTAL_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("LEXPORTAL_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("LEXPORTAL_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("LEXPORTAL_HEALTH_PORT", "9090"),
	}
}

// loadPostgresConfig loads database configuration from environment
func loadPostgresConfig() postgres.ConnectionConfig {
	return postgres.ConnectionConfig{
		URL:         getEnv("LEXPORTAL_POSTGRES_URL", ""),
		MaxConns:    getEnvInt("LEXPORTAL_POSTGRES_MAX_CONNS", 25),
		MinConns:    getEnvInt("LEXPORTAL_POSTGRES_MIN_CONNS", 5),
		Timeout:     getEnvDuration("LEXPORTAL_POSTGRES_TIMEOUT", 10*time.Second),
		MaxLifetime: getEnvDuration("LEXPORTAL_POSTGRES_MAX_LIFETIME", 30*time.Minute),
		MaxIdleTime: getEnvDuration("LEXPORTAL_POSTGRES_MAX_IDLE_TIME", 5*time.Minute),
	}
}

// loadRedisConfig loads the read-cache configuration from environment
func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:    getEnvBool("LEXPORTAL_CACHE_ENABLED", true),
		URL:        getEnv("LEXPORTAL_REDIS_URL", "localhost:6379"),
		Password:   getEnv("LEXPORTAL_REDIS_PASSWORD", ""),
		DB:         getEnvInt("LEXPORTAL_REDIS_DB", 0),
		MaxRetries: getEnvInt("LEXPORTAL_REDIS_MAX_RETRIES", 3),
		PoolSize:   getEnvInt("LEXPORTAL_REDIS_POOL_SIZE", 10),
	}
}

// loadBillingConfig loads subscription lifecycle settings from environment
func loadBillingConfig() BillingConfig {
	return BillingConfig{
		SweepSchedule:        getEnv("LEXPORTAL_SWEEP_SCHEDULE", "@every 5m"),
		PaymentMode:          getEnv("LEXPORTAL_PAYMENT_MODE", "null"),
		EntitlementCacheSize: getEnvInt("LEXPORTAL_ENTITLEMENT_CACHE_SIZE", 4096),
		RateLimitPerMinute:   getEnvInt("LEXPORTAL_RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:       getEnvInt("LEXPORTAL_RATE_LIMIT_BURST", 20),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       parseLogLevel(getEnv("LEXPORTAL_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("LEXPORTAL_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Postgres.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	if c.Redis.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("redis URL is required when the cache is enabled")
	}

	if c.Billing.SweepSchedule == "" {
		return fmt.Errorf("sweep schedule is required")
	}
	switch c.Billing.PaymentMode {
	case "null":
	default:
		return fmt.Errorf("invalid payment mode: %s", c.Billing.PaymentMode)
	}
	if c.Billing.EntitlementCacheSize <= 0 {
		return fmt.Errorf("entitlement cache size must be positive")
	}
	if c.Billing.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
