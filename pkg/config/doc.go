// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	LEXPORTAL_HOST="0.0.0.0"
//	LEXPORTAL_PORT="8080"
//	LEXPORTAL_HEALTH_PORT="9090"
//	LEXPORTAL_READ_TIMEOUT="15s"
//	LEXPORTAL_WRITE_TIMEOUT="15s"
//
// Database settings:
//
//	LEXPORTAL_POSTGRES_URL="postgres://localhost/lexportal"
//	LEXPORTAL_POSTGRES_MAX_CONNS="25"
//	LEXPORTAL_POSTGRES_TIMEOUT="10s"
//
// Cache settings:
//
//	LEXPORTAL_CACHE_ENABLED="true"
//	LEXPORTAL_REDIS_URL="localhost:6379"
//	LEXPORTAL_REDIS_POOL_SIZE="10"
//
// Billing settings:
//
//	LEXPORTAL_SWEEP_SCHEDULE="@every 5m"
//	LEXPORTAL_PAYMENT_MODE="null"
//	LEXPORTAL_ENTITLEMENT_CACHE_SIZE="4096"
//
// Observability settings:
//
//	LEXPORTAL_LOG_LEVEL="info"  # debug, info, warn, error
//	LEXPORTAL_METRICS_ENABLED="true"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Sweep schedule: %s\n", cfg.Billing.SweepSchedule)
//
// # Related Packages
//
//   - pkg/storage/postgres: Uses the database configuration
//   - pkg/observability: Uses the observability configuration
package config
