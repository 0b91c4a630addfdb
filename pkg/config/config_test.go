package config

import (
	"os"
	"testing"
	"time"

	"github.com/lexportal/lexportal/pkg/observability"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{
			name:         "returns true for 'true'",
			key:          "TEST_BOOL",
			defaultValue: false,
			envValue:     "true",
			want:         true,
		},
		{
			name:         "returns true for '1'",
			key:          "TEST_BOOL",
			defaultValue: false,
			envValue:     "1",
			want:         true,
		},
		{
			name:         "returns false for 'false'",
			key:          "TEST_BOOL",
			defaultValue: true,
			envValue:     "false",
			want:         false,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_BOOL_NOT_SET",
			defaultValue: true,
			envValue:     "",
			want:         true,
		},
		{
			name:         "returns true for 'TRUE' (case insensitive)",
			key:          "TEST_BOOL",
			defaultValue: false,
			envValue:     "TRUE",
			want:         true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getEnvBool(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvInt tests the getEnvInt helper function
func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{
			name:         "returns parsed int",
			key:          "TEST_INT",
			defaultValue: 10,
			envValue:     "42",
			want:         42,
		},
		{
			name:         "returns default for invalid int",
			key:          "TEST_INT",
			defaultValue: 10,
			envValue:     "invalid",
			want:         10,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_INT_NOT_SET",
			defaultValue: 10,
			envValue:     "",
			want:         10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getEnvInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue time.Duration
		envValue     string
		want         time.Duration
	}{
		{
			name:         "returns parsed duration",
			key:          "TEST_DURATION",
			defaultValue: 10 * time.Second,
			envValue:     "30s",
			want:         30 * time.Second,
		},
		{
			name:         "returns default for invalid duration",
			key:          "TEST_DURATION",
			defaultValue: 10 * time.Second,
			envValue:     "invalid",
			want:         10 * time.Second,
		},
		{
			name:         "returns default when not set",
			key:          "TEST_DURATION_NOT_SET",
			defaultValue: 10 * time.Second,
			envValue:     "",
			want:         10 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			} else {
				os.Unsetenv(tt.key)
			}

			got := getEnvDuration(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestParseLogLevel tests the parseLogLevel function
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  observability.LogLevel
	}{
		{
			name:  "debug",
			level: "debug",
			want:  observability.DebugLevel,
		},
		{
			name:  "DEBUG uppercase",
			level: "DEBUG",
			want:  observability.DebugLevel,
		},
		{
			name:  "info",
			level: "info",
			want:  observability.InfoLevel,
		},
		{
			name:  "warn",
			level: "warn",
			want:  observability.WarnLevel,
		},
		{
			name:  "warning",
			level: "warning",
			want:  observability.WarnLevel,
		},
		{
			name:  "error",
			level: "error",
			want:  observability.ErrorLevel,
		},
		{
			name:  "invalid defaults to info",
			level: "invalid",
			want:  observability.InfoLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseLogLevel(tt.level)
			if got != tt.want {
				t.Errorf("parseLogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestLoadServerConfig tests the loadServerConfig function
func TestLoadServerConfig(t *testing.T) {
	// Save current env and restore after test
	originalEnv := map[string]string{
		"LEXPORTAL_HOST":             os.Getenv("LEXPORTAL_HOST"),
		"LEXPORTAL_PORT":             os.Getenv("LEXPORTAL_PORT"),
		"LEXPORTAL_READ_TIMEOUT":     os.Getenv("LEXPORTAL_READ_TIMEOUT"),
		"LEXPORTAL_WRITE_TIMEOUT":    os.Getenv("LEXPORTAL_WRITE_TIMEOUT"),
		"LEXPORTAL_IDLE_TIMEOUT":     os.Getenv("LEXPORTAL_IDLE_TIMEOUT"),
		"LEXPORTAL_SHUTDOWN_TIMEOUT": os.Getenv("LEXPORTAL_SHUTDOWN_TIMEOUT"),
		"LEXPORTAL_HEALTH_PORT":      os.Getenv("LEXPORTAL_HEALTH_PORT"),
	}
	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	tests := []struct {
		name string
		env  map[string]string
		want ServerConfig
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			want: ServerConfig{
				Host:            "0.0.0.0",
				Port:            "8080",
				ReadTimeout:     15 * time.Second,
				WriteTimeout:    15 * time.Second,
				IdleTimeout:     60 * time.Second,
				ShutdownTimeout: 30 * time.Second,
				HealthPort:      "9090",
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"LEXPORTAL_HOST":             "localhost",
				"LEXPORTAL_PORT":             "3000",
				"LEXPORTAL_READ_TIMEOUT":     "30s",
				"LEXPORTAL_WRITE_TIMEOUT":    "30s",
				"LEXPORTAL_IDLE_TIMEOUT":     "120s",
				"LEXPORTAL_SHUTDOWN_TIMEOUT": "60s",
				"LEXPORTAL_HEALTH_PORT":      "9091",
			},
			want: ServerConfig{
				Host:            "localhost",
				Port:            "3000",
				ReadTimeout:     30 * time.Second,
				WriteTimeout:    30 * time.Second,
				IdleTimeout:     120 * time.Second,
				ShutdownTimeout: 60 * time.Second,
				HealthPort:      "9091",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear all env vars
			for k := range originalEnv {
				os.Unsetenv(k)
			}

			// Set test env vars
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			got := loadServerConfig()
			if got != tt.want {
				t.Errorf("loadServerConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestLoadPostgresConfig tests the loadPostgresConfig function
func TestLoadPostgresConfig(t *testing.T) {
	envVars := []string{
		"LEXPORTAL_POSTGRES_URL",
		"LEXPORTAL_POSTGRES_MAX_CONNS",
		"LEXPORTAL_POSTGRES_MIN_CONNS",
		"LEXPORTAL_POSTGRES_TIMEOUT",
		"LEXPORTAL_POSTGRES_MAX_LIFETIME",
		"LEXPORTAL_POSTGRES_MAX_IDLE_TIME",
	}
	originalEnv := make(map[string]string)
	for _, k := range envVars {
		originalEnv[k] = os.Getenv(k)
	}
	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads defaults", func(t *testing.T) {
		for _, k := range envVars {
			os.Unsetenv(k)
		}

		cfg := loadPostgresConfig()
		if cfg.URL != "" {
			t.Errorf("URL = %v, want empty", cfg.URL)
		}
		if cfg.MaxConns != 25 {
			t.Errorf("MaxConns = %v, want 25", cfg.MaxConns)
		}
		if cfg.MinConns != 5 {
			t.Errorf("MinConns = %v, want 5", cfg.MinConns)
		}
		if cfg.Timeout != 10*time.Second {
			t.Errorf("Timeout = %v, want 10s", cfg.Timeout)
		}
	})

	t.Run("loads from env", func(t *testing.T) {
		for _, k := range envVars {
			os.Unsetenv(k)
		}

		os.Setenv("LEXPORTAL_POSTGRES_URL", "postgres://localhost/lexportal")
		os.Setenv("LEXPORTAL_POSTGRES_MAX_CONNS", "50")
		os.Setenv("LEXPORTAL_POSTGRES_MIN_CONNS", "10")
		os.Setenv("LEXPORTAL_POSTGRES_TIMEOUT", "20s")

		cfg := loadPostgresConfig()
		if cfg.URL != "postgres://localhost/lexportal" {
			t.Errorf("URL = %v, want postgres://localhost/lexportal", cfg.URL)
		}
		if cfg.MaxConns != 50 {
			t.Errorf("MaxConns = %v, want 50", cfg.MaxConns)
		}
		if cfg.MinConns != 10 {
			t.Errorf("MinConns = %v, want 10", cfg.MinConns)
		}
		if cfg.Timeout != 20*time.Second {
			t.Errorf("Timeout = %v, want 20s", cfg.Timeout)
		}
	})
}

// TestLoadRedisConfig tests the loadRedisConfig function
func TestLoadRedisConfig(t *testing.T) {
	envVars := []string{
		"LEXPORTAL_CACHE_ENABLED",
		"LEXPORTAL_REDIS_URL",
		"LEXPORTAL_REDIS_PASSWORD",
		"LEXPORTAL_REDIS_DB",
		"LEXPORTAL_REDIS_MAX_RETRIES",
		"LEXPORTAL_REDIS_POOL_SIZE",
	}
	originalEnv := make(map[string]string)
	for _, k := range envVars {
		originalEnv[k] = os.Getenv(k)
	}
	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads defaults", func(t *testing.T) {
		for _, k := range envVars {
			os.Unsetenv(k)
		}

		cfg := loadRedisConfig()
		if !cfg.Enabled {
			t.Errorf("Enabled = %v, want true", cfg.Enabled)
		}
		if cfg.URL != "localhost:6379" {
			t.Errorf("URL = %v, want localhost:6379", cfg.URL)
		}
		if cfg.PoolSize != 10 {
			t.Errorf("PoolSize = %v, want 10", cfg.PoolSize)
		}
	})

	t.Run("loads from env", func(t *testing.T) {
		for _, k := range envVars {
			os.Unsetenv(k)
		}

		os.Setenv("LEXPORTAL_CACHE_ENABLED", "false")
		os.Setenv("LEXPORTAL_REDIS_URL", "redis.internal:6379")
		os.Setenv("LEXPORTAL_REDIS_PASSWORD", "password")
		os.Setenv("LEXPORTAL_REDIS_DB", "1")
		os.Setenv("LEXPORTAL_REDIS_MAX_RETRIES", "5")
		os.Setenv("LEXPORTAL_REDIS_POOL_SIZE", "20")

		cfg := loadRedisConfig()
		if cfg.Enabled {
			t.Errorf("Enabled = %v, want false", cfg.Enabled)
		}
		if cfg.URL != "redis.internal:6379" {
			t.Errorf("URL = %v, want redis.internal:6379", cfg.URL)
		}
		if cfg.Password != "password" {
			t.Errorf("Password = %v, want password", cfg.Password)
		}
		if cfg.DB != 1 {
			t.Errorf("DB = %v, want 1", cfg.DB)
		}
		if cfg.MaxRetries != 5 {
			t.Errorf("MaxRetries = %v, want 5", cfg.MaxRetries)
		}
		if cfg.PoolSize != 20 {
			t.Errorf("PoolSize = %v, want 20", cfg.PoolSize)
		}
	})
}

// TestLoadBillingConfig tests the loadBillingConfig function
func TestLoadBillingConfig(t *testing.T) {
	envVars := []string{
		"LEXPORTAL_SWEEP_SCHEDULE",
		"LEXPORTAL_PAYMENT_MODE",
		"LEXPORTAL_ENTITLEMENT_CACHE_SIZE",
		"LEXPORTAL_RATE_LIMIT_PER_MINUTE",
		"LEXPORTAL_RATE_LIMIT_BURST",
	}
	originalEnv := make(map[string]string)
	for _, k := range envVars {
		originalEnv[k] = os.Getenv(k)
	}
	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads defaults", func(t *testing.T) {
		for _, k := range envVars {
			os.Unsetenv(k)
		}

		cfg := loadBillingConfig()
		if cfg.SweepSchedule != "@every 5m" {
			t.Errorf("SweepSchedule = %v, want @every 5m", cfg.SweepSchedule)
		}
		if cfg.PaymentMode != "null" {
			t.Errorf("PaymentMode = %v, want null", cfg.PaymentMode)
		}
		if cfg.EntitlementCacheSize != 4096 {
			t.Errorf("EntitlementCacheSize = %v, want 4096", cfg.EntitlementCacheSize)
		}
		if cfg.RateLimitPerMinute != 120 {
			t.Errorf("RateLimitPerMinute = %v, want 120", cfg.RateLimitPerMinute)
		}
	})

	t.Run("loads from env", func(t *testing.T) {
		for _, k := range envVars {
			os.Unsetenv(k)
		}

		os.Setenv("LEXPORTAL_SWEEP_SCHEDULE", "@hourly")
		os.Setenv("LEXPORTAL_ENTITLEMENT_CACHE_SIZE", "1024")
		os.Setenv("LEXPORTAL_RATE_LIMIT_PER_MINUTE", "30")

		cfg := loadBillingConfig()
		if cfg.SweepSchedule != "@hourly" {
			t.Errorf("SweepSchedule = %v, want @hourly", cfg.SweepSchedule)
		}
		if cfg.EntitlementCacheSize != 1024 {
			t.Errorf("EntitlementCacheSize = %v, want 1024", cfg.EntitlementCacheSize)
		}
		if cfg.RateLimitPerMinute != 30 {
			t.Errorf("RateLimitPerMinute = %v, want 30", cfg.RateLimitPerMinute)
		}
	})
}

// TestConfigValidate tests the Config.Validate method
func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		cfg := Config{
			Server: ServerConfig{
				Port:       "8080",
				HealthPort: "9090",
			},
			Redis: RedisConfig{
				Enabled: true,
				URL:     "localhost:6379",
			},
			Billing: BillingConfig{
				SweepSchedule:        "@every 5m",
				PaymentMode:          "null",
				EntitlementCacheSize: 4096,
			},
		}
		cfg.Postgres.URL = "postgres://localhost/lexportal"
		return cfg
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() unexpected error = %v", err)
		}
	})

	t.Run("missing server port", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = ""
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
		if err != nil && err.Error() != "server port is required" {
			t.Errorf("Validate() error = %v, want 'server port is required'", err.Error())
		}
	})

	t.Run("missing health port", func(t *testing.T) {
		cfg := valid()
		cfg.Server.HealthPort = ""
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
		if err != nil && err.Error() != "health port is required" {
			t.Errorf("Validate() error = %v, want 'health port is required'", err.Error())
		}
	})

	t.Run("same server and health port", func(t *testing.T) {
		cfg := valid()
		cfg.Server.HealthPort = "8080"
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
		if err != nil && err.Error() != "server port and health port must be different" {
			t.Errorf("Validate() error = %v, want 'server port and health port must be different'", err.Error())
		}
	})

	t.Run("missing postgres url", func(t *testing.T) {
		cfg := valid()
		cfg.Postgres.URL = ""
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
		if err != nil && err.Error() != "postgres URL is required" {
			t.Errorf("Validate() error = %v, want 'postgres URL is required'", err.Error())
		}
	})

	t.Run("cache enabled without redis url", func(t *testing.T) {
		cfg := valid()
		cfg.Redis.URL = ""
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
	})

	t.Run("cache disabled allows empty redis url", func(t *testing.T) {
		cfg := valid()
		cfg.Redis.Enabled = false
		cfg.Redis.URL = ""
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() unexpected error = %v", err)
		}
	})

	t.Run("invalid payment mode", func(t *testing.T) {
		cfg := valid()
		cfg.Billing.PaymentMode = "stripe"
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
	})

	t.Run("non-positive entitlement cache size", func(t *testing.T) {
		cfg := valid()
		cfg.Billing.EntitlementCacheSize = 0
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
	})

	t.Run("negative rate limit", func(t *testing.T) {
		cfg := valid()
		cfg.Billing.RateLimitPerMinute = -1
		err := cfg.Validate()
		if err == nil {
			t.Error("Validate() expected error, got nil")
		}
	})
}

// TestLoadConfig tests the LoadConfig function
func TestLoadConfig(t *testing.T) {
	envVars := []string{
		"LEXPORTAL_PORT",
		"LEXPORTAL_HEALTH_PORT",
		"LEXPORTAL_POSTGRES_URL",
	}
	originalEnv := make(map[string]string)
	for _, k := range envVars {
		originalEnv[k] = os.Getenv(k)
	}
	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name: "valid config",
			env: map[string]string{
				"LEXPORTAL_PORT":         "8080",
				"LEXPORTAL_HEALTH_PORT":  "9090",
				"LEXPORTAL_POSTGRES_URL": "postgres://localhost/lexportal",
			},
			wantErr: false,
		},
		{
			name: "invalid config - same ports",
			env: map[string]string{
				"LEXPORTAL_PORT":         "8080",
				"LEXPORTAL_HEALTH_PORT":  "8080",
				"LEXPORTAL_POSTGRES_URL": "postgres://localhost/lexportal",
			},
			wantErr: true,
		},
		{
			name: "invalid config - missing postgres url",
			env: map[string]string{
				"LEXPORTAL_PORT":        "8080",
				"LEXPORTAL_HEALTH_PORT": "9090",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear all env vars
			for _, k := range envVars {
				os.Unsetenv(k)
			}

			// Set test env vars
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			cfg, err := LoadConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && cfg == nil {
				t.Error("LoadConfig() returned nil config without error")
			}
		})
	}
}
