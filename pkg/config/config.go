package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/gatehouse/pkg/observability"
	"github.com/platinummonkey/gatehouse/pkg/session"
	"github.com/platinummonkey/gatehouse/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Storage       storage.Config
	Session       SessionConfig
	Observability ObservabilityConfig
	Audit         AuditConfig
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

	// Debug endpoints such as GET /api/csrf
	DebugEndpoints bool
}

// SessionConfig holds the cookie settings; store settings live in
// storage.Config
type SessionConfig struct {
	CookieName   string
	SecureCookie bool
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// AuditConfig holds audit trail settings
type AuditConfig struct {
	// FilePath is the JSON-lines audit log; empty disables the file sink
	FilePath string
	// DBEnabled persists events to the audit_events table
	DBEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Session:       loadSessionConfig(),
		Observability: loadObservabilityConfig(),
		Audit:         loadAuditConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("GATEHOUSE_HOST", "0.0.0.0"),
		Port:            getEnv("GATEHOUSE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("GATEHOUSE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("GATEHOUSE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("GATEHOUSE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("GATEHOUSE_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("GATEHOUSE_HEALTH_PORT", "9090"),
		DebugEndpoints:  getEnvBool("GATEHOUSE_DEBUG_ENDPOINTS", false),
	}
}

func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if driver := getEnv("GATEHOUSE_DB_DRIVER", ""); driver != "" {
		cfg.Driver = driver
	}
	if pgURL := getEnv("GATEHOUSE_POSTGRES_URL", ""); pgURL != "" {
		cfg.PostgresURL = pgURL
		// An explicit postgres URL implies the postgres driver unless the
		// driver was also set explicitly
		if getEnv("GATEHOUSE_DB_DRIVER", "") == "" {
			cfg.Driver = storage.DriverPostgres
		}
	}
	if sqlitePath := getEnv("GATEHOUSE_SQLITE_PATH", ""); sqlitePath != "" {
		cfg.SQLitePath = sqlitePath
	}
	if maxConns := getEnvInt("GATEHOUSE_DB_MAX_CONNS", 0); maxConns > 0 {
		cfg.MaxOpenConns = maxConns
	}
	if idleConns := getEnvInt("GATEHOUSE_DB_IDLE_CONNS", 0); idleConns > 0 {
		cfg.MaxIdleConns = idleConns
	}
	if timeout := getEnvDuration("GATEHOUSE_DB_CONNECT_TIMEOUT", 0); timeout > 0 {
		cfg.ConnectTimeout = timeout
	}

	if backend := getEnv("GATEHOUSE_SESSION_BACKEND", ""); backend != "" {
		cfg.SessionBackend = backend
	}
	if redisURL := getEnv("GATEHOUSE_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
		if getEnv("GATEHOUSE_SESSION_BACKEND", "") == "" {
			cfg.SessionBackend = storage.SessionBackendRedis
		}
	}
	if redisPassword := getEnv("GATEHOUSE_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("GATEHOUSE_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if poolSize := getEnvInt("GATEHOUSE_REDIS_POOL_SIZE", 0); poolSize > 0 {
		cfg.RedisPoolSize = poolSize
	}
	if ttl := getEnvDuration("GATEHOUSE_SESSION_TTL", 0); ttl > 0 {
		cfg.SessionTTL = ttl
	}
	if capacity := getEnvInt("GATEHOUSE_SESSION_MEMORY_CAPACITY", 0); capacity > 0 {
		cfg.MemoryCapacity = capacity
	}

	return cfg
}

func loadSessionConfig() SessionConfig {
	return SessionConfig{
		CookieName:   getEnv("GATEHOUSE_SESSION_COOKIE_NAME", session.DefaultCookieName),
		SecureCookie: getEnvBool("GATEHOUSE_SESSION_SECURE_COOKIE", false),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLevel(getEnv("GATEHOUSE_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("GATEHOUSE_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("GATEHOUSE_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("GATEHOUSE_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("GATEHOUSE_OTEL_SERVICE_NAME", "gatehouse"),
		OTelServiceVersion: getEnv("GATEHOUSE_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("GATEHOUSE_OTEL_INSECURE", true),
	}
}

func loadAuditConfig() AuditConfig {
	return AuditConfig{
		FilePath:  getEnv("GATEHOUSE_AUDIT_FILE", ""),
		DBEnabled: getEnvBool("GATEHOUSE_AUDIT_DB", true),
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

	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}

	if err := c.Storage.Validate(); err != nil {
		return err
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
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
