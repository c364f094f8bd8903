package storage

import (
	"fmt"
	"time"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Session store backends
const (
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

// Config for the backing stores
type Config struct {
	// Database
	Driver          string // "postgres" or "sqlite"
	PostgresURL     string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration

	// Session store
	SessionBackend string // "redis" or "memory"
	RedisURL       string
	RedisPassword  string
	RedisDB        int
	RedisPoolSize  int
	SessionTTL     time.Duration
	MemoryCapacity int
}

// DefaultConfig returns the configuration used when no environment
// overrides are present: sqlite plus the in-memory session store, suitable
// for local development
func DefaultConfig() Config {
	return Config{
		Driver:          DriverSQLite,
		SQLitePath:      "gatehouse.db",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		ConnectTimeout:  5 * time.Second,
		SessionBackend:  SessionBackendMemory,
		RedisDB:         0,
		SessionTTL:      30 * time.Minute,
		MemoryCapacity:  16384,
	}
}

// Validate checks the configuration for the selected backends
func (c Config) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres driver")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required for sqlite driver")
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be postgres or sqlite)", c.Driver)
	}

	switch c.SessionBackend {
	case SessionBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis session backend")
		}
	case SessionBackendMemory:
		if c.MemoryCapacity <= 0 {
			return fmt.Errorf("memory session capacity must be positive")
		}
	default:
		return fmt.Errorf("invalid session backend: %s (must be redis or memory)", c.SessionBackend)
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	return nil
}
