package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default is valid", func(c *Config) {}, ""},
		{
			"postgres without URL",
			func(c *Config) { c.Driver = DriverPostgres; c.PostgresURL = "" },
			"postgres URL is required",
		},
		{
			"unknown driver",
			func(c *Config) { c.Driver = "oracle" },
			"invalid database driver",
		},
		{
			"redis backend without URL",
			func(c *Config) { c.SessionBackend = SessionBackendRedis },
			"redis URL is required",
		},
		{
			"unknown session backend",
			func(c *Config) { c.SessionBackend = "memcached" },
			"invalid session backend",
		},
		{
			"non-positive session TTL",
			func(c *Config) { c.SessionTTL = 0 },
			"session TTL must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestOpenDB_SQLite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "test.db")

	db, err := OpenDB(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

func TestOpenDB_UnknownDriver(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Driver = "oracle"

	_, err := OpenDB(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.SessionBackend = SessionBackendRedis
	cfg.RedisURL = "redis://" + mr.Addr()

	client, err := NewRedisClient(context.Background(), cfg)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", time.Minute).Err())
	got, err := client.Get(context.Background(), "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RedisURL = "redis://127.0.0.1:1"

	_, err := NewRedisClient(context.Background(), cfg)
	assert.Error(t, err)
}
