package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const redisKeyPrefix = "session:"

// createdAtField keeps the session hash non-empty so an attribute-less
// session still exists in redis
const createdAtField = "__created_at"

// RedisStore is a redis-backed session store. Each session is one hash keyed
// session:<sid>; the TTL is refreshed on every write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a redis session store with the given session TTL
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(sid string) string {
	return redisKeyPrefix + sid
}

// Create allocates a new session
func (s *RedisStore) Create(ctx context.Context) (string, error) {
	sid := uuid.NewString()
	key := redisKey(sid)

	if err := s.client.HSet(ctx, key, createdAtField, time.Now().UTC().Format(time.RFC3339)).Err(); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to set session ttl: %w", err)
	}
	return sid, nil
}

// Exists reports whether the session is live without touching its TTL
func (s *RedisStore) Exists(ctx context.Context, sid string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKey(sid)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to probe session: %w", err)
	}
	return n > 0, nil
}

// Attribute reads one attribute
func (s *RedisStore) Attribute(ctx context.Context, sid, key string) (string, bool, error) {
	value, err := s.client.HGet(ctx, redisKey(sid), key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session attribute: %w", err)
	}
	return value, true, nil
}

// Attributes returns all attributes of the session
func (s *RedisStore) Attributes(ctx context.Context, sid string) (map[string]string, error) {
	values, err := s.client.HGetAll(ctx, redisKey(sid)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session attributes: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	delete(values, createdAtField)
	return values, nil
}

// SetAttribute writes one attribute and refreshes the session TTL. A write
// to a dead session is dropped rather than resurrecting it, matching the
// memory store.
func (s *RedisStore) SetAttribute(ctx context.Context, sid, key, value string) error {
	rkey := redisKey(sid)
	n, err := s.client.Exists(ctx, rkey).Result()
	if err != nil {
		return fmt.Errorf("failed to probe session: %w", err)
	}
	if n == 0 {
		return nil
	}
	if err := s.client.HSet(ctx, rkey, key, value).Err(); err != nil {
		return fmt.Errorf("failed to write session attribute: %w", err)
	}
	if err := s.client.Expire(ctx, rkey, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to refresh session ttl: %w", err)
	}
	return nil
}

// RemoveAttribute deletes one attribute
func (s *RedisStore) RemoveAttribute(ctx context.Context, sid, key string) error {
	if err := s.client.HDel(ctx, redisKey(sid), key).Err(); err != nil {
		return fmt.Errorf("failed to remove session attribute: %w", err)
	}
	return nil
}

// Invalidate destroys the session
func (s *RedisStore) Invalidate(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, redisKey(sid)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}
	return nil
}
