package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryCapacity bounds the in-memory store; least recently used
// sessions are evicted beyond it
const DefaultMemoryCapacity = 16384

type memorySession struct {
	mu        sync.RWMutex
	attrs     map[string]string
	expiresAt time.Time
}

func (ms *memorySession) expired(now time.Time) bool {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return now.After(ms.expiresAt)
}

// MemoryStore is an in-memory session store bounded by an LRU cache. It is
// intended for development and tests; expired sessions linger until the next
// access or a Sweep pass.
type MemoryStore struct {
	cache *lru.Cache[string, *memorySession]
	ttl   time.Duration
}

// NewMemoryStore creates a memory store with the given capacity and TTL
func NewMemoryStore(capacity int, ttl time.Duration) (*MemoryStore, error) {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	cache, err := lru.New[string, *memorySession](capacity)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{cache: cache, ttl: ttl}, nil
}

// get returns the live session, dropping it when expired
func (s *MemoryStore) get(sid string) (*memorySession, bool) {
	ms, ok := s.cache.Get(sid)
	if !ok {
		return nil, false
	}
	if ms.expired(time.Now()) {
		s.cache.Remove(sid)
		return nil, false
	}
	return ms, true
}

// Create allocates a new session
func (s *MemoryStore) Create(ctx context.Context) (string, error) {
	sid := uuid.NewString()
	s.cache.Add(sid, &memorySession{
		attrs:     make(map[string]string),
		expiresAt: time.Now().Add(s.ttl),
	})
	return sid, nil
}

// Exists reports whether the session is live
func (s *MemoryStore) Exists(ctx context.Context, sid string) (bool, error) {
	_, ok := s.get(sid)
	return ok, nil
}

// Attribute reads one attribute
func (s *MemoryStore) Attribute(ctx context.Context, sid, key string) (string, bool, error) {
	ms, ok := s.get(sid)
	if !ok {
		return "", false, nil
	}
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	value, ok := ms.attrs[key]
	return value, ok, nil
}

// Attributes returns a copy of all attributes of the session
func (s *MemoryStore) Attributes(ctx context.Context, sid string) (map[string]string, error) {
	ms, ok := s.get(sid)
	if !ok {
		return nil, nil
	}
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	out := make(map[string]string, len(ms.attrs))
	for k, v := range ms.attrs {
		out[k] = v
	}
	return out, nil
}

// SetAttribute writes one attribute and extends the session deadline
func (s *MemoryStore) SetAttribute(ctx context.Context, sid, key, value string) error {
	ms, ok := s.get(sid)
	if !ok {
		return nil
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.attrs[key] = value
	ms.expiresAt = time.Now().Add(s.ttl)
	return nil
}

// RemoveAttribute deletes one attribute
func (s *MemoryStore) RemoveAttribute(ctx context.Context, sid, key string) error {
	ms, ok := s.get(sid)
	if !ok {
		return nil
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.attrs, key)
	return nil
}

// Invalidate destroys the session
func (s *MemoryStore) Invalidate(ctx context.Context, sid string) error {
	s.cache.Remove(sid)
	return nil
}

// Sweep drops every expired session and returns how many were removed.
// Scheduled periodically so abandoned sessions do not occupy cache slots
// until eviction.
func (s *MemoryStore) Sweep() int {
	now := time.Now()
	removed := 0
	for _, sid := range s.cache.Keys() {
		if ms, ok := s.cache.Peek(sid); ok && ms.expired(now) {
			s.cache.Remove(sid)
			removed++
		}
	}
	return removed
}

// Len returns the number of sessions currently held
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}
