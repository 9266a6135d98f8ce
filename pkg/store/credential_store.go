package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryCredentialStore keeps session credentials in-process (single instance only).
type MemoryCredentialStore struct {
	mu      sync.Mutex
	entries map[string]credentialEntry
	now     func() time.Time
}

type credentialEntry struct {
	value   string
	expires time.Time
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		entries: make(map[string]credentialEntry),
		now:     time.Now,
	}
}

// Put stores credential for sessionID until ttl elapses.
func (s *MemoryCredentialStore) Put(_ context.Context, sessionID, credential string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("credential ttl must be positive")
	}
	s.mu.Lock()
	s.entries[sessionID] = credentialEntry{value: credential, expires: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryCredentialStore) Get(_ context.Context, sessionID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[sessionID]
	if !ok {
		return "", false, nil
	}
	if s.now().After(entry.expires) {
		delete(s.entries, sessionID)
		return "", false, nil
	}
	return entry.value, true, nil
}

func (s *MemoryCredentialStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.entries, sessionID)
	s.mu.Unlock()
	return nil
}

// RedisCredentialStore stores session credentials in Redis with TTL.
type RedisCredentialStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisCredentialStore(client redis.UniversalClient, prefix string) *RedisCredentialStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "galaxy:credential"
	}
	return &RedisCredentialStore{client: client, prefix: prefix}
}

func (s *RedisCredentialStore) Put(ctx context.Context, sessionID, credential string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("credential ttl must be positive")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.client.Set(ctx, s.key(sessionID), credential, ttl).Err()
}

func (s *RedisCredentialStore) Get(ctx context.Context, sessionID string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	val, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisCredentialStore) Delete(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *RedisCredentialStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}
