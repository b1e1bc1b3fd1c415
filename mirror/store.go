// Package mirror implements the on-device mirror of the snapshot shape: a
// timestamped key/value store written through on every successful live fetch
// and read back only when the live path fails.
package mirror

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"fujin.app/config"
	"fujin.app/pkg/errors"
)

// Store is the raw byte-level backing store for mirror entries
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Name() string
}

// NewStore builds the configured backing store
func NewStore(cfg *config.MirrorConfig) (Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(cfg)
	default:
		return nil, errors.NewConfigurationError("unknown mirror cache type: "+cfg.Type, nil)
	}
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is the in-process mirror backing store
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]memoryEntry)}
}

// Name identifies the store in metrics
func (s *MemoryStore) Name() string { return "memory" }

// Get returns the stored bytes for a key if present and unexpired
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

// Set stores bytes under a key with a TTL
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if value == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = memoryEntry{data: value, expiresAt: time.Now().Add(ttl)}
}

// Delete removes a key
func (s *MemoryStore) Delete(_ context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// RedisStore backs the mirror with Redis so entries survive process restarts
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(cfg *config.MirrorConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.NewConfigurationError("failed to connect to mirror redis", err)
	}

	slog.Info("mirror redis connected", "addr", cfg.RedisAddr)
	return &RedisStore{client: client}, nil
}

// Name identifies the store in metrics
func (s *RedisStore) Name() string { return "redis" }

// Get returns the stored bytes for a key if present
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Error("mirror redis get error", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

// Set stores bytes under a key with a TTL
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if value == nil {
		return
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.Error("mirror redis set error", "key", key, "error", err)
	}
}

// Delete removes a key
func (s *RedisStore) Delete(ctx context.Context, key string) {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		slog.Error("mirror redis delete error", "key", key, "error", err)
	}
}
