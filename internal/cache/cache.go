// Package cache provides the string cache used for time-bounded projections
// (home-page carousel, per-user project lists). Entries carry a TTL so stale
// data self-heals; nothing here is a source of truth.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/internal/config"
	"github.com/PuzzlesHQ/cosmic-mod-manager-sub000/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Cache is the collaborator contract: get returns ("", nil) on miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// New returns the Redis-backed cache, falling back to in-process memory when
// Redis is disabled or unreachable.
func New(cfg *config.RedisConfig) Cache {
	if !cfg.Enabled {
		logger.Infof("[Cache] Redis disabled, using in-memory cache")
		return NewMemory()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warnf("[Cache] Redis unavailable at %s, falling back to memory: %v", cfg.Addr, err)
		return NewMemory()
	}

	logger.Infof("[Cache] Redis cache connected at %s", cfg.Addr)
	return &Redis{client: rdb}
}

// Redis implements Cache on a Redis/Valkey server.
type Redis struct {
	client *redis.Client
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *Redis) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// Memory is the in-process fallback with lazy expiry.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", nil
	}
	return e.value, nil
}

func (m *Memory) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: value, expiresAt: expires}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	m.mu.Unlock()
	return nil
}
