// Package cache is a small key/value cache used for the product catalog and
// for revoked session tokens. It talks to Redis when Connect succeeds and
// otherwise keeps entries in process memory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// RDB is the shared Redis client. Nil when Redis is not configured.
var RDB *redis.Client

var mem = newMemoryStore()

// Connect initialises the Redis client and verifies it with a ping.
// On error RDB stays nil and the in-memory store is used.
func Connect() error {
	addr := config.RedisAddr()
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    config.RedisPassword(),
		DialTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	RDB = client
	return nil
}

// Get unmarshals the cached value into dest. It reports a hit.
func Get(ctx context.Context, key string, dest interface{}) bool {
	hit := get(ctx, key, dest)
	driver := "memory"
	if RDB != nil {
		driver = "redis"
	}
	metrics.RecordCache(driver, hit)
	return hit
}

func get(ctx context.Context, key string, dest interface{}) bool {
	var raw []byte
	if RDB != nil {
		val, err := RDB.Get(ctx, key).Bytes()
		if err != nil {
			return false
		}
		raw = val
	} else {
		val, ok := mem.get(key)
		if !ok {
			return false
		}
		raw = val
	}
	return json.Unmarshal(raw, dest) == nil
}

// Set stores value under key for ttl. A zero ttl means no expiry.
func Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	if RDB != nil {
		return RDB.Set(ctx, key, data, ttl).Err()
	}
	mem.set(key, data, ttl)
	return nil
}

// Has reports whether key exists.
func Has(ctx context.Context, key string) bool {
	if RDB != nil {
		n, err := RDB.Exists(ctx, key).Result()
		return err == nil && n > 0
	}
	_, ok := mem.get(key)
	return ok
}

// Forget removes keys.
func Forget(ctx context.Context, keys ...string) error {
	if RDB != nil {
		if err := RDB.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("cache: del: %w", err)
		}
		return nil
	}
	for _, k := range keys {
		mem.del(k)
	}
	return nil
}

// Remember returns the cached value for key, or calls load, caches its
// result for ttl and decodes it into dest.
func Remember(ctx context.Context, key string, ttl time.Duration, dest interface{}, load func() (interface{}, error)) error {
	if Get(ctx, key, dest) {
		return nil
	}
	v, err := load()
	if err != nil {
		return err
	}
	if err := Set(ctx, key, v, ttl); err != nil {
		return err
	}
	if !get(ctx, key, dest) {
		return fmt.Errorf("cache: %s not readable after set", key)
	}
	return nil
}

// Flush clears the in-memory store. Redis is left untouched.
func Flush() { mem.flush() }

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memEntry
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]memEntry)}
}

func (m *memoryStore) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return e.data, true
}

func (m *memoryStore) set(key string, data []byte, ttl time.Duration) {
	e := memEntry{data: data}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
}

func (m *memoryStore) del(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

func (m *memoryStore) flush() {
	m.mu.Lock()
	m.entries = make(map[string]memEntry)
	m.mu.Unlock()
}
