package session

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache memoriza el resultado de la última validación de una cuenta durante
// una ventana de frescura, para no abrir un navegador por cada consulta.
type Cache interface {
	// Get devuelve el veredicto cacheado y si sigue vigente
	Get(ctx context.Context, key string) (bool, bool)
	// Put guarda un veredicto con su TTL
	Put(ctx context.Context, key string, valid bool, ttl time.Duration)
	// Invalidate descarta el veredicto de una cuenta
	Invalidate(ctx context.Context, key string)
}

// MemoryCache es la implementación por defecto, local al proceso
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	valid   bool
	expires time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expires) {
		delete(c.entries, key)
		return false, false
	}
	return entry.valid, true
}

func (c *MemoryCache) Put(ctx context.Context, key string, valid bool, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{valid: valid, expires: time.Now().Add(ttl)}
}

func (c *MemoryCache) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// RedisCache comparte los veredictos entre procesos vía redis. Un fallo de
// red se trata como cache miss, nunca bloquea una validación.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: "smart-publish:session:"}
}

func (c *RedisCache) Get(ctx context.Context, key string) (bool, bool) {
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err != nil {
		return false, false
	}
	return val == "1", true
}

func (c *RedisCache) Put(ctx context.Context, key string, valid bool, ttl time.Duration) {
	val := "0"
	if valid {
		val = "1"
	}
	c.client.SetEx(ctx, c.prefix+key, val, ttl)
}

func (c *RedisCache) Invalidate(ctx context.Context, key string) {
	c.client.Del(ctx, c.prefix+key)
}

var _ Cache = (*MemoryCache)(nil)
var _ Cache = (*RedisCache)(nil)
