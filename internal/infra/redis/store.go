package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// opTimeout bounds each Redis round trip so a stalled server cannot pin
// a request goroutine.
const opTimeout = 3 * time.Second

// Store is a Redis-backed implementation of app.KeyStore. Values are
// JSON-encoded; expiry is handled server-side by Redis, and the capacity
// bound is delegated to the server's eviction policy. Writes are
// best-effort: the ephemeral caches tolerate a lost entry, so a Redis
// error is logged rather than surfaced.
type Store[V any] struct {
	client     *redis.Client
	prefix     string
	defaultTTL time.Duration
}

// NewStore namespaces all keys under prefix so several stores can share
// one Redis database.
func NewStore[V any](client *redis.Client, prefix string, defaultTTL time.Duration) *Store[V] {
	return &Store[V]{client: client, prefix: prefix, defaultTTL: defaultTTL}
}

func (s *Store[V]) Put(key string, value V) {
	s.PutTTL(key, value, s.defaultTTL)
}

func (s *Store[V]) PutTTL(key string, value V, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("redis store %s: marshal %q: %v", s.prefix, key, err)
		return
	}
	ctx, cancel := opContext()
	defer cancel()
	if err := s.client.Set(ctx, s.key(key), data, ttl).Err(); err != nil {
		log.Printf("redis store %s: set %q: %v", s.prefix, key, err)
	}
}

func (s *Store[V]) Get(key string) (V, bool) {
	var zero V
	ctx, cancel := opContext()
	defer cancel()
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return zero, false
	}
	if err != nil {
		log.Printf("redis store %s: get %q: %v", s.prefix, key, err)
		return zero, false
	}
	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		log.Printf("redis store %s: unmarshal %q: %v", s.prefix, key, err)
		return zero, false
	}
	return value, true
}

func (s *Store[V]) Invalidate(key string) {
	ctx, cancel := opContext()
	defer cancel()
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		log.Printf("redis store %s: del %q: %v", s.prefix, key, err)
	}
}

func (s *Store[V]) key(key string) string {
	return s.prefix + ":" + key
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}
