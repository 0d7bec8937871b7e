package memory

import (
	"sync"
	"time"
)

// Store is an in-process implementation of app.KeyStore: a mutex-guarded
// map with per-entry expiry and a capacity bound. Expired entries are
// reaped lazily; when the store is full, the oldest-written entries are
// evicted first, so a TTL is an upper bound rather than a guarantee.
type Store[V any] struct {
	defaultTTL time.Duration
	capacity   int
	clock      func() time.Time

	mu      sync.Mutex
	entries map[string]entry[V]
}

type entry[V any] struct {
	value     V
	writtenAt time.Time
	expiresAt time.Time
}

func NewStore[V any](defaultTTL time.Duration, capacity int) *Store[V] {
	return &Store[V]{
		defaultTTL: defaultTTL,
		capacity:   capacity,
		clock:      time.Now,
		entries:    make(map[string]entry[V]),
	}
}

// NewStoreWithClock is test-only for deterministic expiry.
func NewStoreWithClock[V any](defaultTTL time.Duration, capacity int, clock func() time.Time) *Store[V] {
	s := NewStore[V](defaultTTL, capacity)
	s.clock = clock
	return s
}

func (s *Store[V]) Put(key string, value V) {
	s.PutTTL(key, value, s.defaultTTL)
}

func (s *Store[V]) PutTTL(key string, value V, ttl time.Duration) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists && s.capacity > 0 && len(s.entries) >= s.capacity {
		s.evictLocked(now)
	}
	s.entries[key] = entry[V]{value: value, writtenAt: now, expiresAt: now.Add(ttl)}
}

func (s *Store[V]) Get(key string) (V, bool) {
	var zero V
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return zero, false
	}
	if !e.expiresAt.After(now) {
		delete(s.entries, key)
		return zero, false
	}
	return e.value, true
}

func (s *Store[V]) Invalidate(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len reports the number of entries currently held, counting entries that
// have expired but not yet been reaped.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evictLocked frees room for one insertion: expired entries go first,
// then the oldest-written live entry.
func (s *Store[V]) evictLocked(now time.Time) {
	for key, e := range s.entries {
		if !e.expiresAt.After(now) {
			delete(s.entries, key)
		}
	}
	if len(s.entries) < s.capacity {
		return
	}

	var oldestKey string
	var oldest time.Time
	first := true
	for key, e := range s.entries {
		if first || e.writtenAt.Before(oldest) {
			oldestKey, oldest = key, e.writtenAt
			first = false
		}
	}
	delete(s.entries, oldestKey)
}
