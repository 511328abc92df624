// Package fetchcache stores raw source payloads keyed by request, so a
// re-run of the ingest stage can be served from disk instead of hitting
// the upstream APIs again.
package fetchcache

import (
	"fmt"
	"sync"
)

// Store abstracts the cache backend.
type Store interface {
	Get(key string) ([]byte, bool)
	Put(key string, val []byte) error
	Close() error
}

// New selects a backend by name: memory|pebble|badger. dir is ignored by
// the memory backend.
func New(backend string, dir string) (Store, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "pebble":
		return NewPebbleStore(dir)
	case "badger":
		return NewBadgerStore(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}

// MemoryStore is a simple thread-safe map store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

func (s *MemoryStore) Put(key string, val []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), val...)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
