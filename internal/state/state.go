package state

import (
	"fmt"
	"sort"
	"sync"
)

// Store abstracts the key-value backend holding drafts.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, val []byte) error
	Delete(key string) error
	Range(fn func(key string, val []byte) error) error
	LoadAll(all map[string][]byte) error
}

// InMemoryStore is a simple thread-safe map store.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string][]byte)}
}

// LoadAll replaces the store contents with the provided snapshot.
func (s *InMemoryStore) LoadAll(all map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string][]byte, len(all))
	for k, v := range all {
		s.data[k] = append([]byte(nil), v...)
	}
	return nil
}

func (s *InMemoryStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *InMemoryStore) Put(key string, val []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), val...)
	return nil
}

func (s *InMemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Range visits keys in lexical order.
func (s *InMemoryStore) Range(fn func(key string, val []byte) error) error {
	s.mu.RLock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	snap := make(map[string][]byte, len(s.data))
	for k, v := range s.data {
		snap[k] = v
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	for _, k := range keys {
		if err := fn(k, append([]byte(nil), snap[k]...)); err != nil {
			return fmt.Errorf("range callback failed: %w", err)
		}
	}
	return nil
}
