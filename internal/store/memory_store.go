package store

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	blobs map[string][]byte
	mu    sync.RWMutex
}

// NewMemoryStore creates a new instance of MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

// Load reads the blob stored under key into out.
func (s *MemoryStore) Load(key string, out interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	body, ok := s.blobs[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		log.Printf("Discarding malformed blob for collection %s: %v", key, err)
	}
	return nil
}

// Save replaces the blob stored under key with the serialized form of v.
func (s *MemoryStore) Save(key string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal collection %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = body
	return nil
}

// Delete removes the blob stored under key.
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}
