package uploadstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore backs uploads when no object store is configured (tests, CLI).
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Blob
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Blob)}
}

func (s *MemoryStore) Put(_ context.Context, blob Blob) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id := strings.TrimSpace(blob.ID)
	if id == "" {
		return fmt.Errorf("upload id is required")
	}
	blob.ID = id
	blob.Content = append([]byte(nil), blob.Content...)
	s.mu.Lock()
	s.data[id] = blob
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Blob, error) {
	if s == nil {
		return Blob{}, fmt.Errorf("store is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Blob{}, fmt.Errorf("upload id is required")
	}
	s.mu.RLock()
	blob, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return Blob{}, ErrNotFound
	}
	blob.Content = append([]byte(nil), blob.Content...)
	return blob, nil
}
