package object

import (
	"context"
	"sync"

	"quorum/internal/registry/models"
	dErrors "quorum/pkg/domain-errors"
)

// MemoryStore keeps objects in a map for unit tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// Uploads counts Upload calls so tests can assert the certifier's
	// re-upload behavior.
	Uploads int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put seeds an object, bypassing overwrite rules. Test helper.
func (s *MemoryStore) Put(ptr models.StoragePointer, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[ptr.Key()] = append([]byte(nil), data...)
}

func (s *MemoryStore) Download(_ context.Context, ptr models.StoragePointer) ([]byte, error) {
	if ptr.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "storage pointer is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[ptr.Key()]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Upload(_ context.Context, ptr models.StoragePointer, data []byte, overwrite bool) error {
	if ptr.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "storage pointer is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Uploads++
	if _, exists := s.objects[ptr.Key()]; exists && !overwrite {
		return nil
	}
	s.objects[ptr.Key()] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, ptr models.StoragePointer) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[ptr.Key()]
	return ok, nil
}
