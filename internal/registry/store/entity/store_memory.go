package entity

import (
	"context"
	"sync"

	"quorum/internal/registry/models"
	id "quorum/pkg/domain"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	entities map[id.EntityID]*models.Entity
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{entities: make(map[id.EntityID]*models.Entity)}
}

// Seed inserts or replaces an entity. Test helper.
func (s *InMemoryStore) Seed(entity *models.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[entity.ID] = entity
}

func (s *InMemoryStore) GetEntity(_ context.Context, entityID id.EntityID) (*models.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entity, exists := s.entities[entityID]; exists {
		copied := *entity
		return &copied, nil
	}
	return nil, nil
}
