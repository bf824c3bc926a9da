package envelope

import (
	"context"
	"sync"

	"quorum/internal/registry/models"
	id "quorum/pkg/domain"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	envelopes map[id.EnvelopeID]*models.StorageEnvelope
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{envelopes: make(map[id.EnvelopeID]*models.StorageEnvelope)}
}

// Seed inserts or replaces an envelope. Test helper.
func (s *InMemoryStore) Seed(env *models.StorageEnvelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envelopes[env.ID] = env
}

func (s *InMemoryStore) GetEnvelope(_ context.Context, envelopeID id.EnvelopeID) (*models.StorageEnvelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if env, exists := s.envelopes[envelopeID]; exists {
		copied := *env
		return &copied, nil
	}
	return nil, nil
}

func (s *InMemoryStore) LatestByLedger(_ context.Context, ledgerID id.LedgerID) (*models.StorageEnvelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.StorageEnvelope
	for _, env := range s.envelopes {
		if env.LedgerID != ledgerID {
			continue
		}
		if latest == nil || env.CreatedAt.After(latest.CreatedAt) {
			latest = env
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}
