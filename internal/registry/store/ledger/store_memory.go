package ledger

import (
	"context"
	"sync"

	"quorum/internal/registry/models"
	id "quorum/pkg/domain"
)

// InMemoryStore backs unit tests and local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.LedgerID]*models.GovernanceRecord
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.LedgerID]*models.GovernanceRecord)}
}

// Seed inserts or replaces a record. Test helper.
func (s *InMemoryStore) Seed(record *models.GovernanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
}

func (s *InMemoryStore) GetRecord(_ context.Context, ledgerID id.LedgerID) (*models.GovernanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, exists := s.records[ledgerID]; exists {
		copied := *record
		return &copied, nil
	}
	return nil, nil
}
