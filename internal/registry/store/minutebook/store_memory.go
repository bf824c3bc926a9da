package minutebook

import (
	"context"
	"sync"

	"quorum/internal/registry/models"
	id "quorum/pkg/domain"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[id.EntryID]*models.MinuteBookEntry
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{entries: make(map[id.EntryID]*models.MinuteBookEntry)}
}

// Seed inserts or replaces an entry. Test helper.
func (s *InMemoryStore) Seed(entry *models.MinuteBookEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = entry
}

func (s *InMemoryStore) GetEntry(_ context.Context, entryID id.EntryID) (*models.MinuteBookEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, exists := s.entries[entryID]; exists {
		copied := *entry
		return &copied, nil
	}
	return nil, nil
}

func (s *InMemoryStore) GetByLedger(_ context.Context, ledgerID id.LedgerID) (*models.MinuteBookEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var newest *models.MinuteBookEntry
	for _, entry := range s.entries {
		if entry.LedgerID != ledgerID {
			continue
		}
		if newest == nil || entry.CreatedAt.After(newest.CreatedAt) {
			newest = entry
		}
	}
	if newest == nil {
		return nil, nil
	}
	copied := *newest
	return &copied, nil
}
