package verified

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"quorum/internal/registry/models"
	id "quorum/pkg/domain"
)

type naturalKey struct {
	kind     models.SourceKind
	sourceID uuid.UUID
}

// InMemoryStore mirrors the postgres store's natural-key semantics: one row
// per (source kind, source record id), updates in place.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[naturalKey]*models.VerifiedRecord
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[naturalKey]*models.VerifiedRecord)}
}

func (s *InMemoryStore) GetBySource(_ context.Context, kind models.SourceKind, sourceID uuid.UUID) (*models.VerifiedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, exists := s.records[naturalKey{kind, sourceID}]; exists {
		copied := *record
		return &copied, nil
	}
	return nil, nil
}

func (s *InMemoryStore) GetByHash(_ context.Context, hash string) (*models.VerifiedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.records {
		if record.FileHash == hash {
			copied := *record
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) Upsert(_ context.Context, record *models.VerifiedRecord) (*models.VerifiedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := naturalKey{record.SourceKind, record.SourceRecordID}
	stored := *record
	if existing, exists := s.records[key]; exists {
		// Same row, same surrogate id; only the payload fields move.
		stored.ID = existing.ID
	} else if stored.ID.IsNil() {
		stored.ID = id.NewVerifiedDocumentID()
	}
	s.records[key] = &stored

	copied := stored
	return &copied, nil
}

// Count returns the number of rows. Test helper for idempotence assertions.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
