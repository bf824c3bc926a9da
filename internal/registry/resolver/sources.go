package resolver

import (
	"context"

	"quorum/internal/registry/models"
	"quorum/internal/registry/ports"
	id "quorum/pkg/domain"

	"github.com/google/uuid"
)

// pointerSource is one rung of the priority chain. Each source either yields
// an artifact ref for the ledger or reports a clean miss; the chain stops at
// the first hit and never consults lower-priority sources after one.
type pointerSource interface {
	Name() string
	Find(ctx context.Context, ledgerID id.LedgerID) (*models.ArtifactRef, error)
}

// verifiedSource yields the pointer of an already-certified verified record.
// Highest trust: the bytes at this pointer were hashed at certification time.
type verifiedSource struct {
	store ports.VerifiedStore
}

func (s verifiedSource) Name() string { return "verified_record" }

func (s verifiedSource) Find(ctx context.Context, ledgerID id.LedgerID) (*models.ArtifactRef, error) {
	record, err := s.store.GetBySource(ctx, models.SourceKindLedger, uuid.UUID(ledgerID))
	if err != nil {
		return nil, err
	}
	if !record.IsCertified() {
		return nil, nil
	}
	return &models.ArtifactRef{Kind: models.ArtifactVerified, Pointer: record.Pointer}, nil
}

// minuteBookSource yields the canonical archived pointer for the ledger.
type minuteBookSource struct {
	store ports.MinuteBookStore
}

func (s minuteBookSource) Name() string { return "minute_book" }

func (s minuteBookSource) Find(ctx context.Context, ledgerID id.LedgerID) (*models.ArtifactRef, error) {
	entry, err := s.store.GetByLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.Pointer.IsZero() {
		return nil, nil
	}
	return &models.ArtifactRef{Kind: models.ArtifactMinuteBook, Pointer: entry.Pointer}, nil
}

// envelopeSource yields the most recent envelope's best candidate pointer
// (primary, then supporting, then certificate). Fallback for ledgers whose
// archival step has not run yet.
type envelopeSource struct {
	store ports.EnvelopeStore
}

func (s envelopeSource) Name() string { return "envelope" }

func (s envelopeSource) Find(ctx context.Context, ledgerID id.LedgerID) (*models.ArtifactRef, error) {
	env, err := s.store.LatestByLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, nil
	}
	ptr, ok := env.BestPointer()
	if !ok {
		return nil, nil
	}
	return &models.ArtifactRef{Kind: models.ArtifactEnvelope, Pointer: ptr}, nil
}
