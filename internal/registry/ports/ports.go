// Package ports defines shared interfaces for the registry module.
// Interfaces are placed here when consumed by multiple services to avoid
// duplication.
package ports

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"quorum/internal/registry/models"
	id "quorum/pkg/domain"
	audit "quorum/pkg/platform/audit"
	"quorum/pkg/requestcontext"
)

// LedgerStore reads governance ledger records. Lookups return (nil, nil) on a
// clean miss; errors are reserved for upstream failures.
type LedgerStore interface {
	GetRecord(ctx context.Context, ledgerID id.LedgerID) (*models.GovernanceRecord, error)
}

// EntityStore reads owning-entity context used for display purposes.
type EntityStore interface {
	GetEntity(ctx context.Context, entityID id.EntityID) (*models.Entity, error)
}

// EnvelopeStore reads signature-workflow envelopes.
type EnvelopeStore interface {
	// GetEnvelope retrieves a single envelope by id.
	GetEnvelope(ctx context.Context, envelopeID id.EnvelopeID) (*models.StorageEnvelope, error)

	// LatestByLedger returns the most recently created envelope for a ledger
	// record, or nil when none exists.
	LatestByLedger(ctx context.Context, ledgerID id.LedgerID) (*models.StorageEnvelope, error)
}

// MinuteBookStore reads canonical archived-artifact pointers.
type MinuteBookStore interface {
	GetEntry(ctx context.Context, entryID id.EntryID) (*models.MinuteBookEntry, error)
	GetByLedger(ctx context.Context, ledgerID id.LedgerID) (*models.MinuteBookEntry, error)
}

// VerifiedStore owns the verified-record rows.
type VerifiedStore interface {
	// GetBySource looks up a row by its natural key.
	GetBySource(ctx context.Context, kind models.SourceKind, sourceID uuid.UUID) (*models.VerifiedRecord, error)

	// GetByHash looks up a row by canonical content hash.
	GetByHash(ctx context.Context, hash string) (*models.VerifiedRecord, error)

	// Upsert inserts or updates the row keyed by (SourceKind, SourceRecordID).
	// The write must be conflict-safe at the storage layer so concurrent
	// certifications converge to one row. Returns the stored row.
	Upsert(ctx context.Context, record *models.VerifiedRecord) (*models.VerifiedRecord, error)
}

// ObjectStore moves artifact bytes by canonical pointer.
type ObjectStore interface {
	Download(ctx context.Context, ptr models.StoragePointer) ([]byte, error)
	Upload(ctx context.Context, ptr models.StoragePointer, data []byte, overwrite bool) error
	Exists(ctx context.Context, ptr models.StoragePointer) (bool, error)
}

// Analyzer triggers best-effort post-certification document analysis.
type Analyzer interface {
	Analyze(ctx context.Context, ledgerID id.LedgerID, ptr models.StoragePointer, fileHash string) error
}

// AuditPublisher emits audit events for registry operations.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit writes a structured audit log line and emits the event to the
// publisher when one is configured. Used by services for security-relevant
// operations.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event audit.Event, attrs ...any) {
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ActorID.IsNil() {
		event.ActorID = requestcontext.ActorID(ctx)
	}

	args := append(attrs, "event", event.Action, "log_type", "audit")
	if event.RequestID != "" {
		args = append(args, "request_id", event.RequestID)
	}

	if logger != nil {
		logger.InfoContext(ctx, event.Action, args...)
	}

	if publisher == nil {
		return
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", event.Action, "error", err)
	}
}
