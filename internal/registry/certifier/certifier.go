// Package certifier performs the write path of the registry: it gates on the
// ledger lifecycle, reuses prior certifications when safe, and otherwise
// fingerprints the archived bytes and upserts the canonical verified record.
// Certification never alters artifact bytes; altering them would break
// traceability to what a human actually signed.
package certifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"quorum/internal/registry/hasher"
	"quorum/internal/registry/models"
	"quorum/internal/registry/ports"
	"quorum/internal/registry/resolver"
	id "quorum/pkg/domain"
	dErrors "quorum/pkg/domain-errors"
	audit "quorum/pkg/platform/audit"
	"quorum/pkg/requestcontext"
)

// analysisTimeout bounds the detached post-certification analysis call.
const analysisTimeout = 30 * time.Second

// PointerResolver is the slice of the resolver the certifier needs: locating
// bytes from non-verified sources only, so it never trusts its own output.
type PointerResolver interface {
	ResolveUnverified(ctx context.Context, in resolver.Input) (*models.Resolution, error)
}

// Certification is the result of a certify call. AnalysisTriggered is
// auxiliary: the analysis itself runs detached and its failure never
// surfaces here.
type Certification struct {
	LedgerID           id.LedgerID
	Pointer            models.StoragePointer
	FileHash           string
	VerifiedDocumentID id.VerifiedDocumentID
	Reused             bool
	AnalysisTriggered  bool
}

type Service struct {
	ledgers        ports.LedgerStore
	verified       ports.VerifiedStore
	objects        ports.ObjectStore
	resolver       PointerResolver
	analyzer       ports.Analyzer
	auditPublisher ports.AuditPublisher
	logger         *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAnalyzer(analyzer ports.Analyzer) Option {
	return func(s *Service) {
		s.analyzer = analyzer
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(
	ledgers ports.LedgerStore,
	verified ports.VerifiedStore,
	objects ports.ObjectStore,
	pointerResolver PointerResolver,
	opts ...Option,
) (*Service, error) {
	if ledgers == nil || verified == nil || objects == nil || pointerResolver == nil {
		return nil, fmt.Errorf("certifier requires ledger store, verified store, object store and resolver")
	}

	svc := &Service{
		ledgers:  ledgers,
		verified: verified,
		objects:  objects,
		resolver: pointerResolver,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Certify certifies the ledger record exactly once per natural key. Repeated
// calls for an already-certified record are side-effect-free and return
// identical pointer and hash.
func (s *Service) Certify(ctx context.Context, ledgerID id.LedgerID, actorID id.ActorID, force bool) (*Certification, error) {
	if ledgerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "ledger_id is required")
	}

	record, err := s.ledgers.GetRecord(ctx, ledgerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "LEDGER_LOAD_FAILED")
	}
	if record == nil {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "ledger record %s not found", ledgerID)
	}

	// Lifecycle gate. A hard boundary: force never bypasses it.
	if !record.Status.Certifiable() {
		ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
			Action:   string(audit.EventCertificationBlocked),
			LedgerID: ledgerID,
			ActorID:  actorID,
			Reason:   string(record.Status),
		})
		return nil, dErrors.Newf(dErrors.CodeConflict,
			"ledger record %s has status %q; only archived records can be certified", ledgerID, record.Status)
	}

	// Idempotence check before any work. Reuse requires a complete row:
	// certified level, 64-hex hash, populated pointer.
	existing, err := s.verified.GetBySource(ctx, models.SourceKindLedger, uuid.UUID(ledgerID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "VERIFIED_LOAD_FAILED")
	}
	if existing.IsCertified() && !force {
		ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
			Action:   string(audit.EventCertificationReused),
			LedgerID: ledgerID,
			ActorID:  actorID,
			FileHash: existing.FileHash,
			Bucket:   existing.Pointer.Bucket,
			Path:     existing.Pointer.Path,
			Outcome:  "reused",
		})
		return &Certification{
			LedgerID:           ledgerID,
			Pointer:            existing.Pointer,
			FileHash:           existing.FileHash,
			VerifiedDocumentID: existing.ID,
			Reused:             true,
		}, nil
	}

	// Locate the bytes from non-verified sources: minute book first, then
	// envelope fallback. The certifier never invents or relocates a document.
	res, err := s.resolver.ResolveUnverified(ctx, resolver.Input{LedgerID: ledgerID})
	if err != nil {
		return nil, err
	}
	if !res.OK || res.Best == nil {
		return nil, dErrors.Newf(dErrors.CodeConflict,
			"no storage pointer found for ledger record %s; the archival step must run before certification", ledgerID)
	}
	pointer := res.Best.Pointer

	data, err := s.objects.Download(ctx, pointer)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "ARTIFACT_DOWNLOAD_FAILED")
	}
	if len(data) == 0 {
		return nil, dErrors.Newf(dErrors.CodeUpstream, "artifact at %s is empty", pointer.Key())
	}

	fileHash := hasher.Sum(data)

	// Re-upload the identical bytes to the same pointer. Content is
	// unchanged so the hash stays reproducible; the write only normalizes
	// storage metadata.
	if err := s.objects.Upload(ctx, pointer, data, true); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "ARTIFACT_UPLOAD_FAILED")
	}

	now := requestcontext.Now(ctx)
	row := &models.VerifiedRecord{
		SourceKind:     models.SourceKindLedger,
		SourceRecordID: uuid.UUID(ledgerID),
		Pointer:        pointer,
		FileHash:       fileHash,
		Level:          models.LevelCertified,
		Archived:       true,
		EntityID:       record.EntityID,
		UpdatedBy:      actorID,
		UpdatedAt:      now,
	}
	if existing != nil {
		row.ID = existing.ID
	}

	stored, err := s.verified.Upsert(ctx, row)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, "VERIFIED_UPSERT_FAILED")
	}

	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Action:   string(audit.EventRecordCertified),
		LedgerID: ledgerID,
		ActorID:  actorID,
		FileHash: fileHash,
		Bucket:   pointer.Bucket,
		Path:     pointer.Path,
		Outcome:  "certified",
	})

	triggered := s.triggerAnalysis(ctx, ledgerID, pointer, fileHash)

	return &Certification{
		LedgerID:           ledgerID,
		Pointer:            stored.Pointer,
		FileHash:           stored.FileHash,
		VerifiedDocumentID: stored.ID,
		Reused:             false,
		AnalysisTriggered:  triggered,
	}, nil
}

// triggerAnalysis fires the best-effort extraction call on a detached
// goroutine. Its latency or failure never extends or fails certification.
func (s *Service) triggerAnalysis(ctx context.Context, ledgerID id.LedgerID, ptr models.StoragePointer, fileHash string) bool {
	if s.analyzer == nil {
		return false
	}

	detached := context.WithoutCancel(ctx)
	go func() {
		callCtx, cancel := context.WithTimeout(detached, analysisTimeout)
		defer cancel()
		if err := s.analyzer.Analyze(callCtx, ledgerID, ptr, fileHash); err != nil && s.logger != nil {
			s.logger.Warn("post-certification analysis failed",
				"ledger_id", ledgerID, "error", err)
		}
	}()
	return true
}
