// Package resolver finds the authoritative storage pointer for a governance
// artifact. Sources are consulted in trust order: an already-certified
// verified record, then the minute book's archived pointer, then the most
// recent signature envelope's candidate pointers.
package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"quorum/internal/registry/models"
	"quorum/internal/registry/ports"
	id "quorum/pkg/domain"
	dErrors "quorum/pkg/domain-errors"
	audit "quorum/pkg/platform/audit"
)

// ReasonNotFound is the structured reason for a clean miss across every
// source. A miss is a successful response shape, never an exception.
const ReasonNotFound = "NOT_FOUND"

// Distinct upstream failure codes, attached to errors so callers can tell
// which source table failed.
const (
	errLedgerLoad     = "LEDGER_LOAD_FAILED"
	errEntityLoad     = "ENTITY_LOAD_FAILED"
	errVerifiedLoad   = "VERIFIED_LOAD_FAILED"
	errMinuteBookLoad = "MINUTE_BOOK_LOAD_FAILED"
	errEnvelopeLoad   = "ENVELOPE_LOAD_FAILED"
)

// Input carries exactly one identifying input class. When several are set,
// explicit identifiers win over hash: LedgerID, then EntryID, then
// EnvelopeID, then Hash. A ledger id names its record directly; the others
// are one hop away; a hash is the least selective.
type Input struct {
	LedgerID   id.LedgerID
	EntryID    id.EntryID
	EnvelopeID id.EnvelopeID
	Hash       string
}

func (in Input) empty() bool {
	return in.LedgerID.IsNil() && in.EntryID.IsNil() && in.EnvelopeID.IsNil() && in.Hash == ""
}

type Service struct {
	ledgers        ports.LedgerStore
	entities       ports.EntityStore
	envelopes      ports.EnvelopeStore
	minuteBook     ports.MinuteBookStore
	verified       ports.VerifiedStore
	auditPublisher ports.AuditPublisher
	logger         *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func New(
	ledgers ports.LedgerStore,
	entities ports.EntityStore,
	envelopes ports.EnvelopeStore,
	minuteBook ports.MinuteBookStore,
	verified ports.VerifiedStore,
	opts ...Option,
) (*Service, error) {
	if ledgers == nil || envelopes == nil || minuteBook == nil || verified == nil {
		return nil, fmt.Errorf("resolver requires ledger, envelope, minute book and verified stores")
	}

	svc := &Service{
		ledgers:    ledgers,
		entities:   entities,
		envelopes:  envelopes,
		minuteBook: minuteBook,
		verified:   verified,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Resolve walks the prioritized source chain and assembles the resolution
// payload. A clean miss returns ok:false with a reason; only upstream I/O
// failures return an error.
func (s *Service) Resolve(ctx context.Context, in Input) (*models.Resolution, error) {
	res, err := s.resolve(ctx, in, true)
	switch {
	case err != nil && dErrors.HasCode(err, dErrors.CodeUpstream):
		s.auditFailure(ctx, in, dErrors.MessageOf(err))
	case err == nil && !res.OK:
		s.auditFailure(ctx, in, res.Reason)
	}
	return res, err
}

// auditFailure records a resolve that produced no pointer, whether a clean
// miss or an upstream fault. Invalid input never reaches here; it is a caller
// mistake, not a resolution outcome.
func (s *Service) auditFailure(ctx context.Context, in Input, reason string) {
	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.Event{
		Action:   string(audit.EventResolutionFailed),
		LedgerID: in.LedgerID,
		FileHash: in.Hash,
		Reason:   reason,
	})
}

// ResolveUnverified restricts the chain to non-verified sources (minute book
// then envelope). The certifier uses it to locate the bytes it is about to
// certify without trusting its own output.
func (s *Service) ResolveUnverified(ctx context.Context, in Input) (*models.Resolution, error) {
	return s.resolve(ctx, in, false)
}

func (s *Service) resolve(ctx context.Context, in Input, includeVerified bool) (*models.Resolution, error) {
	if in.empty() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "one of ledger_id, entry_id, envelope_id or hash is required")
	}

	ledgerID, miss, err := s.identify(ctx, in)
	if err != nil {
		return nil, err
	}
	if miss {
		return &models.Resolution{OK: false, Reason: ReasonNotFound}, nil
	}

	res := &models.Resolution{}

	// Ledger context. Missing record is fatal only when the caller named the
	// ledger directly; a record derived from an entry or envelope row may
	// predate the ledger table.
	ledger, err := s.ledgers.GetRecord(ctx, ledgerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, errLedgerLoad)
	}
	if ledger == nil && !in.LedgerID.IsNil() {
		return &models.Resolution{OK: false, Reason: ReasonNotFound}, nil
	}
	res.Ledger = ledger

	// Verified row is reported whenever one exists, independent of whether
	// the chain may use it as the best pointer.
	verifiedRec, err := s.verified.GetBySource(ctx, models.SourceKindLedger, uuid.UUID(ledgerID))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, errVerifiedLoad)
	}
	res.Verified = verifiedRec
	if verifiedRec != nil {
		res.Hash = verifiedRec.FileHash
	}

	// Public pointer: the minute book entry specifically, when one exists.
	entry, err := s.minuteBook.GetByLedger(ctx, ledgerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUpstream, errMinuteBookLoad)
	}
	if entry != nil && !entry.Pointer.IsZero() {
		ptr := entry.Pointer
		res.Public = &ptr
	}

	best, err := s.findBest(ctx, ledgerID, includeVerified)
	if err != nil {
		return nil, err
	}
	res.Best = best
	res.OK = best != nil
	if best == nil {
		res.Reason = ReasonNotFound
	}

	// Entity and lane context is display-only; absence never fails the
	// resolution, but a failing entity table still surfaces.
	if ledger != nil && s.entities != nil && !ledger.EntityID.IsNil() {
		entity, err := s.entities.GetEntity(ctx, ledger.EntityID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUpstream, errEntityLoad)
		}
		res.Entity = entity
	}

	return res, nil
}

// identify maps whichever input class was supplied to a ledger id. The
// second return is true on a clean miss of the identifying row.
func (s *Service) identify(ctx context.Context, in Input) (id.LedgerID, bool, error) {
	switch {
	case !in.LedgerID.IsNil():
		return in.LedgerID, false, nil

	case !in.EntryID.IsNil():
		entry, err := s.minuteBook.GetEntry(ctx, in.EntryID)
		if err != nil {
			return id.LedgerID{}, false, dErrors.Wrap(err, dErrors.CodeUpstream, errMinuteBookLoad)
		}
		if entry == nil {
			return id.LedgerID{}, true, nil
		}
		return entry.LedgerID, false, nil

	case !in.EnvelopeID.IsNil():
		env, err := s.envelopes.GetEnvelope(ctx, in.EnvelopeID)
		if err != nil {
			return id.LedgerID{}, false, dErrors.Wrap(err, dErrors.CodeUpstream, errEnvelopeLoad)
		}
		if env == nil {
			return id.LedgerID{}, true, nil
		}
		return env.LedgerID, false, nil

	default:
		record, err := s.verified.GetByHash(ctx, in.Hash)
		if err != nil {
			return id.LedgerID{}, false, dErrors.Wrap(err, dErrors.CodeUpstream, errVerifiedLoad)
		}
		if record == nil || record.SourceKind != models.SourceKindLedger {
			return id.LedgerID{}, true, nil
		}
		return id.LedgerID(record.SourceRecordID), false, nil
	}
}

func (s *Service) findBest(ctx context.Context, ledgerID id.LedgerID, includeVerified bool) (*models.ArtifactRef, error) {
	var chain []pointerSource
	if includeVerified {
		chain = append(chain, verifiedSource{store: s.verified})
	}
	chain = append(chain,
		minuteBookSource{store: s.minuteBook},
		envelopeSource{store: s.envelopes},
	)

	for _, source := range chain {
		ref, err := source.Find(ctx, ledgerID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUpstream, loadError(source.Name()))
		}
		if ref != nil {
			if s.logger != nil {
				s.logger.DebugContext(ctx, "pointer resolved",
					"ledger_id", ledgerID, "source", source.Name(), "path", ref.Pointer.Path)
			}
			return ref, nil
		}
	}
	return nil, nil
}

func loadError(source string) string {
	switch source {
	case "verified_record":
		return errVerifiedLoad
	case "minute_book":
		return errMinuteBookLoad
	default:
		return errEnvelopeLoad
	}
}
