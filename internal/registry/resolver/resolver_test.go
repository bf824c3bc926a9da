package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"quorum/internal/registry/models"
	entityStore "quorum/internal/registry/store/entity"
	envelopeStore "quorum/internal/registry/store/envelope"
	ledgerStore "quorum/internal/registry/store/ledger"
	minutebookStore "quorum/internal/registry/store/minutebook"
	verifiedStore "quorum/internal/registry/store/verified"
	id "quorum/pkg/domain"
	dErrors "quorum/pkg/domain-errors"
	audit "quorum/pkg/platform/audit"
	"quorum/pkg/testutil"
)

// =============================================================================
// Resolver Service Test Suite
// =============================================================================
// Justification for unit tests: source priority, identifier precedence, and
// the miss-vs-failure distinction are pure lookup logic that is much easier to
// pin down against in-memory stores than through HTTP round trips.

type ResolverSuite struct {
	suite.Suite
	ledgers    *ledgerStore.InMemoryStore
	entities   *entityStore.InMemoryStore
	envelopes  *envelopeStore.InMemoryStore
	minuteBook *minutebookStore.InMemoryStore
	verified   *verifiedStore.InMemoryStore
	service    *Service
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.ledgers = ledgerStore.NewMemory()
	s.entities = entityStore.NewMemory()
	s.envelopes = envelopeStore.NewMemory()
	s.minuteBook = minutebookStore.NewMemory()
	s.verified = verifiedStore.NewMemory()

	var err error
	s.service, err = New(s.ledgers, s.entities, s.envelopes, s.minuteBook, s.verified)
	s.Require().NoError(err)
}

const testHash = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

// seedLedger inserts an archived governance record and returns its id.
func (s *ResolverSuite) seedLedger() id.LedgerID {
	ledgerID := id.LedgerID(uuid.New())
	s.ledgers.Seed(&models.GovernanceRecord{
		ID:       ledgerID,
		Title:    "Annual General Meeting Resolution",
		EntityID: id.EntityID(uuid.New()),
		Status:   models.StatusArchived,
		Lane:     models.LaneProduction,
	})
	return ledgerID
}

func (s *ResolverSuite) seedMinuteBook(ledgerID id.LedgerID) *models.MinuteBookEntry {
	entry := &models.MinuteBookEntry{
		ID:        id.EntryID(uuid.New()),
		LedgerID:  ledgerID,
		Pointer:   models.StoragePointer{Bucket: "minute-book", Path: "entries/agm.pdf"},
		CreatedAt: time.Now(),
	}
	s.minuteBook.Seed(entry)
	return entry
}

func (s *ResolverSuite) seedEnvelope(ledgerID id.LedgerID) *models.StorageEnvelope {
	env := &models.StorageEnvelope{
		ID:          id.EnvelopeID(uuid.New()),
		LedgerID:    ledgerID,
		Completed:   true,
		DocumentPtr: models.StoragePointer{Bucket: "envelopes", Path: "signed/agm.pdf"},
		CreatedAt:   time.Now(),
	}
	s.envelopes.Seed(env)
	return env
}

func (s *ResolverSuite) seedVerified(ledgerID id.LedgerID, hash string) *models.VerifiedRecord {
	record, err := s.verified.Upsert(context.Background(), &models.VerifiedRecord{
		SourceKind:     models.SourceKindLedger,
		SourceRecordID: uuid.UUID(ledgerID),
		Pointer:        models.StoragePointer{Bucket: "verified", Path: "archive/agm.pdf"},
		FileHash:       hash,
		Level:          models.LevelCertified,
		Archived:       true,
		UpdatedAt:      time.Now(),
	})
	s.Require().NoError(err)
	return record
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *ResolverSuite) TestNew() {
	s.Run("nil required store returns error", func() {
		_, err := New(nil, s.entities, s.envelopes, s.minuteBook, s.verified)
		s.Error(err)
	})

	s.Run("nil entity store is accepted", func() {
		svc, err := New(s.ledgers, nil, s.envelopes, s.minuteBook, s.verified)
		s.NoError(err)
		s.NotNil(svc)
	})
}

// =============================================================================
// Source Priority Tests
// =============================================================================

func (s *ResolverSuite) TestSourcePriority() {
	ctx := context.Background()

	s.Run("verified record beats minute book and envelope", func() {
		ledgerID := s.seedLedger()
		s.seedMinuteBook(ledgerID)
		s.seedEnvelope(ledgerID)
		verified := s.seedVerified(ledgerID, testHash)

		res, err := s.service.Resolve(ctx, Input{LedgerID: ledgerID})
		s.Require().NoError(err)
		s.True(res.OK)
		s.Require().NotNil(res.Best)
		s.Equal(models.ArtifactVerified, res.Best.Kind)
		s.Equal(verified.Pointer, res.Best.Pointer)
		s.Equal(testHash, res.Hash)
	})

	s.Run("minute book beats envelope when no certification exists", func() {
		ledgerID := s.seedLedger()
		entry := s.seedMinuteBook(ledgerID)
		s.seedEnvelope(ledgerID)

		res, err := s.service.Resolve(ctx, Input{LedgerID: ledgerID})
		s.Require().NoError(err)
		s.True(res.OK)
		s.Require().NotNil(res.Best)
		s.Equal(models.ArtifactMinuteBook, res.Best.Kind)
		s.Equal(entry.Pointer, res.Best.Pointer)
	})

	s.Run("envelope is the last fallback", func() {
		ledgerID := s.seedLedger()
		env := s.seedEnvelope(ledgerID)

		res, err := s.service.Resolve(ctx, Input{LedgerID: ledgerID})
		s.Require().NoError(err)
		s.True(res.OK)
		s.Require().NotNil(res.Best)
		s.Equal(models.ArtifactEnvelope, res.Best.Kind)
		s.Equal(env.DocumentPtr, res.Best.Pointer)
	})

	s.Run("incomplete verified row falls through to minute book", func() {
		ledgerID := s.seedLedger()
		entry := s.seedMinuteBook(ledgerID)
		_, err := s.verified.Upsert(ctx, &models.VerifiedRecord{
			SourceKind:     models.SourceKindLedger,
			SourceRecordID: uuid.UUID(ledgerID),
			Level:          models.LevelUnverified,
		})
		s.Require().NoError(err)

		res, err := s.service.Resolve(ctx, Input{LedgerID: ledgerID})
		s.Require().NoError(err)
		s.True(res.OK)
		s.Equal(models.ArtifactMinuteBook, res.Best.Kind)
		s.Equal(entry.Pointer, res.Best.Pointer)
	})

	s.Run("envelope pointer priority is document then supporting then certificate", func() {
		ledgerID := s.seedLedger()
		s.envelopes.Seed(&models.StorageEnvelope{
			ID:             id.EnvelopeID(uuid.New()),
			LedgerID:       ledgerID,
			SupportingPtr:  models.StoragePointer{Bucket: "envelopes", Path: "supporting/agm.pdf"},
			CertificatePtr: models.StoragePointer{Bucket: "envelopes", Path: "certificate/agm.pdf"},
			CreatedAt:      time.Now(),
		})

		res, err := s.service.Resolve(ctx, Input{LedgerID: ledgerID})
		s.Require().NoError(err)
		s.True(res.OK)
		s.Equal("supporting/agm.pdf", res.Best.Pointer.Path)
	})
}

// =============================================================================
// ResolveUnverified Tests
// =============================================================================

func (s *ResolverSuite) TestResolveUnverified() {
	ctx := context.Background()

	s.Run("skips the verified source even when one exists", func() {
		ledgerID := s.seedLedger()
		entry := s.seedMinuteBook(ledgerID)
		s.seedVerified(ledgerID, testHash)

		res, err := s.service.ResolveUnverified(ctx, Input{LedgerID: ledgerID})
		s.Require().NoError(err)
		s.True(res.OK)
		s.Equal(models.ArtifactMinuteBook, res.Best.Kind)
		s.Equal(entry.Pointer, res.Best.Pointer)
	})

	s.Run("still reports the verified row and hash as context", func() {
		ledgerID := s.seedLedger()
		s.seedMinuteBook(ledgerID)
		s.seedVerified(ledgerID, testHash)

		res, err := s.service.ResolveUnverified(ctx, Input{LedgerID: ledgerID})
		s.Require().NoError(err)
		s.NotNil(res.Verified)
		s.Equal(testHash, res.Hash)
	})

	s.Run("misses when only the verified source has a pointer", func() {
		ledgerID := s.seedLedger()
		s.seedVerified(ledgerID, testHash)

		res, err := s.service.ResolveUnverified(ctx, Input{LedgerID: ledgerID})
		s.Require().NoError(err)
		s.False(res.OK)
		s.Equal(ReasonNotFound, res.Reason)
	})
}

// =============================================================================
// Identifier Precedence Tests
// =============================================================================

func (s *ResolverSuite) TestIdentifierPrecedence() {
	ctx := context.Background()

	s.Run("ledger id wins over hash", func() {
		ledgerA := s.seedLedger()
		s.seedMinuteBook(ledgerA)

		ledgerB := s.seedLedger()
		s.seedVerified(ledgerB, testHash)

		res, err := s.service.Resolve(ctx, Input{LedgerID: ledgerA, Hash: testHash})
		s.Require().NoError(err)
		s.True(res.OK)
		s.Equal(ledgerA, res.Ledger.ID)
	})

	s.Run("entry id wins over envelope id", func() {
		ledgerA := s.seedLedger()
		entry := s.seedMinuteBook(ledgerA)

		ledgerB := s.seedLedger()
		env := s.seedEnvelope(ledgerB)

		res, err := s.service.Resolve(ctx, Input{EntryID: entry.ID, EnvelopeID: env.ID})
		s.Require().NoError(err)
		s.True(res.OK)
		s.Equal(ledgerA, res.Ledger.ID)
	})

	s.Run("envelope id identifies its ledger", func() {
		ledgerID := s.seedLedger()
		env := s.seedEnvelope(ledgerID)

		res, err := s.service.Resolve(ctx, Input{EnvelopeID: env.ID})
		s.Require().NoError(err)
		s.True(res.OK)
		s.Equal(ledgerID, res.Ledger.ID)
	})

	s.Run("hash identifies the ledger through the verified row", func() {
		const hash = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
		ledgerID := s.seedLedger()
		s.seedMinuteBook(ledgerID)
		s.seedVerified(ledgerID, hash)

		res, err := s.service.Resolve(ctx, Input{Hash: hash})
		s.Require().NoError(err)
		s.True(res.OK)
		s.Equal(ledgerID, res.Ledger.ID)
		s.Equal(hash, res.Hash)
	})
}

// =============================================================================
// Miss and Error Shape Tests
// =============================================================================

func (s *ResolverSuite) TestMisses() {
	ctx := context.Background()

	s.Run("empty input is invalid", func() {
		_, err := s.service.Resolve(ctx, Input{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown ledger id is a clean miss, not an error", func() {
		res, err := s.service.Resolve(ctx, Input{LedgerID: id.LedgerID(uuid.New())})
		s.Require().NoError(err)
		s.False(res.OK)
		s.Equal(ReasonNotFound, res.Reason)
	})

	s.Run("unknown entry id is a clean miss", func() {
		res, err := s.service.Resolve(ctx, Input{EntryID: id.EntryID(uuid.New())})
		s.Require().NoError(err)
		s.False(res.OK)
		s.Equal(ReasonNotFound, res.Reason)
	})

	s.Run("unknown hash is a clean miss", func() {
		res, err := s.service.Resolve(ctx, Input{Hash: testHash})
		s.Require().NoError(err)
		s.False(res.OK)
		s.Equal(ReasonNotFound, res.Reason)
	})

	s.Run("ledger record without any pointer misses with context kept", func() {
		ledgerID := s.seedLedger()

		res, err := s.service.Resolve(ctx, Input{LedgerID: ledgerID})
		s.Require().NoError(err)
		s.False(res.OK)
		s.Equal(ReasonNotFound, res.Reason)
		s.NotNil(res.Ledger)
	})

	s.Run("entry whose ledger record is missing still resolves the pointer", func() {
		ledgerID := id.LedgerID(uuid.New())
		entry := s.seedMinuteBook(ledgerID)

		res, err := s.service.Resolve(ctx, Input{EntryID: entry.ID})
		s.Require().NoError(err)
		s.True(res.OK)
		s.Nil(res.Ledger)
		s.Equal(entry.Pointer, res.Best.Pointer)
	})
}

// =============================================================================
// Context Assembly Tests
// =============================================================================

func (s *ResolverSuite) TestContextAssembly() {
	ctx := context.Background()

	s.Run("public pointer is the minute book entry", func() {
		ledgerID := s.seedLedger()
		entry := s.seedMinuteBook(ledgerID)
		s.seedEnvelope(ledgerID)

		res, err := s.service.Resolve(ctx, Input{LedgerID: ledgerID})
		s.Require().NoError(err)
		s.Require().NotNil(res.Public)
		s.Equal(entry.Pointer, *res.Public)
	})

	s.Run("entity context is attached when known", func() {
		ledgerID := s.seedLedger()
		s.seedMinuteBook(ledgerID)

		record, err := s.ledgers.GetRecord(ctx, ledgerID)
		s.Require().NoError(err)
		s.entities.Seed(&models.Entity{
			ID:   record.EntityID,
			Name: "Acme Holdings Ltd",
			Slug: "acme-holdings",
			Lane: models.LaneProduction,
		})

		res, err := s.service.Resolve(ctx, Input{LedgerID: ledgerID})
		s.Require().NoError(err)
		s.Require().NotNil(res.Entity)
		s.Equal("Acme Holdings Ltd", res.Entity.Name)
	})

	s.Run("missing entity row never fails the resolution", func() {
		ledgerID := s.seedLedger()
		s.seedMinuteBook(ledgerID)

		res, err := s.service.Resolve(ctx, Input{LedgerID: ledgerID})
		s.Require().NoError(err)
		s.True(res.OK)
		s.Nil(res.Entity)
	})
}

// =============================================================================
// Upstream Failure Tests
// =============================================================================

type failingVerifiedStore struct{}

func (failingVerifiedStore) GetBySource(context.Context, models.SourceKind, uuid.UUID) (*models.VerifiedRecord, error) {
	return nil, errors.New("connection refused")
}

func (failingVerifiedStore) GetByHash(context.Context, string) (*models.VerifiedRecord, error) {
	return nil, errors.New("connection refused")
}

func (failingVerifiedStore) Upsert(context.Context, *models.VerifiedRecord) (*models.VerifiedRecord, error) {
	return nil, errors.New("connection refused")
}

func (s *ResolverSuite) TestUpstreamFailure() {
	ctx := context.Background()

	svc, err := New(s.ledgers, s.entities, s.envelopes, s.minuteBook, failingVerifiedStore{})
	s.Require().NoError(err)

	ledgerID := s.seedLedger()

	_, err = svc.Resolve(ctx, Input{LedgerID: ledgerID})
	s.True(dErrors.HasCode(err, dErrors.CodeUpstream))
	s.Contains(err.Error(), "VERIFIED_LOAD_FAILED")
}

// =============================================================================
// Failure Audit Tests
// =============================================================================

type capturePublisher struct {
	events []audit.Event
}

func (p *capturePublisher) Emit(_ context.Context, event audit.Event) error {
	p.events = append(p.events, event)
	return nil
}

func (s *ResolverSuite) TestFailureAudit() {
	publisher := &capturePublisher{}
	svc, err := New(s.ledgers, s.entities, s.envelopes, s.minuteBook, s.verified,
		WithAuditPublisher(publisher))
	s.Require().NoError(err)

	s.Run("clean miss emits resolution_failed", func() {
		publisher.events = nil
		missID := id.LedgerID(uuid.New())

		res, err := svc.Resolve(context.Background(), Input{LedgerID: missID})
		s.Require().NoError(err)
		s.False(res.OK)

		s.Require().Len(publisher.events, 1)
		event := publisher.events[0]
		s.Equal(string(audit.EventResolutionFailed), event.Action)
		s.Equal(missID, event.LedgerID)
		s.Equal(ReasonNotFound, event.Reason)
	})

	s.Run("hash miss carries the hash on the event", func() {
		publisher.events = nil

		res, err := svc.Resolve(context.Background(), Input{Hash: testHash})
		s.Require().NoError(err)
		s.False(res.OK)

		s.Require().Len(publisher.events, 1)
		s.Equal(testHash, publisher.events[0].FileHash)
	})

	s.Run("successful resolution emits nothing", func() {
		publisher.events = nil
		ledgerID := s.seedLedger()
		s.seedMinuteBook(ledgerID)

		res, err := svc.Resolve(context.Background(), Input{LedgerID: ledgerID})
		s.Require().NoError(err)
		s.True(res.OK)
		s.Empty(publisher.events)
	})

	s.Run("invalid input emits nothing", func() {
		publisher.events = nil

		_, err := svc.Resolve(context.Background(), Input{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.Empty(publisher.events)
	})

	s.Run("upstream failure emits with the failing source", func() {
		publisher.events = nil
		broken, err := New(s.ledgers, s.entities, s.envelopes, s.minuteBook, failingVerifiedStore{},
			WithAuditPublisher(publisher))
		s.Require().NoError(err)
		ledgerID := s.seedLedger()

		_, err = broken.Resolve(context.Background(), Input{LedgerID: ledgerID})
		s.True(dErrors.HasCode(err, dErrors.CodeUpstream))

		s.Require().Len(publisher.events, 1)
		s.Contains(publisher.events[0].Reason, "VERIFIED_LOAD_FAILED")
	})

	s.Run("actor is taken from the request context", func() {
		publisher.events = nil
		actor := id.ActorID(uuid.New())

		res, err := svc.Resolve(testutil.ContextWithActor(actor), Input{LedgerID: id.LedgerID(uuid.New())})
		s.Require().NoError(err)
		s.False(res.OK)

		s.Require().Len(publisher.events, 1)
		s.Equal(actor, publisher.events[0].ActorID)
		s.Equal(testutil.TestRequestID, publisher.events[0].RequestID)
	})
}
