// Package models holds the registry's data model: the upstream governance
// rows the registry reads, the verified-record row it owns, and the ephemeral
// resolution value object it returns.
package models

import (
	"time"

	"github.com/google/uuid"

	id "quorum/pkg/domain"
)

// LifecycleStatus is the ordered lifecycle of a governance record. Only the
// terminal pre-certification state admits certification.
type LifecycleStatus string

const (
	StatusDraft       LifecycleStatus = "draft"
	StatusCirculating LifecycleStatus = "circulating"
	StatusSigned      LifecycleStatus = "signed"
	StatusArchived    LifecycleStatus = "archived"
)

func (s LifecycleStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusCirculating, StatusSigned, StatusArchived:
		return true
	}
	return false
}

// Certifiable reports whether a record in this status may be certified.
func (s LifecycleStatus) Certifiable() bool { return s == StatusArchived }

// Lane partitions sandbox data from production data over the same logical
// record space.
type Lane string

const (
	LaneTest       Lane = "test"
	LaneProduction Lane = "production"
)

// VerificationLevel is the trust level recorded on a verified-record row.
type VerificationLevel string

const (
	LevelUnverified VerificationLevel = "unverified"
	LevelCertified  VerificationLevel = "certified"
)

// SourceKind names the upstream table a verified record certifies. Together
// with the source record id it forms the natural key.
type SourceKind string

const SourceKindLedger SourceKind = "ledger_record"

// StoragePointer is a (bucket, path) pair identifying where an artifact's
// bytes live.
type StoragePointer struct {
	Bucket string `json:"bucket"`
	Path   string `json:"path"`
}

func (p StoragePointer) IsZero() bool { return p.Bucket == "" && p.Path == "" }

// Key is the dedup identity of a pointer, used when the same object is
// referenced under several roles.
func (p StoragePointer) Key() string { return p.Bucket + "/" + p.Path }

// Entity is display-only context about the owning corporate entity.
type Entity struct {
	ID   id.EntityID `json:"id"`
	Name string      `json:"name"`
	Slug string      `json:"slug"`
	Lane Lane        `json:"lane"`
}

// GovernanceRecord is one governance event (a resolution, a minutes entry).
// Owned by the governance workflow; the registry only reads it and checks the
// lifecycle gate.
type GovernanceRecord struct {
	ID        id.LedgerID     `json:"id"`
	Title     string          `json:"title"`
	EntityID  id.EntityID     `json:"entity_id"`
	Status    LifecycleStatus `json:"status"`
	Lane      Lane            `json:"lane"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StorageEnvelope is a signature-workflow artifact carrying up to three
// candidate pointers. Read-only input to the resolver's fallback chain.
type StorageEnvelope struct {
	ID             id.EnvelopeID  `json:"id"`
	LedgerID       id.LedgerID    `json:"ledger_id"`
	Completed      bool           `json:"completed"`
	DocumentPtr    StoragePointer `json:"document_ptr"`
	SupportingPtr  StoragePointer `json:"supporting_ptr"`
	CertificatePtr StoragePointer `json:"certificate_ptr"`
	CreatedAt      time.Time      `json:"created_at"`
}

// BestPointer returns the envelope's highest-priority non-empty pointer:
// primary document, then supporting document, then certificate.
func (e *StorageEnvelope) BestPointer() (StoragePointer, bool) {
	for _, ptr := range []StoragePointer{e.DocumentPtr, e.SupportingPtr, e.CertificatePtr} {
		if !ptr.IsZero() {
			return ptr, true
		}
	}
	return StoragePointer{}, false
}

// MinuteBookEntry is the canonical archived-artifact pointer for a ledger
// record once sealed. The resolver's preferred non-verified source.
type MinuteBookEntry struct {
	ID        id.EntryID     `json:"id"`
	LedgerID  id.LedgerID    `json:"ledger_id"`
	Pointer   StoragePointer `json:"pointer"`
	CreatedAt time.Time      `json:"created_at"`
}

// VerifiedRecord is the certification row the registry owns. Exactly one row
// exists per (SourceKind, SourceRecordID); repeated certifications update the
// same row.
type VerifiedRecord struct {
	ID             id.VerifiedDocumentID `json:"id"`
	SourceKind     SourceKind            `json:"source_kind"`
	SourceRecordID uuid.UUID             `json:"source_record_id"`
	Pointer        StoragePointer        `json:"pointer"`
	FileHash       string                `json:"file_hash"`
	Level          VerificationLevel     `json:"level"`
	Archived       bool                  `json:"archived"`
	EntityID       id.EntityID           `json:"entity_id"`
	UpdatedBy      id.ActorID            `json:"updated_by"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// IsCertified reports whether the row may be presented as certified: the
// level must be certified AND the row must carry a 64-hex hash and a
// resolvable pointer. A row missing either is never reported certified.
func (r *VerifiedRecord) IsCertified() bool {
	return r != nil &&
		r.Level == LevelCertified &&
		len(r.FileHash) == 64 &&
		!r.Pointer.IsZero()
}

// ArtifactKind labels which source a resolved pointer came from.
type ArtifactKind string

const (
	ArtifactVerified   ArtifactKind = "verified_archive"
	ArtifactMinuteBook ArtifactKind = "minute_book"
	ArtifactEnvelope   ArtifactKind = "envelope"
)

// ArtifactRef pairs a resolved pointer with the source that produced it.
type ArtifactRef struct {
	Kind    ArtifactKind   `json:"kind"`
	Pointer StoragePointer `json:"pointer"`
}

// Resolution is the ephemeral result of a pointer resolution. Never
// persisted; recomputed per request. Best, Public and Verified may point at
// the same object or different ones, and callers can tell them apart.
type Resolution struct {
	OK       bool              `json:"ok"`
	Reason   string            `json:"reason,omitempty"`
	Hash     string            `json:"hash,omitempty"`
	Best     *ArtifactRef      `json:"best_pdf,omitempty"`
	Public   *StoragePointer   `json:"public_pdf,omitempty"`
	Verified *VerifiedRecord   `json:"verified,omitempty"`
	Entity   *Entity           `json:"entity,omitempty"`
	Ledger   *GovernanceRecord `json:"ledger,omitempty"`
}
