// Package domain defines strongly typed identifiers so a ledger id can never
// be passed where an envelope id is expected. All ids are UUID-backed and
// validated at trust boundaries via the Parse functions.
package domain

import (
	"github.com/google/uuid"

	dErrors "quorum/pkg/domain-errors"
)

type (
	// LedgerID identifies a governance ledger record (resolution, minutes).
	LedgerID uuid.UUID

	// EnvelopeID identifies a signature-workflow storage envelope.
	EnvelopeID uuid.UUID

	// EntryID identifies a minute-book entry, the canonical archived pointer.
	EntryID uuid.UUID

	// EntityID identifies the owning corporate entity.
	EntityID uuid.UUID

	// ActorID identifies the user or system principal performing an action.
	ActorID uuid.UUID

	// VerifiedDocumentID identifies a verified-record row.
	VerifiedDocumentID uuid.UUID
)

func parseUUID(raw, label string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", label)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must be a valid UUID", label)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", label)
	}
	return parsed, nil
}

// ParseLedgerID validates and converts a raw string into a LedgerID.
func ParseLedgerID(raw string) (LedgerID, error) {
	parsed, err := parseUUID(raw, "ledger_id")
	return LedgerID(parsed), err
}

// ParseEnvelopeID validates and converts a raw string into an EnvelopeID.
func ParseEnvelopeID(raw string) (EnvelopeID, error) {
	parsed, err := parseUUID(raw, "envelope_id")
	return EnvelopeID(parsed), err
}

// ParseEntryID validates and converts a raw string into an EntryID.
func ParseEntryID(raw string) (EntryID, error) {
	parsed, err := parseUUID(raw, "entry_id")
	return EntryID(parsed), err
}

// ParseActorID validates and converts a raw string into an ActorID.
func ParseActorID(raw string) (ActorID, error) {
	parsed, err := parseUUID(raw, "actor_id")
	return ActorID(parsed), err
}

func (id LedgerID) String() string           { return uuid.UUID(id).String() }
func (id EnvelopeID) String() string         { return uuid.UUID(id).String() }
func (id EntryID) String() string            { return uuid.UUID(id).String() }
func (id EntityID) String() string           { return uuid.UUID(id).String() }
func (id ActorID) String() string            { return uuid.UUID(id).String() }
func (id VerifiedDocumentID) String() string { return uuid.UUID(id).String() }

func (id LedgerID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }
func (id EnvelopeID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool            { return uuid.UUID(id) == uuid.Nil }
func (id EntityID) IsNil() bool           { return uuid.UUID(id) == uuid.Nil }
func (id ActorID) IsNil() bool            { return uuid.UUID(id) == uuid.Nil }
func (id VerifiedDocumentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewVerifiedDocumentID mints a fresh row identifier.
func NewVerifiedDocumentID() VerifiedDocumentID {
	return VerifiedDocumentID(uuid.New())
}

// Ids serialize as canonical UUID strings, not raw byte arrays.

func (id LedgerID) MarshalText() ([]byte, error)           { return []byte(id.String()), nil }
func (id EnvelopeID) MarshalText() ([]byte, error)         { return []byte(id.String()), nil }
func (id EntryID) MarshalText() ([]byte, error)            { return []byte(id.String()), nil }
func (id EntityID) MarshalText() ([]byte, error)           { return []byte(id.String()), nil }
func (id ActorID) MarshalText() ([]byte, error)            { return []byte(id.String()), nil }
func (id VerifiedDocumentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func unmarshalUUID(dst *uuid.UUID, text []byte) error {
	parsed, err := uuid.ParseBytes(text)
	if err != nil {
		return err
	}
	*dst = parsed
	return nil
}

func (id *LedgerID) UnmarshalText(text []byte) error {
	return unmarshalUUID((*uuid.UUID)(id), text)
}

func (id *EnvelopeID) UnmarshalText(text []byte) error {
	return unmarshalUUID((*uuid.UUID)(id), text)
}

func (id *EntryID) UnmarshalText(text []byte) error {
	return unmarshalUUID((*uuid.UUID)(id), text)
}

func (id *EntityID) UnmarshalText(text []byte) error {
	return unmarshalUUID((*uuid.UUID)(id), text)
}

func (id *ActorID) UnmarshalText(text []byte) error {
	return unmarshalUUID((*uuid.UUID)(id), text)
}

func (id *VerifiedDocumentID) UnmarshalText(text []byte) error {
	return unmarshalUUID((*uuid.UUID)(id), text)
}
