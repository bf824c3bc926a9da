// Package audit defines the registry's audit event model. Events are emitted
// from domain logic as a best-effort side channel: their failure or latency
// never affects the primary operation.
package audit

import (
	"context"
	"time"

	id "quorum/pkg/domain"
)

// Event captures one registry action. Keep it transport-agnostic so stores
// and sinks can fan out.
type Event struct {
	Action    string
	Timestamp time.Time
	LedgerID  id.LedgerID
	ActorID   id.ActorID
	FileHash  string
	Bucket    string
	Path      string
	RequestID string
	Outcome   string
	Reason    string
}

type AuditEvent string

const (
	// Certifier events
	EventRecordCertified      AuditEvent = "record_certified"
	EventCertificationReused  AuditEvent = "certification_reused"
	EventCertificationBlocked AuditEvent = "certification_blocked"

	// Resolver events
	EventResolutionFailed AuditEvent = "resolution_failed"

	// Exporter events
	EventExportGenerated AuditEvent = "export_generated"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
