// Package kafka publishes audit events to a Kafka topic. Delivery is
// best-effort: produce errors are logged, never returned to the emitting
// operation.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "quorum/pkg/platform/audit"
)

type Store struct {
	client *kgo.Client
	logger *slog.Logger
}

// payload is the JSON record shape published to the topic.
type payload struct {
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
	LedgerID  string `json:"ledger_id,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
	FileHash  string `json:"file_hash,omitempty"`
	Bucket    string `json:"bucket,omitempty"`
	Path      string `json:"path,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// New connects a producer-only client to the given brokers and topic.
func New(brokers []string, topic string, logger *slog.Logger) (*Store, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Store{client: client, logger: logger}, nil
}

// Append produces the event asynchronously. The produce callback only logs;
// a broker outage must not surface to the certify/export path.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	p := payload{
		Action:    event.Action,
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		FileHash:  event.FileHash,
		Bucket:    event.Bucket,
		Path:      event.Path,
		RequestID: event.RequestID,
		Outcome:   event.Outcome,
		Reason:    event.Reason,
	}
	if !event.LedgerID.IsNil() {
		p.LedgerID = event.LedgerID.String()
	}
	if !event.ActorID.IsNil() {
		p.ActorID = event.ActorID.String()
	}

	value, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Key:   []byte(p.LedgerID),
		Value: value,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil && s.logger != nil {
			s.logger.Warn("kafka audit produce failed", "action", event.Action, "error", err)
		}
	})
	return nil
}

// Close flushes pending records and releases the client.
func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.Flush(ctx)
	s.client.Close()
}
