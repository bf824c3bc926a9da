package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "quorum/pkg/domain"
	audit "quorum/pkg/platform/audit"
	"quorum/pkg/platform/audit/store/memory"
)

func TestPublisher_EmitPersists(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store)
	defer pub.Close()

	ledgerID := id.LedgerID(uuid.New())
	event := audit.Event{
		LedgerID: ledgerID,
		Action:   string(audit.EventRecordCertified),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	// The drain goroutine persists asynchronously.
	require.Eventually(t, func() bool {
		events, err := store.ListByLedger(context.Background(), ledgerID)
		return err == nil && len(events) == 1
	}, 2*time.Second, 10*time.Millisecond)

	events, err := store.ListByLedger(context.Background(), ledgerID)
	require.NoError(t, err)
	assert.Equal(t, string(audit.EventRecordCertified), events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero(), "timestamp is defaulted on emit")
}

func TestPublisher_DrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithBuffer(100))

	ledgerID := id.LedgerID(uuid.New())
	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			LedgerID: ledgerID,
			Action:   string(audit.EventExportGenerated),
		})
		require.NoError(t, err)
	}

	// Close must flush everything still queued.
	pub.Close()

	events, err := store.ListByLedger(context.Background(), ledgerID)
	require.NoError(t, err)
	assert.Len(t, events, 10)
}

func TestPublisher_EmitAfterCloseIsNoop(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store)
	pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		Action: string(audit.EventResolutionFailed),
	})
	require.NoError(t, err)

	events, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestPublisher_KeepsExplicitTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store)
	defer pub.Close()

	stamped := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ledgerID := id.LedgerID(uuid.New())
	err := pub.Emit(context.Background(), audit.Event{
		LedgerID:  ledgerID,
		Action:    string(audit.EventCertificationReused),
		Timestamp: stamped,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		events, err := store.ListByLedger(context.Background(), ledgerID)
		return err == nil && len(events) == 1
	}, 2*time.Second, 10*time.Millisecond)

	events, _ := store.ListByLedger(context.Background(), ledgerID)
	assert.Equal(t, stamped, events[0].Timestamp)
}
