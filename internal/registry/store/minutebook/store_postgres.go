package minutebook

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"quorum/internal/registry/models"
	id "quorum/pkg/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetEntry(ctx context.Context, entryID id.EntryID) (*models.MinuteBookEntry, error) {
	const query = `
		SELECT id, ledger_id, storage_bucket, storage_path, created_at
		FROM minute_book_entries
		WHERE id = $1`
	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, uuid.UUID(entryID)))
	if err != nil {
		return nil, fmt.Errorf("get minute book entry: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) GetByLedger(ctx context.Context, ledgerID id.LedgerID) (*models.MinuteBookEntry, error) {
	const query = `
		SELECT id, ledger_id, storage_bucket, storage_path, created_at
		FROM minute_book_entries
		WHERE ledger_id = $1
		ORDER BY created_at DESC
		LIMIT 1`
	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, uuid.UUID(ledgerID)))
	if err != nil {
		return nil, fmt.Errorf("minute book entry for ledger: %w", err)
	}
	return entry, nil
}

func scanEntry(row *sql.Row) (*models.MinuteBookEntry, error) {
	var (
		entry    models.MinuteBookEntry
		rowID    uuid.UUID
		ledgerID uuid.UUID
	)
	err := row.Scan(&rowID, &ledgerID, &entry.Pointer.Bucket, &entry.Pointer.Path, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entry.ID = id.EntryID(rowID)
	entry.LedgerID = id.LedgerID(ledgerID)
	return &entry, nil
}
