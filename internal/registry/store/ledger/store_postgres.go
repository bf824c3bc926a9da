package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"quorum/internal/registry/models"
	id "quorum/pkg/domain"
)

// PostgresStore reads governance ledger records from PostgreSQL. The table is
// owned by the governance workflow; this store is strictly read-only.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetRecord(ctx context.Context, ledgerID id.LedgerID) (*models.GovernanceRecord, error) {
	const query = `
		SELECT id, title, entity_id, status, lane, created_at, updated_at
		FROM ledger_records
		WHERE id = $1`

	var (
		record   models.GovernanceRecord
		rowID    uuid.UUID
		entityID uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(ledgerID)).Scan(
		&rowID,
		&record.Title,
		&entityID,
		&record.Status,
		&record.Lane,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ledger record: %w", err)
	}

	record.ID = id.LedgerID(rowID)
	record.EntityID = id.EntityID(entityID)
	return &record, nil
}
