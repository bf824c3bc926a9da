package verified

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"quorum/internal/registry/models"
	id "quorum/pkg/domain"
	txcontext "quorum/pkg/platform/tx"
)

// PostgresStore owns the verified_records table. The table carries a UNIQUE
// constraint on (source_kind, source_record_id); Upsert relies on it so
// concurrent certifications converge to one row instead of racing a
// check-then-act.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const verifiedColumns = `
	id, source_kind, source_record_id,
	storage_bucket, storage_path, file_hash,
	level, archived, entity_id, updated_by, updated_at`

func (s *PostgresStore) GetBySource(ctx context.Context, kind models.SourceKind, sourceID uuid.UUID) (*models.VerifiedRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM verified_records
		WHERE source_kind = $1 AND source_record_id = $2`, verifiedColumns)
	record, err := scanVerified(s.querier(ctx).QueryRowContext(ctx, query, string(kind), sourceID))
	if err != nil {
		return nil, fmt.Errorf("get verified record by source: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) GetByHash(ctx context.Context, hash string) (*models.VerifiedRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM verified_records
		WHERE file_hash = $1
		ORDER BY updated_at DESC
		LIMIT 1`, verifiedColumns)
	record, err := scanVerified(s.querier(ctx).QueryRowContext(ctx, query, hash))
	if err != nil {
		return nil, fmt.Errorf("get verified record by hash: %w", err)
	}
	return record, nil
}

// Upsert inserts the row or, on a natural-key conflict, updates the existing
// row's payload fields in place. The surrogate id of an existing row is
// preserved by the conflict branch.
func (s *PostgresStore) Upsert(ctx context.Context, record *models.VerifiedRecord) (*models.VerifiedRecord, error) {
	rowID := uuid.UUID(record.ID)
	if record.ID.IsNil() {
		rowID = uuid.New()
	}

	query := fmt.Sprintf(`
		INSERT INTO verified_records (
			id, source_kind, source_record_id,
			storage_bucket, storage_path, file_hash,
			level, archived, entity_id, updated_by, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (source_kind, source_record_id) DO UPDATE SET
			storage_bucket = EXCLUDED.storage_bucket,
			storage_path   = EXCLUDED.storage_path,
			file_hash      = EXCLUDED.file_hash,
			level          = EXCLUDED.level,
			archived       = EXCLUDED.archived,
			entity_id      = EXCLUDED.entity_id,
			updated_by     = EXCLUDED.updated_by,
			updated_at     = EXCLUDED.updated_at
		RETURNING %s`, verifiedColumns)

	stored, err := scanVerified(s.querier(ctx).QueryRowContext(ctx, query,
		rowID,
		string(record.SourceKind),
		record.SourceRecordID,
		record.Pointer.Bucket,
		record.Pointer.Path,
		record.FileHash,
		string(record.Level),
		record.Archived,
		uuid.UUID(record.EntityID),
		uuid.UUID(record.UpdatedBy),
		record.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert verified record: %w", err)
	}
	return stored, nil
}

func scanVerified(row *sql.Row) (*models.VerifiedRecord, error) {
	var (
		record    models.VerifiedRecord
		rowID     uuid.UUID
		entityID  uuid.UUID
		updatedBy uuid.UUID
	)
	err := row.Scan(
		&rowID,
		&record.SourceKind,
		&record.SourceRecordID,
		&record.Pointer.Bucket,
		&record.Pointer.Path,
		&record.FileHash,
		&record.Level,
		&record.Archived,
		&entityID,
		&updatedBy,
		&record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	record.ID = id.VerifiedDocumentID(rowID)
	record.EntityID = id.EntityID(entityID)
	record.UpdatedBy = id.ActorID(updatedBy)
	return &record, nil
}
