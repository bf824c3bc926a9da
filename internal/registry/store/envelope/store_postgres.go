package envelope

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

const envelopeColumns = `
	id, ledger_id, completed,
	document_bucket, document_path,
	supporting_bucket, supporting_path,
	certificate_bucket, certificate_path,
	created_at`

func (s *PostgresStore) GetEnvelope(ctx context.Context, envelopeID id.EnvelopeID) (*models.StorageEnvelope, error) {
	query := fmt.Sprintf(`SELECT %s FROM storage_envelopes WHERE id = $1`, envelopeColumns)
	env, err := s.scanEnvelope(s.db.QueryRowContext(ctx, query, uuid.UUID(envelopeID)))
	if err != nil {
		return nil, fmt.Errorf("get envelope: %w", err)
	}
	return env, nil
}

func (s *PostgresStore) LatestByLedger(ctx context.Context, ledgerID id.LedgerID) (*models.StorageEnvelope, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM storage_envelopes
		WHERE ledger_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, envelopeColumns)
	env, err := s.scanEnvelope(s.db.QueryRowContext(ctx, query, uuid.UUID(ledgerID)))
	if err != nil {
		return nil, fmt.Errorf("latest envelope for ledger: %w", err)
	}
	return env, nil
}

func (s *PostgresStore) scanEnvelope(row *sql.Row) (*models.StorageEnvelope, error) {
	var (
		env        models.StorageEnvelope
		rowID      uuid.UUID
		ledgerID   uuid.UUID
		docB, docP sql.NullString
		supB, supP sql.NullString
		crtB, crtP sql.NullString
	)
	err := row.Scan(
		&rowID, &ledgerID, &env.Completed,
		&docB, &docP,
		&supB, &supP,
		&crtB, &crtP,
		&env.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	env.ID = id.EnvelopeID(rowID)
	env.LedgerID = id.LedgerID(ledgerID)
	env.DocumentPtr = pointer(docB, docP)
	env.SupportingPtr = pointer(supB, supP)
	env.CertificatePtr = pointer(crtB, crtP)
	return &env, nil
}

func pointer(bucket, path sql.NullString) models.StoragePointer {
	if !bucket.Valid || !path.Valid {
		return models.StoragePointer{}
	}
	return models.StoragePointer{Bucket: bucket.String, Path: path.String}
}
