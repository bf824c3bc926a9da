package entity

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

func (s *PostgresStore) GetEntity(ctx context.Context, entityID id.EntityID) (*models.Entity, error) {
	const query = `
		SELECT id, name, slug, lane
		FROM entities
		WHERE id = $1`

	var (
		entity models.Entity
		rowID  uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(entityID)).Scan(
		&rowID,
		&entity.Name,
		&entity.Slug,
		&entity.Lane,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entity: %w", err)
	}

	entity.ID = id.EntityID(rowID)
	return &entity, nil
}
