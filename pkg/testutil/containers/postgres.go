//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresContainer wraps a testcontainers Postgres instance with an open
// connection pool and the registry schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a new Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("registry_test"),
		tcpostgres.WithUsername("registry"),
		tcpostgres.WithPassword("registry"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if err := applySchema(ctx, db); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	// Note: We don't register t.Cleanup here because the container is managed
	// by the singleton Manager and shared across test suites. Ryuk handles cleanup.

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// TruncateTables removes all rows from the given tables.
// Use between tests to ensure isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", "))
	if _, err := p.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

func applySchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entities (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL DEFAULT '',
			lane TEXT NOT NULL DEFAULT 'production'
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_records (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			entity_id UUID NOT NULL,
			status TEXT NOT NULL,
			lane TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS storage_envelopes (
			id UUID PRIMARY KEY,
			ledger_id UUID NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT false,
			document_bucket TEXT,
			document_path TEXT,
			supporting_bucket TEXT,
			supporting_path TEXT,
			certificate_bucket TEXT,
			certificate_path TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS minute_book_entries (
			id UUID PRIMARY KEY,
			ledger_id UUID NOT NULL,
			storage_bucket TEXT NOT NULL DEFAULT '',
			storage_path TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS verified_records (
			id UUID PRIMARY KEY,
			source_kind TEXT NOT NULL,
			source_record_id UUID NOT NULL,
			storage_bucket TEXT NOT NULL DEFAULT '',
			storage_path TEXT NOT NULL DEFAULT '',
			file_hash TEXT NOT NULL DEFAULT '',
			level TEXT NOT NULL,
			archived BOOLEAN NOT NULL DEFAULT false,
			entity_id UUID NOT NULL,
			updated_by UUID NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			UNIQUE (source_kind, source_record_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verified_records_file_hash
			ON verified_records (file_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_storage_envelopes_ledger
			ON storage_envelopes (ledger_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_minute_book_entries_ledger
			ON minute_book_entries (ledger_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}
	return nil
}
