package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/genequery/atlas-assistant/internal/core/domain"
)

// CatalogRepository persists the last good catalog snapshot. It is a cache,
// not a source of truth: the whole table is replaced atomically whenever the
// upstream serves a fresh listing.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CatalogRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082401)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS catalog_experiments (
	position INTEGER PRIMARY KEY,
	accession TEXT NOT NULL UNIQUE,
	species TEXT NOT NULL,
	experiment_type TEXT NOT NULL,
	description TEXT NOT NULL,
	stored_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_catalog_experiments_species ON catalog_experiments(species);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Replace swaps the stored snapshot for the given records in one
// transaction. Position preserves catalog insertion order, which the ranker
// relies on for stable tie-breaking.
func (r *CatalogRepository) Replace(ctx context.Context, records []domain.ExperimentRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_experiments`); err != nil {
		return fmt.Errorf("clear catalog snapshot: %w", err)
	}

	now := time.Now().UTC()
	for i, record := range records {
		_, err := tx.ExecContext(ctx, `
INSERT INTO catalog_experiments (position, accession, species, experiment_type, description, stored_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, i, record.ID, record.Species, string(record.Type), record.Description, now)
		if err != nil {
			return fmt.Errorf("insert snapshot record %s: %w", record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tx: %w", err)
	}
	return nil
}

func (r *CatalogRepository) Load(ctx context.Context) ([]domain.ExperimentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT accession, species, experiment_type, description
FROM catalog_experiments
ORDER BY position
`)
	if err != nil {
		return nil, fmt.Errorf("query catalog snapshot: %w", err)
	}
	defer rows.Close()

	var records []domain.ExperimentRecord
	for rows.Next() {
		var record domain.ExperimentRecord
		var experimentType string
		if err := rows.Scan(&record.ID, &record.Species, &experimentType, &record.Description); err != nil {
			return nil, fmt.Errorf("scan snapshot record: %w", err)
		}
		record.Type = domain.ExperimentType(experimentType)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return records, nil
}
