// Package ledger persists installed run manifests into Postgres as an
// append-only history across weeks. The filesystem manifest remains the
// source of truth; the ledger exists for querying past installs.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lineforge/weekboard/internal/domain"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS week_manifests (
    run_id     TEXT PRIMARY KEY,
    week       INTEGER NOT NULL,
    week_tag   TEXT NOT NULL,
    start_date TEXT NOT NULL,
    end_date   TEXT NOT NULL,
    season     TEXT NOT NULL,
    revision   TEXT NOT NULL,
    digest     TEXT NOT NULL,
    row_counts JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
)`

// EnsureSchema creates the ledger table when absent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

// Append records one installed manifest. Rows are never updated or
// deleted.
func Append(ctx context.Context, db *sql.DB, m domain.Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	rowCounts, err := json.Marshal(m.RowCounts)
	if err != nil {
		return fmt.Errorf("encode row counts: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO week_manifests
			(run_id, week, week_tag, start_date, end_date, season, revision, digest, row_counts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.RunID, m.Week, m.WeekTag, m.Start, m.End, m.Season,
		m.Revision, m.Digest, rowCounts, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("append manifest %s: %w", m.RunID, err)
	}
	return nil
}

// List returns the install history, most recent first.
func List(ctx context.Context, db *sql.DB) ([]domain.Manifest, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, week, week_tag, start_date, end_date, season, revision, digest, row_counts, created_at
		FROM week_manifests
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list manifests: %w", err)
	}
	defer rows.Close()

	var manifests []domain.Manifest
	for rows.Next() {
		m := domain.Manifest{Schema: domain.ManifestSchemaV1}
		var rowCounts []byte
		if err := rows.Scan(&m.RunID, &m.Week, &m.WeekTag, &m.Start, &m.End,
			&m.Season, &m.Revision, &m.Digest, &rowCounts, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan manifest: %w", err)
		}
		if err := json.Unmarshal(rowCounts, &m.RowCounts); err != nil {
			return nil, fmt.Errorf("decode row counts: %w", err)
		}
		manifests = append(manifests, m)
	}
	return manifests, rows.Err()
}
