package db

import (
	"context"
	"fmt"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS phage (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL,
    description TEXT,
    ncbi_id     TEXT NOT NULL UNIQUE,
    phage_type  TEXT
);

CREATE TABLE IF NOT EXISTS host (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL,
    host_group  TEXT NOT NULL,
    description TEXT,
    ncbi_id     TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS dataset (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    phage_id      INTEGER NOT NULL REFERENCES phage(id),
    host_id       INTEGER NOT NULL REFERENCES host(id),
    name          TEXT NOT NULL,
    normalization TEXT NOT NULL,
    journal       TEXT,
    year          INTEGER,
    first_author  TEXT,
    pubmed_id     TEXT,
    description   TEXT,
    doi           TEXT,
    matrix_data   BLOB NOT NULL,
    revision      INTEGER NOT NULL DEFAULT 1,
    UNIQUE (name, normalization)
);

CREATE INDEX IF NOT EXISTS idx_dataset_normalization ON dataset(normalization);
`

// Migrate creates the tables when they are missing. It is safe to run on
// every start.
func (a *AtlasDB) Migrate(ctx context.Context) error {
	if _, err := a.sqlDB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
