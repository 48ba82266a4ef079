package db

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/yumyai/phageatlas/logger"
	"github.com/yumyai/phageatlas/pkg/model"
)

type Phage struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	NCBIID      string `json:"ncbi_id"`
	PhageType   string `json:"phage_type"`
}

type Host struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Group       string `json:"group"`
	Description string `json:"description"`
	NCBIID      string `json:"ncbi_id"`
}

// Study is the bibliographic part of a dataset, shared by all of its
// normalizations.
type Study struct {
	Name        string `json:"source"`
	Journal     string `json:"journal"`
	Year        int    `json:"year"`
	FirstAuthor string `json:"first_author"`
	PubmedID    string `json:"pubmedID"`
	Description string `json:"description"`
	DOI         string `json:"doi"`
}

// DatasetInfo is one dataset row without its matrix.
type DatasetInfo struct {
	Study
	ID            int64         `json:"id"`
	PhageID       int64         `json:"phage_id"`
	PhageName     string        `json:"phage_name"`
	HostID        int64         `json:"host_id"`
	HostName      string        `json:"host_name"`
	HostGroup     string        `json:"host_group"`
	Normalization Normalization `json:"normalization"`
}

func (a *AtlasDB) ListPhages(ctx context.Context) ([]Phage, error) {

	rows, err := a.sqlDB.QueryContext(ctx,
		`SELECT id, name, COALESCE(description, ''), ncbi_id, COALESCE(phage_type, '') FROM phage ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query phages: %w", err)
	}
	defer rows.Close()

	phages := []Phage{}
	for rows.Next() {
		var p Phage
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.NCBIID, &p.PhageType); err != nil {
			return nil, fmt.Errorf("scan phage: %w", err)
		}
		phages = append(phages, p)
	}

	return phages, rows.Err()
}

func (a *AtlasDB) ListHosts(ctx context.Context) ([]Host, error) {

	rows, err := a.sqlDB.QueryContext(ctx,
		`SELECT id, name, host_group, COALESCE(description, ''), ncbi_id FROM host ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query hosts: %w", err)
	}
	defer rows.Close()

	hosts := []Host{}
	for rows.Next() {
		var h Host
		if err := rows.Scan(&h.ID, &h.Name, &h.Group, &h.Description, &h.NCBIID); err != nil {
			return nil, fmt.Errorf("scan host: %w", err)
		}
		hosts = append(hosts, h)
	}

	return hosts, rows.Err()
}

// DatasetsOverview lists one row per study. Only the TPM_means rows are
// read so a study imported under several normalizations shows up once.
func (a *AtlasDB) DatasetsOverview(ctx context.Context) ([]DatasetInfo, error) {

	const overviewSQL = `
        SELECT d.id, d.name, d.normalization,
               COALESCE(d.journal, ''), COALESCE(d.year, 0), COALESCE(d.first_author, ''),
               COALESCE(d.pubmed_id, ''), COALESCE(d.description, ''), COALESCE(d.doi, ''),
               p.id, p.name, h.id, h.name, h.host_group
        FROM dataset d
        JOIN phage p ON p.id = d.phage_id
        JOIN host h ON h.id = d.host_id
        WHERE d.normalization = ?
        ORDER BY d.id
    `

	rows, err := a.sqlDB.QueryContext(ctx, overviewSQL, TPMMeans.String())
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer rows.Close()

	datasets := []DatasetInfo{}
	for rows.Next() {
		var d DatasetInfo
		var norm string
		err := rows.Scan(&d.ID, &d.Name, &norm,
			&d.Journal, &d.Year, &d.FirstAuthor, &d.PubmedID, &d.Description, &d.DOI,
			&d.PhageID, &d.PhageName, &d.HostID, &d.HostName, &d.HostGroup)
		if err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		if d.Normalization, err = ParseNormalization(norm); err != nil {
			return nil, fmt.Errorf("dataset %d: %w", d.ID, err)
		}
		datasets = append(datasets, d)
	}

	return datasets, rows.Err()
}

// StudyCount is the number of distinct studies with a TPM_means matrix.
func (a *AtlasDB) StudyCount(ctx context.Context) (int, error) {

	var n int
	err := a.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT name) FROM dataset WHERE normalization = ?`, TPMMeans.String(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count studies: %w", err)
	}

	return n, nil
}

// InsertPhage stores p, or returns the id of the phage that already has the
// same NCBI id.
func (a *AtlasDB) InsertPhage(ctx context.Context, p Phage) (int64, error) {

	_, err := a.sqlDB.ExecContext(ctx,
		`INSERT INTO phage (name, description, ncbi_id, phage_type) VALUES (?, ?, ?, ?)
         ON CONFLICT(ncbi_id) DO NOTHING`,
		p.Name, p.Description, p.NCBIID, p.PhageType)
	if err != nil {
		return 0, fmt.Errorf("insert phage %s: %w", p.NCBIID, err)
	}

	return a.idByNCBI(ctx, "phage", p.NCBIID)
}

// InsertHost stores h, or returns the id of the host that already has the
// same NCBI id.
func (a *AtlasDB) InsertHost(ctx context.Context, h Host) (int64, error) {

	_, err := a.sqlDB.ExecContext(ctx,
		`INSERT INTO host (name, host_group, description, ncbi_id) VALUES (?, ?, ?, ?)
         ON CONFLICT(ncbi_id) DO NOTHING`,
		h.Name, h.Group, h.Description, h.NCBIID)
	if err != nil {
		return 0, fmt.Errorf("insert host %s: %w", h.NCBIID, err)
	}

	return a.idByNCBI(ctx, "host", h.NCBIID)
}

func (a *AtlasDB) idByNCBI(ctx context.Context, table, ncbiID string) (int64, error) {

	var id int64
	// table is one of two constants above, never user input.
	err := a.sqlDB.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE ncbi_id = ?`, table), ncbiID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("lookup %s %s: %w", table, ncbiID, err)
	}

	return id, nil
}

// InsertDataset stores m for the study under one normalization. An existing
// row for the same study and normalization is replaced.
func (a *AtlasDB) InsertDataset(ctx context.Context, phageID, hostID int64, study Study, normalization Normalization, m *model.ExpressionMatrix) (int64, error) {

	blob, err := m.MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("encode matrix: %w", err)
	}

	tx, err := a.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	const upsertSQL = `
        INSERT INTO dataset (phage_id, host_id, name, normalization, journal, year,
                             first_author, pubmed_id, description, doi, matrix_data)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(name, normalization) DO UPDATE SET
            phage_id = excluded.phage_id,
            host_id = excluded.host_id,
            journal = excluded.journal,
            year = excluded.year,
            first_author = excluded.first_author,
            pubmed_id = excluded.pubmed_id,
            description = excluded.description,
            doi = excluded.doi,
            matrix_data = excluded.matrix_data,
            revision = dataset.revision + 1
    `

	_, err = tx.ExecContext(ctx, upsertSQL,
		phageID, hostID, study.Name, normalization.String(), nullString(study.Journal), study.Year,
		nullString(study.FirstAuthor), nullString(study.PubmedID), nullString(study.Description),
		nullString(study.DOI), blob)
	if err != nil {
		return 0, fmt.Errorf("insert dataset %s (%s): %w", study.Name, normalization, err)
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM dataset WHERE name = ? AND normalization = ?`, study.Name, normalization.String(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	logger.Info("Stored dataset",
		zap.String("study", study.Name),
		zap.String("normalization", normalization.String()),
		zap.Int("genes", m.Len()),
		zap.Int64("id", id),
	)

	return id, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
