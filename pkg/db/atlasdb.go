package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/yumyai/phageatlas/logger"
	"github.com/yumyai/phageatlas/pkg/model"

	_ "modernc.org/sqlite"
)

// Defining possible error
var ErrDatasetNotFound = errors.New("dataset not found")

// Cache entries are keyed by the row revision, so a dataset replaced by
// another process is never served from a stale entry.
type matrixKey struct {
	study         string
	normalization Normalization
	revision      int64
}

// AtlasDB is the SQLite store of phages, hosts and datasets.
//
// Decoded matrices are kept in a small LRU. They are immutable, so handing
// the same *ExpressionMatrix to concurrent requests is safe.
type AtlasDB struct {
	sqlDB *sql.DB
	cache *lru.Cache[matrixKey, *model.ExpressionMatrix]
}

// Open opens (or creates) the SQLite file at path. cacheSize 0 disables the
// matrix cache.
func Open(path string, cacheSize int) (*AtlasDB, error) {

	// Pragmas in the DSN apply to every pooled connection.
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return NewAtlasDB(sqlDB, cacheSize)
}

func NewAtlasDB(sqlDB *sql.DB, cacheSize int) (*AtlasDB, error) {

	atlas := &AtlasDB{sqlDB: sqlDB}

	if cacheSize > 0 {
		cache, err := lru.New[matrixKey, *model.ExpressionMatrix](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("matrix cache: %w", err)
		}
		atlas.cache = cache
	}

	return atlas, nil
}

func (a *AtlasDB) Close() error {
	return a.sqlDB.Close()
}

// Ping checks that the database answers.
func (a *AtlasDB) Ping(ctx context.Context) error {
	return a.sqlDB.PingContext(ctx)
}

// LoadMatrix returns the expression matrix of one study under one
// normalization.
func (a *AtlasDB) LoadMatrix(ctx context.Context, study string, normalization Normalization) (*model.ExpressionMatrix, error) {

	key, err := a.matrixRevision(ctx, study, normalization)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if m, ok := a.cache.Get(key); ok {
			return m, nil
		}
	}

	blob, err := a.readMatrixBlob(ctx, key)
	if err != nil {
		return nil, err
	}

	var m model.ExpressionMatrix
	if err := m.UnmarshalJSON(blob); err != nil {
		return nil, fmt.Errorf("dataset %s (%s): %w", study, normalization, err)
	}

	logger.Debug("Loaded matrix",
		zap.String("study", study),
		zap.String("normalization", normalization.String()),
		zap.Int64("revision", key.revision),
		zap.Int("genes", m.Len()),
	)

	if a.cache != nil {
		a.cache.Add(key, &m)
	}

	return &m, nil
}

func (a *AtlasDB) matrixRevision(ctx context.Context, study string, normalization Normalization) (matrixKey, error) {

	key := matrixKey{study: study, normalization: normalization}

	err := a.sqlDB.QueryRowContext(ctx,
		`SELECT revision FROM dataset WHERE name = ? AND normalization = ? LIMIT 1`,
		study, normalization.String(),
	).Scan(&key.revision)

	if errors.Is(err, sql.ErrNoRows) {
		return key, fmt.Errorf("%w: %s (%s)", ErrDatasetNotFound, study, normalization)
	}
	if err != nil {
		return key, fmt.Errorf("query dataset %s: %w", study, err)
	}

	return key, nil
}

func (a *AtlasDB) readMatrixBlob(ctx context.Context, key matrixKey) ([]byte, error) {

	var blob []byte

	err := a.sqlDB.QueryRowContext(ctx,
		`SELECT matrix_data FROM dataset WHERE name = ? AND normalization = ? AND revision = ?`,
		key.study, key.normalization.String(), key.revision,
	).Scan(&blob)

	// Replaced between the two queries.
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s (%s) revision %d", ErrDatasetNotFound, key.study, key.normalization, key.revision)
	}
	if err != nil {
		return nil, fmt.Errorf("query dataset %s: %w", key.study, err)
	}

	return blob, nil
}
