package handler

// DI for all handlers and models alike.

import (
	"context"

	"github.com/yumyai/phageatlas/pkg/db"
	"github.com/yumyai/phageatlas/pkg/metrics"
	"github.com/yumyai/phageatlas/pkg/model"
)

// Store is the part of *db.AtlasDB the handlers need.
type Store interface {
	LoadMatrix(ctx context.Context, study string, normalization db.Normalization) (*model.ExpressionMatrix, error)
	ListPhages(ctx context.Context) ([]db.Phage, error)
	ListHosts(ctx context.Context) ([]db.Host, error)
	DatasetsOverview(ctx context.Context) ([]db.DatasetInfo, error)
	StudyCount(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

type DBContext struct {
	Store   Store
	Metrics *metrics.Metrics // may be nil
}
