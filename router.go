package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yumyai/phageatlas/pkg/handler"
	"github.com/yumyai/phageatlas/pkg/metrics"
	"github.com/yumyai/phageatlas/pkg/middle"
)

func NewRouter(dbctx *handler.DBContext, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()

	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, middle.MetricsMiddleware(m, pattern)(fn))
	}

	// Error route
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	// Catalogue
	handle("GET /api/v1/health", dbctx.HealthCheck)
	handle("GET /api/v1/phages", dbctx.ListPhagesHandler)
	handle("GET /api/v1/hosts", dbctx.ListHostsHandler)
	handle("GET /api/v1/datasets", dbctx.DatasetsOverviewHandler)
	handle("GET /api/v1/studies/count", dbctx.StudyCountHandler)

	// Per study
	handle("GET /api/v1/datasets/{study}/matrix", dbctx.MatrixHandler)
	handle("GET /api/v1/datasets/{study}/sizes", dbctx.SizesHandler)
	handle("GET /api/v1/datasets/{study}/timepoints", dbctx.TimePointsHandler)
	handle("GET /api/v1/datasets/{study}/heatmap/{entity}", dbctx.HeatmapHandler)
	handle("GET /api/v1/datasets/{study}/phases", dbctx.PhasesHandler)
	handle("GET /api/v1/datasets/{study}/timeseries", dbctx.TimeSeriesHandler)

	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	return mux
}

// withMiddleware wraps the router with request id, logging and recovery.
func withMiddleware(h http.Handler, log *zap.Logger) http.Handler {
	return middle.Chain(h,
		middle.RequestIDMiddleware(log),
		middle.LoggingMiddleware(log),
	)
}
