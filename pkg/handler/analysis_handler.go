// Handlers for computed views: heatmaps, phase classification, time series

package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yumyai/phageatlas/logger"
	"github.com/yumyai/phageatlas/pkg/db"
	"github.com/yumyai/phageatlas/pkg/handler/request"
	"github.com/yumyai/phageatlas/pkg/middle"
	"github.com/yumyai/phageatlas/pkg/model"
	"github.com/yumyai/phageatlas/pkg/render"
)

// HeatmapHandler builds a z-scored, clustered heatmap from the TPM_means
// matrix of a study.
func (dbctx *DBContext) HeatmapHandler(w http.ResponseWriter, r *http.Request) {

	req, err := request.NewHeatmapRequest(r.PathValue("study"), r.PathValue("entity"), r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	m, err := dbctx.Store.LoadMatrix(r.Context(), req.Study, db.TPMMeans)
	if err != nil {
		writeError(w, r, err)
		return
	}

	start := time.Now()
	heatmap, err := model.BuildHeatmap(m, req.Options())
	dbctx.Metrics.ObserveAnalysis("heatmap", start, err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if heatmap == nil {
		render.Error(w, http.StatusNotFound, msgNoData)
		return
	}

	if heatmap.Clustered {
		dbctx.Metrics.ObserveCophenetic(heatmap.Quality)
	}

	middle.LoggerFrom(r.Context(), logger.Logger()).Debug("Heatmap built",
		zap.String("study", req.Study),
		zap.String("entity", string(req.Entity)),
		zap.Int("genes", len(heatmap.Y)),
		zap.Bool("clustered", heatmap.Clustered),
		zap.Float64("cophenetic", heatmap.Quality),
	)

	render.JSON(w, http.StatusOK, heatmap)
}

// PhasesHandler classifies the phage genes of a study with user supplied
// bounds and returns them in long format.
func (dbctx *DBContext) PhasesHandler(w http.ResponseWriter, r *http.Request) {

	req, err := request.NewPhaseRequest(r.PathValue("study"), r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	m, err := dbctx.Store.LoadMatrix(r.Context(), req.Study, db.Fractional)
	if err != nil {
		writeError(w, r, err)
		return
	}

	start := time.Now()
	phases, err := model.ClassifyPhases(m, req.Bounds)
	dbctx.Metrics.ObserveAnalysis("phases", start, err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, model.PhaseLongFormat(m, phases))
}

func (dbctx *DBContext) TimeSeriesHandler(w http.ResponseWriter, r *http.Request) {

	m, err := dbctx.Store.LoadMatrix(r.Context(), r.PathValue("study"), db.Fractional)
	if err != nil {
		writeError(w, r, err)
		return
	}

	start := time.Now()
	series := model.BuildTimeSeries(m)
	dbctx.Metrics.ObserveAnalysis("timeseries", start, nil)

	render.JSON(w, http.StatusOK, series)
}
