// Handlers for catalogue listings and raw dataset access

package handler

import (
	"net/http"

	"github.com/yumyai/phageatlas/pkg/db"
	"github.com/yumyai/phageatlas/pkg/model"
	"github.com/yumyai/phageatlas/pkg/render"
)

type StudyCountResponse struct {
	Studies int `json:"studies"`
}

type TimePointsResponse struct {
	Columns []string `json:"columns"`
}

func (dbctx *DBContext) ListPhagesHandler(w http.ResponseWriter, r *http.Request) {

	phages, err := dbctx.Store.ListPhages(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, phages)
}

func (dbctx *DBContext) ListHostsHandler(w http.ResponseWriter, r *http.Request) {

	hosts, err := dbctx.Store.ListHosts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, hosts)
}

func (dbctx *DBContext) DatasetsOverviewHandler(w http.ResponseWriter, r *http.Request) {

	datasets, err := dbctx.Store.DatasetsOverview(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, datasets)
}

func (dbctx *DBContext) StudyCountHandler(w http.ResponseWriter, r *http.Request) {

	n, err := dbctx.Store.StudyCount(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, StudyCountResponse{Studies: n})
}

// MatrixHandler returns the full matrix of a study under the normalization
// named by the query string.
func (dbctx *DBContext) MatrixHandler(w http.ResponseWriter, r *http.Request) {

	raw := r.URL.Query().Get("normalization")
	if raw == "" {
		render.Error(w, http.StatusBadRequest, "normalization is required")
		return
	}

	normalization, err := db.ParseNormalization(raw)
	if err != nil {
		render.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := dbctx.Store.LoadMatrix(r.Context(), r.PathValue("study"), normalization)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, m)
}

// SizesHandler reports how many phage and host genes a study has, which
// bounds the rank window sliders.
func (dbctx *DBContext) SizesHandler(w http.ResponseWriter, r *http.Request) {

	m, err := dbctx.Store.LoadMatrix(r.Context(), r.PathValue("study"), db.TPMMeans)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, model.CountGenes(m))
}

func (dbctx *DBContext) TimePointsHandler(w http.ResponseWriter, r *http.Request) {

	m, err := dbctx.Store.LoadMatrix(r.Context(), r.PathValue("study"), db.Fractional)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, http.StatusOK, TimePointsResponse{Columns: m.Labels()})
}
