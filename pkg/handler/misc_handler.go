// Handler for miscellaneous endpoints such as health check

package handler

import (
	"net/http"
	"time"

	"github.com/yumyai/phageatlas/pkg/render"
)

type HealthResponse struct {
	Health    string    `json:"health"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

func (dbctx *DBContext) HealthCheck(w http.ResponseWriter, r *http.Request) {

	response := HealthResponse{
		Health:    "ok",
		Database:  "ok",
		Timestamp: time.Now(),
	}

	status := http.StatusOK
	if err := dbctx.Store.Ping(r.Context()); err != nil {
		response.Health = "degraded"
		response.Database = err.Error()
		status = http.StatusServiceUnavailable
	}

	render.JSON(w, status, response)
}
