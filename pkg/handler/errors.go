package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/yumyai/phageatlas/logger"
	"github.com/yumyai/phageatlas/pkg/db"
	"github.com/yumyai/phageatlas/pkg/middle"
	"github.com/yumyai/phageatlas/pkg/model"
	"github.com/yumyai/phageatlas/pkg/render"
)

const msgNoData = "no data for this selection"

// writeError maps err to a status code. Internal errors are logged and
// replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {

	var inv *model.InvalidInputError

	switch {
	case errors.As(err, &inv):
		render.Error(w, http.StatusBadRequest, inv.Error())
	case errors.Is(err, db.ErrDatasetNotFound):
		render.Error(w, http.StatusNotFound, err.Error())
	default:
		middle.LoggerFrom(r.Context(), logger.Logger()).Error("Request failed",
			zap.String("path", r.URL.EscapedPath()),
			zap.Error(err),
		)
		render.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
