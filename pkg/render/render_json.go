// Render JSON payloads and error bodies for the API

package render

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/yumyai/phageatlas/logger"
)

type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes v with the given status. Encoding happens before the header
// is sent so a marshalling failure still produces a clean 500.
func JSON(w http.ResponseWriter, status int, v any) {

	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("Cannot encode response", zap.Error(err))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorBody{Error: "cannot encode response"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
	w.Write([]byte("\n"))
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}
