package render

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSON(t *testing.T) {

	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]int{"phages": 3})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"phages": 3}`, rec.Body.String())
}

func TestJSONEncodeFailure(t *testing.T) {

	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, map[string]float64{"bad": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "cannot encode response"}`, rec.Body.String())
}

func TestError(t *testing.T) {

	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "no data for this selection")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error": "no data for this selection"}`, rec.Body.String())
}
