package request

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yumyai/phageatlas/pkg/model"
)

// Heatmap of one entity of one study, read from the path and query string:
//
//	/api/v1/datasets/{study}/heatmap/{entity}?min=0&max=49&gene=motA&gene=motB
type HeatmapRequest struct {
	Study       string
	Entity      model.Entity
	RankWindow  *model.RankWindow
	GeneSymbols []string // nil when no gene parameter was sent
}

// Custom phase classification of one study:
//
//	/api/v1/datasets/{study}/phases?early=4&middle=7&late=20&threshold=0.2
type PhaseRequest struct {
	Study  string
	Bounds model.PhaseBounds
}

func badParam(format string, args ...any) error {
	return &model.InvalidInputError{Op: "request", Msg: fmt.Sprintf(format, args...)}
}

func NewHeatmapRequest(study, entity string, query url.Values) (HeatmapRequest, error) {

	req := HeatmapRequest{Study: study}

	if study == "" {
		return req, badParam("study is required")
	}

	e, err := model.ParseEntity(entity)
	if err != nil {
		return req, err
	}
	req.Entity = e

	minRaw, maxRaw := query.Get("min"), query.Get("max")
	switch {
	case minRaw == "" && maxRaw == "":
	case minRaw == "" || maxRaw == "":
		return req, badParam("min and max must be given together")
	default:
		lo, err := strconv.Atoi(minRaw)
		if err != nil {
			return req, badParam("min must be an integer, got %q", minRaw)
		}
		hi, err := strconv.Atoi(maxRaw)
		if err != nil {
			return req, badParam("max must be an integer, got %q", maxRaw)
		}
		req.RankWindow = &model.RankWindow{Min: lo, Max: hi}
	}

	// "gene=" with an empty value still counts as an (empty) allow-list.
	if values, ok := query["gene"]; ok {
		req.GeneSymbols = make([]string, 0, len(values))
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				req.GeneSymbols = append(req.GeneSymbols, v)
			}
		}
	}

	return req, nil
}

func (r HeatmapRequest) Options() model.HeatmapOptions {
	return model.HeatmapOptions{
		Entity:      r.Entity,
		RankWindow:  r.RankWindow,
		GeneSymbols: r.GeneSymbols,
	}
}

func NewPhaseRequest(study string, query url.Values) (PhaseRequest, error) {

	req := PhaseRequest{Study: study}

	if study == "" {
		return req, badParam("study is required")
	}

	ints := map[string]*int{
		"early":  &req.Bounds.Early,
		"middle": &req.Bounds.Middle,
		"late":   &req.Bounds.Late,
	}
	for _, name := range []string{"early", "middle", "late"} {
		raw := query.Get(name)
		if raw == "" {
			return req, badParam("%s is required", name)
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return req, badParam("%s must be an integer, got %q", name, raw)
		}
		*ints[name] = v
	}

	raw := query.Get("threshold")
	if raw == "" {
		return req, badParam("threshold is required")
	}
	th, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return req, badParam("threshold must be a number, got %q", raw)
	}
	req.Bounds.Threshold = th

	return req, req.Bounds.Validate()
}
