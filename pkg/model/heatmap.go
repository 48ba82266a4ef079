package model

import (
	"math"
	"sort"

	"github.com/yumyai/phageatlas/logger"
	"go.uber.org/zap"
)

// RankWindow selects positions [Min, Max] (inclusive, 0-based) of the
// variance-ascending gene order.
type RankWindow struct {
	Min int
	Max int
}

func (w RankWindow) validate() error {
	if w.Min < 0 || w.Max < 0 {
		return invalidInput("RankWindow", "ranks must be non-negative, got [%d, %d]", w.Min, w.Max)
	}
	if w.Min > w.Max {
		return invalidInput("RankWindow", "min rank %d is greater than max rank %d", w.Min, w.Max)
	}
	return nil
}

// HeatmapOptions controls which genes end up in a heatmap. A nil RankWindow
// or GeneSymbols means "not given"; an empty non-nil GeneSymbols is an
// explicit empty selection.
type HeatmapOptions struct {
	Entity      Entity
	RankWindow  *RankWindow
	GeneSymbols []string
}

// Heatmap is the x/y/z payload of one heatmap.
type Heatmap struct {
	X []string `json:"x"`
	Y []string `json:"y"`
	Z []Series `json:"z"`

	// Clustered reports whether rows were reordered by WardCluster.
	Clustered bool `json:"-"`
	// Quality is the cophenetic correlation, NaN when clustering was skipped.
	Quality float64 `json:"-"`
}

// BuildHeatmap selects, z-scores and (when the selection allows it) clusters
// the genes of one entity. A nil heatmap with a nil error means the selection
// is empty.
func BuildHeatmap(m *ExpressionMatrix, opts HeatmapOptions) (*Heatmap, error) {

	if opts.Entity != EntityPhage && opts.Entity != EntityHost {
		return nil, invalidInput("BuildHeatmap", "unknown entity %q", opts.Entity)
	}

	subset, err := selectHeatmapGenes(m, opts)
	if err != nil {
		return nil, err
	}

	if subset.Len() == 0 {
		logger.Debug("Empty heatmap selection", zap.String("entity", string(opts.Entity)))
		return nil, nil
	}

	normalized, err := Normalize(subset)
	if err != nil {
		return nil, err
	}

	heatmap := &Heatmap{
		X:       m.Labels(),
		Quality: math.NaN(),
	}

	if skipClustering(opts, normalized.Len()) {
		heatmap.Y = normalized.Labels
		heatmap.Z = toSeries(normalized.Rows)
		return heatmap, nil
	}

	clustering, err := WardCluster(clusterInput(normalized.Rows))
	if err != nil {
		return nil, err
	}

	heatmap.Y = make([]string, 0, len(clustering.Order))
	heatmap.Z = make([]Series, 0, len(clustering.Order))
	for _, i := range clustering.Order {
		heatmap.Y = append(heatmap.Y, normalized.Labels[i])
		heatmap.Z = append(heatmap.Z, Series(normalized.Rows[i]))
	}
	heatmap.Clustered = true
	heatmap.Quality = clustering.Quality

	logger.Debug("Heatmap clustered",
		zap.String("entity", string(opts.Entity)),
		zap.Int("genes", normalized.Len()),
		zap.Float64("cophenetic_correlation", clustering.Quality),
	)

	return heatmap, nil
}

func selectHeatmapGenes(m *ExpressionMatrix, opts HeatmapOptions) (GeneSubset, error) {

	subset := m.Select(opts.Entity)

	if opts.RankWindow != nil {
		w := *opts.RankWindow
		if err := w.validate(); err != nil {
			return GeneSubset{}, err
		}

		sortByVariance(subset.Genes)

		// Out of range windows are clamped, like slicing past the end.
		lo := min(w.Min, len(subset.Genes))
		hi := min(w.Max+1, len(subset.Genes))
		subset.Genes = subset.Genes[lo:hi]
	}

	if opts.GeneSymbols != nil {
		allowed := make(map[string]struct{}, len(opts.GeneSymbols))
		for _, s := range opts.GeneSymbols {
			allowed[s] = struct{}{}
		}

		kept := make([]GeneRecord, 0, len(subset.Genes))
		for _, g := range subset.Genes {
			if _, ok := allowed[g.Symbol]; ok {
				kept = append(kept, g)
			}
		}
		subset.Genes = kept
	}

	return subset, nil
}

// Ascending, stable, missing variance last.
func sortByVariance(genes []GeneRecord) {
	sort.SliceStable(genes, func(a, b int) bool {
		va, vb := genes[a].Variance, genes[b].Variance
		if math.IsNaN(vb) {
			return !math.IsNaN(va)
		}
		if math.IsNaN(va) {
			return false
		}
		return va < vb
	})
}

func skipClustering(opts HeatmapOptions, rows int) bool {

	if opts.RankWindow != nil && opts.RankWindow.Min == opts.RankWindow.Max {
		return true
	}
	if opts.GeneSymbols != nil && len(opts.GeneSymbols) <= 1 {
		return true
	}

	// Nothing to cluster.
	return rows < 2
}

// Constant genes have undefined z-scores; they enter the distance computation
// as all-zero rows and keep their NaN values in the payload.
func clusterInput(rows [][]float64) [][]float64 {

	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			if !math.IsNaN(v) {
				out[i][j] = v
			}
		}
	}

	return out
}

func toSeries(rows [][]float64) []Series {
	out := make([]Series, len(rows))
	for i, row := range rows {
		out[i] = Series(row)
	}
	return out
}
