package model

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// NormalizedSubset is a GeneSubset whose rows were replaced by z-scores.
type NormalizedSubset struct {
	Columns []TimePoint
	GeneIDs []string
	Labels  []string
	Rows    [][]float64
}

func (n NormalizedSubset) Len() int {
	return len(n.Rows)
}

// ZScore standardizes each row to mean 0 and unit sample standard deviation
// over its own present values. Missing values stay NaN. A row that is constant,
// or has fewer than two present values, comes back as all NaN.
func ZScore(rows [][]float64) ([][]float64, error) {

	out := make([][]float64, len(rows))

	for i, row := range rows {
		if len(row) < 2 {
			return nil, invalidInput("ZScore", "row %d has %d time points, need at least 2", i, len(row))
		}
		out[i] = zscoreRow(row)
	}

	return out, nil
}

func zscoreRow(row []float64) []float64 {

	z := make([]float64, len(row))
	present := Series(row).Present()

	if len(present) < 2 {
		for j := range z {
			z[j] = math.NaN()
		}
		return z
	}

	mean, sd := stat.MeanStdDev(present, nil)

	for j, v := range row {
		if sd == 0 {
			z[j] = math.NaN()
			continue
		}
		z[j] = (v - mean) / sd
	}

	return z
}

// Normalize z-scores every row of a subset, keeping row identity.
func Normalize(subset GeneSubset) (NormalizedSubset, error) {

	rows, err := ZScore(subset.Rows())
	if err != nil {
		return NormalizedSubset{}, err
	}

	ids := make([]string, len(subset.Genes))
	for i, g := range subset.Genes {
		ids[i] = g.GeneID
	}

	return NormalizedSubset{
		Columns: append([]TimePoint(nil), subset.Columns...),
		GeneIDs: ids,
		Labels:  subset.Symbols(),
		Rows:    rows,
	}, nil
}

// IsUndefinedRow reports whether a normalized row carries no usable value.
func IsUndefinedRow(row []float64) bool {
	for _, v := range row {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}
