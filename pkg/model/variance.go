package model

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// StabilizedVariance is the population variance of the present values divided
// by their mean. It is NaN when no value is present or the mean
// is zero.
func StabilizedVariance(values Series) float64 {

	present := values.Present()
	if len(present) == 0 {
		return math.NaN()
	}

	mean, variance := stat.PopMeanVariance(present, nil)
	if mean == 0 {
		return math.NaN()
	}

	return variance / mean
}
