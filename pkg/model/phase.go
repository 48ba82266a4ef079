package model

import (
	"math"
)

// Phase is the temporal expression class of a phage gene.
type Phase string

const (
	PhaseNone      Phase = "none"
	PhaseEarly     Phase = "early"
	PhaseMiddle    Phase = "middle"
	PhaseLate      Phase = "late"
	PhaseAboveLate Phase = "above late bound"
)

// PhaseBounds are the caller supplied breakpoints, in minutes, and the
// fraction of a gene's peak that counts as "switched on".
//
// With T4 (Wolfram-Schauerte 2022) early=4, middle=7, late=20 and
// threshold=0.2 reproduce the precomputed ClassThreshold labels.
type PhaseBounds struct {
	Early     int     `json:"early"`
	Middle    int     `json:"middle"`
	Late      int     `json:"late"`
	Threshold float64 `json:"threshold"`
}

func (b PhaseBounds) Validate() error {

	const op = "ClassifyPhases"

	if math.IsNaN(b.Threshold) || b.Threshold < 0 || b.Threshold > 1 {
		return invalidInput(op, "threshold %v is outside [0, 1]", b.Threshold)
	}
	if b.Early <= 0 {
		return invalidInput(op, "early bound must be positive, got %d", b.Early)
	}
	if !(b.Early < b.Middle && b.Middle < b.Late) {
		return invalidInput(op, "bounds must satisfy early < middle < late, got %d, %d, %d", b.Early, b.Middle, b.Late)
	}

	return nil
}

// Label maps the time of first crossing to a phase.
func (b PhaseBounds) Label(t TimePoint) Phase {

	time := t.Time()

	switch {
	case time == 0:
		// Control (-1) is not 0 and falls through to early.
		return PhaseNone
	case time <= b.Early:
		return PhaseEarly
	case time <= b.Middle:
		return PhaseMiddle
	case time <= b.Late:
		return PhaseLate
	default:
		return PhaseAboveLate
	}
}

// FirstCrossing returns the position of the first column whose value reaches
// threshold * peak, or -1 when no present value does. A row that is all zero
// or all missing has no peak and never crosses.
//
// "First" is by column position, which the matrix guarantees to be control
// first and then ascending minutes.
func FirstCrossing(values Series, threshold float64) int {

	peak, ok := values.Max()
	if !ok || peak == 0 {
		return -1
	}

	cutoff := peak * threshold
	for i, v := range values {
		if !math.IsNaN(v) && v >= cutoff {
			return i
		}
	}

	return -1
}

// ClassifyPhases labels every phage gene of m. Genes whose values are all zero
// or missing never cross and are reported as PhaseAboveLate.
func ClassifyPhases(m *ExpressionMatrix, bounds PhaseBounds) (map[string]Phase, error) {

	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	columns := m.Columns()
	phages := m.Select(EntityPhage)
	phases := make(map[string]Phase, phages.Len())

	for _, g := range phages.Genes {
		idx := FirstCrossing(g.Values, bounds.Threshold)
		if idx < 0 {
			phases[g.GeneID] = PhaseAboveLate
			continue
		}
		phases[g.GeneID] = bounds.Label(columns[idx])
	}

	return phases, nil
}

// PhaseRecord is one (gene, time point) row of the long format phase table.
type PhaseRecord struct {
	GeneID string    `json:"geneID"`
	Symbol string    `json:"symbol"`
	Time   TimePoint `json:"time"`
	Value  *float64  `json:"value"`
	Phase  Phase     `json:"phase"`
}

// PhaseLongFormat joins phase labels back onto the phage rows of m and
// reshapes them to one record per gene and time point, gene-major.
func PhaseLongFormat(m *ExpressionMatrix, phases map[string]Phase) []PhaseRecord {

	columns := m.Columns()
	phages := m.Select(EntityPhage)
	out := make([]PhaseRecord, 0, phages.Len()*len(columns))

	for _, g := range phages.Genes {
		for j, c := range columns {
			out = append(out, PhaseRecord{
				GeneID: g.GeneID,
				Symbol: g.Symbol,
				Time:   c,
				Value:  valuePtr(g.Values[j]),
				Phase:  phases[g.GeneID],
			})
		}
	}

	return out
}

func valuePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
