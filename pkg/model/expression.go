package model

import (
	"encoding/json"
	"fmt"
)

// ExpressionMatrix is a gene x time point table for one dataset. It is never
// mutated after construction; every accessor hands out copies.
type ExpressionMatrix struct {
	columns []TimePoint
	genes   []GeneRecord
	index   map[string]int // geneID -> row
}

// NewExpressionMatrix validates columns and rows and builds a matrix.
//
// Column order is part of the data: the control column (if any) comes first,
// followed by strictly increasing minutes. Phase classification depends on
// that order, so it is checked here rather than re-derived later.
func NewExpressionMatrix(columns []TimePoint, genes []GeneRecord) (*ExpressionMatrix, error) {

	const op = "NewExpressionMatrix"

	if err := validateColumnOrder(columns); err != nil {
		return nil, err
	}

	m := &ExpressionMatrix{
		columns: append([]TimePoint(nil), columns...),
		genes:   make([]GeneRecord, 0, len(genes)),
		index:   make(map[string]int, len(genes)),
	}

	for i, g := range genes {
		if g.GeneID == "" {
			return nil, invalidInput(op, "row %d has an empty gene id", i)
		}
		if _, dup := m.index[g.GeneID]; dup {
			return nil, invalidInput(op, "duplicate gene id %q", g.GeneID)
		}
		if g.Entity != EntityPhage && g.Entity != EntityHost {
			return nil, invalidInput(op, "gene %q has unknown entity %q", g.GeneID, g.Entity)
		}
		if len(g.Values) != len(columns) {
			return nil, invalidInput(op, "gene %q has %d values, expected %d", g.GeneID, len(g.Values), len(columns))
		}

		m.index[g.GeneID] = len(m.genes)
		m.genes = append(m.genes, g.copyRecord())
	}

	return m, nil
}

func validateColumnOrder(columns []TimePoint) error {

	const op = "NewExpressionMatrix"

	for i, c := range columns {
		if c.Control && i != 0 {
			return invalidInput(op, "control column must be the first column, found at position %d", i)
		}
		if i > 0 && !columns[i-1].Before(c) {
			return invalidInput(op, "column %s does not come after %s", c, columns[i-1])
		}
	}

	return nil
}

// Columns returns the time points in column order.
func (m *ExpressionMatrix) Columns() []TimePoint {
	return append([]TimePoint(nil), m.columns...)
}

// Labels returns the column labels ("Ctrl", "0", "5", ...).
func (m *ExpressionMatrix) Labels() []string {
	labels := make([]string, len(m.columns))
	for i, c := range m.columns {
		labels[i] = c.String()
	}
	return labels
}

func (m *ExpressionMatrix) Len() int {
	return len(m.genes)
}

// Gene returns a copy of row i.
func (m *ExpressionMatrix) Gene(i int) GeneRecord {
	return m.genes[i].copyRecord()
}

// Lookup returns a copy of the row with the given gene id.
func (m *ExpressionMatrix) Lookup(geneID string) (GeneRecord, bool) {
	i, ok := m.index[geneID]
	if !ok {
		return GeneRecord{}, false
	}
	return m.genes[i].copyRecord(), true
}

// Genes returns a copy of every row in matrix order.
func (m *ExpressionMatrix) Genes() []GeneRecord {
	out := make([]GeneRecord, len(m.genes))
	for i, g := range m.genes {
		out[i] = g.copyRecord()
	}
	return out
}

// Select returns the rows of one entity, in matrix order.
func (m *ExpressionMatrix) Select(entity Entity) GeneSubset {

	subset := GeneSubset{
		Columns: m.Columns(),
		Genes:   make([]GeneRecord, 0),
	}

	for _, g := range m.genes {
		if g.Entity == entity {
			subset.Genes = append(subset.Genes, g.copyRecord())
		}
	}

	return subset
}

// Count returns the number of rows of one entity.
func (m *ExpressionMatrix) Count(entity Entity) int {
	n := 0
	for _, g := range m.genes {
		if g.Entity == entity {
			n++
		}
	}
	return n
}

// Stored layout, also served by the raw matrix endpoint.
type matrixWire struct {
	Columns []TimePoint  `json:"columns"`
	Data    []GeneRecord `json:"data"`
}

func (m *ExpressionMatrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(matrixWire{
		Columns: m.columns,
		Data:    m.genes,
	})
}

func (m *ExpressionMatrix) UnmarshalJSON(data []byte) error {

	var wire matrixWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode expression matrix: %w", err)
	}

	built, err := NewExpressionMatrix(wire.Columns, wire.Data)
	if err != nil {
		return err
	}

	*m = *built
	return nil
}

// GeneSubset is a filtered, ordered view of matrix rows sharing one entity.
type GeneSubset struct {
	Columns []TimePoint
	Genes   []GeneRecord
}

func (s GeneSubset) Len() int {
	return len(s.Genes)
}

// Symbols returns the display labels in row order.
func (s GeneSubset) Symbols() []string {
	out := make([]string, len(s.Genes))
	for i, g := range s.Genes {
		out[i] = g.Symbol
	}
	return out
}

// Rows returns a copy of the value rows.
func (s GeneSubset) Rows() [][]float64 {
	out := make([][]float64, len(s.Genes))
	for i, g := range s.Genes {
		out[i] = g.Values.Copy()
	}
	return out
}
