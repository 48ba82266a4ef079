package db

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/yumyai/phageatlas/pkg/model"
)

// Non-time columns of an exported matrix file. Matched case-insensitively.
const (
	colGeneID         = "geneid"
	colEntity         = "entity"
	colSymbol         = "symbol"
	colClassThreshold = "classthreshold"
	colClassMax       = "classmax"
	colVariance       = "variance"
)

var missingValues = map[string]bool{"": true, "na": true, "nan": true, "null": true}

// ReadMatrixTSV parses a tab separated expression matrix. The first column
// holds gene ids; Entity is required, Symbol, ClassThreshold, ClassMax and
// Variance are optional. Every other column is a time point.
//
// Time columns are put into canonical order (control first, then ascending
// minutes). A missing Variance column is filled with the stabilized variance
// of each row.
func ReadMatrixTSV(r io.Reader) (*model.ExpressionMatrix, error) {

	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("matrix file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	layout, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	var genes []model.GeneRecord
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		g, err := layout.gene(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		genes = append(genes, g)
	}

	return model.NewExpressionMatrix(layout.columns(), genes)
}

type timeColumn struct {
	point model.TimePoint
	field int
}

type tsvLayout struct {
	meta  map[string]int
	times []timeColumn // canonical order
}

func parseHeader(header []string) (*tsvLayout, error) {

	if len(header) < 2 {
		return nil, fmt.Errorf("header has %d columns", len(header))
	}

	layout := &tsvLayout{meta: map[string]int{colGeneID: 0}}

	for i, name := range header[1:] {
		field := i + 1
		key := strings.ToLower(strings.TrimSpace(name))

		switch key {
		case colEntity, colSymbol, colClassThreshold, colClassMax, colVariance:
			if _, dup := layout.meta[key]; dup {
				return nil, fmt.Errorf("duplicate column %q", name)
			}
			layout.meta[key] = field
			continue
		}

		tp, err := model.ParseTimePoint(name)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		layout.times = append(layout.times, timeColumn{point: tp, field: field})
	}

	if _, ok := layout.meta[colEntity]; !ok {
		return nil, fmt.Errorf("missing Entity column")
	}

	sort.SliceStable(layout.times, func(i, j int) bool {
		return layout.times[i].point.Before(layout.times[j].point)
	})

	return layout, nil
}

func (l *tsvLayout) columns() []model.TimePoint {
	cols := make([]model.TimePoint, len(l.times))
	for i, c := range l.times {
		cols[i] = c.point
	}
	return cols
}

func (l *tsvLayout) field(record []string, key string) (string, bool) {
	i, ok := l.meta[key]
	if !ok {
		return "", false
	}
	return strings.TrimSpace(record[i]), true
}

func (l *tsvLayout) gene(record []string) (model.GeneRecord, error) {

	var g model.GeneRecord

	g.GeneID, _ = l.field(record, colGeneID)

	entity, _ := l.field(record, colEntity)
	e, err := model.ParseEntity(entity)
	if err != nil {
		return g, fmt.Errorf("gene %q: %w", g.GeneID, err)
	}
	g.Entity = e

	g.Symbol, _ = l.field(record, colSymbol)
	if g.Symbol == "" {
		g.Symbol = g.GeneID
	}
	g.ClassThreshold, _ = l.field(record, colClassThreshold)
	g.ClassMax, _ = l.field(record, colClassMax)

	g.Values = make(model.Series, len(l.times))
	for i, c := range l.times {
		v, err := parseValue(record[c.field])
		if err != nil {
			return g, fmt.Errorf("gene %q at %s: %w", g.GeneID, c.point, err)
		}
		g.Values[i] = v
	}

	raw, ok := l.field(record, colVariance)
	if ok {
		if g.Variance, err = parseValue(raw); err != nil {
			return g, fmt.Errorf("gene %q variance: %w", g.GeneID, err)
		}
	} else {
		g.Variance = model.StabilizedVariance(g.Values)
	}

	return g, nil
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if missingValues[strings.ToLower(s)] {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
