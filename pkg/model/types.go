package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Entity string

const (
	EntityPhage Entity = "phage"
	EntityHost  Entity = "host"
)

func ParseEntity(s string) (Entity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "phage", "phages":
		return EntityPhage, nil
	case "host", "hosts":
		return EntityHost, nil
	default:
		return "", invalidInput("ParseEntity", "unknown entity %q", s)
	}
}

// Label of the pre-infection sample column.
const ControlLabel = "Ctrl"

// ControlTime is the time used for the control column when mapping to phases.
const ControlTime = -1

// TimePoint is one column of an expression matrix. It is either minutes post
// infection or the pre-infection control sample.
type TimePoint struct {
	Minutes int
	Control bool
}

func ParseTimePoint(label string) (TimePoint, error) {

	label = strings.TrimSpace(label)

	if strings.EqualFold(label, ControlLabel) {
		return TimePoint{Control: true}, nil
	}

	minutes, err := strconv.Atoi(label)
	if err != nil {
		return TimePoint{}, invalidInput("ParseTimePoint", "time point %q is neither %s nor an integer", label, ControlLabel)
	}
	if minutes < 0 {
		return TimePoint{}, invalidInput("ParseTimePoint", "negative time point %d", minutes)
	}

	return TimePoint{Minutes: minutes}, nil
}

// Time returns the minutes post infection, ControlTime for the control column.
func (t TimePoint) Time() int {
	if t.Control {
		return ControlTime
	}
	return t.Minutes
}

func (t TimePoint) String() string {
	if t.Control {
		return ControlLabel
	}
	return strconv.Itoa(t.Minutes)
}

// Before reports whether t must come before o in a matrix column order.
func (t TimePoint) Before(o TimePoint) bool {
	return t.Time() < o.Time()
}

func (t TimePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts both "5" and 5.
func (t *TimePoint) UnmarshalJSON(data []byte) error {

	var label string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &label); err != nil {
			return err
		}
	} else {
		label = string(data)
	}

	tp, err := ParseTimePoint(label)
	if err != nil {
		return err
	}
	*t = tp
	return nil
}

// Series is a row of expression values. Missing values are NaN and travel as
// JSON null.
type Series []float64

func (s Series) MarshalJSON() ([]byte, error) {

	if s == nil {
		return []byte("[]"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf.WriteString("null")
			continue
		}
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	buf.WriteByte(']')

	return buf.Bytes(), nil
}

func (s *Series) UnmarshalJSON(data []byte) error {

	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("series: %w", err)
	}

	out := make(Series, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.NaN()
		} else {
			out[i] = *v
		}
	}
	*s = out
	return nil
}

// Copy returns an independent copy of the series.
func (s Series) Copy() Series {
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// Max returns the largest present value and whether any value was present.
func (s Series) Max() (float64, bool) {

	peak := math.Inf(-1)
	found := false

	for _, v := range s {
		if math.IsNaN(v) {
			continue
		}
		if !found || v > peak {
			peak = v
			found = true
		}
	}

	return peak, found
}

// Present returns the non-missing values in column order.
func (s Series) Present() []float64 {
	out := make([]float64, 0, len(s))
	for _, v := range s {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// GeneRecord is one row of an expression matrix.
type GeneRecord struct {
	GeneID         string  `json:"geneID"`
	Symbol         string  `json:"symbol"`
	Entity         Entity  `json:"entity"`
	Values         Series  `json:"values"`
	Variance       float64 `json:"-"`
	ClassThreshold string  `json:"classThreshold,omitempty"`
	ClassMax       string  `json:"classMax,omitempty"`
}

func (g GeneRecord) copyRecord() GeneRecord {
	g.Values = g.Values.Copy()
	return g
}

// Variance is optional on the wire and may be NaN in memory.
func (g GeneRecord) MarshalJSON() ([]byte, error) {

	type plain GeneRecord

	wire := struct {
		plain
		Variance *float64 `json:"variance"`
	}{plain: plain(g)}

	if !math.IsNaN(g.Variance) && !math.IsInf(g.Variance, 0) {
		v := g.Variance
		wire.Variance = &v
	}

	return json.Marshal(wire)
}

func (g *GeneRecord) UnmarshalJSON(data []byte) error {

	type plain GeneRecord

	var wire struct {
		plain
		Variance *float64 `json:"variance"`
	}

	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*g = GeneRecord(wire.plain)
	if wire.Variance != nil {
		g.Variance = *wire.Variance
	} else {
		g.Variance = math.NaN()
	}
	return nil
}
