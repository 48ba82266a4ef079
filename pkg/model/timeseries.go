package model

// TimeSeriesRecord is one (gene, time point) row of the long format table
// behind the time series plots.
type TimeSeriesRecord struct {
	Symbol         string    `json:"symbol"`
	GeneID         string    `json:"geneID"`
	Time           TimePoint `json:"time"`
	Value          *float64  `json:"value"`
	ClassMax       string    `json:"classMax"`
	ClassThreshold string    `json:"classThreshold"`
}

type TimeSeries struct {
	Phages []TimeSeriesRecord `json:"phages"`
	Hosts  []TimeSeriesRecord `json:"hosts"`
}

// BuildTimeSeries melts the matrix into long format, split by entity.
func BuildTimeSeries(m *ExpressionMatrix) TimeSeries {
	return TimeSeries{
		Phages: meltSubset(m.Select(EntityPhage)),
		Hosts:  meltSubset(m.Select(EntityHost)),
	}
}

func meltSubset(subset GeneSubset) []TimeSeriesRecord {

	out := make([]TimeSeriesRecord, 0, subset.Len()*len(subset.Columns))

	for _, g := range subset.Genes {
		for j, c := range subset.Columns {
			out = append(out, TimeSeriesRecord{
				Symbol:         g.Symbol,
				GeneID:         g.GeneID,
				Time:           c,
				Value:          valuePtr(g.Values[j]),
				ClassMax:       g.ClassMax,
				ClassThreshold: g.ClassThreshold,
			})
		}
	}

	return out
}

// GeneCounts is the number of phage and host rows of a dataset, used to size
// the rank window sliders.
type GeneCounts struct {
	Phages int `json:"phages"`
	Hosts  int `json:"hosts"`
}

func CountGenes(m *ExpressionMatrix) GeneCounts {
	return GeneCounts{
		Phages: m.Count(EntityPhage),
		Hosts:  m.Count(EntityHost),
	}
}
