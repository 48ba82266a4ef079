package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threePhageMatrix(t *testing.T) *ExpressionMatrix {
	return mustMatrix(t, timePoints(t, "0", "1", "2"),
		gene("A", EntityPhage, 2.0, 0, 1, 9),
		gene("B", EntityPhage, 1.0, 0, 5, 5),
		gene("C", EntityPhage, 3.0, 0, 0, 1),
		gene("H", EntityHost, 0.5, 4, 2, 1),
	)
}

func rankedMatrix(t *testing.T) *ExpressionMatrix {
	return mustMatrix(t, timePoints(t, "Ctrl", "0", "5", "10"),
		gene("v0", EntityPhage, 3, 0, 1, 4, 9),
		gene("v1", EntityPhage, 1, 0, 8, 2, 1),
		gene("v2", EntityPhage, 4, 1, 1, 5, 2),
		gene("v3", EntityPhage, 2, 9, 3, 1, 0),
		gene("h0", EntityHost, 0, 1, 2, 3, 4),
	)
}

func TestBuildHeatmapClustersThreeGenes(t *testing.T) {

	h, err := BuildHeatmap(threePhageMatrix(t), HeatmapOptions{Entity: EntityPhage})
	require.NoError(t, err)
	require.NotNil(t, h)

	assert.True(t, h.Clustered)
	assert.Equal(t, []string{"0", "1", "2"}, h.X)
	assert.Equal(t, []string{"B", "A", "C"}, h.Y)
	require.Len(t, h.Z, 3)

	// Rows travel with their labels.
	assert.InDelta(t, -1.1547, h.Z[0][0], 1e-4)
	assert.InDelta(t, 1.1547, h.Z[2][2], 1e-4)
	for _, row := range h.Z {
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		assert.InDelta(t, 0, sum, 1e-9)
	}

	assert.GreaterOrEqual(t, h.Quality, -1.0)
	assert.LessOrEqual(t, h.Quality, 1.0)
}

func TestBuildHeatmapHostOnly(t *testing.T) {

	h, err := BuildHeatmap(threePhageMatrix(t), HeatmapOptions{Entity: EntityHost})
	require.NoError(t, err)
	require.NotNil(t, h)

	// A single row is never clustered.
	assert.False(t, h.Clustered)
	assert.Equal(t, []string{"H"}, h.Y)
}

func TestBuildHeatmapRankWindow(t *testing.T) {

	m := rankedMatrix(t)

	h, err := BuildHeatmap(m, HeatmapOptions{Entity: EntityPhage, RankWindow: &RankWindow{Min: 2, Max: 2}})
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, []string{"v0"}, h.Y)
	assert.False(t, h.Clustered)
	assert.True(t, math.IsNaN(h.Quality))

	h, err = BuildHeatmap(m, HeatmapOptions{Entity: EntityPhage, RankWindow: &RankWindow{Min: 0, Max: 1}})
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.ElementsMatch(t, []string{"v1", "v3"}, h.Y)
	assert.True(t, h.Clustered)

	// Windows past the end are clamped.
	h, err = BuildHeatmap(m, HeatmapOptions{Entity: EntityPhage, RankWindow: &RankWindow{Min: 3, Max: 40}})
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, []string{"v2"}, h.Y)

	h, err = BuildHeatmap(m, HeatmapOptions{Entity: EntityPhage, RankWindow: &RankWindow{Min: 10, Max: 12}})
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestBuildHeatmapRejectsBadWindow(t *testing.T) {

	for _, w := range []RankWindow{{Min: 3, Max: 1}, {Min: -1, Max: 2}} {
		_, err := BuildHeatmap(rankedMatrix(t), HeatmapOptions{Entity: EntityPhage, RankWindow: &w})
		var inv *InvalidInputError
		assert.True(t, errors.As(err, &inv), "window %+v", w)
	}
}

func TestBuildHeatmapGeneList(t *testing.T) {

	m := rankedMatrix(t)

	h, err := BuildHeatmap(m, HeatmapOptions{Entity: EntityPhage, GeneSymbols: []string{}})
	require.NoError(t, err)
	assert.Nil(t, h)

	h, err = BuildHeatmap(m, HeatmapOptions{Entity: EntityPhage, GeneSymbols: []string{"v3"}})
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, []string{"v3"}, h.Y)
	assert.False(t, h.Clustered)

	// Host symbols are not phage genes.
	h, err = BuildHeatmap(m, HeatmapOptions{Entity: EntityPhage, GeneSymbols: []string{"h0"}})
	require.NoError(t, err)
	assert.Nil(t, h)

	h, err = BuildHeatmap(m, HeatmapOptions{Entity: EntityPhage, GeneSymbols: []string{"v0", "v2", "missing"}})
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.ElementsMatch(t, []string{"v0", "v2"}, h.Y)
	assert.True(t, h.Clustered)
}

func TestBuildHeatmapWindowThenGeneList(t *testing.T) {

	// Window keeps v1, v3, v0; the list then drops v3.
	h, err := BuildHeatmap(rankedMatrix(t), HeatmapOptions{
		Entity:      EntityPhage,
		RankWindow:  &RankWindow{Min: 0, Max: 2},
		GeneSymbols: []string{"v0", "v1", "v2"},
	})
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.ElementsMatch(t, []string{"v0", "v1"}, h.Y)
}

func TestBuildHeatmapConstantGene(t *testing.T) {

	m := mustMatrix(t, timePoints(t, "0", "5", "10"),
		gene("flat", EntityPhage, 0, 2, 2, 2),
		gene("up", EntityPhage, 1, 0, 1, 2),
		gene("down", EntityPhage, 1, 2, 1, 0),
	)

	h, err := BuildHeatmap(m, HeatmapOptions{Entity: EntityPhage})
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Len(t, h.Y, 3)

	for i, label := range h.Y {
		if label == "flat" {
			assert.True(t, IsUndefinedRow(h.Z[i]))
		}
	}

	out, err := json.Marshal(h)
	require.NoError(t, err)
	assert.Contains(t, string(out), "[null,null,null]")
	assert.NotContains(t, string(out), "Quality")
}

func TestBuildHeatmapUnknownEntity(t *testing.T) {
	_, err := BuildHeatmap(threePhageMatrix(t), HeatmapOptions{Entity: "plasmid"})
	assert.Error(t, err)
}
