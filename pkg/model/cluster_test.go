package model

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWardClusterSmallTree(t *testing.T) {

	c, err := WardCluster([][]float64{{0}, {1}, {10}})
	require.NoError(t, err)

	require.Len(t, c.Linkage, 2)
	assert.Equal(t, Merge{Left: 0, Right: 1, Height: 1, Size: 2}, c.Linkage[0])

	assert.Equal(t, 2, c.Linkage[1].Left)
	assert.Equal(t, 3, c.Linkage[1].Right)
	assert.InDelta(t, math.Sqrt(361.0/3.0), c.Linkage[1].Height, 1e-9)
	assert.Equal(t, 3, c.Linkage[1].Size)

	assert.Equal(t, []int{2, 0, 1}, c.Order)
	assert.InDelta(t, 0.995, c.Quality, 0.005)
}

func TestWardClusterIsPermutation(t *testing.T) {

	rng := rand.New(rand.NewSource(7))

	for _, n := range []int{2, 3, 5, 17, 60} {
		matrix := make([][]float64, n)
		for i := range matrix {
			matrix[i] = make([]float64, 6)
			for j := range matrix[i] {
				matrix[i][j] = rng.NormFloat64()
			}
		}

		c, err := WardCluster(matrix)
		require.NoError(t, err)

		got := append([]int(nil), c.Order...)
		sort.Ints(got)
		want := make([]int, n)
		for i := range want {
			want[i] = i
		}
		assert.Equal(t, want, got, "n=%d", n)

		assert.GreaterOrEqual(t, c.Quality, -1.0)
		assert.LessOrEqual(t, c.Quality, 1.0)

		// Heights never decrease along the sorted linkage.
		for k := 1; k < len(c.Linkage); k++ {
			assert.GreaterOrEqual(t, c.Linkage[k].Height, c.Linkage[k-1].Height)
		}
		assert.Equal(t, n, c.Linkage[len(c.Linkage)-1].Size)
	}
}

func TestWardClusterDeterministicTies(t *testing.T) {

	// Four identical rows: every distance ties.
	matrix := [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}}

	first, err := WardCluster(matrix)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := WardCluster(matrix)
		require.NoError(t, err)
		assert.Equal(t, first.Order, again.Order)
	}
	assert.Equal(t, []int{3, 2, 0, 1}, first.Order)
}

func TestWardClusterSeparatesGroups(t *testing.T) {

	matrix := [][]float64{
		{0, 0}, {10, 10}, {0.1, 0}, {10, 10.2}, {0, 0.2},
	}

	c, err := WardCluster(matrix)
	require.NoError(t, err)

	// The two groups occupy contiguous runs of the leaf order.
	pos := make(map[int]int)
	for p, i := range c.Order {
		pos[i] = p
	}
	low := []int{pos[0], pos[2], pos[4]}
	sort.Ints(low)
	assert.Equal(t, 2, low[2]-low[0])
	assert.Greater(t, c.Quality, 0.9)
}

func TestWardClusterRejectsBadInput(t *testing.T) {

	tests := []struct {
		name   string
		matrix [][]float64
	}{
		{"empty", nil},
		{"single row", [][]float64{{1, 2, 3}}},
		{"ragged", [][]float64{{1, 2}, {1}}},
		{"nan", [][]float64{{1, math.NaN()}, {1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := WardCluster(tt.matrix)
			var inv *InvalidInputError
			require.Error(t, err)
			assert.True(t, errors.As(err, &inv))
		})
	}
}

func TestClusterQuality(t *testing.T) {

	q, err := ClusterQuality([][]float64{{0}, {1}, {10}})
	require.NoError(t, err)
	assert.InDelta(t, 0.995, q, 0.005)

	q, err = ClusterQuality([][]float64{{0, 1}, {1, 0}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, q)

	_, err = ClusterQuality([][]float64{{1}})
	assert.Error(t, err)
}
