package model

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Merge is one step of an agglomerative clustering. Cluster ids below n are
// input rows; the cluster formed by merge k has id n+k.
type Merge struct {
	Left   int     `json:"left"`
	Right  int     `json:"right"`
	Height float64 `json:"height"`
	Size   int     `json:"size"`
}

// Clustering is the result of WardCluster.
type Clustering struct {
	Linkage []Merge
	// Order lists the input row indices in dendrogram leaf order.
	Order []int
	// Quality is the cophenetic correlation coefficient of the tree.
	Quality float64
}

// WardCluster clusters the rows of matrix with Ward's minimum variance linkage
// on Euclidean distances.
//
// Merges are found with the nearest-neighbour chain algorithm, sorted by
// height (stable) and relabelled so the lower cluster id is always the left
// child. Ties go to the lower row index, which makes the leaf order
// deterministic.
func WardCluster(matrix [][]float64) (Clustering, error) {

	const op = "WardCluster"

	n := len(matrix)
	if n < 2 {
		return Clustering{}, invalidInput(op, "need at least 2 rows to cluster, got %d", n)
	}

	width := len(matrix[0])
	for i, row := range matrix {
		if len(row) != width {
			return Clustering{}, invalidInput(op, "row %d has %d columns, expected %d", i, len(row), width)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Clustering{}, invalidInput(op, "row %d contains a non-finite value", i)
			}
		}
	}

	distances := pairwiseDistances(matrix)
	original := append([]float64(nil), distances...)

	linkage := labelMerges(nnChainWard(distances, n), n)
	order := leafOrder(linkage, n)

	return Clustering{
		Linkage: linkage,
		Order:   order,
		Quality: copheneticCorrelation(linkage, order, original, n),
	}, nil
}

// ClusterQuality returns only the cophenetic correlation of the Ward tree.
func ClusterQuality(matrix [][]float64) (float64, error) {
	c, err := WardCluster(matrix)
	if err != nil {
		return math.NaN(), err
	}
	return c.Quality, nil
}

// Index into a condensed (upper triangle, row major) distance vector.
func condensedIndex(n, i, j int) int {
	if i > j {
		i, j = j, i
	}
	return n*i - i*(i+1)/2 + (j - i - 1)
}

func pairwiseDistances(matrix [][]float64) []float64 {

	n := len(matrix)
	out := make([]float64, 0, n*(n-1)/2)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, floats.Distance(matrix[i], matrix[j], 2))
		}
	}

	return out
}

// Lance-Williams update for Ward linkage, in distance (not squared) form.
func wardDistance(dxi, dyi, dxy float64, nx, ny, ni int) float64 {

	t := 1.0 / float64(nx+ny+ni)
	sq := float64(ni+nx)*t*dxi*dxi +
		float64(ni+ny)*t*dyi*dyi -
		float64(ni)*t*dxy*dxy

	if sq < 0 {
		return 0
	}
	return math.Sqrt(sq)
}

// nnChainWard consumes the condensed distances and returns the merges in the
// order they were found, using row slots as cluster labels.
func nnChainWard(dist []float64, n int) []Merge {

	size := make([]int, n)
	for i := range size {
		size[i] = 1
	}

	chain := make([]int, 0, n)
	merges := make([]Merge, 0, n-1)

	for k := 0; k < n-1; k++ {

		if len(chain) == 0 {
			for i := 0; i < n; i++ {
				if size[i] > 0 {
					chain = append(chain, i)
					break
				}
			}
		}

		var x, y int
		var current float64

		for {
			x = chain[len(chain)-1]

			if len(chain) > 1 {
				y = chain[len(chain)-2]
				current = dist[condensedIndex(n, x, y)]
			} else {
				y = -1
				current = math.Inf(1)
			}

			for i := 0; i < n; i++ {
				if size[i] == 0 || i == x {
					continue
				}
				d := dist[condensedIndex(n, x, i)]
				if d < current || y == -1 {
					current = d
					y = i
				}
			}

			if len(chain) > 1 && y == chain[len(chain)-2] {
				break
			}
			chain = append(chain, y)
		}

		chain = chain[:len(chain)-2]

		if x > y {
			x, y = y, x
		}

		nx, ny := size[x], size[y]
		merges = append(merges, Merge{Left: x, Right: y, Height: current, Size: nx + ny})

		// The merged cluster lives in slot y from now on.
		size[x] = 0
		size[y] = nx + ny

		for i := 0; i < n; i++ {
			ni := size[i]
			if ni == 0 || i == y {
				continue
			}
			dist[condensedIndex(n, i, y)] = wardDistance(
				dist[condensedIndex(n, i, x)],
				dist[condensedIndex(n, i, y)],
				current, nx, ny, ni,
			)
		}
	}

	return merges
}

// labelMerges sorts merges by height and rewrites slot labels into cluster ids
// with a union-find, lower id on the left.
func labelMerges(merges []Merge, n int) []Merge {

	sorted := append([]Merge(nil), merges...)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Height < sorted[b].Height
	})

	parent := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
	}

	find := func(x int) int {
		root := x
		for parent[root] != root {
			root = parent[root]
		}
		for parent[x] != root {
			parent[x], x = root, parent[x]
		}
		return root
	}

	next := n
	sizes := make([]int, 2*n-1)
	for i := 0; i < n; i++ {
		sizes[i] = 1
	}

	for k := range sorted {
		xr, yr := find(sorted[k].Left), find(sorted[k].Right)
		if xr > yr {
			xr, yr = yr, xr
		}

		sorted[k].Left = xr
		sorted[k].Right = yr
		sorted[k].Size = sizes[xr] + sizes[yr]

		parent[xr] = next
		parent[yr] = next
		sizes[next] = sorted[k].Size
		next++
	}

	return sorted
}

// leafOrder walks the tree from the root, left child first.
func leafOrder(linkage []Merge, n int) []int {

	order := make([]int, 0, n)
	stack := []int{2*n - 2}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if id < n {
			order = append(order, id)
			continue
		}

		m := linkage[id-n]
		stack = append(stack, m.Right, m.Left)
	}

	return order
}

// copheneticCorrelation is the Pearson correlation between the original
// pairwise distances and the merge heights at which each pair first joins.
//
// Every cluster covers a contiguous run of the leaf order, so the members of
// both children of a merge are slices of order; no cophenetic matrix is built.
func copheneticCorrelation(linkage []Merge, order []int, original []float64, n int) float64 {

	start := make([]int, 2*n-1)
	end := make([]int, 2*n-1)

	for pos, leaf := range order {
		start[leaf] = pos
		end[leaf] = pos + 1
	}
	for k, m := range linkage {
		id := n + k
		start[id] = min(start[m.Left], start[m.Right])
		end[id] = max(end[m.Left], end[m.Right])
	}

	pairs := float64(len(original))
	meanX := stat.Mean(original, nil)

	meanY := 0.0
	for _, m := range linkage {
		left := end[m.Left] - start[m.Left]
		right := end[m.Right] - start[m.Right]
		meanY += m.Height * float64(left*right)
	}
	meanY /= pairs

	var sxx, syy, sxy float64

	for _, d := range original {
		sxx += (d - meanX) * (d - meanX)
	}

	for _, m := range linkage {
		dy := m.Height - meanY
		for _, a := range order[start[m.Left]:end[m.Left]] {
			for _, b := range order[start[m.Right]:end[m.Right]] {
				dx := original[condensedIndex(n, a, b)] - meanX
				sxy += dx * dy
				syy += dy * dy
			}
		}
	}

	// A constant vector has no correlation; identical constant vectors agree.
	if sxx == 0 || syy == 0 {
		if sxx == 0 && syy == 0 {
			return 1
		}
		return 0
	}

	r := sxy / math.Sqrt(sxx*syy)
	return math.Max(-1, math.Min(1, r))
}
