package grouping

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/healthpath/healthpath-go/pkg/models"
)

// Clusterer partitions the rows of a matrix into k clusters
type Clusterer interface {
	FitPredict(x mat.Matrix, k int) ([]int, error)
}

// HierarchicalClusterer is a Clusterer that also reports its merge history
type HierarchicalClusterer interface {
	Clusterer
	Fit(x mat.Matrix, k int) (*Hierarchy, error)
}

// Merge records one agglomeration step
type Merge = models.Merge

// Hierarchy is the result of a Ward fit
type Hierarchy struct {
	Labels []int
	Merges []Merge
}

// WardClusterer is agglomerative clustering with minimum-variance linkage
// over Euclidean distance.
//
// Fitting is O(n^3) time and O(n^2) memory. There is no way to place a new
// point into an existing hierarchy, so classification refits from scratch.
type WardClusterer struct{}

// NewWardClusterer creates a Ward clusterer
func NewWardClusterer() *WardClusterer {
	return &WardClusterer{}
}

// FitPredict returns one label per row, in [0, k)
func (w *WardClusterer) FitPredict(x mat.Matrix, k int) ([]int, error) {
	h, err := w.Fit(x, k)
	if err != nil {
		return nil, err
	}
	return h.Labels, nil
}

// Fit agglomerates rows until k clusters remain.
//
// Dissimilarities are squared Euclidean distances updated with the
// Lance-Williams recurrence for Ward linkage; Cost is the increase in
// within-cluster sum of squares caused by the merge. When several pairs share
// the minimum, the pair that comes first in (i, j) scan order wins, so a
// given matrix always yields the same partition. Labels are numbered by the
// first row that belongs to each cluster.
func (w *WardClusterer) Fit(x mat.Matrix, k int) (*Hierarchy, error) {
	n, _ := x.Dims()
	if n == 0 {
		return nil, ErrEmptyMatrix
	}
	if k < 1 || k > n {
		return nil, fmt.Errorf("%w: k=%d with %d rows", ErrInvalidClusterCount, k, n)
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
	}

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := floats.Distance(rows[i], rows[j], 2)
			dist[i][j] = d * d
			dist[j][i] = d * d
		}
	}

	size := make([]int, n)
	id := make([]int, n)    // current hierarchy id of the cluster in slot i
	owner := make([]int, n) // slot holding each row
	active := make([]bool, n)
	for i := 0; i < n; i++ {
		size[i] = 1
		id[i] = i
		owner[i] = i
		active[i] = true
	}

	merges := make([]Merge, 0, n-k)
	for remaining := n; remaining > k; remaining-- {
		bi, bj := -1, -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && dist[i][j] < best {
					best = dist[i][j]
					bi, bj = i, j
				}
			}
		}

		si, sj := float64(size[bi]), float64(size[bj])
		for m := 0; m < n; m++ {
			if !active[m] || m == bi || m == bj {
				continue
			}
			sm := float64(size[m])
			d := ((si+sm)*dist[bi][m] + (sj+sm)*dist[bj][m] - sm*dist[bi][bj]) / (si + sj + sm)
			dist[bi][m] = d
			dist[m][bi] = d
		}

		merges = append(merges, Merge{
			A:    id[bi],
			B:    id[bj],
			Cost: best / 2,
			Size: size[bi] + size[bj],
		})

		size[bi] += size[bj]
		id[bi] = n + len(merges) - 1
		active[bj] = false
		for r := range owner {
			if owner[r] == bj {
				owner[r] = bi
			}
		}
	}

	labels := make([]int, n)
	numbering := make(map[int]int, k)
	for r, slot := range owner {
		label, ok := numbering[slot]
		if !ok {
			label = len(numbering)
			numbering[slot] = label
		}
		labels[r] = label
	}

	return &Hierarchy{Labels: labels, Merges: merges}, nil
}
