package grouping

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/healthpath/healthpath-go/pkg/models"
)

// Ranker orders clusters by a weighted score of their centroids
type Ranker struct {
	weights []float64
}

// NewRanker resolves attribute-name weights against the schema. Attributes
// without a weight do not contribute to the score.
func NewRanker(schema *models.Schema, weights map[string]float64) (*Ranker, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("at least one scoring weight is required")
	}
	cols := make([]float64, len(schema.Attributes))
	for name, w := range weights {
		i, ok := schema.Index(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAttribute, name)
		}
		cols[i] = w
	}
	return &Ranker{weights: cols}, nil
}

// Weights returns the per-column weights
func (r *Ranker) Weights() []float64 {
	out := make([]float64, len(r.weights))
	copy(out, r.weights)
	return out
}

// Rank computes centroids and scores for every label in [0, k) and assigns
// ordinal groups in ascending score order. Equal scores keep ascending label
// order. Every label must have at least one member.
func (r *Ranker) Rank(x mat.Matrix, labels []int, k int) (*models.RiskMapping, error) {
	n, d := x.Dims()
	if n != len(labels) {
		return nil, fmt.Errorf("%w: %d rows, %d labels", ErrDimensionMismatch, n, len(labels))
	}
	if d != len(r.weights) {
		return nil, fmt.Errorf("%w: %d columns, %d weights", ErrDimensionMismatch, d, len(r.weights))
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k=%d", ErrInvalidClusterCount, k)
	}

	sums := make([][]float64, k)
	sizes := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, d)
	}
	row := make([]float64, d)
	for i, label := range labels {
		if label < 0 || label >= k {
			return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrLabelOutOfRange, label, k)
		}
		mat.Row(row, i, x)
		floats.Add(sums[label], row)
		sizes[label]++
	}

	clusters := make([]models.ClusterProfile, k)
	for c := 0; c < k; c++ {
		if sizes[c] == 0 {
			return nil, fmt.Errorf("%w: label %d", ErrEmptyCluster, c)
		}
		floats.Scale(1/float64(sizes[c]), sums[c])
		clusters[c] = models.ClusterProfile{
			Label:    c,
			Size:     sizes[c],
			Score:    floats.Dot(sums[c], r.weights),
			Centroid: sums[c],
		}
	}

	order := make([]int, k)
	for c := range order {
		order[c] = c
	}
	sort.SliceStable(order, func(a, b int) bool {
		return clusters[order[a]].Score < clusters[order[b]].Score
	})

	groups := make([]int, k)
	for group, label := range order {
		groups[label] = group
		clusters[label].Group = group
	}

	return &models.RiskMapping{Groups: groups, Clusters: clusters}, nil
}
