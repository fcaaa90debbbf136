package grouping

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/healthpath/healthpath-go/pkg/models"
)

// Classification is the outcome of placing one individual into the risk
// ordering. Label and Mapping always come from the same refit. Merges is
// that refit's history and is only filled by hierarchical clusterers.
type Classification struct {
	Label   int
	Group   int
	Mapping *models.RiskMapping
	Encoded EncodedRow
	Merges  []Merge
}

// Classify encodes an individual with the frozen encoder, refits the
// clusterer over the reference rows followed by the individual, and ranks
// the clusters of that same refit. The reference matrix is never modified.
func Classify(
	rec models.Record,
	reference mat.Matrix,
	enc *EncodingState,
	k int,
	clusterer Clusterer,
	ranker *Ranker,
) (*Classification, error) {
	encoded, err := enc.EncodeRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode individual: %w", err)
	}

	n, d := reference.Dims()
	if d != len(encoded.Values) {
		return nil, fmt.Errorf("%w: reference has %d columns, individual has %d", ErrDimensionMismatch, d, len(encoded.Values))
	}

	combined := mat.NewDense(n+1, d, nil)
	if n > 0 {
		combined.Slice(0, n, 0, d).(*mat.Dense).Copy(reference)
	}
	combined.SetRow(n, encoded.Values)

	var (
		labels []int
		merges []Merge
	)
	if hc, ok := clusterer.(HierarchicalClusterer); ok {
		h, err := hc.Fit(combined, k)
		if err != nil {
			return nil, fmt.Errorf("failed to refit clusters: %w", err)
		}
		labels, merges = h.Labels, h.Merges
	} else {
		labels, err = clusterer.FitPredict(combined, k)
		if err != nil {
			return nil, fmt.Errorf("failed to refit clusters: %w", err)
		}
	}

	mapping, err := ranker.Rank(combined, labels, k)
	if err != nil {
		return nil, fmt.Errorf("failed to rank refit clusters: %w", err)
	}

	label := labels[n]
	group, err := mapping.GroupOf(label)
	if err != nil {
		return nil, err
	}

	return &Classification{
		Label:   label,
		Group:   group,
		Mapping: mapping,
		Encoded: encoded,
		Merges:  merges,
	}, nil
}

// Options configures a Reference
type Options struct {
	ClusterCount int
	Weights      map[string]float64
	Unseen       models.UnseenCategoryPolicy
	Clusterer    Clusterer // defaults to Ward
}

// Reference is the fitted, read-only view of a reference population: the
// encoder state, the encoded matrix and the mapping of the reference-only
// fit. It is built once and shared by concurrent classifications.
type Reference struct {
	encoder   *EncodingState
	matrix    *mat.Dense
	k         int
	clusterer Clusterer
	ranker    *Ranker
	mapping   *models.RiskMapping
}

// NewReference fits the encoder, clusters the reference population and
// checks that every cluster can be ranked
func NewReference(pop *models.Population, opts Options) (*Reference, error) {
	if opts.Clusterer == nil {
		opts.Clusterer = NewWardClusterer()
	}

	enc, err := FitEncoder(pop, opts.Unseen)
	if err != nil {
		return nil, fmt.Errorf("failed to fit encoder: %w", err)
	}

	matrix, err := enc.Transform(pop.Records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode reference population: %w", err)
	}

	ranker, err := NewRanker(pop.Schema, opts.Weights)
	if err != nil {
		return nil, fmt.Errorf("failed to build ranker: %w", err)
	}

	labels, err := opts.Clusterer.FitPredict(matrix, opts.ClusterCount)
	if err != nil {
		return nil, fmt.Errorf("failed to cluster reference population: %w", err)
	}

	mapping, err := ranker.Rank(matrix, labels, opts.ClusterCount)
	if err != nil {
		return nil, fmt.Errorf("failed to rank reference clusters: %w", err)
	}

	return &Reference{
		encoder:   enc,
		matrix:    matrix,
		k:         opts.ClusterCount,
		clusterer: opts.Clusterer,
		ranker:    ranker,
		mapping:   mapping,
	}, nil
}

// Classify places an individual into the risk ordering
func (r *Reference) Classify(rec models.Record) (*Classification, error) {
	return Classify(rec, r.matrix, r.encoder, r.k, r.clusterer, r.ranker)
}

// Encoder returns the fitted encoder state
func (r *Reference) Encoder() *EncodingState {
	return r.encoder
}

// Matrix returns a read-only view of the encoded reference population
func (r *Reference) Matrix() mat.Matrix {
	return r.matrix
}

// Size returns the number of reference records
func (r *Reference) Size() int {
	n, _ := r.matrix.Dims()
	return n
}

// ClusterCount returns k
func (r *Reference) ClusterCount() int {
	return r.k
}

// Mapping returns a copy of the reference-only risk mapping
func (r *Reference) Mapping() *models.RiskMapping {
	out := &models.RiskMapping{
		Groups:   append([]int(nil), r.mapping.Groups...),
		Clusters: make([]models.ClusterProfile, len(r.mapping.Clusters)),
	}
	for i, c := range r.mapping.Clusters {
		c.Centroid = append([]float64(nil), c.Centroid...)
		out.Clusters[i] = c
	}
	return out
}
