package models

import (
	"fmt"
	"time"
)

// UnseenCategoryPolicy selects the code used for categorical values that
// were not observed when the encoder was fitted
type UnseenCategoryPolicy string

const (
	UnseenFirstCode       UnseenCategoryPolicy = "first-code"        // code 0
	UnseenSentinel        UnseenCategoryPolicy = "sentinel"          // code of the none sentinel
	UnseenOutOfVocabulary UnseenCategoryPolicy = "out-of-vocabulary" // code equal to the domain size
)

// Valid reports whether the policy is recognized
func (p UnseenCategoryPolicy) Valid() bool {
	switch p {
	case UnseenFirstCode, UnseenSentinel, UnseenOutOfVocabulary:
		return true
	}
	return false
}

// GroupingPolicy bundles the schema, scoring weights and cluster count
type GroupingPolicy struct {
	Schema         Schema               `json:"schema" yaml:"schema"`
	Weights        map[string]float64   `json:"weights" yaml:"weights"`
	ClusterCount   int                  `json:"cluster_count" yaml:"cluster_count"`
	UnseenCategory UnseenCategoryPolicy `json:"unseen_category" yaml:"unseen_category"`
}

// Validate checks the policy for consistency
func (p *GroupingPolicy) Validate() error {
	if err := p.Schema.Validate(); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	if p.ClusterCount < 1 {
		return fmt.Errorf("cluster_count must be at least 1")
	}
	if len(p.Weights) == 0 {
		return fmt.Errorf("at least one scoring weight is required")
	}
	for name := range p.Weights {
		if _, ok := p.Schema.Index(name); !ok {
			return fmt.Errorf("weight references unknown attribute: %s", name)
		}
	}
	if p.UnseenCategory != "" && !p.UnseenCategory.Valid() {
		return fmt.Errorf("invalid unseen_category: %s", p.UnseenCategory)
	}
	return nil
}

// DefaultRiskWeights is the interpretable four-attribute scoring policy
func DefaultRiskWeights() map[string]float64 {
	return map[string]float64{
		"BMI":                   1,
		"Stress_Level":          1,
		"Sleep_Hours_Per_Night": -1,
		"Mental_Health_Score":   -1,
	}
}

// ClusterProfile describes one cluster of a fit
type ClusterProfile struct {
	Label    int       `json:"label"`
	Group    int       `json:"group"`
	Size     int       `json:"size"`
	Score    float64   `json:"score"`
	Centroid []float64 `json:"centroid"`
}

// RiskMapping maps raw cluster labels to ordinal risk groups for one fit.
// Groups is indexed by label.
type RiskMapping struct {
	Groups   []int            `json:"groups"`
	Clusters []ClusterProfile `json:"clusters"`
}

// GroupOf returns the ordinal group for a label
func (m *RiskMapping) GroupOf(label int) (int, error) {
	if m == nil || label < 0 || label >= len(m.Groups) {
		return 0, fmt.Errorf("label %d not covered by risk mapping", label)
	}
	return m.Groups[label], nil
}

// Advisory flags an input value outside its plausible range
type Advisory struct {
	Attribute string  `json:"attribute"`
	Value     float64 `json:"value"`
	Message   string  `json:"message"`
}

// Assessment is the outcome of classifying one individual
type Assessment struct {
	ID             string       `json:"id"`
	ReferenceID    string       `json:"reference_id"`
	Group          int          `json:"group"`
	GroupLabel     string       `json:"group_label"`
	Label          int          `json:"label"`
	Mapping        *RiskMapping `json:"mapping,omitempty"`
	Advisories     []Advisory   `json:"advisories,omitempty"`
	Fallbacks      []string     `json:"fallbacks,omitempty"` // attributes encoded with the unseen-category fallback
	EncodedFeature []float64    `json:"encoded_features,omitempty"`
	Merges         []Merge      `json:"merges,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Merge records one agglomeration step of the refit that placed an
// individual. A and B are the ids of the merged clusters: ids below the row
// count are single rows, id rows+i is the cluster produced by step i.
type Merge struct {
	A    int     `json:"a"`
	B    int     `json:"b"`
	Cost float64 `json:"cost"`
	Size int     `json:"size"`
}

// AssessmentRequest is the body of an assessment request
type AssessmentRequest struct {
	Attributes map[string]any `json:"attributes"`
	Explain    bool           `json:"explain,omitempty"`
}

// Validate checks if the AssessmentRequest is valid
func (r *AssessmentRequest) Validate() error {
	if len(r.Attributes) == 0 {
		return fmt.Errorf("attributes are required")
	}
	return nil
}

// ReferenceSummary describes the currently loaded reference population
type ReferenceSummary struct {
	ID           string              `json:"id"`
	Records      int                 `json:"records"`
	ClusterCount int                 `json:"cluster_count"`
	Attributes   []string            `json:"attributes"`
	Domains      map[string][]string `json:"domains"`
	Mapping      *RiskMapping        `json:"mapping"`
	LoadedAt     time.Time           `json:"loaded_at"`
}

var groupLabels = []string{
	"Top shape",
	"Doing well",
	"Managing challenges",
	"Needs more support",
}

// GroupLabel returns a short description of an ordinal group. Groups beyond
// the four named ones fall back to a numbered label.
func GroupLabel(group, clusterCount int) string {
	if clusterCount == len(groupLabels) && group >= 0 && group < len(groupLabels) {
		return groupLabels[group]
	}
	return fmt.Sprintf("Group %d of %d", group, clusterCount)
}
