package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/healthpath/healthpath-go/pkg/models"
)

// DefaultClusterCount is the number of ordinal risk groups
const DefaultClusterCount = 4

// DefaultPolicy returns the twelve-attribute health schema scored on BMI,
// stress, sleep and mental health with four groups
func DefaultPolicy() *models.GroupingPolicy {
	return &models.GroupingPolicy{
		Schema:         *models.DefaultHealthSchema(),
		Weights:        models.DefaultRiskWeights(),
		ClusterCount:   DefaultClusterCount,
		UnseenCategory: models.UnseenFirstCode,
	}
}

// LoadPolicy reads a grouping policy from a YAML file. Sections left out of
// the file fall back to DefaultPolicy.
//
//	cluster_count: 4
//	unseen_category: sentinel
//	weights:
//	  BMI: 1
//	  Sleep_Hours_Per_Night: -1
//	schema:
//	  attributes:
//	    - name: BMI
//	      kind: numeric
//	      min: 0
//	      max: 60
func LoadPolicy(path string) (*models.GroupingPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var policy models.GroupingPolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	defaults := DefaultPolicy()
	if len(policy.Schema.Attributes) == 0 {
		policy.Schema = defaults.Schema
	}
	if len(policy.Weights) == 0 {
		policy.Weights = defaults.Weights
	}
	if policy.ClusterCount == 0 {
		policy.ClusterCount = defaults.ClusterCount
	}
	if policy.UnseenCategory == "" {
		policy.UnseenCategory = defaults.UnseenCategory
	}

	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy %s: %w", path, err)
	}
	return &policy, nil
}

// ResolvePolicy loads the policy named by the configuration, or the default
// one, and applies the environment overrides on top
func (c *Config) ResolvePolicy() (*models.GroupingPolicy, error) {
	policy := DefaultPolicy()
	if c.PolicyPath != "" {
		loaded, err := LoadPolicy(c.PolicyPath)
		if err != nil {
			return nil, err
		}
		policy = loaded
	}

	if c.ClusterCount > 0 {
		policy.ClusterCount = c.ClusterCount
	}
	if c.UnseenCategory != "" {
		policy.UnseenCategory = c.UnseenCategory
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}
