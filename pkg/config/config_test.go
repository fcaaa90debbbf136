package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/healthpath/healthpath-go/pkg/models"
)

// TestLoadConfig tests configuration loading
func TestLoadConfig(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("PORT", "9090")
	t.Setenv("DATASET_PATH", "/data/reference.db")
	t.Setenv("CLUSTER_COUNT", "5")
	t.Setenv("UNSEEN_CATEGORY", "sentinel")
	t.Setenv("RELOAD_SCHEDULE", "0 3 * * *")
	t.Setenv("MAX_REFERENCE_SIZE", "500")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://healthpath.example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Environment != "test" {
		t.Errorf("Expected environment 'test', got '%s'", cfg.Environment)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", cfg.LogLevel)
	}

	if cfg.LogFormat != "json" {
		t.Errorf("Expected log format 'json', got '%s'", cfg.LogFormat)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", cfg.Port)
	}

	if cfg.DatasetFormat != FormatSQLite {
		t.Errorf("Expected dataset format inferred as sqlite, got '%s'", cfg.DatasetFormat)
	}

	if cfg.ClusterCount != 5 {
		t.Errorf("Expected ClusterCount 5, got %d", cfg.ClusterCount)
	}

	if cfg.UnseenCategory != models.UnseenSentinel {
		t.Errorf("Expected unseen category 'sentinel', got '%s'", cfg.UnseenCategory)
	}

	if cfg.ReloadSchedule != "0 3 * * *" {
		t.Errorf("Expected reload schedule '0 3 * * *', got '%s'", cfg.ReloadSchedule)
	}

	if cfg.MaxReferenceSize != 500 {
		t.Errorf("Expected MaxReferenceSize 500, got %d", cfg.MaxReferenceSize)
	}

	want := []string{"http://localhost:3000", "https://healthpath.example"}
	if !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Errorf("Expected CORS origins %v, got %v", want, cfg.CORSOrigins)
	}
}

// TestLoadConfigDefaults tests default values
func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATASET_PATH", "reference.csv")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("Expected default environment 'development', got '%s'", cfg.Environment)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port '8080', got '%s'", cfg.Port)
	}

	if cfg.DatasetFormat != FormatCSV {
		t.Errorf("Expected default dataset format 'csv', got '%s'", cfg.DatasetFormat)
	}

	if cfg.DatasetName != "reference" {
		t.Errorf("Expected default dataset name 'reference', got '%s'", cfg.DatasetName)
	}

	if cfg.MaxReferenceSize != 2000 {
		t.Errorf("Expected default MaxReferenceSize 2000, got %d", cfg.MaxReferenceSize)
	}

	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("Expected default CORS origins [*], got %v", cfg.CORSOrigins)
	}
}

// TestLoadConfigValidation tests rejected configurations
func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing dataset", map[string]string{}},
		{"bad format", map[string]string{"DATASET_PATH": "x.csv", "DATASET_FORMAT": "parquet"}},
		{"negative clusters", map[string]string{"DATASET_PATH": "x.csv", "CLUSTER_COUNT": "-2"}},
		{"bad unseen policy", map[string]string{"DATASET_PATH": "x.csv", "UNSEEN_CATEGORY": "nearest"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATASET_PATH", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestInferFormat(t *testing.T) {
	cases := map[string]string{
		"data.csv":        FormatCSV,
		"data.DB":         FormatSQLite,
		"ref.sqlite3":     FormatSQLite,
		"no-extension":    FormatCSV,
		"/tmp/pop.sqlite": FormatSQLite,
	}
	for path, want := range cases {
		if got := InferFormat(path); got != want {
			t.Errorf("InferFormat(%q) = %s, want %s", path, got, want)
		}
	}
}

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write policy: %v", err)
	}
	return path
}

func TestLoadPolicy(t *testing.T) {
	path := writePolicy(t, `
cluster_count: 3
unseen_category: out-of-vocabulary
weights:
  Load: 2
  Rest: -1
schema:
  attributes:
    - name: Load
      kind: numeric
      min: 0
      max: 10
    - name: Rest
      kind: numeric
    - name: Mood
      kind: categorical
      levels: [Low, High]
      none: Unknown
      default: Low
`)

	policy, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("Failed to load policy: %v", err)
	}

	if policy.ClusterCount != 3 {
		t.Errorf("Expected cluster count 3, got %d", policy.ClusterCount)
	}
	if policy.UnseenCategory != models.UnseenOutOfVocabulary {
		t.Errorf("Expected out-of-vocabulary, got %s", policy.UnseenCategory)
	}
	if len(policy.Schema.Attributes) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(policy.Schema.Attributes))
	}
	load := policy.Schema.Attributes[0]
	if load.Max == nil || *load.Max != 10 {
		t.Errorf("Expected Load max 10, got %v", load.Max)
	}
	mood := policy.Schema.Attributes[2]
	if mood.NoneValue() != "Unknown" || mood.Default != "Low" || len(mood.Levels) != 2 {
		t.Errorf("Unexpected Mood attribute: %+v", mood)
	}
	if policy.Weights["Load"] != 2 || policy.Weights["Rest"] != -1 {
		t.Errorf("Unexpected weights: %v", policy.Weights)
	}
}

func TestLoadPolicyDefaults(t *testing.T) {
	policy, err := LoadPolicy(writePolicy(t, "cluster_count: 5\n"))
	if err != nil {
		t.Fatalf("Failed to load policy: %v", err)
	}

	if policy.ClusterCount != 5 {
		t.Errorf("Expected cluster count 5, got %d", policy.ClusterCount)
	}
	if len(policy.Schema.Attributes) != 12 {
		t.Errorf("Expected default schema, got %d attributes", len(policy.Schema.Attributes))
	}
	if !reflect.DeepEqual(policy.Weights, models.DefaultRiskWeights()) {
		t.Errorf("Expected default weights, got %v", policy.Weights)
	}
	if policy.UnseenCategory != models.UnseenFirstCode {
		t.Errorf("Expected first-code, got %s", policy.UnseenCategory)
	}
}

func TestLoadPolicyErrors(t *testing.T) {
	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	if _, err := LoadPolicy(writePolicy(t, "weights: [1, 2\n")); err == nil {
		t.Error("Expected error for malformed YAML")
	}

	if _, err := LoadPolicy(writePolicy(t, "weights:\n  Height: 1\n")); err == nil {
		t.Error("Expected error for weight on unknown attribute")
	}
}

func TestResolvePolicy(t *testing.T) {
	cfg := &Config{ClusterCount: 6, UnseenCategory: models.UnseenSentinel}
	policy, err := cfg.ResolvePolicy()
	if err != nil {
		t.Fatalf("Failed to resolve policy: %v", err)
	}
	if policy.ClusterCount != 6 {
		t.Errorf("Expected override cluster count 6, got %d", policy.ClusterCount)
	}
	if policy.UnseenCategory != models.UnseenSentinel {
		t.Errorf("Expected sentinel, got %s", policy.UnseenCategory)
	}

	cfg = &Config{PolicyPath: writePolicy(t, "cluster_count: 2\n")}
	policy, err = cfg.ResolvePolicy()
	if err != nil {
		t.Fatalf("Failed to resolve policy: %v", err)
	}
	if policy.ClusterCount != 2 {
		t.Errorf("Expected policy file cluster count 2, got %d", policy.ClusterCount)
	}
}
