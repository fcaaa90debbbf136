// Command classify assigns one individual to a risk group against a
// reference dataset and prints the assessment as JSON.
//
//	classify -dataset health.csv -set BMI=35 -set Sleep_Hours_Per_Night=4 \
//	    -set Stress_Level=High -set Mental_Health_Score=2 ...
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/healthpath/healthpath-go/pkg/assessment"
	"github.com/healthpath/healthpath-go/pkg/config"
	"github.com/healthpath/healthpath-go/pkg/dataset"
	"github.com/healthpath/healthpath-go/pkg/logging"
	"github.com/healthpath/healthpath-go/pkg/models"
)

// attributeFlags collects repeated -set name=value flags
type attributeFlags map[string]any

func (a attributeFlags) String() string {
	parts := make([]string, 0, len(a))
	for k, v := range a {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ",")
}

func (a attributeFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	a[strings.TrimSpace(name)] = strings.TrimSpace(value)
	return nil
}

func main() {
	attrs := attributeFlags{}
	datasetPath := flag.String("dataset", "", "reference dataset (CSV or SQLite)")
	format := flag.String("format", "", "dataset format: csv or sqlite (default from extension)")
	name := flag.String("name", dataset.DefaultDatasetName, "dataset name inside a SQLite file")
	policyPath := flag.String("policy", "", "grouping policy YAML")
	k := flag.Int("k", 0, "number of risk groups (overrides the policy)")
	unseen := flag.String("unseen", "", "unseen category policy: first-code, sentinel or out-of-vocabulary")
	explain := flag.Bool("explain", false, "include the cluster mapping and encoded features")
	flag.Var(attrs, "set", "attribute value as name=value (repeatable)")
	flag.Parse()

	logger := logging.Init(logging.Config{Level: "warn", Service: "healthpath-classify"})
	logger.SetOutput(os.Stderr)

	if *datasetPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -dataset is required")
		flag.Usage()
		os.Exit(2)
	}
	if *format == "" {
		*format = config.InferFormat(*datasetPath)
	}

	cfg := &config.Config{
		PolicyPath:     *policyPath,
		ClusterCount:   *k,
		UnseenCategory: models.UnseenCategoryPolicy(*unseen),
	}
	policy, err := cfg.ResolvePolicy()
	if err != nil {
		fail("Failed to load grouping policy", err)
	}

	source, closeSource, err := dataset.Open(*format, *datasetPath, *name)
	if err != nil {
		fail("Failed to open reference dataset", err)
	}
	defer closeSource()

	service, err := assessment.NewService(source, policy, assessment.Options{Logger: logger})
	if err != nil {
		fail("Failed to create assessment service", err)
	}

	ctx := context.Background()
	if err := service.Init(ctx); err != nil {
		fail("Failed to load reference population", err)
	}

	a, err := service.Classify(ctx, &models.AssessmentRequest{Attributes: attrs, Explain: *explain})
	if err != nil {
		fail("Failed to classify individual", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		fail("Failed to write assessment", err)
	}
}

func fail(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
