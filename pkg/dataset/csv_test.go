package dataset

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthpath/healthpath-go/pkg/models"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestCSVSource_RoundTrip(t *testing.T) {
	pop := Synthetic(12, 42)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, pop))

	path := writeFile(t, "health.csv", buf.String())
	loaded, err := NewCSVSource(path).Load(context.Background(), models.DefaultHealthSchema())
	require.NoError(t, err)
	require.Equal(t, pop.Len(), loaded.Len())

	for i := range pop.Records {
		assert.Equal(t, pop.Records[i].Categorical, loaded.Records[i].Categorical, "record %d", i)
		for name, v := range pop.Records[i].Numeric {
			assert.InDelta(t, v, loaded.Records[i].Numeric[name], 1e-9, "record %d %s", i, name)
		}
	}
}

func TestCSVSource_NotFound(t *testing.T) {
	src := NewCSVSource(filepath.Join(t.TempDir(), "missing.csv"))
	_, err := src.Load(context.Background(), models.DefaultHealthSchema())
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestReadCSV_MissingColumn(t *testing.T) {
	schema := &models.Schema{Attributes: []models.Attribute{
		{Name: "BMI", Kind: models.AttributeNumeric},
		{Name: "Stress_Level", Kind: models.AttributeCategorical},
	}}
	_, err := ReadCSV(context.Background(), strings.NewReader("BMI\n22\n"), schema, ',')
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestReadCSV_EmptyCategoricalBecomesSentinel(t *testing.T) {
	schema := &models.Schema{Attributes: []models.Attribute{
		{Name: "BMI", Kind: models.AttributeNumeric},
		{Name: "Chronic_Condition", Kind: models.AttributeCategorical},
	}}
	body := "Chronic_Condition,BMI,Extra\n,22.5,x\nDiabetes,31,y\n"

	pop, err := ReadCSV(context.Background(), strings.NewReader(body), schema, ',')
	require.NoError(t, err)
	require.Equal(t, 2, pop.Len())
	assert.Equal(t, models.DefaultNoneValue, pop.Records[0].Categorical["Chronic_Condition"])
	assert.Equal(t, 22.5, pop.Records[0].Numeric["BMI"])
	assert.Equal(t, "Diabetes", pop.Records[1].Categorical["Chronic_Condition"])
}

func TestReadCSV_EmptyNumericFails(t *testing.T) {
	schema := &models.Schema{Attributes: []models.Attribute{
		{Name: "BMI", Kind: models.AttributeNumeric},
	}}
	_, err := ReadCSV(context.Background(), strings.NewReader("BMI\n\"\"\n"), schema, ',')
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadCSV_NonFiniteNumericFails(t *testing.T) {
	schema := &models.Schema{Attributes: []models.Attribute{
		{Name: "BMI", Kind: models.AttributeNumeric},
	}}
	for _, raw := range []string{"Inf", "-Inf", "NaN"} {
		_, err := ReadCSV(context.Background(), strings.NewReader("BMI\n22\n"+raw+"\n"), schema, ',')
		assert.ErrorIs(t, err, models.ErrNonFiniteValue, raw)
	}
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	schema := &models.Schema{Attributes: []models.Attribute{
		{Name: "BMI", Kind: models.AttributeNumeric},
	}}
	_, err := ReadCSV(context.Background(), strings.NewReader("BMI\n"), schema, ',')
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}
