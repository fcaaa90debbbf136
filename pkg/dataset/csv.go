package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/healthpath/healthpath-go/pkg/models"
)

// CSVSource reads a reference population from a CSV file with a header row.
// Columns not in the schema are ignored.
type CSVSource struct {
	Path      string
	Delimiter rune
}

// NewCSVSource creates a comma-delimited CSV source
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path, Delimiter: ','}
}

// Load reads and parses the file
func (c *CSVSource) Load(ctx context.Context, schema *models.Schema) (*models.Population, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, c.Path)
		}
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return ReadCSV(ctx, f, schema, c.Delimiter)
}

// ReadCSV parses CSV content into a population
func ReadCSV(ctx context.Context, r io.Reader, schema *models.Schema, delimiter rune) (*models.Population, error) {
	reader := csv.NewReader(r)
	if delimiter != 0 {
		reader.Comma = delimiter
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrDatasetNotFound)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	positions := make([]int, len(schema.Attributes))
	for i, attr := range schema.Attributes {
		pos, ok := columns[attr.Name]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %s", ErrSchemaMismatch, attr.Name)
		}
		positions[i] = pos
	}

	pop := &models.Population{Schema: schema}
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec := models.NewRecord()
		for i, attr := range schema.Attributes {
			if err := parseValue(rec, attr, strings.TrimSpace(row[positions[i]])); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		pop.Records = append(pop.Records, rec)
	}

	if pop.Len() == 0 {
		return nil, fmt.Errorf("%w: no records", ErrDatasetNotFound)
	}
	return pop, nil
}

// WriteCSV writes a population with a header row in schema order
func WriteCSV(w io.Writer, pop *models.Population) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(pop.Schema.Names()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(pop.Schema.Attributes))
	for _, rec := range pop.Records {
		for i, attr := range pop.Schema.Attributes {
			switch attr.Kind {
			case models.AttributeCategorical:
				row[i] = rec.Categorical[attr.Name]
			case models.AttributeNumeric:
				row[i] = strconv.FormatFloat(rec.Numeric[attr.Name], 'f', -1, 64)
			}
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func parseFloat(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", models.ErrNonFiniteValue, raw)
	}
	return v, nil
}
