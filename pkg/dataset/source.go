// Package dataset loads reference populations for the grouping engine.
// The engine itself never performs I/O; everything file or database shaped
// lives here.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/healthpath/healthpath-go/pkg/models"
)

var (
	// ErrDatasetNotFound is returned when the configured dataset does not exist
	ErrDatasetNotFound = errors.New("reference dataset not found")

	// ErrSchemaMismatch is returned when a dataset lacks a schema attribute
	ErrSchemaMismatch = errors.New("dataset does not match schema")
)

// Source loads a reference population conforming to a schema
type Source interface {
	Load(ctx context.Context, schema *models.Schema) (*models.Population, error)
}

// StaticSource serves an in-memory population, mostly for tests and
// the one-shot CLI
type StaticSource struct {
	Population *models.Population
}

// Load returns the wrapped population after checking it against the schema
func (s StaticSource) Load(ctx context.Context, schema *models.Schema) (*models.Population, error) {
	if s.Population == nil || s.Population.Len() == 0 {
		return nil, ErrDatasetNotFound
	}
	if s.Population.Schema == nil {
		return nil, fmt.Errorf("%w: population has no schema", ErrSchemaMismatch)
	}
	for _, attr := range schema.Attributes {
		if _, ok := s.Population.Schema.Index(attr.Name); !ok {
			return nil, fmt.Errorf("%w: missing attribute %s", ErrSchemaMismatch, attr.Name)
		}
	}
	return &models.Population{Schema: schema, Records: s.Population.Records}, nil
}

// parseValue converts a raw cell into the record according to the attribute
// kind. Empty categorical cells become the none sentinel.
func parseValue(rec models.Record, attr models.Attribute, raw string) error {
	switch attr.Kind {
	case models.AttributeCategorical:
		if raw == "" {
			raw = attr.NoneValue()
		}
		rec.Categorical[attr.Name] = raw
	case models.AttributeNumeric:
		if raw == "" {
			return fmt.Errorf("attribute %s has no value", attr.Name)
		}
		v, err := parseFloat(raw)
		if err != nil {
			return fmt.Errorf("attribute %s: %w", attr.Name, err)
		}
		rec.Numeric[attr.Name] = v
	}
	return nil
}

// Open returns a Source for a dataset on disk. format is "csv" or "sqlite";
// name selects the dataset inside a SQLite file. The returned function
// releases any database handle.
func Open(format, path, name string) (Source, func() error, error) {
	switch format {
	case "csv":
		return NewCSVSource(path), func() error { return nil }, nil
	case "sqlite":
		// opening a missing path would create an empty database
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, path)
			}
			return nil, nil, fmt.Errorf("failed to stat dataset: %w", err)
		}
		store, err := NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		return &SQLiteSource{Store: store, Dataset: name}, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported dataset format: %q", format)
	}
}
