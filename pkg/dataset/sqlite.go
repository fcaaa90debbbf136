package dataset

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/healthpath/healthpath-go/pkg/models"
)

// DefaultDatasetName is used when no dataset name is configured
const DefaultDatasetName = "reference"

// SQLiteStore keeps named reference populations in a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Writes are serialized by SQLite anyway
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &SQLiteStore{db: db}

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check journal mode: %w", err)
	}
	// In-memory databases report "memory"
	if journalMode != "wal" && journalMode != "delete" && journalMode != "memory" {
		db.Close()
		return nil, fmt.Errorf("unexpected journal mode: got %s", journalMode)
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// retryOnBusy retries an operation that failed with SQLITE_BUSY using
// exponential backoff (10ms, 20ms, 40ms, ...)
func (s *SQLiteStore) retryOnBusy(ctx context.Context, operation func() error, maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "SQLITE_BUSY") {
			return err
		}

		backoff := time.Duration(10*(1<<uint(i))) * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("operation failed after %d retries: %w", maxRetries, err)
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reference_records (
		dataset TEXT NOT NULL,
		position INTEGER NOT NULL,
		attributes TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (dataset, position)
	);

	CREATE INDEX IF NOT EXISTS idx_reference_records_dataset ON reference_records(dataset);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SavePopulation replaces the named dataset with the given population,
// preserving record order
func (s *SQLiteStore) SavePopulation(ctx context.Context, dataset string, pop *models.Population) error {
	if dataset == "" {
		dataset = DefaultDatasetName
	}

	return s.retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, `DELETE FROM reference_records WHERE dataset = ?`, dataset); err != nil {
			return fmt.Errorf("failed to clear dataset: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO reference_records (dataset, position, attributes, created_at)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for i, rec := range pop.Records {
			data, err := json.Marshal(flatten(pop.Schema, rec))
			if err != nil {
				return fmt.Errorf("failed to marshal record %d: %w", i, err)
			}
			if _, err := stmt.ExecContext(ctx, dataset, i, string(data), now); err != nil {
				return fmt.Errorf("failed to insert record %d: %w", i, err)
			}
		}

		return tx.Commit()
	}, 5)
}

// LoadPopulation reads the named dataset in stored order
func (s *SQLiteStore) LoadPopulation(ctx context.Context, dataset string, schema *models.Schema) (*models.Population, error) {
	if dataset == "" {
		dataset = DefaultDatasetName
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT position, attributes FROM reference_records WHERE dataset = ? ORDER BY position`, dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset: %w", err)
	}
	defer rows.Close()

	pop := &models.Population{Schema: schema}
	for rows.Next() {
		var position int
		var data string
		if err := rows.Scan(&position, &data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		var raw map[string]any
		if err := json.Unmarshal([]byte(data), &raw); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record %d: %w", position, err)
		}

		rec := models.NewRecord()
		for _, attr := range schema.Attributes {
			value, ok := raw[attr.Name]
			if !ok {
				return nil, fmt.Errorf("%w: record %d missing %s", ErrSchemaMismatch, position, attr.Name)
			}
			cell := ""
			if value != nil {
				cell = fmt.Sprint(value)
			}
			if err := parseValue(rec, attr, cell); err != nil {
				return nil, fmt.Errorf("record %d: %w", position, err)
			}
		}
		pop.Records = append(pop.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	if pop.Len() == 0 {
		return nil, fmt.Errorf("%w: dataset %q is empty", ErrDatasetNotFound, dataset)
	}
	return pop, nil
}

// ListDatasets returns the names of stored datasets with their sizes
func (s *SQLiteStore) ListDatasets(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT dataset, COUNT(*) FROM reference_records GROUP BY dataset ORDER BY dataset`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		out[name] = count
	}
	return out, rows.Err()
}

func flatten(schema *models.Schema, rec models.Record) map[string]any {
	out := make(map[string]any, len(schema.Attributes))
	for _, attr := range schema.Attributes {
		switch attr.Kind {
		case models.AttributeCategorical:
			out[attr.Name] = rec.Categorical[attr.Name]
		case models.AttributeNumeric:
			out[attr.Name] = rec.Numeric[attr.Name]
		}
	}
	return out
}

// SQLiteSource adapts a SQLiteStore dataset to the Source interface
type SQLiteSource struct {
	Store   *SQLiteStore
	Dataset string
}

// Load reads the configured dataset
func (s *SQLiteSource) Load(ctx context.Context, schema *models.Schema) (*models.Population, error) {
	return s.Store.LoadPopulation(ctx, s.Dataset, schema)
}
