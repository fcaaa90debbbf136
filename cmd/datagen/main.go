// Command datagen writes a synthetic twelve-attribute health reference
// dataset to CSV and/or SQLite.
package main

import (
	"context"
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/healthpath/healthpath-go/pkg/dataset"
	"github.com/healthpath/healthpath-go/pkg/models"
)

func main() {
	n := flag.Int("n", 200, "number of records")
	seed := flag.Int64("seed", 42, "random seed")
	csvPath := flag.String("csv", "", "write CSV to this path")
	sqlitePath := flag.String("sqlite", "", "write to this SQLite database")
	name := flag.String("name", dataset.DefaultDatasetName, "dataset name inside the SQLite database")
	flag.Parse()

	if *csvPath == "" && *sqlitePath == "" {
		fmt.Fprintln(os.Stderr, "Error: at least one of -csv or -sqlite is required")
		flag.Usage()
		os.Exit(2)
	}
	if *n < 1 {
		fmt.Fprintln(os.Stderr, "Error: -n must be positive")
		os.Exit(2)
	}

	fmt.Println("HealthPath synthetic data generator")
	fmt.Println(strings.Repeat("=", 40))

	pop := dataset.Synthetic(*n, *seed)
	fmt.Printf("Generated %d records (seed %d)\n", pop.Len(), *seed)

	if *csvPath != "" {
		if err := writeCSV(*csvPath, pop); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to write CSV: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  -> CSV: %s\n", *csvPath)
	}

	if *sqlitePath != "" {
		stored, err := writeSQLite(*sqlitePath, *name, pop)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to write SQLite: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  -> SQLite: %s (dataset %q)\n", *sqlitePath, *name)
		fmt.Println("Datasets in database:")
		for _, ds := range slices.Sorted(maps.Keys(stored)) {
			fmt.Printf("  %-20s %d records\n", ds, stored[ds])
		}
	}
}

func writeCSV(path string, pop *models.Population) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := dataset.WriteCSV(f, pop); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeSQLite saves pop under name and returns the record count of every
// dataset the file now holds
func writeSQLite(path, name string, pop *models.Population) (map[string]int, error) {
	ctx := context.Background()
	store, err := dataset.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	if err := store.SavePopulation(ctx, name, pop); err != nil {
		return nil, err
	}
	return store.ListDatasets(ctx)
}
