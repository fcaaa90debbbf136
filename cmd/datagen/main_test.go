package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthpath/healthpath-go/pkg/dataset"
)

func TestWriteSQLite_ListsStoredDatasets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.db")

	stored, err := writeSQLite(path, "cohort", dataset.Synthetic(12, 1))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"cohort": 12}, stored)

	stored, err = writeSQLite(path, "pilot", dataset.Synthetic(5, 2))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"cohort": 12, "pilot": 5}, stored)
}
