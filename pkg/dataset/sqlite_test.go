package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthpath/healthpath-go/pkg/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "reference.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	pop := Synthetic(16, 5)

	require.NoError(t, store.SavePopulation(ctx, "", pop))

	loaded, err := store.LoadPopulation(ctx, DefaultDatasetName, models.DefaultHealthSchema())
	require.NoError(t, err)
	require.Equal(t, pop.Len(), loaded.Len())
	for i := range pop.Records {
		assert.Equal(t, pop.Records[i].Categorical, loaded.Records[i].Categorical)
		for name, v := range pop.Records[i].Numeric {
			assert.InDelta(t, v, loaded.Records[i].Numeric[name], 1e-9)
		}
	}
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePopulation(ctx, "cohort", Synthetic(10, 1)))
	require.NoError(t, store.SavePopulation(ctx, "cohort", Synthetic(6, 2)))
	require.NoError(t, store.SavePopulation(ctx, "other", Synthetic(3, 3)))

	datasets, err := store.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"cohort": 6, "other": 3}, datasets)
}

func TestSQLiteStore_MissingDataset(t *testing.T) {
	store := newTestStore(t)
	_, err := store.LoadPopulation(context.Background(), "nope", models.DefaultHealthSchema())
	assert.ErrorIs(t, err, ErrDatasetNotFound)
}

func TestSQLiteSource_Load(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SavePopulation(ctx, "ref", Synthetic(8, 9)))

	src := &SQLiteSource{Store: store, Dataset: "ref"}
	pop, err := src.Load(ctx, models.DefaultHealthSchema())
	require.NoError(t, err)
	assert.Equal(t, 8, pop.Len())
}

func TestStaticSource(t *testing.T) {
	pop := Synthetic(4, 1)
	loaded, err := StaticSource{Population: pop}.Load(context.Background(), models.DefaultHealthSchema())
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Len())

	_, err = StaticSource{}.Load(context.Background(), models.DefaultHealthSchema())
	assert.ErrorIs(t, err, ErrDatasetNotFound)

	narrow := &models.Schema{Attributes: []models.Attribute{{Name: "BMI", Kind: models.AttributeNumeric}}}
	_, err = StaticSource{Population: &models.Population{Schema: narrow, Records: pop.Records}}.
		Load(context.Background(), models.DefaultHealthSchema())
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	assert.NotPanics(t, func() {
		_, err = StaticSource{Population: &models.Population{Records: pop.Records}}.
			Load(context.Background(), models.DefaultHealthSchema())
	})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewSQLiteStore(filepath.Join(dir, "ref.db"))
	require.NoError(t, err)
	require.NoError(t, store.SavePopulation(ctx, "ref", Synthetic(8, 1)))
	require.NoError(t, store.Close())

	src, closeFn, err := Open("sqlite", filepath.Join(dir, "ref.db"), "ref")
	require.NoError(t, err)
	defer closeFn()
	pop, err := src.Load(ctx, models.DefaultHealthSchema())
	require.NoError(t, err)
	assert.Equal(t, 8, pop.Len())

	src, _, err = Open("csv", filepath.Join(dir, "missing.csv"), "")
	require.NoError(t, err)
	_, err = src.Load(ctx, models.DefaultHealthSchema())
	assert.ErrorIs(t, err, ErrDatasetNotFound)

	missing := filepath.Join(dir, "missing.db")
	_, _, err = Open("sqlite", missing, "ref")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
	_, statErr := os.Stat(missing)
	assert.True(t, os.IsNotExist(statErr), "missing database must not be created")

	_, _, err = Open("parquet", "x", "")
	assert.Error(t, err)
}
