package training

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeDataset(t *testing.T, n int) *TabularDataset {
	t.Helper()
	features := make([][]float64, n)
	labels := make([][]float64, n)
	for i := range features {
		features[i] = []float64{float64(i), float64(i) * 2}
		labels[i] = []float64{float64(i % 2)}
	}
	ds, err := NewTabularDataset(features, labels)
	require.NoError(t, err)
	return ds
}

func TestDataLoaderCoversAllSamples(t *testing.T) {
	ds := makeDataset(t, 10)
	loader, err := NewDataLoader(ds, 3, true, 7)
	require.NoError(t, err)

	assert.Equal(t, 4, loader.Len())

	loader.Reset()
	seen := map[float64]bool{}
	total := 0
	for {
		batch, err := loader.Next()
		require.NoError(t, err)
		if batch == nil {
			break
		}
		assert.LessOrEqual(t, len(batch.Features), 3)
		assert.Equal(t, len(batch.Features), len(batch.Labels))
		for _, row := range batch.Features {
			seen[row[0]] = true
		}
		total += len(batch.Features)
	}
	assert.Equal(t, 10, total)
	assert.Len(t, seen, 10, "every sample appears exactly once per epoch")
}

func TestDataLoaderValidation(t *testing.T) {
	ds := makeDataset(t, 4)

	_, err := NewDataLoader(ds, 0, false, 1)
	assert.Error(t, err)

	_, err = NewDataLoader(nil, 2, false, 1)
	assert.Error(t, err)
}

func TestTabularDatasetValidation(t *testing.T) {
	_, err := NewTabularDataset(nil, nil)
	assert.Error(t, err)

	_, err = NewTabularDataset([][]float64{{1, 2}}, [][]float64{{1}, {0}})
	assert.Error(t, err, "row count mismatch")

	_, err = NewTabularDataset([][]float64{{1, 2}, {1}}, [][]float64{{1}, {0}})
	assert.Error(t, err, "ragged feature rows")

	ds := makeDataset(t, 3)
	_, _, err = ds.Get(5)
	assert.Error(t, err)

	features, label, err := ds.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, features)
	assert.Equal(t, []float64{1}, label)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	content := "a,b,label\n1.0,2.0,0\n3.5,4.5,1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	ds, err := LoadCSV(path, 1, true)
	require.NoError(t, err)

	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 2, ds.FeatureCols())
	assert.Equal(t, 1, ds.LabelCols())

	features, label, err := ds.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{3.5, 4.5}, features)
	assert.Equal(t, []float64{1.0}, label)
}

func TestLoadCSVErrors(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), 1, false)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("1.0,oops\n"), 0644))
	_, err = LoadCSV(path, 1, false)
	assert.Error(t, err, "non-numeric field")

	path = filepath.Join(t.TempDir(), "narrow.csv")
	require.NoError(t, os.WriteFile(path, []byte("1.0\n"), 0644))
	_, err = LoadCSV(path, 1, false)
	assert.Error(t, err, "not enough columns for labels")
}
