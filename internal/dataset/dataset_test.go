package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadTable(t *testing.T) {
	path := writeFile(t, "train.csv", "x,y1,y2\n0,0,1\n1,1,2\n2,4,3\n")

	table, err := LoadTable(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, table.Axis)
	require.Len(t, table.Signals, 2)

	sig, ok := table.Signal(1)
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 4}, sig.Values.Points())

	sig, ok = table.Signal(2)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, sig.Values.Points())
}

func TestLoadTableCleansAndSorts(t *testing.T) {
	// One row out of order, one unparsable, one duplicate x.
	path := writeFile(t, "train.csv", "x,y1\n2,4\n0,0\nbroken,1\n1,1\n2,9\n")

	table, err := LoadTable(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2}, table.Axis)

	sig, ok := table.Signal(1)
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 4}, sig.Values.Points())
}

func TestLoadTableBadHeader(t *testing.T) {
	path := writeFile(t, "train.csv", "a,b\n1,2\n")
	_, err := LoadTable(context.Background(), path)
	assert.Error(t, err)

	path = writeFile(t, "short.csv", "x\n1\n")
	_, err = LoadTable(context.Background(), path)
	assert.Error(t, err)
}

func TestLoadTableMissingFile(t *testing.T) {
	_, err := LoadTable(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestLoadObservations(t *testing.T) {
	path := writeFile(t, "test.csv", "x,y\n1.5,2.25\nbroken,1\n17.5,42\n")

	observations, err := LoadObservations(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, observations, 2)
	assert.Equal(t, 1.5, observations[0].X)
	assert.Equal(t, 2.25, observations[0].Y)
	assert.Equal(t, 17.5, observations[1].X)
}

func TestLoadObservationsWrongColumns(t *testing.T) {
	path := writeFile(t, "test.csv", "x,y,z\n1,2,3\n")
	_, err := LoadObservations(context.Background(), path)
	assert.Error(t, err)
}

func TestConfigResolveManifest(t *testing.T) {
	manifest := writeFile(t, "fitmatch.yaml", "training: data/tr.csv\nideal: data/id.csv\ntest: data/te.csv\n")

	cfg := Config{Manifest: manifest, TrainingFile: "default.csv"}
	require.NoError(t, cfg.Resolve())
	assert.Equal(t, "data/tr.csv", cfg.TrainingFile)
	assert.Equal(t, "data/id.csv", cfg.IdealFile)
	assert.Equal(t, "data/te.csv", cfg.TestFile)

	cfg = Config{TrainingFile: "default.csv"}
	require.NoError(t, cfg.Resolve())
	assert.Equal(t, "default.csv", cfg.TrainingFile)
}
