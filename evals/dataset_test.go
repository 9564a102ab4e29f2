package evals

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDatasetJSON(t *testing.T) {
	cases, err := LoadDataset(filepath.Join("testdata", "dataset.json"))
	require.NoError(t, err)
	require.Len(t, cases, 3)
	assert.Equal(t, "bitcoin-price", cases[0].ID)
	assert.Equal(t, "What is the current bitcoin price?", cases[0].Question)
	assert.Equal(t, []string{"price in USD", "source cited"}, cases[0].ExpectedFacts)
	assert.Equal(t, "go-release", cases[1].ID, "dataset order must be preserved")
	assert.Equal(t, "iss-crew", cases[2].ID)
}

func TestLoadDatasetYAML(t *testing.T) {
	cases, err := LoadDataset(filepath.Join("testdata", "dataset.yaml"))
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "bitcoin-price", cases[0].ID)
	assert.Equal(t, []string{"version number", "release date"}, cases[1].ExpectedFacts)
}

func TestLoadDatasetInvalidCase(t *testing.T) {
	_, err := LoadDataset(filepath.Join("testdata", "invalid.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing-facts")
}

func TestLoadDatasetMissingFile(t *testing.T) {
	_, err := LoadDataset(filepath.Join("testdata", "no-such-file.json"))
	assert.Error(t, err)
}
