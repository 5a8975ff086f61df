package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndBestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "analysis.csv")

	runs := []Run{
		{Name: "iris", Activation: "sigmoid", Architecture: []int{4, 8, 3}, Epochs: 10, BatchSize: 5, LearningRate: 0.5, Seed: 1, Accuracy: -1, WeightsPath: "a.json"},
		{Name: "iris", Activation: "tanh", Architecture: []int{4, 8, 3}, Epochs: 20, BatchSize: 5, LearningRate: 0.5, Seed: 2, Accuracy: 91.5, WeightsPath: "b.json"},
		{Name: "mnist", Activation: "relu", Architecture: []int{784, 30, 10}, Epochs: 30, BatchSize: 10, LearningRate: 3, Seed: 3, Accuracy: 95, WeightsPath: "c.json"},
		{Name: "iris", Activation: "relu", Architecture: []int{4, 3}, Epochs: 5, BatchSize: 5, LearningRate: 0.1, Seed: 4, Accuracy: 80, WeightsPath: "d.json"},
	}
	for _, r := range runs {
		require.NoError(t, AppendRun(path, r))
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Name,Activator,Architecture")

	best, err := BestRun(path, "iris")
	require.NoError(t, err)
	assert.Equal(t, "b.json", best.WeightsPath)
	assert.Equal(t, []int{4, 8, 3}, best.Architecture)
	assert.Equal(t, uint64(2), best.Seed)
	assert.InDelta(t, 91.5, best.Accuracy, 1e-9)

	_, err = BestRun(path, "cifar")
	require.ErrorIs(t, err, ErrNoRuns)
}

func TestBestRunFallsBackToUntested(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.csv")
	require.NoError(t, AppendRun(path, Run{Name: "xor", Activation: "sigmoid", Architecture: []int{2, 2}, Accuracy: -1, WeightsPath: "x.json"}))

	best, err := BestRun(path, "xor")
	require.NoError(t, err)
	assert.Equal(t, "x.json", best.WeightsPath)
}

func TestBestRunRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name,Accuracy\nxor,1\n"), 0644))
	_, err := BestRun(path, "xor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "headers")

	_, err = BestRun(filepath.Join(t.TempDir(), "missing.csv"), "xor")
	require.Error(t, err)
}

func TestAppendRunKeepsAppending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.csv")
	require.NoError(t, AppendRun(path, Run{Name: "xor", Architecture: []int{2, 2}, Accuracy: 50, WeightsPath: "a.json"}))
	require.NoError(t, AppendRun(path, Run{Name: "xor", Architecture: []int{2, 2}, Accuracy: 75, WeightsPath: "b.json"}))

	best, err := BestRun(path, "xor")
	require.NoError(t, err)
	assert.Equal(t, "b.json", best.WeightsPath)

	require.Error(t, AppendRun(t.TempDir(), Run{Name: "xor"}))
}
