package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
data_dir: /tmp/mnist
batch_size: 64
learning_rate: 0.01
epochs: 20
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/mnist", cfg.DataDir)
	assert.Equal(t, 64, cfg.BatchSize)
	assert.InDelta(t, 0.01, float64(cfg.LR), 1e-9)
	assert.Equal(t, 20, cfg.Epochs)
	// Untouched keys keep their defaults.
	assert.Equal(t, 5, cfg.Patience)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, "adam", cfg.Optimizer)
}

func TestLoad_SGD(t *testing.T) {
	path := writeConfig(t, `
optimizer: sgd
momentum: 0.9
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sgd", cfg.Optimizer)
	assert.InDelta(t, 0.9, float64(cfg.Momentum), 1e-6)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml":      "batch_size: [not an int",
		"zero batch":    "batch_size: 0",
		"negative lr":   "learning_rate: -1",
		"epoch cap":     "epochs: 500",
		"bad patience":  "patience: -3",
		"bad min delta": "min_delta: -0.1",
		"bad optimizer": "optimizer: rmsprop",
		"bad momentum":  "momentum: 1.5",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	cfg.ApplyOverrides(Overrides{
		DataDir:   "/data",
		BatchSize: 256,
		Epochs:    10,
		Seed:      7,
	})

	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, 256, cfg.BatchSize)
	assert.Equal(t, 10, cfg.Epochs)
	assert.Equal(t, int64(7), cfg.Seed)
	// Unset overrides leave defaults alone.
	assert.InDelta(t, 0.001, float64(cfg.LR), 1e-9)
	assert.Equal(t, 5, cfg.Patience)
}
