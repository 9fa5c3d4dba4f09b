package cli

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digit-ml/digit/internal/config"
	"github.com/digit-ml/digit/internal/history"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "digit dev")
}

func TestTrainCommand_RejectsBadFlags(t *testing.T) {
	_, err := runCommand(t, "train", "--epochs", "500", "--synthetic")
	assert.Error(t, err)
}

func TestTrainCommand_ZeroFlagValues(t *testing.T) {
	outDir := t.TempDir()

	// Seed 0 and patience 0 are real values, not "unset".
	_, err := runCommand(t, "train", "--synthetic",
		"--out-dir", outDir,
		"--epochs", "1",
		"--batch-size", "25",
		"--max-train", "50",
		"--max-test", "20",
		"--seed", "0",
		"--patience", "0")
	require.NoError(t, err)

	run, err := history.NewStore(filepath.Join(outDir, "runs")).Latest()
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, int64(0), run.Seed)
	assert.Equal(t, 0, run.Patience)
}

func TestTrainThenInfer_Synthetic(t *testing.T) {
	outDir := t.TempDir()

	cfg := config.Default()
	cfg.OutDir = outDir
	cfg.Epochs = 2
	cfg.MaxTrain = 1000
	cfg.MaxTest = 200

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, runTrain(context.Background(), cfg, true, log))

	// The run leaves a checkpoint, a run artifact, and both curves.
	assert.FileExists(t, filepath.Join(outDir, "model.ckpt"))
	assert.FileExists(t, filepath.Join(outDir, "plots", "loss.png"))
	assert.FileExists(t, filepath.Join(outDir, "plots", "accuracy.png"))

	run, err := history.NewStore(filepath.Join(outDir, "runs")).Latest()
	require.NoError(t, err)
	require.NotNil(t, run)
	require.Len(t, run.Epochs, 2)
	last := run.Epochs[len(run.Epochs)-1]
	assert.Greater(t, last.Accuracy, float32(0.10), "two epochs should beat chance level")

	// A blank 28x28 image classifies to some digit without error.
	imgPath := filepath.Join(outDir, "blank.png")
	f, err := os.Create(imgPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 28, 28))))
	require.NoError(t, f.Close())

	out, err := runCommand(t, "infer", "--model", filepath.Join(outDir, "model.ckpt"), imgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "digit:")
}
