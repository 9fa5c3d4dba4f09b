package trainer_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digit-ml/digit/internal/compute"
	"github.com/digit-ml/digit/internal/dataset"
	"github.com/digit-ml/digit/internal/nn"
	"github.com/digit-ml/digit/internal/optim"
	"github.com/digit-ml/digit/internal/pipeline"
	"github.com/digit-ml/digit/internal/trainer"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// tinyModel is a small conv net over 28x28 inputs, cheap enough to
// train inside a test.
func tinyModel(t *testing.T, ctx *compute.Context) *nn.Model {
	t.Helper()
	model, err := nn.Build(ctx, nn.Config{
		nn.Conv{Filters: 2, Kernel: 4, Pad: true},
		nn.Activation{Kind: "relu"},
		nn.Flatten{},
		nn.Dense{Units: 10},
	}, []int{1, 28, 28})
	require.NoError(t, err)
	return model
}

func syntheticPipeline(t *testing.T, ctx *compute.Context, name string, n, batch int, shuffle bool) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(ctx, dataset.Synthetic(name, n), pipeline.Options{
		BatchSize: batch,
		Shuffle:   shuffle,
	})
	require.NoError(t, err)
	return p
}

func TestConfig_Validate(t *testing.T) {
	_, err := trainer.New(trainer.Config{Epochs: 0}, nil)
	assert.Error(t, err)
	_, err = trainer.New(trainer.Config{Epochs: 1, Patience: -1}, nil)
	assert.Error(t, err)
	_, err = trainer.New(trainer.Config{Epochs: 1, MinDelta: -0.5}, nil)
	assert.Error(t, err)
	_, err = trainer.New(trainer.DefaultConfig(), nil)
	assert.NoError(t, err)
}

func TestFit_RunsRequestedEpochs(t *testing.T) {
	ctx := compute.New(42)
	model := tinyModel(t, ctx)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{})

	train := syntheticPipeline(t, ctx, "train", 200, 32, true)
	val := syntheticPipeline(t, ctx, "test", 50, 32, false)

	tr, err := trainer.New(trainer.Config{Epochs: 2, Patience: 5, MinDelta: 0.001}, quietLogger())
	require.NoError(t, err)

	result, err := tr.Fit(context.Background(), model, opt, train, val)
	require.NoError(t, err)

	assert.Len(t, result.History, 2)
	assert.Equal(t, 1, result.History[0].Epoch)
	assert.Equal(t, 2, result.History[1].Epoch)
	assert.Equal(t, trainer.StopEpochCap, result.Reason)
	assert.Equal(t, trainer.StateStopped, tr.State())
}

func TestFit_LossDecreases(t *testing.T) {
	ctx := compute.New(7)
	model := tinyModel(t, ctx)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{})

	train := syntheticPipeline(t, ctx, "train", 300, 32, true)
	val := syntheticPipeline(t, ctx, "test", 60, 32, false)

	tr, err := trainer.New(trainer.Config{Epochs: 5, Patience: 10, MinDelta: 0}, quietLogger())
	require.NoError(t, err)

	result, err := tr.Fit(context.Background(), model, opt, train, val)
	require.NoError(t, err)
	require.Len(t, result.History, 5)

	first := result.History[0]
	last := result.History[len(result.History)-1]
	assert.Less(t, last.Loss, first.Loss, "training loss should drop on a separable dataset")
	assert.Greater(t, last.Accuracy, float32(0.10), "accuracy should beat the 10-class chance level")
}

func TestFit_EarlyStopsAndRestoresBestWeights(t *testing.T) {
	ctx := compute.New(3)
	model := tinyModel(t, ctx)
	// A huge learning rate makes the loss diverge after the first
	// steps, which triggers the patience counter.
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 5.0})

	train := syntheticPipeline(t, ctx, "train", 100, 32, true)
	val := syntheticPipeline(t, ctx, "test", 40, 32, false)

	tr, err := trainer.New(trainer.Config{Epochs: 100, Patience: 3, MinDelta: 0.001}, quietLogger())
	require.NoError(t, err)

	result, err := tr.Fit(context.Background(), model, opt, train, val)
	require.NoError(t, err)

	assert.Equal(t, trainer.StopEarly, result.Reason)
	assert.Less(t, len(result.History), 100)
	require.NotZero(t, result.BestEpoch)

	// The restored model must evaluate to the recorded best loss, not
	// the diverged final one.
	valLoss, _, err := trainer.Evaluate(context.Background(), model, val)
	require.NoError(t, err)
	assert.InDelta(t, float64(result.BestValLoss), float64(valLoss), 1e-4)
}

func TestFit_Cancellation(t *testing.T) {
	ctx := compute.New(42)
	model := tinyModel(t, ctx)
	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{})

	train := syntheticPipeline(t, ctx, "train", 100, 32, false)
	val := syntheticPipeline(t, ctx, "test", 40, 32, false)

	tr, err := trainer.New(trainer.DefaultConfig(), quietLogger())
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := tr.Fit(runCtx, model, opt, train, val)
	require.NoError(t, err)
	assert.Equal(t, trainer.StopCancelled, result.Reason)
	assert.Empty(t, result.History)
}

func TestEvaluate_DoesNotChangeWeights(t *testing.T) {
	ctx := compute.New(1)
	model := tinyModel(t, ctx)
	val := syntheticPipeline(t, ctx, "test", 40, 16, false)

	before := model.Snapshot()
	_, _, err := trainer.Evaluate(context.Background(), model, val)
	require.NoError(t, err)

	after := model.Snapshot()
	require.Equal(t, len(before), len(after))
	for i := range before {
		assert.Equal(t, before[i], after[i])
	}
}
