package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digit-ml/digit/internal/compute"
	"github.com/digit-ml/digit/internal/nn"
	"github.com/digit-ml/digit/internal/tensor"
)

func digitConfig() nn.Config {
	return nn.Config{
		nn.Conv{Filters: 3, Kernel: 4, Pad: true},
		nn.Activation{Kind: "relu"},
		nn.Flatten{},
		nn.Dense{Units: 64},
		nn.Activation{Kind: "relu"},
		nn.Dense{Units: 10},
	}
}

func TestBuild_DigitClassifier(t *testing.T) {
	ctx := compute.New(42)
	model, err := nn.Build(ctx, digitConfig(), tensor.Shape{1, 28, 28})
	require.NoError(t, err)

	assert.True(t, model.OutputShape().Equal(tensor.Shape{10}),
		"output shape = %v", model.OutputShape())

	// conv: 3*1*4*4+3, dense1: 2352*64+64, dense2: 64*10+10
	assert.Equal(t, 51+150592+650, model.NumParameters())

	logits := model.Forward(tensor.New(tensor.Shape{2, 1, 28, 28}))
	assert.True(t, logits.Shape().Equal(tensor.Shape{2, 10}),
		"logits shape = %v", logits.Shape())
}

func TestBuild_ShapeErrors(t *testing.T) {
	ctx := compute.New(42)
	tests := []struct {
		name  string
		cfg   nn.Config
		input tensor.Shape
	}{
		{
			name:  "dense on spatial input without flatten",
			cfg:   nn.Config{nn.Dense{Units: 10}},
			input: tensor.Shape{1, 28, 28},
		},
		{
			name:  "conv on flat input",
			cfg:   nn.Config{nn.Conv{Filters: 3, Kernel: 4, Pad: true}},
			input: tensor.Shape{784},
		},
		{
			name:  "kernel larger than unpadded input",
			cfg:   nn.Config{nn.Conv{Filters: 1, Kernel: 30}},
			input: tensor.Shape{1, 28, 28},
		},
		{
			name:  "unknown activation",
			cfg:   nn.Config{nn.Flatten{}, nn.Activation{Kind: "gelu"}},
			input: tensor.Shape{1, 28, 28},
		},
		{
			name:  "empty config",
			cfg:   nn.Config{},
			input: tensor.Shape{1, 28, 28},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := nn.Build(ctx, tt.cfg, tt.input)
			assert.Error(t, err)
		})
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a, err := nn.Build(compute.New(7), digitConfig(), tensor.Shape{1, 28, 28})
	require.NoError(t, err)
	b, err := nn.Build(compute.New(7), digitConfig(), tensor.Shape{1, 28, 28})
	require.NoError(t, err)

	pa, pb := a.Parameters(), b.Parameters()
	require.Equal(t, len(pa), len(pb))
	for i := range pa {
		assert.Equal(t, pa[i].Value().Data(), pb[i].Value().Data(),
			"parameter %d differs between identically seeded builds", i)
	}
}

func TestModel_SnapshotRestore(t *testing.T) {
	ctx := compute.New(42)
	model, err := nn.Build(ctx, digitConfig(), tensor.Shape{1, 28, 28})
	require.NoError(t, err)

	snap := model.Snapshot()
	first := model.Parameters()[0].Value().Data()
	orig := first[0]
	first[0] = orig + 10

	require.NoError(t, model.Restore(snap))
	assert.Equal(t, orig, first[0])
}

func TestModel_StateDictRoundTrip(t *testing.T) {
	src, err := nn.Build(compute.New(1), digitConfig(), tensor.Shape{1, 28, 28})
	require.NoError(t, err)
	dst, err := nn.Build(compute.New(2), digitConfig(), tensor.Shape{1, 28, 28})
	require.NoError(t, err)

	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	sp, dp := src.Parameters(), dst.Parameters()
	for i := range sp {
		assert.Equal(t, sp[i].Value().Data(), dp[i].Value().Data())
	}

	// Missing keys are an error.
	err = dst.LoadStateDict(map[string][]float32{})
	assert.Error(t, err)
}
