package checkpoint_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digit-ml/digit/internal/checkpoint"
	"github.com/digit-ml/digit/internal/compute"
	"github.com/digit-ml/digit/internal/nn"
	"github.com/digit-ml/digit/internal/optim"
	"github.com/digit-ml/digit/internal/tensor"
)

func buildModel(t *testing.T, seed int64) *nn.Model {
	t.Helper()
	model, err := nn.Build(compute.New(seed), nn.Config{
		nn.Flatten{},
		nn.Dense{Units: 4},
		nn.Activation{Kind: "relu"},
		nn.Dense{Units: 2},
	}, []int{1, 3, 3})
	require.NoError(t, err)
	return model
}

func forward(model *nn.Model) []float32 {
	in, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, []int{1, 1, 3, 3})
	out := model.Forward(in)
	res := make([]float32, len(out.Data()))
	copy(res, out.Data())
	return res
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ckpt")

	src := buildModel(t, 1)
	opt := optim.NewAdam(src.Parameters(), optim.AdamConfig{})
	require.NoError(t, checkpoint.Save(path, src, opt, 7))

	dst := buildModel(t, 99)
	dstOpt := optim.NewAdam(dst.Parameters(), optim.AdamConfig{})
	epoch, err := checkpoint.Load(path, dst, dstOpt)
	require.NoError(t, err)

	assert.Equal(t, 7, epoch)
	assert.Equal(t, forward(src), forward(dst))
}

func TestSaveLoad_WithoutOptimizer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ckpt")

	src := buildModel(t, 1)
	require.NoError(t, checkpoint.Save(path, src, nil, 3))

	dst := buildModel(t, 2)
	epoch, err := checkpoint.Load(path, dst, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, epoch)
	assert.Equal(t, forward(src), forward(dst))
}

func TestLoad_ShapeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.ckpt")

	src := buildModel(t, 1)
	require.NoError(t, checkpoint.Save(path, src, nil, 1))

	other, err := nn.Build(compute.New(1), nn.Config{
		nn.Flatten{},
		nn.Dense{Units: 8},
	}, []int{1, 3, 3})
	require.NoError(t, err)

	_, err = checkpoint.Load(path, other, nil)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	model := buildModel(t, 1)
	_, err := checkpoint.Load(filepath.Join(t.TempDir(), "nope.ckpt"), model, nil)
	assert.Error(t, err)
}

func TestSave_CreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "model.ckpt")
	require.NoError(t, checkpoint.Save(path, buildModel(t, 1), nil, 0))

	_, err := checkpoint.Read(path)
	assert.NoError(t, err)
}
