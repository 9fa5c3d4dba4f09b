// Package checkpoint saves and restores trained models. A checkpoint
// bundles the model's named weight tensors with the optimizer's state
// so training can resume where it left off.
package checkpoint

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/digit-ml/digit/internal/nn"
	"github.com/digit-ml/digit/internal/optim"
)

// Checkpoint is the gob-encoded on-disk format.
type Checkpoint struct {
	Epoch     int
	Weights   map[string][]float32
	OptimName string
	Optim     map[string][]float32
}

// Save writes model weights and optimizer state to path, atomically.
// opt may be nil for inference-only checkpoints.
func Save(path string, model *nn.Model, opt optim.Optimizer, epoch int) error {
	ckpt := Checkpoint{
		Epoch:   epoch,
		Weights: model.StateDict(),
	}
	if opt != nil {
		ckpt.OptimName = fmt.Sprintf("%T", opt)
		ckpt.Optim = opt.State()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("checkpoint: create dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".ckpt-*")
	if err != nil {
		return fmt.Errorf("checkpoint: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(ckpt); err != nil {
		tmp.Close()
		return fmt.Errorf("checkpoint: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("checkpoint: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("checkpoint: rename: %w", err)
	}
	return nil
}

// Read decodes a checkpoint file without touching any model.
func Read(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open: %w", err)
	}
	defer f.Close()

	var ckpt Checkpoint
	if err := gob.NewDecoder(f).Decode(&ckpt); err != nil {
		return nil, fmt.Errorf("checkpoint: decode %s: %w", path, err)
	}
	return &ckpt, nil
}

// Load restores model weights (and optimizer state, when opt is not
// nil) from a checkpoint file. It returns the epoch the checkpoint was
// taken at.
func Load(path string, model *nn.Model, opt optim.Optimizer) (int, error) {
	ckpt, err := Read(path)
	if err != nil {
		return 0, err
	}
	if err := model.LoadStateDict(ckpt.Weights); err != nil {
		return 0, fmt.Errorf("checkpoint: weights: %w", err)
	}
	if opt != nil && ckpt.Optim != nil {
		if err := opt.LoadState(ckpt.Optim); err != nil {
			return 0, fmt.Errorf("checkpoint: optimizer state: %w", err)
		}
	}
	return ckpt.Epoch, nil
}
