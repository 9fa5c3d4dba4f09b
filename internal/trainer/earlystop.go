package trainer

import (
	"math"

	"github.com/digit-ml/digit/internal/nn"
)

// earlyStop watches validation loss and keeps a copy of the best
// weights seen so far. Improvement means the loss dropped by strictly
// more than minDelta below the best value.
type earlyStop struct {
	patience int
	minDelta float32

	bestLoss  float32
	bestEpoch int
	bad       int
	snapshot  [][]float32
}

func newEarlyStop(patience int, minDelta float32) *earlyStop {
	return &earlyStop{
		patience: patience,
		minDelta: minDelta,
		bestLoss: float32(math.Inf(1)),
	}
}

// Observe records one epoch's validation loss. It returns true when
// patience is exhausted and training should stop.
func (e *earlyStop) Observe(model *nn.Model, epoch int, valLoss float32) bool {
	if e.bestLoss-valLoss > e.minDelta {
		e.bestLoss = valLoss
		e.bestEpoch = epoch
		e.bad = 0
		e.snapshot = model.Snapshot()
		return false
	}
	e.bad++
	return e.patience > 0 && e.bad >= e.patience
}

// Restore puts the best weights back on the model. It is a no-op when
// no epoch ever improved.
func (e *earlyStop) Restore(model *nn.Model) error {
	if e.snapshot == nil {
		return nil
	}
	return model.Restore(e.snapshot)
}
