// Package optim implements gradient-descent optimizers for the digit
// classifier: Adam (the default) and SGD with momentum.
//
// Optimizers read each parameter's accumulated gradient buffer and
// update the parameter value in place.
package optim

// Optimizer updates model parameters from their accumulated gradients.
type Optimizer interface {
	// Step applies one update using the gradients currently held by
	// the parameters.
	Step()

	// ZeroGrad clears all parameter gradients. Call before each
	// training step.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float32

	// SetLR updates the learning rate.
	SetLR(lr float32)

	// State returns internal optimizer state (moment buffers,
	// timestep) for checkpointing.
	State() map[string][]float32

	// LoadState restores state produced by State.
	LoadState(state map[string][]float32) error
}
