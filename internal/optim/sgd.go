package optim

import (
	"fmt"

	"github.com/digit-ml/digit/internal/nn"
)

// SGD implements stochastic gradient descent with optional momentum.
//
// Without momentum: param = param - lr * g
// With momentum:    vel = momentum * vel + g; param = param - lr * vel
type SGD struct {
	params   []*nn.Parameter
	lr       float32
	momentum float32
	vel      [][]float32
}

// SGDConfig holds SGD hyperparameters. A zero LR defaults to 0.01.
type SGDConfig struct {
	LR       float32
	Momentum float32
}

// NewSGD creates an SGD optimizer over the given parameters.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}

	vel := make([][]float32, len(params))
	for i, p := range params {
		vel[i] = make([]float32, len(p.Grad()))
	}

	return &SGD{
		params:   params,
		lr:       config.LR,
		momentum: config.Momentum,
		vel:      vel,
	}
}

// Step applies one SGD update.
func (s *SGD) Step() {
	for i, p := range s.params {
		grad := p.Grad()
		value := p.Value().Data()
		vel := s.vel[i]

		for j := range value {
			if s.momentum != 0 {
				vel[j] = s.momentum*vel[j] + grad[j]
				value[j] -= s.lr * vel[j]
			} else {
				value[j] -= s.lr * grad[j]
			}
		}
	}
}

// ZeroGrad clears all parameter gradients.
func (s *SGD) ZeroGrad() {
	for _, p := range s.params {
		p.ZeroGrad()
	}
}

// LR returns the learning rate.
func (s *SGD) LR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float32) {
	s.lr = lr
}

// State returns the velocity buffers for checkpointing.
func (s *SGD) State() map[string][]float32 {
	state := make(map[string][]float32, len(s.vel))
	for i := range s.params {
		vel := make([]float32, len(s.vel[i]))
		copy(vel, s.vel[i])
		state[fmt.Sprintf("sgd.vel.%d", i)] = vel
	}
	return state
}

// LoadState restores velocity buffers.
func (s *SGD) LoadState(state map[string][]float32) error {
	for i := range s.params {
		key := fmt.Sprintf("sgd.vel.%d", i)
		src, ok := state[key]
		if !ok {
			return fmt.Errorf("optim: missing %s in state", key)
		}
		if len(src) != len(s.vel[i]) {
			return fmt.Errorf("optim: %s has %d elements, want %d", key, len(src), len(s.vel[i]))
		}
		copy(s.vel[i], src)
	}
	return nil
}
