package optim

import (
	"fmt"
	"math"

	"github.com/digit-ml/digit/internal/nn"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * g
//	v_t = beta2 * v_{t-1} + (1-beta2) * g²
//	m_hat = m_t / (1 - beta1^t)
//	v_hat = v_t / (1 - beta2^t)
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)
//
// Reference: "Adam: A Method for Stochastic Optimization"
// (Kingma & Ba, 2014).
type Adam struct {
	params []*nn.Parameter
	lr     float32
	beta1  float32
	beta2  float32
	eps    float32
	t      int
	m      [][]float32 // first moment, indexed like params
	v      [][]float32 // second moment
}

// AdamConfig holds Adam hyperparameters. Zero values get the usual
// defaults (lr 0.001, betas 0.9/0.999, eps 1e-8).
type AdamConfig struct {
	LR    float32
	Betas [2]float32
	Eps   float32
}

// NewAdam creates an Adam optimizer over the given parameters.
func NewAdam(params []*nn.Parameter, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	m := make([][]float32, len(params))
	v := make([][]float32, len(params))
	for i, p := range params {
		m[i] = make([]float32, len(p.Grad()))
		v[i] = make([]float32, len(p.Grad()))
	}

	return &Adam{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      m,
		v:      v,
	}
}

// Step applies one Adam update with bias correction.
func (a *Adam) Step() {
	a.t++
	biasCorrection1 := float32(1.0 - math.Pow(float64(a.beta1), float64(a.t)))
	biasCorrection2 := float32(1.0 - math.Pow(float64(a.beta2), float64(a.t)))

	for i, p := range a.params {
		grad := p.Grad()
		value := p.Value().Data()
		m, v := a.m[i], a.v[i]

		for j := range value {
			g := grad[j]
			m[j] = a.beta1*m[j] + (1.0-a.beta1)*g
			v[j] = a.beta2*v[j] + (1.0-a.beta2)*g*g

			mHat := m[j] / biasCorrection1
			vHat := v[j] / biasCorrection2

			value[j] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

// ZeroGrad clears all parameter gradients.
func (a *Adam) ZeroGrad() {
	for _, p := range a.params {
		p.ZeroGrad()
	}
}

// LR returns the learning rate.
func (a *Adam) LR() float32 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float32) {
	a.lr = lr
}

// State returns the moment buffers and timestep for checkpointing.
func (a *Adam) State() map[string][]float32 {
	state := map[string][]float32{
		"adam.t": {float32(a.t)},
	}
	for i := range a.params {
		m := make([]float32, len(a.m[i]))
		copy(m, a.m[i])
		v := make([]float32, len(a.v[i]))
		copy(v, a.v[i])
		state[fmt.Sprintf("adam.m.%d", i)] = m
		state[fmt.Sprintf("adam.v.%d", i)] = v
	}
	return state
}

// LoadState restores moment buffers and timestep.
func (a *Adam) LoadState(state map[string][]float32) error {
	t, ok := state["adam.t"]
	if !ok || len(t) != 1 {
		return fmt.Errorf("optim: missing adam.t in state")
	}
	a.t = int(t[0])

	for i := range a.params {
		for _, part := range []struct {
			key string
			dst []float32
		}{
			{fmt.Sprintf("adam.m.%d", i), a.m[i]},
			{fmt.Sprintf("adam.v.%d", i), a.v[i]},
		} {
			src, ok := state[part.key]
			if !ok {
				return fmt.Errorf("optim: missing %s in state", part.key)
			}
			if len(src) != len(part.dst) {
				return fmt.Errorf("optim: %s has %d elements, want %d",
					part.key, len(src), len(part.dst))
			}
			copy(part.dst, src)
		}
	}
	return nil
}
