package nn

import "github.com/digit-ml/digit/internal/tensor"

// Parameter is a trainable tensor together with its gradient buffer.
//
// The value is mutated in place by the optimizer; the gradient is
// accumulated by the owning layer's Backward and cleared between steps
// with ZeroGrad.
type Parameter struct {
	name  string
	value *tensor.Tensor
	grad  []float32
}

// NewParameter wraps an initialized tensor as a trainable parameter.
func NewParameter(name string, value *tensor.Tensor) *Parameter {
	return &Parameter{
		name:  name,
		value: value,
		grad:  make([]float32, value.NumElements()),
	}
}

// Name returns the parameter name (e.g. "conv2d.weight").
func (p *Parameter) Name() string {
	return p.name
}

// Value returns the parameter tensor.
func (p *Parameter) Value() *tensor.Tensor {
	return p.value
}

// Grad returns the gradient buffer, aligned element-for-element with
// the value's flat data.
func (p *Parameter) Grad() []float32 {
	return p.grad
}

// ZeroGrad clears the accumulated gradient. Call before each step so
// gradients from the previous batch do not leak into the next.
func (p *Parameter) ZeroGrad() {
	for i := range p.grad {
		p.grad[i] = 0
	}
}
