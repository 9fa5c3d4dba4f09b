package nn

import "github.com/digit-ml/digit/internal/tensor"

// ReLU applies max(0, x) elementwise.
type ReLU struct {
	input *tensor.Tensor // cached for Backward
}

// NewReLU creates a ReLU activation layer.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward zeroes out negative inputs.
func (r *ReLU) Forward(input *tensor.Tensor) *tensor.Tensor {
	out := tensor.New(input.Shape())
	in := input.Data()
	od := out.Data()
	for i, v := range in {
		if v > 0 {
			od[i] = v
		}
	}
	r.input = input
	return out
}

// Backward passes gradients through where the input was positive.
func (r *ReLU) Backward(gradOut *tensor.Tensor) *tensor.Tensor {
	if r.input == nil {
		panic("relu: Backward called before Forward")
	}
	gradIn := tensor.New(gradOut.Shape())
	in := r.input.Data()
	gi := gradIn.Data()
	for i, g := range gradOut.Data() {
		if in[i] > 0 {
			gi[i] = g
		}
	}
	return gradIn
}

// Parameters returns nil: activations are parameter-free.
func (r *ReLU) Parameters() []*Parameter {
	return nil
}

func (r *ReLU) String() string {
	return "ReLU()"
}
