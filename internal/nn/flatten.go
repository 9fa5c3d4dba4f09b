package nn

import "github.com/digit-ml/digit/internal/tensor"

// Flatten collapses all non-batch dimensions into one vector.
//
// [batch, c, h, w] becomes [batch, c*h*w]. Both directions are views on
// the same data.
type Flatten struct {
	inShape tensor.Shape // cached for Backward
}

// NewFlatten creates a flatten layer.
func NewFlatten() *Flatten {
	return &Flatten{}
}

// Forward reshapes the input to [batch, features].
func (f *Flatten) Forward(input *tensor.Tensor) *tensor.Tensor {
	shape := input.Shape()
	f.inShape = shape.Clone()
	batch := shape[0]
	return input.Reshape(batch, input.NumElements()/batch)
}

// Backward reshapes the gradient back to the original input shape.
func (f *Flatten) Backward(gradOut *tensor.Tensor) *tensor.Tensor {
	if f.inShape == nil {
		panic("flatten: Backward called before Forward")
	}
	return gradOut.Reshape(f.inShape...)
}

// Parameters returns nil.
func (f *Flatten) Parameters() []*Parameter {
	return nil
}

func (f *Flatten) String() string {
	return "Flatten()"
}
