package nn

import (
	"fmt"
	"math/rand"

	"github.com/digit-ml/digit/internal/tensor"
)

// Linear is a fully connected (dense) layer: y = x @ W.T + b.
//
// Input shape:  [batch, in_features]
// Weight shape: [out_features, in_features]
// Bias shape:   [out_features]
// Output shape: [batch, out_features]
type Linear struct {
	inFeatures  int
	outFeatures int

	weight *Parameter
	bias   *Parameter

	input *tensor.Tensor // cached for Backward
}

// NewLinear creates a dense layer with Xavier-initialized weights and
// zero biases.
func NewLinear(inFeatures, outFeatures int, rng *rand.Rand) *Linear {
	weight := Xavier(rng, inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures})
	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", weight),
		bias:        NewParameter("bias", Zeros(tensor.Shape{outFeatures})),
	}
}

// Forward computes y = x @ W.T + b over the batch.
func (l *Linear) Forward(input *tensor.Tensor) *tensor.Tensor {
	shape := input.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("linear: expected 2D input [batch, features], got %v", shape))
	}
	if shape[1] != l.inFeatures {
		panic(fmt.Sprintf("linear: expected %d input features, got %d", l.inFeatures, shape[1]))
	}

	batch := shape[0]
	out := tensor.New(tensor.Shape{batch, l.outFeatures})

	in := input.Data()
	wd := l.weight.Value().Data()
	bd := l.bias.Value().Data()
	od := out.Data()

	for b := 0; b < batch; b++ {
		x := in[b*l.inFeatures : (b+1)*l.inFeatures]
		for o := 0; o < l.outFeatures; o++ {
			sum := bd[o]
			w := wd[o*l.inFeatures : (o+1)*l.inFeatures]
			for i, xi := range x {
				sum += w[i] * xi
			}
			od[b*l.outFeatures+o] = sum
		}
	}

	l.input = input
	return out
}

// Backward accumulates weight/bias gradients and returns the gradient
// with respect to the input.
func (l *Linear) Backward(gradOut *tensor.Tensor) *tensor.Tensor {
	if l.input == nil {
		panic("linear: Backward called before Forward")
	}

	batch := l.input.Shape()[0]
	gradIn := tensor.New(tensor.Shape{batch, l.inFeatures})

	in := l.input.Data()
	wd := l.weight.Value().Data()
	gw := l.weight.Grad()
	gb := l.bias.Grad()
	gi := gradIn.Data()
	yg := gradOut.Data()

	for b := 0; b < batch; b++ {
		x := in[b*l.inFeatures : (b+1)*l.inFeatures]
		gx := gi[b*l.inFeatures : (b+1)*l.inFeatures]
		for o := 0; o < l.outFeatures; o++ {
			g := yg[b*l.outFeatures+o]
			if g == 0 {
				continue
			}
			gb[o] += g
			w := wd[o*l.inFeatures : (o+1)*l.inFeatures]
			gwRow := gw[o*l.inFeatures : (o+1)*l.inFeatures]
			for i, xi := range x {
				gwRow[i] += g * xi
				gx[i] += g * w[i]
			}
		}
	}

	return gradIn
}

// Parameters returns the weight and bias.
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// InFeatures returns the input width.
func (l *Linear) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the output width.
func (l *Linear) OutFeatures() int {
	return l.outFeatures
}

// String describes the layer configuration.
func (l *Linear) String() string {
	return fmt.Sprintf("Linear(in=%d, out=%d)", l.inFeatures, l.outFeatures)
}
