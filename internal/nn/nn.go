// Package nn implements the neural network building blocks for the
// digit classifier.
//
// This package provides:
//   - Layer interface: forward/backward building block
//   - Parameter: trainable tensor with its gradient buffer
//   - Conv2D, ReLU, Flatten, Linear layers
//   - Cross-entropy loss over raw logits, and accuracy
//   - Config: typed layer records consumed by Build, which validates
//     shape compatibility before any training starts
//
// Layers implement their own backward passes in closed form; the model
// topology is fixed, so no general-purpose gradient tape is needed.
package nn

import "github.com/digit-ml/digit/internal/tensor"

// Layer is the base interface for all network building blocks.
//
// Forward consumes a batch-first input tensor and returns the layer
// output. Backward consumes the gradient of the loss with respect to
// the layer output, accumulates parameter gradients, and returns the
// gradient with respect to the layer input. Backward must be called
// after Forward on the same batch: layers cache forward activations.
type Layer interface {
	Forward(input *tensor.Tensor) *tensor.Tensor
	Backward(gradOut *tensor.Tensor) *tensor.Tensor

	// Parameters returns the trainable parameters, empty for
	// parameter-free layers such as activations.
	Parameters() []*Parameter

	String() string
}
