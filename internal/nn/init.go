package nn

import (
	"math"
	"math/rand"

	"github.com/digit-ml/digit/internal/tensor"
)

// Xavier returns a tensor initialized with the Xavier/Glorot uniform
// distribution: U(-b, b) with b = sqrt(6 / (fanIn + fanOut)).
//
// Randomness comes from the provided source, never from global state,
// so initialization is reproducible from the run seed.
func Xavier(rng *rand.Rand, fanIn, fanOut int, shape tensor.Shape) *tensor.Tensor {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	t := tensor.New(shape)
	data := t.Data()
	for i := range data {
		data[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
	}
	return t
}

// Zeros returns a zero-filled tensor. Used for bias initialization.
func Zeros(shape tensor.Shape) *tensor.Tensor {
	return tensor.New(shape)
}
