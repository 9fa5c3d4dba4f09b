package nn

import (
	"fmt"
	"math/rand"

	"github.com/digit-ml/digit/internal/tensor"
)

// Conv2D is a 2D convolutional layer with stride 1.
//
// Input shape:  [batch, in_channels, height, width]
// Weight shape: [out_channels, in_channels, kernel, kernel]
// Bias shape:   [out_channels]
//
// With same padding the spatial size is preserved; zeros are implied
// before the first (kernel-1)/2 rows/columns and after the rest, which
// matches the asymmetric padding convention for even kernels. Without
// padding the output shrinks to (size - kernel + 1).
type Conv2D struct {
	inChannels  int
	outChannels int
	kernel      int
	same        bool
	pad         int

	weight *Parameter
	bias   *Parameter

	input *tensor.Tensor // cached for Backward
}

// NewConv2D creates a convolutional layer with Xavier-initialized
// weights and zero biases.
func NewConv2D(inChannels, outChannels, kernel int, same bool, rng *rand.Rand) *Conv2D {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d, out=%d", inChannels, outChannels))
	}
	if kernel <= 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel size %d", kernel))
	}

	fanIn := inChannels * kernel * kernel
	fanOut := outChannels * kernel * kernel
	weight := Xavier(rng, fanIn, fanOut, tensor.Shape{outChannels, inChannels, kernel, kernel})

	pad := 0
	if same {
		pad = (kernel - 1) / 2
	}

	return &Conv2D{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernel:      kernel,
		same:        same,
		pad:         pad,
		weight:      NewParameter("weight", weight),
		bias:        NewParameter("bias", Zeros(tensor.Shape{outChannels})),
	}
}

// OutputSize returns the spatial output dimensions for an input of
// inH x inW.
func (c *Conv2D) OutputSize(inH, inW int) (int, int) {
	if c.same {
		return inH, inW
	}
	return inH - c.kernel + 1, inW - c.kernel + 1
}

// Forward computes the convolution over a batch.
func (c *Conv2D) Forward(input *tensor.Tensor) *tensor.Tensor {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("conv2d: expected 4D input [N,C,H,W], got %v", shape))
	}
	if shape[1] != c.inChannels {
		panic(fmt.Sprintf("conv2d: input channels %d != expected %d", shape[1], c.inChannels))
	}

	n, h, w := shape[0], shape[2], shape[3]
	outH, outW := c.OutputSize(h, w)
	out := tensor.New(tensor.Shape{n, c.outChannels, outH, outW})

	in := input.Data()
	wd := c.weight.Value().Data()
	bd := c.bias.Value().Data()
	od := out.Data()
	k := c.kernel

	for b := 0; b < n; b++ {
		for o := 0; o < c.outChannels; o++ {
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					sum := bd[o]
					for ic := 0; ic < c.inChannels; ic++ {
						wBase := ((o*c.inChannels + ic) * k) * k
						inBase := ((b*c.inChannels + ic) * h) * w
						for ky := 0; ky < k; ky++ {
							iy := oy + ky - c.pad
							if iy < 0 || iy >= h {
								continue
							}
							for kx := 0; kx < k; kx++ {
								ix := ox + kx - c.pad
								if ix < 0 || ix >= w {
									continue
								}
								sum += wd[wBase+ky*k+kx] * in[inBase+iy*w+ix]
							}
						}
					}
					od[((b*c.outChannels+o)*outH+oy)*outW+ox] = sum
				}
			}
		}
	}

	c.input = input
	return out
}

// Backward accumulates weight/bias gradients and returns the gradient
// with respect to the input.
func (c *Conv2D) Backward(gradOut *tensor.Tensor) *tensor.Tensor {
	if c.input == nil {
		panic("conv2d: Backward called before Forward")
	}

	inShape := c.input.Shape()
	n, h, w := inShape[0], inShape[2], inShape[3]
	outShape := gradOut.Shape()
	outH, outW := outShape[2], outShape[3]

	gradIn := tensor.New(inShape)

	in := c.input.Data()
	wd := c.weight.Value().Data()
	gw := c.weight.Grad()
	gb := c.bias.Grad()
	gi := gradIn.Data()
	yg := gradOut.Data()
	k := c.kernel

	for b := 0; b < n; b++ {
		for o := 0; o < c.outChannels; o++ {
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					g := yg[((b*c.outChannels+o)*outH+oy)*outW+ox]
					if g == 0 {
						continue
					}
					gb[o] += g
					for ic := 0; ic < c.inChannels; ic++ {
						wBase := ((o*c.inChannels + ic) * k) * k
						inBase := ((b*c.inChannels + ic) * h) * w
						for ky := 0; ky < k; ky++ {
							iy := oy + ky - c.pad
							if iy < 0 || iy >= h {
								continue
							}
							for kx := 0; kx < k; kx++ {
								ix := ox + kx - c.pad
								if ix < 0 || ix >= w {
									continue
								}
								gw[wBase+ky*k+kx] += g * in[inBase+iy*w+ix]
								gi[inBase+iy*w+ix] += g * wd[wBase+ky*k+kx]
							}
						}
					}
				}
			}
		}
	}

	return gradIn
}

// Parameters returns the weight and bias.
func (c *Conv2D) Parameters() []*Parameter {
	return []*Parameter{c.weight, c.bias}
}

// String describes the layer configuration.
func (c *Conv2D) String() string {
	padding := "valid"
	if c.same {
		padding = "same"
	}
	return fmt.Sprintf("Conv2D(in=%d, out=%d, kernel=%dx%d, padding=%s)",
		c.inChannels, c.outChannels, c.kernel, c.kernel, padding)
}
