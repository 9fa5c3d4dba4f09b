package nn

import (
	"fmt"

	"github.com/digit-ml/digit/internal/compute"
	"github.com/digit-ml/digit/internal/tensor"
)

// Config is an ordered list of typed layer records. Build consumes it
// and validates shape compatibility layer by layer, so an incompatible
// stack fails before training starts rather than mid-epoch.
type Config []LayerSpec

// LayerSpec is one typed layer-configuration record.
type LayerSpec interface {
	// build constructs the layer for the given input shape (without
	// the batch dimension) and returns the output shape.
	build(ctx *compute.Context, in tensor.Shape) (Layer, tensor.Shape, error)
}

// Conv configures a stride-1 convolution stage.
type Conv struct {
	Filters int  // output channels
	Kernel  int  // square kernel size
	Pad     bool // true for same padding, false for valid
}

func (c Conv) build(ctx *compute.Context, in tensor.Shape) (Layer, tensor.Shape, error) {
	if len(in) != 3 {
		return nil, nil, fmt.Errorf("conv: needs [channels, height, width] input, got %v", in)
	}
	if c.Filters <= 0 || c.Kernel <= 0 {
		return nil, nil, fmt.Errorf("conv: invalid filters=%d kernel=%d", c.Filters, c.Kernel)
	}
	layer := NewConv2D(in[0], c.Filters, c.Kernel, c.Pad, ctx.RNG())
	outH, outW := layer.OutputSize(in[1], in[2])
	if outH <= 0 || outW <= 0 {
		return nil, nil, fmt.Errorf("conv: kernel %d does not fit %dx%d input", c.Kernel, in[1], in[2])
	}
	return layer, tensor.Shape{c.Filters, outH, outW}, nil
}

// Activation configures an elementwise activation stage.
type Activation struct {
	Kind string // "relu"
}

func (a Activation) build(_ *compute.Context, in tensor.Shape) (Layer, tensor.Shape, error) {
	switch a.Kind {
	case "relu":
		return NewReLU(), in, nil
	default:
		return nil, nil, fmt.Errorf("activation: unknown kind %q", a.Kind)
	}
}

// The Flatten layer doubles as its own config record: nn.Flatten{} in
// a Config builds a fresh flatten stage.
func (Flatten) build(_ *compute.Context, in tensor.Shape) (Layer, tensor.Shape, error) {
	return NewFlatten(), tensor.Shape{in.NumElements()}, nil
}

// Dense configures a fully connected stage producing Units outputs.
type Dense struct {
	Units int
}

func (d Dense) build(ctx *compute.Context, in tensor.Shape) (Layer, tensor.Shape, error) {
	if len(in) != 1 {
		return nil, nil, fmt.Errorf("dense: needs flat input, got %v (add a flatten stage first)", in)
	}
	if d.Units <= 0 {
		return nil, nil, fmt.Errorf("dense: invalid units %d", d.Units)
	}
	return NewLinear(in[0], d.Units, ctx.RNG()), tensor.Shape{d.Units}, nil
}

// Build assembles a Model from the config for inputs of the given
// shape (without the batch dimension, e.g. [1, 28, 28]).
func Build(ctx *compute.Context, cfg Config, input tensor.Shape) (*Model, error) {
	if len(cfg) == 0 {
		return nil, fmt.Errorf("nn: empty layer config")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	layers := make([]Layer, 0, len(cfg))
	shape := input.Clone()
	for i, spec := range cfg {
		layer, out, err := spec.build(ctx, shape)
		if err != nil {
			return nil, fmt.Errorf("nn: layer %d: %w", i, err)
		}
		layers = append(layers, layer)
		shape = out
	}

	return &Model{
		layers:    layers,
		inShape:   input.Clone(),
		outShape:  shape,
		numParams: countParameters(layers),
	}, nil
}

func countParameters(layers []Layer) int {
	total := 0
	for _, layer := range layers {
		for _, p := range layer.Parameters() {
			total += p.Value().NumElements()
		}
	}
	return total
}
