package nn

import (
	"fmt"
	"strings"

	"github.com/digit-ml/digit/internal/tensor"
)

// Model is the layer stack produced by Build.
//
// Parameters are owned by the layers and mutated in place by the
// optimizer; Snapshot/Restore copy them out and back for the early
// stopping rollback.
type Model struct {
	layers    []Layer
	inShape   tensor.Shape // without batch dimension
	outShape  tensor.Shape
	numParams int
}

// Forward runs the batch through every layer and returns the logits.
func (m *Model) Forward(input *tensor.Tensor) *tensor.Tensor {
	x := input
	for _, layer := range m.layers {
		x = layer.Forward(x)
	}
	return x
}

// Backward propagates the loss gradient through the stack in reverse,
// accumulating parameter gradients.
func (m *Model) Backward(gradOut *tensor.Tensor) {
	g := gradOut
	for i := len(m.layers) - 1; i >= 0; i-- {
		g = m.layers[i].Backward(g)
	}
}

// Parameters returns all trainable parameters in layer order.
func (m *Model) Parameters() []*Parameter {
	var params []*Parameter
	for _, layer := range m.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}

// NumParameters returns the total trainable element count.
func (m *Model) NumParameters() int {
	return m.numParams
}

// InputShape returns the expected per-sample input shape.
func (m *Model) InputShape() tensor.Shape {
	return m.inShape
}

// OutputShape returns the per-sample output shape.
func (m *Model) OutputShape() tensor.Shape {
	return m.outShape
}

// Snapshot copies every parameter value out of the model.
func (m *Model) Snapshot() [][]float32 {
	params := m.Parameters()
	snap := make([][]float32, len(params))
	for i, p := range params {
		data := p.Value().Data()
		snap[i] = make([]float32, len(data))
		copy(snap[i], data)
	}
	return snap
}

// Restore writes a snapshot back into the model's parameters.
func (m *Model) Restore(snap [][]float32) error {
	params := m.Parameters()
	if len(snap) != len(params) {
		return fmt.Errorf("nn: snapshot has %d parameters, model has %d", len(snap), len(params))
	}
	for i, p := range params {
		data := p.Value().Data()
		if len(snap[i]) != len(data) {
			return fmt.Errorf("nn: snapshot parameter %d has %d elements, want %d",
				i, len(snap[i]), len(data))
		}
		copy(data, snap[i])
	}
	return nil
}

// StateDict returns parameter values keyed by qualified name
// ("layer0.weight", "layer0.bias", ...). Slices are copies.
func (m *Model) StateDict() map[string][]float32 {
	state := make(map[string][]float32)
	for i, layer := range m.layers {
		for _, p := range layer.Parameters() {
			data := p.Value().Data()
			out := make([]float32, len(data))
			copy(out, data)
			state[fmt.Sprintf("layer%d.%s", i, p.Name())] = out
		}
	}
	return state
}

// LoadStateDict writes state produced by StateDict back into the
// model. Every parameter must be present with the right length.
func (m *Model) LoadStateDict(state map[string][]float32) error {
	for i, layer := range m.layers {
		for _, p := range layer.Parameters() {
			key := fmt.Sprintf("layer%d.%s", i, p.Name())
			values, ok := state[key]
			if !ok {
				return fmt.Errorf("nn: missing %s in state dict", key)
			}
			data := p.Value().Data()
			if len(values) != len(data) {
				return fmt.Errorf("nn: %s has %d elements, want %d", key, len(values), len(data))
			}
			copy(data, values)
		}
	}
	return nil
}

// String lists the layer stack.
func (m *Model) String() string {
	var b strings.Builder
	b.WriteString("Model(\n")
	for _, layer := range m.layers {
		fmt.Fprintf(&b, "  %s\n", layer)
	}
	b.WriteString(")")
	return b.String()
}
