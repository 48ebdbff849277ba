package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/tensor"
)

// Variable represents a named piece of layer state.
//
// Trainable variables (weights, biases, scales) receive gradients.
// Non-trainable variables (moving statistics) are only changed by the
// forward pass in training mode.
//
// Example:
//
//	kernel := nn.NewVariable("dense_0/kernel", kernelTensor, true)
//	w := kernel.Value()
type Variable struct {
	name      string         // Variable name (e.g., "dense_0/kernel")
	value     *tensor.Tensor // Current value, replaced wholesale by Assign
	trainable bool
}

// NewVariable creates a new variable holding value.
func NewVariable(name string, value *tensor.Tensor, trainable bool) *Variable {
	return &Variable{
		name:      name,
		value:     value,
		trainable: trainable,
	}
}

// Name returns the variable name.
func (v *Variable) Name() string {
	return v.name
}

// Value returns the current value.
func (v *Variable) Value() *tensor.Tensor {
	return v.value
}

// Shape returns the shape of the current value.
func (v *Variable) Shape() tensor.Shape {
	return v.value.Shape()
}

// Trainable reports whether the variable receives gradients.
func (v *Variable) Trainable() bool {
	return v.trainable
}

// Assign replaces the value. The new value must have the same shape.
func (v *Variable) Assign(t *tensor.Tensor) error {
	if t == nil {
		return errors.Wrapf(tensor.ErrShapeMismatch, "assign %s: nil value", v.name)
	}
	if !t.Shape().Equal(v.value.Shape()) {
		return errors.Wrapf(tensor.ErrShapeMismatch, "assign %s: expected shape %v, got %v",
			v.name, v.value.Shape(), t.Shape())
	}
	v.value = t
	return nil
}

// Values snapshots the current values of vars.
func Values(vars []*Variable) tensor.Collection {
	out := make(tensor.Collection, len(vars))
	for i, v := range vars {
		out[i] = v.value
	}
	return out
}

// Shapes returns the shapes of vars.
func Shapes(vars []*Variable) []tensor.Shape {
	out := make([]tensor.Shape, len(vars))
	for i, v := range vars {
		out[i] = v.Shape()
	}
	return out
}

// assignAll checks every shape before replacing any value, so a failed
// assignment leaves vars untouched.
func assignAll(name string, vars []*Variable, values tensor.Collection) error {
	if err := values.CheckShapes(name, Shapes(vars)); err != nil {
		return err
	}
	for i, v := range vars {
		v.value = values[i]
	}
	return nil
}
