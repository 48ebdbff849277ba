package ops

import "github.com/born-ml/purestep/internal/tensor"

// AddOp represents an element-wise addition operation: output = a + b.
//
// Backward pass:
//   - d(a+b)/da = 1, so grad_a = outputGrad
//   - d(a+b)/db = 1, so grad_b = outputGrad reduced over broadcast dims
type AddOp struct{ base }

// NewAddOp creates a new AddOp.
func NewAddOp(a, b, output *tensor.Tensor) *AddOp {
	return &AddOp{base{inputs: []*tensor.Tensor{a, b}, output: output}}
}

// Name returns "add".
func (op *AddOp) Name() string { return "add" }

// Backward computes input gradients for addition.
func (op *AddOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.Tensor{
		reduceBroadcast(outputGrad, a.Shape(), backend),
		reduceBroadcast(outputGrad, b.Shape(), backend),
	}
}

// SubOp represents an element-wise subtraction: output = a - b.
//
// Backward pass:
//   - grad_a = outputGrad
//   - grad_b = -outputGrad reduced over broadcast dims
type SubOp struct{ base }

// NewSubOp creates a new SubOp.
func NewSubOp(a, b, output *tensor.Tensor) *SubOp {
	return &SubOp{base{inputs: []*tensor.Tensor{a, b}, output: output}}
}

// Name returns "sub".
func (op *SubOp) Name() string { return "sub" }

// Backward computes input gradients for subtraction.
func (op *SubOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	a, b := op.inputs[0], op.inputs[1]
	neg := backend.MulScalar(outputGrad, -1)
	return []*tensor.Tensor{
		reduceBroadcast(outputGrad, a.Shape(), backend),
		reduceBroadcast(neg, b.Shape(), backend),
	}
}

// MulOp represents an element-wise multiplication: output = a * b.
//
// Backward pass:
//   - grad_a = outputGrad * b
//   - grad_b = outputGrad * a, reduced over broadcast dims
type MulOp struct{ base }

// NewMulOp creates a new MulOp.
func NewMulOp(a, b, output *tensor.Tensor) *MulOp {
	return &MulOp{base{inputs: []*tensor.Tensor{a, b}, output: output}}
}

// Name returns "mul".
func (op *MulOp) Name() string { return "mul" }

// Backward computes input gradients for multiplication.
func (op *MulOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	a, b := op.inputs[0], op.inputs[1]
	gradA := backend.Mul(outputGrad, b)
	gradB := backend.Mul(outputGrad, a)
	return []*tensor.Tensor{
		reduceBroadcast(gradA, a.Shape(), backend),
		reduceBroadcast(gradB, b.Shape(), backend),
	}
}

// DivOp represents an element-wise division: output = a / b.
//
// Backward pass:
//   - grad_a = outputGrad / b
//   - grad_b = -outputGrad * a / b², reduced over broadcast dims
type DivOp struct{ base }

// NewDivOp creates a new DivOp.
func NewDivOp(a, b, output *tensor.Tensor) *DivOp {
	return &DivOp{base{inputs: []*tensor.Tensor{a, b}, output: output}}
}

// Name returns "div".
func (op *DivOp) Name() string { return "div" }

// Backward computes input gradients for division.
func (op *DivOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	a, b := op.inputs[0], op.inputs[1]
	gradA := backend.Div(outputGrad, b)
	// -g * (a / b) / b == -g * output / b
	gradB := backend.MulScalar(backend.Div(backend.Mul(outputGrad, op.output), b), -1)
	return []*tensor.Tensor{
		reduceBroadcast(gradA, a.Shape(), backend),
		reduceBroadcast(gradB, b.Shape(), backend),
	}
}

// ScaleOp represents multiplication by a constant: output = x * s.
type ScaleOp struct {
	base
	scale float32
}

// NewScaleOp creates a new ScaleOp.
func NewScaleOp(x, output *tensor.Tensor, scale float32) *ScaleOp {
	return &ScaleOp{base: base{inputs: []*tensor.Tensor{x}, output: output}, scale: scale}
}

// Name returns "mul_scalar".
func (op *ScaleOp) Name() string { return "mul_scalar" }

// Backward returns outputGrad * s.
func (op *ScaleOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{backend.MulScalar(outputGrad, op.scale)}
}

// ShiftOp represents addition of a constant: output = x + s.
type ShiftOp struct{ base }

// NewShiftOp creates a new ShiftOp.
func NewShiftOp(x, output *tensor.Tensor) *ShiftOp {
	return &ShiftOp{base{inputs: []*tensor.Tensor{x}, output: output}}
}

// Name returns "add_scalar".
func (op *ShiftOp) Name() string { return "add_scalar" }

// Backward passes the gradient through unchanged.
func (op *ShiftOp) Backward(outputGrad *tensor.Tensor, _ tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{outputGrad}
}
