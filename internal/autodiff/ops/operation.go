// Package ops defines operation interfaces and implementations for automatic differentiation.
//
// Each operation implements the Operation interface, which provides:
//   - Forward pass: computed by the backend
//   - Backward pass: computes gradients for inputs given output gradient
//
// Supported operations:
//   - AddOp, SubOp, MulOp, DivOp: element-wise arithmetic with row/scalar broadcasting
//   - ScaleOp, ShiftOp: multiplication / addition by a constant
//   - MatMulOp, TransposeOp: matrix algebra
//   - ExpOp, LogOp, SqrtOp: element-wise math
//   - ReLUOp, TanhOp, SigmoidOp, SoftmaxOp: activations
//   - SumOp, MeanOp, SumRowsOp: reductions
//   - SoftmaxCrossEntropyOp, BatchNormOp: fused training ops
package ops

import "github.com/born-ml/purestep/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
// Each operation records its inputs and output during the forward pass,
// and computes input gradients during the backward pass.
type Operation interface {
	// Name identifies the operation in traces, e.g. "matmul".
	Name() string

	// Backward computes gradients for inputs given the output gradient.
	// Returns a slice of gradients corresponding to each input tensor;
	// a nil entry means no gradient flows to that input.
	//
	// Example for AddOp:
	//   inputs: [a, b]
	//   outputGrad: dL/d(a+b)
	//   returns: [dL/d(a+b), dL/d(a+b)] (gradient flows equally to both inputs)
	Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.Tensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.Tensor
}

// base holds the bookkeeping shared by every operation.
type base struct {
	inputs []*tensor.Tensor
	output *tensor.Tensor
}

// Inputs returns the recorded inputs.
func (b *base) Inputs() []*tensor.Tensor {
	return b.inputs
}

// Output returns the recorded output.
func (b *base) Output() *tensor.Tensor {
	return b.output
}
