package ops

import "github.com/born-ml/purestep/internal/tensor"

// MatMulOp represents a matrix multiplication operation: output = a @ b.
//
// Backward pass:
//   - d(A@B)/dA = outputGrad @ B^T
//   - d(A@B)/dB = A^T @ outputGrad
type MatMulOp struct{ base }

// NewMatMulOp creates a new MatMulOp.
func NewMatMulOp(a, b, output *tensor.Tensor) *MatMulOp {
	return &MatMulOp{base{inputs: []*tensor.Tensor{a, b}, output: output}}
}

// Name returns "matmul".
func (op *MatMulOp) Name() string { return "matmul" }

// Backward computes input gradients for matrix multiplication.
func (op *MatMulOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	a, b := op.inputs[0], op.inputs[1]

	// grad_a = outputGrad @ b^T
	gradA := backend.MatMul(outputGrad, backend.Transpose(b))

	// grad_b = a^T @ outputGrad
	gradB := backend.MatMul(backend.Transpose(a), outputGrad)

	return []*tensor.Tensor{gradA, gradB}
}

// TransposeOp represents a matrix transpose.
//
// The backend copies data, so the op must be recorded for gradients to
// reach the untransposed tensor.
type TransposeOp struct{ base }

// NewTransposeOp creates a new TransposeOp.
func NewTransposeOp(x, output *tensor.Tensor) *TransposeOp {
	return &TransposeOp{base{inputs: []*tensor.Tensor{x}, output: output}}
}

// Name returns "transpose".
func (op *TransposeOp) Name() string { return "transpose" }

// Backward transposes the gradient back.
func (op *TransposeOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{backend.Transpose(outputGrad)}
}
