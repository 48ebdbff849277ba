package ops

import "github.com/born-ml/purestep/internal/tensor"

// ExpOp represents output = e^x. Backward: grad_x = outputGrad * output.
type ExpOp struct{ base }

// NewExpOp creates a new ExpOp.
func NewExpOp(x, output *tensor.Tensor) *ExpOp {
	return &ExpOp{base{inputs: []*tensor.Tensor{x}, output: output}}
}

// Name returns "exp".
func (op *ExpOp) Name() string { return "exp" }

// Backward computes the input gradient for exp.
func (op *ExpOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{backend.Mul(outputGrad, op.output)}
}

// LogOp represents output = ln(x). Backward: grad_x = outputGrad / x.
type LogOp struct{ base }

// NewLogOp creates a new LogOp.
func NewLogOp(x, output *tensor.Tensor) *LogOp {
	return &LogOp{base{inputs: []*tensor.Tensor{x}, output: output}}
}

// Name returns "log".
func (op *LogOp) Name() string { return "log" }

// Backward computes the input gradient for log.
func (op *LogOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{backend.Div(outputGrad, op.inputs[0])}
}

// SqrtOp represents output = sqrt(x). Backward: grad_x = outputGrad / (2 * output).
type SqrtOp struct{ base }

// NewSqrtOp creates a new SqrtOp.
func NewSqrtOp(x, output *tensor.Tensor) *SqrtOp {
	return &SqrtOp{base{inputs: []*tensor.Tensor{x}, output: output}}
}

// Name returns "sqrt".
func (op *SqrtOp) Name() string { return "sqrt" }

// Backward computes the input gradient for sqrt.
func (op *SqrtOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{backend.Div(outputGrad, backend.MulScalar(op.output, 2))}
}
