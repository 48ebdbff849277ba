package ops

import "github.com/born-ml/purestep/internal/tensor"

// ReLUOp represents a ReLU activation: output = max(0, x).
//
// Backward pass:
//   - d(ReLU(x))/dx = 1 if x > 0, else 0
type ReLUOp struct{ base }

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(x, output *tensor.Tensor) *ReLUOp {
	return &ReLUOp{base{inputs: []*tensor.Tensor{x}, output: output}}
}

// Name returns "relu".
func (op *ReLUOp) Name() string { return "relu" }

// Backward masks the gradient where the input was not positive.
func (op *ReLUOp) Backward(outputGrad *tensor.Tensor, _ tensor.Backend) []*tensor.Tensor {
	grad := zip(outputGrad, op.inputs[0], func(g, x float32) float32 {
		if x > 0 {
			return g
		}
		return 0
	})
	return []*tensor.Tensor{grad}
}

// TanhOp represents output = tanh(x). Backward: grad_x = outputGrad * (1 - output²).
type TanhOp struct{ base }

// NewTanhOp creates a new TanhOp.
func NewTanhOp(x, output *tensor.Tensor) *TanhOp {
	return &TanhOp{base{inputs: []*tensor.Tensor{x}, output: output}}
}

// Name returns "tanh".
func (op *TanhOp) Name() string { return "tanh" }

// Backward computes the input gradient for tanh.
func (op *TanhOp) Backward(outputGrad *tensor.Tensor, _ tensor.Backend) []*tensor.Tensor {
	grad := zip(outputGrad, op.output, func(g, y float32) float32 {
		return g * (1 - y*y)
	})
	return []*tensor.Tensor{grad}
}

// SigmoidOp represents output = σ(x). Backward: grad_x = outputGrad * output * (1 - output).
type SigmoidOp struct{ base }

// NewSigmoidOp creates a new SigmoidOp.
func NewSigmoidOp(x, output *tensor.Tensor) *SigmoidOp {
	return &SigmoidOp{base{inputs: []*tensor.Tensor{x}, output: output}}
}

// Name returns "sigmoid".
func (op *SigmoidOp) Name() string { return "sigmoid" }

// Backward computes the input gradient for sigmoid.
func (op *SigmoidOp) Backward(outputGrad *tensor.Tensor, _ tensor.Backend) []*tensor.Tensor {
	grad := zip(outputGrad, op.output, func(g, y float32) float32 {
		return g * y * (1 - y)
	})
	return []*tensor.Tensor{grad}
}

// SoftmaxOp represents row-wise softmax over [N, C].
//
// Backward pass (per row):
//
//	grad_x = y * (g - sum(g * y))
type SoftmaxOp struct{ base }

// NewSoftmaxOp creates a new SoftmaxOp.
func NewSoftmaxOp(x, output *tensor.Tensor) *SoftmaxOp {
	return &SoftmaxOp{base{inputs: []*tensor.Tensor{x}, output: output}}
}

// Name returns "softmax".
func (op *SoftmaxOp) Name() string { return "softmax" }

// Backward computes the input gradient for softmax.
func (op *SoftmaxOp) Backward(outputGrad *tensor.Tensor, _ tensor.Backend) []*tensor.Tensor {
	shape := op.output.Shape()
	rows, cols := shape[0], shape[1]
	grad := tensor.ZerosLike(op.output)
	out, y, g := grad.Data(), op.output.Data(), outputGrad.Data()
	for i := 0; i < rows; i++ {
		lo, hi := i*cols, (i+1)*cols
		var dot float32
		for j := lo; j < hi; j++ {
			dot += g[j] * y[j]
		}
		for j := lo; j < hi; j++ {
			out[j] = y[j] * (g[j] - dot)
		}
	}
	return []*tensor.Tensor{grad}
}
