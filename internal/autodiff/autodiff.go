// Package autodiff implements automatic differentiation using the decorator pattern.
//
// AutodiffBackend wraps any Backend implementation and adds gradient tracking
// through a GradientTape.
//
// Architecture:
//   - Decorator pattern: AutodiffBackend[B] wraps any Backend implementation
//   - GradientTape: Records operations during forward pass
//   - Operation interface: Each op (Add, Mul, MatMul) implements backward pass
//   - Reverse-mode AD: Computes gradients efficiently using chain rule
//
// A backend and its tape are single-use in the stateless API: every gradient
// evaluation creates a fresh one, so no recorded state survives a call.
//
// Usage:
//
//	ad := autodiff.New(cpu.New())
//	ad.Tape().StartRecording()
//	y := ad.Mul(x, x) // y = x²
//	grads := autodiff.Backward(ad.Sum(y), ad)
//	fmt.Println(grads[x]) // 2x
package autodiff

import (
	"github.com/born-ml/purestep/internal/autodiff/ops"
	"github.com/born-ml/purestep/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface and records operations in a GradientTape.
//
// Type parameter B must satisfy the tensor.Backend interface.
type AutodiffBackend[B tensor.Backend] struct {
	inner B             // Wrapped backend
	tape  *GradientTape // Records operations for backpropagation
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(x, y *tensor.Tensor) *tensor.Tensor {
	result := b.inner.Add(x, y)
	b.tape.Record(ops.NewAddOp(x, y, result))
	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(x, y *tensor.Tensor) *tensor.Tensor {
	result := b.inner.Sub(x, y)
	b.tape.Record(ops.NewSubOp(x, y, result))
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(x, y *tensor.Tensor) *tensor.Tensor {
	result := b.inner.Mul(x, y)
	b.tape.Record(ops.NewMulOp(x, y, result))
	return result
}

// Div performs element-wise division and records the operation.
func (b *AutodiffBackend[B]) Div(x, y *tensor.Tensor) *tensor.Tensor {
	result := b.inner.Div(x, y)
	b.tape.Record(ops.NewDivOp(x, y, result))
	return result
}

// AddScalar adds a constant and records the operation.
func (b *AutodiffBackend[B]) AddScalar(x *tensor.Tensor, s float32) *tensor.Tensor {
	result := b.inner.AddScalar(x, s)
	b.tape.Record(ops.NewShiftOp(x, result))
	return result
}

// MulScalar multiplies by a constant and records the operation.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.Tensor, s float32) *tensor.Tensor {
	result := b.inner.MulScalar(x, s)
	b.tape.Record(ops.NewScaleOp(x, result, s))
	return result
}

// MatMul performs matrix multiplication and records the operation.
func (b *AutodiffBackend[B]) MatMul(x, y *tensor.Tensor) *tensor.Tensor {
	result := b.inner.MatMul(x, y)
	b.tape.Record(ops.NewMatMulOp(x, y, result))
	return result
}

// Transpose transposes a matrix and records the operation.
//
// The CPU backend copies data, so without a TransposeOp the gradient would
// land on the copy and never reach the original parameter.
func (b *AutodiffBackend[B]) Transpose(x *tensor.Tensor) *tensor.Tensor {
	result := b.inner.Transpose(x)
	b.tape.Record(ops.NewTransposeOp(x, result))
	return result
}

// Exp computes e^x and records the operation.
func (b *AutodiffBackend[B]) Exp(x *tensor.Tensor) *tensor.Tensor {
	result := b.inner.Exp(x)
	b.tape.Record(ops.NewExpOp(x, result))
	return result
}

// Log computes ln(x) and records the operation.
func (b *AutodiffBackend[B]) Log(x *tensor.Tensor) *tensor.Tensor {
	result := b.inner.Log(x)
	b.tape.Record(ops.NewLogOp(x, result))
	return result
}

// Sqrt computes sqrt(x) and records the operation.
func (b *AutodiffBackend[B]) Sqrt(x *tensor.Tensor) *tensor.Tensor {
	result := b.inner.Sqrt(x)
	b.tape.Record(ops.NewSqrtOp(x, result))
	return result
}

// ReLU applies max(0, x) and records the operation.
func (b *AutodiffBackend[B]) ReLU(x *tensor.Tensor) *tensor.Tensor {
	result := b.inner.ReLU(x)
	b.tape.Record(ops.NewReLUOp(x, result))
	return result
}

// Tanh applies tanh and records the operation.
func (b *AutodiffBackend[B]) Tanh(x *tensor.Tensor) *tensor.Tensor {
	result := b.inner.Tanh(x)
	b.tape.Record(ops.NewTanhOp(x, result))
	return result
}

// Sigmoid applies the logistic function and records the operation.
func (b *AutodiffBackend[B]) Sigmoid(x *tensor.Tensor) *tensor.Tensor {
	result := b.inner.Sigmoid(x)
	b.tape.Record(ops.NewSigmoidOp(x, result))
	return result
}

// Softmax applies row-wise softmax and records the operation.
func (b *AutodiffBackend[B]) Softmax(x *tensor.Tensor) *tensor.Tensor {
	result := b.inner.Softmax(x)
	b.tape.Record(ops.NewSoftmaxOp(x, result))
	return result
}

// Sum reduces to a scalar and records the operation.
func (b *AutodiffBackend[B]) Sum(x *tensor.Tensor) *tensor.Tensor {
	result := b.inner.Sum(x)
	b.tape.Record(ops.NewSumOp(x, result))
	return result
}

// Mean reduces to a scalar mean and records the operation.
func (b *AutodiffBackend[B]) Mean(x *tensor.Tensor) *tensor.Tensor {
	result := b.inner.Mean(x)
	b.tape.Record(ops.NewMeanOp(x, result))
	return result
}

// SumRows reduces [N, F] to [F] and records the operation.
func (b *AutodiffBackend[B]) SumRows(x *tensor.Tensor) *tensor.Tensor {
	result := b.inner.SumRows(x)
	b.tape.Record(ops.NewSumRowsOp(x, result))
	return result
}

// Argmax is not differentiable and is never recorded.
func (b *AutodiffBackend[B]) Argmax(x *tensor.Tensor) *tensor.Tensor {
	return b.inner.Argmax(x)
}

// SoftmaxCrossEntropy computes the fused loss and records the operation.
func (b *AutodiffBackend[B]) SoftmaxCrossEntropy(logits, labels *tensor.Tensor) *tensor.Tensor {
	result := b.inner.SoftmaxCrossEntropy(logits, labels)
	b.tape.Record(ops.NewSoftmaxCrossEntropyOp(logits, labels, result))
	return result
}

// BatchNormTrain normalizes with batch moments and records the operation.
// The returned moments are constants as far as the tape is concerned.
func (b *AutodiffBackend[B]) BatchNormTrain(x, gamma, beta *tensor.Tensor, eps float32) (y, mean, variance *tensor.Tensor) {
	y, mean, variance = b.inner.BatchNormTrain(x, gamma, beta, eps)
	b.tape.Record(ops.NewBatchNormOp(x, gamma, beta, mean, variance, y, eps, true))
	return y, mean, variance
}

// BatchNormInfer normalizes with supplied statistics and records the operation.
func (b *AutodiffBackend[B]) BatchNormInfer(x, gamma, beta, mean, variance *tensor.Tensor, eps float32) *tensor.Tensor {
	result := b.inner.BatchNormInfer(x, gamma, beta, mean, variance, eps)
	b.tape.Record(ops.NewBatchNormOp(x, gamma, beta, mean, variance, result, eps, false))
	return result
}
