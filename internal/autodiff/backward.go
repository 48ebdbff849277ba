package autodiff

import (
	"fmt"

	"github.com/born-ml/purestep/internal/tensor"
)

// BackwardCapable is an interface for backends that support backward pass.
// AutodiffBackend implements this interface.
type BackwardCapable interface {
	tensor.Backend
	// GetTape returns the gradient tape for backward computation.
	GetTape() *GradientTape
	// Untracked returns the backend used to evaluate gradient rules.
	Untracked() tensor.Backend
}

// GetTape returns the gradient tape (implements BackwardCapable interface).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Untracked returns the wrapped backend (implements BackwardCapable interface).
func (b *AutodiffBackend[B]) Untracked() tensor.Backend {
	return b.inner
}

// Backward computes gradients of a scalar tensor using the backend's tape.
//
// The output gradient is seeded with ones. Gradient rules run on the wrapped
// backend, so the backward pass itself is never recorded.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	loss := backend.Sum(backend.Mul(x, x))
//	gradients := autodiff.Backward(loss, backend)
//	grad := gradients[x] // 2x
func Backward(t *tensor.Tensor, backend BackwardCapable) map[*tensor.Tensor]*tensor.Tensor {
	tape := backend.GetTape()
	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("backward: output must be a scalar, got shape %v", t.Shape()))
	}

	seed := tensor.Full(t.Shape(), 1)
	return tape.Backward(t, seed, backend.Untracked())
}
