package stateless

import (
	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/autodiff"
	"github.com/born-ml/purestep/internal/tensor"
)

// LossFunc computes a scalar loss and an auxiliary result from params and
// an input of type X. Every operation on params must go through b.
type LossFunc[X, A any] func(b tensor.Backend, params Collection, x X) (*tensor.Tensor, A, error)

// Value is the forward result of ValueAndGrad. The loss is always its own
// field, so it can never be confused with an auxiliary output.
type Value[A any] struct {
	Loss *tensor.Tensor
	Aux  A
}

// ValueAndGradFunc evaluates a LossFunc together with its gradient.
type ValueAndGradFunc[X, A any] func(b tensor.Backend, params Collection, x X) (Value[A], Collection, error)

// ValueAndGrad transforms f into a function that also returns d loss / d params.
//
// Every call records f on a fresh gradient tape wrapped around the caller's
// backend. params are cloned first, so two calls never share tape identity
// and aliasing entries in params get independent gradients. The gradient
// collection has exactly the shapes of params; parameters the loss does not
// depend on get zeros.
//
// Example:
//
//	vg := stateless.ValueAndGrad(func(b tensor.Backend, p stateless.Collection, x *tensor.Tensor) (*tensor.Tensor, struct{}, error) {
//	    return b.Mean(b.Mul(p[0], x)), struct{}{}, nil
//	})
//	value, grads, err := vg(cpu.New(), params, x)
func ValueAndGrad[X, A any](f LossFunc[X, A]) ValueAndGradFunc[X, A] {
	return func(b tensor.Backend, params Collection, x X) (Value[A], Collection, error) {
		ad := autodiff.New(b)
		tracked := params.Clone()

		ad.Tape().StartRecording()
		loss, aux, err := f(ad, tracked, x)
		ad.Tape().StopRecording()
		if err != nil {
			return Value[A]{}, nil, err
		}
		if loss == nil || loss.NumElements() != 1 {
			shape := tensor.Shape(nil)
			if loss != nil {
				shape = loss.Shape()
			}
			return Value[A]{}, nil, errors.Wrapf(ErrNotScalar, "loss shape %v", shape)
		}

		grads := ad.Tape().Backward(loss, tensor.Full(loss.Shape(), 1), b)
		out := make(Collection, len(tracked))
		for i, p := range tracked {
			if g, ok := grads[p]; ok {
				out[i] = g
			} else {
				out[i] = tensor.ZerosLike(p)
			}
		}
		return Value[A]{Loss: loss, Aux: aux}, out, nil
	}
}

// GradFunc evaluates only the gradient of a loss.
type GradFunc[X any] func(b tensor.Backend, params Collection, x X) (Collection, error)

// Grad is ValueAndGrad for losses without an auxiliary result.
func Grad[X any](f func(b tensor.Backend, params Collection, x X) (*tensor.Tensor, error)) GradFunc[X] {
	vg := ValueAndGrad(func(b tensor.Backend, params Collection, x X) (*tensor.Tensor, struct{}, error) {
		loss, err := f(b, params, x)
		return loss, struct{}{}, err
	})
	return func(b tensor.Backend, params Collection, x X) (Collection, error) {
		_, grads, err := vg(b, params, x)
		return grads, err
	}
}
