package ops

import (
	"fmt"

	"github.com/born-ml/purestep/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target shape.
// This is necessary when broadcasting was used in the forward pass.
//
// Example:
//
//	Forward: a[3,4] + b[4] -> c[3,4]  (b was broadcast over rows)
//	Backward: grad_c[3,4] -> grad_b[4] (sum over rows)
func reduceBroadcast(grad *tensor.Tensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.Tensor {
	mode, err := tensor.ResolveBroadcast(grad.Shape(), targetShape)
	if err != nil {
		panic(fmt.Sprintf("reduceBroadcast: %v", err))
	}

	switch mode {
	case tensor.BroadcastRow:
		return backend.SumRows(grad)
	case tensor.BroadcastScalar:
		sum := backend.Sum(grad)
		if len(targetShape) == 0 {
			return sum
		}
		return tensor.Full(targetShape, sum.Item())
	default:
		return grad
	}
}

// zip builds a new tensor from two same-shaped tensors.
// Used for derivative masks that have no backend kernel.
func zip(a, b *tensor.Tensor, f func(x, y float32) float32) *tensor.Tensor {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("zip: shape mismatch %v vs %v", a.Shape(), b.Shape()))
	}
	result := tensor.ZerosLike(a)
	out, av, bv := result.Data(), a.Data(), b.Data()
	for i := range out {
		out[i] = f(av[i], bv[i])
	}
	return result
}

// tileRows repeats a [F] vector into [rows, F].
func tileRows(v *tensor.Tensor, rows int) *tensor.Tensor {
	cols := v.NumElements()
	result := tensor.Zeros(tensor.Shape{rows, cols})
	out, in := result.Data(), v.Data()
	for i := 0; i < rows; i++ {
		copy(out[i*cols:(i+1)*cols], in)
	}
	return result
}
