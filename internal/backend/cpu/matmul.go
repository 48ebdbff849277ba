package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/born-ml/purestep/internal/tensor"
)

// MatMul performs matrix multiplication: (M, K) @ (K, N) -> (M, N).
// The kernel is gonum's pure-Go SGEMM, which is deterministic for a
// fixed input.
func (cpu *CPUBackend) MatMul(a, b *tensor.Tensor) *tensor.Tensor {
	m, k := require2D("matmul", a)
	kAlt, n := require2D("matmul", b)
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result := alloc("matmul", tensor.Shape{m, n})
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
		general(a.Data(), m, k),
		general(b.Data(), k, n),
		0,
		general(result.Data(), m, n),
	)
	return result
}

// Transpose swaps the two axes of a matrix.
func (cpu *CPUBackend) Transpose(x *tensor.Tensor) *tensor.Tensor {
	rows, cols := require2D("transpose", x)
	result := alloc("transpose", tensor.Shape{cols, rows})
	in, out := x.Data(), result.Data()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out[j*rows+i] = in[i*cols+j]
		}
	}
	return result
}

// general wraps a row-major buffer as a BLAS matrix.
func general(data []float32, rows, cols int) blas32.General {
	return blas32.General{
		Rows:   rows,
		Cols:   cols,
		Stride: cols,
		Data:   data,
	}
}
