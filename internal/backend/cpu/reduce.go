package cpu

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/purestep/internal/tensor"
)

// Sum adds every element into a scalar.
// Accumulation runs in float64 so long reductions stay order-stable.
func (cpu *CPUBackend) Sum(x *tensor.Tensor) *tensor.Tensor {
	var sum float64
	for _, v := range x.Data() {
		sum += float64(v)
	}
	return tensor.Scalar(float32(sum))
}

// Mean averages every element into a scalar.
func (cpu *CPUBackend) Mean(x *tensor.Tensor) *tensor.Tensor {
	var sum float64
	for _, v := range x.Data() {
		sum += float64(v)
	}
	return tensor.Scalar(float32(sum / float64(x.NumElements())))
}

// SumRows reduces a [N, F] matrix over its rows into [F].
func (cpu *CPUBackend) SumRows(x *tensor.Tensor) *tensor.Tensor {
	rows, cols := require2D("sum_rows", x)
	acc := make([]float64, cols)
	in := x.Data()
	for i := 0; i < rows; i++ {
		row := in[i*cols : (i+1)*cols]
		for j, v := range row {
			acc[j] += float64(v)
		}
	}
	result := alloc("sum_rows", tensor.Shape{cols})
	out := result.Data()
	for j, v := range acc {
		out[j] = float32(v)
	}
	return result
}

// Argmax returns the index of the largest value in each row of [N, C].
// Ties resolve to the lowest index.
func (cpu *CPUBackend) Argmax(x *tensor.Tensor) *tensor.Tensor {
	rows, cols := require2D("argmax", x)
	result := alloc("argmax", tensor.Shape{rows})
	in, out := x.Data(), result.Data()
	cpu.rows(rows, func(start, end int) {
		for i := start; i < end; i++ {
			best := 0
			bestVal := math32.Inf(-1)
			for j, v := range in[i*cols : (i+1)*cols] {
				if v > bestVal {
					best, bestVal = j, v
				}
			}
			out[i] = float32(best)
		}
	})
	return result
}

// Softmax normalizes each row of [N, C] into a probability distribution.
// The row max is subtracted first for numerical stability.
func (cpu *CPUBackend) Softmax(x *tensor.Tensor) *tensor.Tensor {
	rows, cols := require2D("softmax", x)
	result := alloc("softmax", x.Shape())
	in, out := x.Data(), result.Data()
	cpu.rows(rows, func(start, end int) {
		for i := start; i < end; i++ {
			softmaxRow(out[i*cols:(i+1)*cols], in[i*cols:(i+1)*cols])
		}
	})
	return result
}

func softmaxRow(dst, src []float32) {
	maxVal := math32.Inf(-1)
	for _, v := range src {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float32
	for j, v := range src {
		e := math32.Exp(v - maxVal)
		dst[j] = e
		sum += e
	}
	for j := range dst {
		dst[j] /= sum
	}
}
