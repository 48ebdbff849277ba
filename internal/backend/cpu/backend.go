// Package cpu implements the CPU backend: pure Go kernels with a gonum BLAS matmul.
//
// The backend holds no mutable state, so one instance can serve any number of
// step functions. Kernels always allocate their result; inputs are never
// written, which keeps every stateless call referentially transparent.
package cpu

import (
	"fmt"

	"github.com/born-ml/purestep/internal/parallel"
	"github.com/born-ml/purestep/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	features Features
	parallel parallel.Config
}

// New creates a new CPU backend that splits row-wise kernels across all CPUs.
func New() *CPUBackend {
	return NewWithParallel(parallel.DefaultConfig())
}

// NewWithParallel creates a CPU backend with an explicit parallelism config.
// Results are identical for every config.
func NewWithParallel(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		features: DetectFeatures(),
		parallel: cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Features returns the host CPU description captured at construction.
func (cpu *CPUBackend) Features() Features {
	return cpu.features
}

// rows runs f over row ranges of an n-row kernel.
func (cpu *CPUBackend) rows(n int, f func(start, end int)) {
	parallel.Rows(n, f, cpu.parallel)
}

// alloc creates the result tensor for a kernel.
func alloc(op string, shape tensor.Shape) *tensor.Tensor {
	result, err := tensor.New(shape)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return result
}

// require2D panics unless x is a matrix.
func require2D(op string, x *tensor.Tensor) (rows, cols int) {
	shape := x.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("%s: expected 2D tensor, got shape %v", op, shape))
	}
	return shape[0], shape[1]
}
