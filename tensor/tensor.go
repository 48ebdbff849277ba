// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand/v2"

	"github.com/born-ml/purestep/internal/tensor"
)

// Tensor is a dense row-major float32 array.
type Tensor = tensor.Tensor

// Shape represents the dimensions of a tensor. An empty shape is a scalar.
type Shape = tensor.Shape

// Collection is an ordered list of tensors.
type Collection = tensor.Collection

// Backend is the set of operations a step function runs on.
type Backend = tensor.Backend

// ErrShapeMismatch reports a tensor or collection with an unexpected shape.
var ErrShapeMismatch = tensor.ErrShapeMismatch

// New allocates a zero-filled tensor.
func New(shape Shape) (*Tensor, error) { return tensor.New(shape) }

// FromSlice creates a tensor from a copy of data.
func FromSlice(data []float32, shape Shape) (*Tensor, error) { return tensor.FromSlice(data, shape) }

// MustFromSlice is FromSlice that panics on error.
func MustFromSlice(data []float32, shape Shape) *Tensor { return tensor.MustFromSlice(data, shape) }

// Scalar creates a rank-0 tensor.
func Scalar(v float32) *Tensor { return tensor.Scalar(v) }

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape) *Tensor { return tensor.Zeros(shape) }

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor { return tensor.Ones(shape) }

// Full creates a tensor filled with value.
func Full(shape Shape, value float32) *Tensor { return tensor.Full(shape, value) }

// RandNormal draws from N(mean, std²) using rng.
func RandNormal(shape Shape, mean, std float32, rng *rand.Rand) *Tensor {
	return tensor.RandNormal(shape, mean, std, rng)
}

// RandUniform draws from U[low, high) using rng.
func RandUniform(shape Shape, low, high float32, rng *rand.Rand) *Tensor {
	return tensor.RandUniform(shape, low, high, rng)
}

// NewRand returns a deterministic PCG generator for seed.
func NewRand(seed uint64) *rand.Rand { return tensor.NewRand(seed) }
