package tensor

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Shape represents the dimensions of a tensor.
// An empty shape denotes a scalar.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return errors.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// String renders the shape as "4x8"; scalars render as "()".
// This form is used inside state signatures, so every shape, including a
// scalar, must render as a non-empty token.
func (s Shape) String() string {
	if len(s) == 0 {
		return "()"
	}
	parts := make([]string, len(s))
	for i, dim := range s {
		parts[i] = strconv.Itoa(dim)
	}
	return strings.Join(parts, "x")
}

// Broadcast describes how the second operand of a binary op lines up with the first.
type Broadcast int

// Supported broadcast layouts.
const (
	BroadcastNone   Broadcast = iota // identical shapes
	BroadcastRow                     // b is [F], a is [N, F]
	BroadcastScalar                  // b has a single element
)

// ResolveBroadcast reports how b is broadcast against a.
//
// Only the layouts a training loop needs are supported:
//
//	[N,F] op [N,F] -> BroadcastNone
//	[N,F] op [F]   -> BroadcastRow (bias add, per-feature scale)
//	[...] op []    -> BroadcastScalar
func ResolveBroadcast(a, b Shape) (Broadcast, error) {
	switch {
	case a.Equal(b):
		return BroadcastNone, nil
	case b.NumElements() == 1:
		return BroadcastScalar, nil
	case len(a) == 2 && len(b) == 1 && a[1] == b[0]:
		return BroadcastRow, nil
	default:
		return 0, errors.Wrapf(ErrShapeMismatch, "cannot broadcast %v against %v", b, a)
	}
}
