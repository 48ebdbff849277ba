// Package tensor provides the dense float32 tensor used by every purestep component.
//
// Tensors are plain row-major buffers. Stateless APIs treat them as values:
// an operation never writes into one of its inputs, so a tensor handed to a
// step function can be shared freely between the old and the new state.
package tensor

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// ErrShapeMismatch reports that a tensor or collection does not have the
// shape a consumer was built or traced against. It is never retryable.
var ErrShapeMismatch = errors.New("shape mismatch")

// Tensor is a dense row-major float32 array.
type Tensor struct {
	shape Shape
	data  []float32
}

// New allocates a zero-filled tensor.
func New(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid shape")
	}
	return &Tensor{
		shape: shape.Clone(),
		data:  make([]float32, shape.NumElements()),
	}, nil
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float32, shape Shape) (*Tensor, error) {
	if shape.NumElements() != len(data) {
		return nil, errors.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	t, err := New(shape)
	if err != nil {
		return nil, err
	}
	copy(t.data, data)
	return t, nil
}

// MustFromSlice is FromSlice for literals in tests and examples. It panics on error.
func MustFromSlice(data []float32, shape Shape) *Tensor {
	t, err := FromSlice(data, shape)
	if err != nil {
		panic(err)
	}
	return t
}

// Scalar creates a rank-0 tensor holding v.
func Scalar(v float32) *Tensor {
	return &Tensor{shape: Shape{}, data: []float32{v}}
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the underlying buffer.
// WARNING: writing into it breaks every holder of this tensor. Only kernels
// that just allocated the tensor may do so.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Item returns the single value of a one-element tensor.
// Panics for tensors with more than one element.
func (t *Tensor) Item() float32 {
	if len(t.data) != 1 {
		panic(fmt.Sprintf("tensor.Item: tensor with shape %v has %d elements", t.shape, len(t.data)))
	}
	return t.data[0]
}

// At returns the element at the given row-major coordinates.
func (t *Tensor) At(idx ...int) float32 {
	if len(idx) != len(t.shape) {
		panic(fmt.Sprintf("tensor.At: expected %d indices, got %d", len(t.shape), len(idx)))
	}
	strides := t.shape.ComputeStrides()
	offset := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			panic(fmt.Sprintf("tensor.At: index %d out of range for dim %d (size %d)", v, i, t.shape[i]))
		}
		offset += v * strides[i]
	}
	return t.data[offset]
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	data := make([]float32, len(t.data))
	copy(data, t.data)
	return &Tensor{shape: t.shape.Clone(), data: data}
}

// Reshape returns a copy with a new shape of the same element count.
func (t *Tensor) Reshape(shape Shape) (*Tensor, error) {
	if shape.NumElements() != len(t.data) {
		return nil, errors.Wrapf(ErrShapeMismatch, "cannot reshape %v into %v", t.shape, shape)
	}
	c := t.Clone()
	c.shape = shape.Clone()
	return c, nil
}

// Equal reports bit-identical shape and data.
func (t *Tensor) Equal(other *Tensor) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	for i, v := range t.data {
		if math.Float32bits(v) != math.Float32bits(other.data[i]) {
			return false
		}
	}
	return true
}

// AllClose reports equal shapes and |a-b| <= atol elementwise.
func (t *Tensor) AllClose(other *Tensor, atol float32) bool {
	if !t.shape.Equal(other.shape) {
		return false
	}
	for i, v := range t.data {
		if math32.Abs(v-other.data[i]) > atol {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer with a short preview of the values.
func (t *Tensor) String() string {
	const preview = 8
	if len(t.data) <= preview {
		return fmt.Sprintf("Tensor%v%v", []int(t.shape), t.data)
	}
	return fmt.Sprintf("Tensor%v%v...", []int(t.shape), t.data[:preview])
}

// ClassIndex decodes a float32-encoded class label. ok is false unless
// label is integral and in [0, numClasses).
func ClassIndex(label float32, numClasses int) (class int, ok bool) {
	class = int(label)
	if float32(class) != label || class < 0 || class >= numClasses {
		return 0, false
	}
	return class, true
}

// AlignTargets reshapes [N] targets to [N, 1] when predictions are [N, 1].
// Other targets must already match the predictions' shape.
func AlignTargets(predictions, targets *Tensor) (*Tensor, error) {
	ps, ts := predictions.Shape(), targets.Shape()
	if ps.Equal(ts) {
		return targets, nil
	}
	if len(ps) == 2 && ps[1] == 1 && len(ts) == 1 && ts[0] == ps[0] {
		return targets.Reshape(ps)
	}
	return nil, errors.Wrapf(ErrShapeMismatch, "predictions %v vs targets %v", ps, ts)
}
