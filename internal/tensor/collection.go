package tensor

import (
	"strings"

	"github.com/pkg/errors"
)

// Collection is an ordered sequence of tensors: a parameter list, an
// optimizer's accumulators or a metric's partial sums. Position is identity.
type Collection []*Tensor

// Clone deep-copies every tensor.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i, t := range c {
		out[i] = t.Clone()
	}
	return out
}

// Shapes returns the shape of every element.
func (c Collection) Shapes() []Shape {
	shapes := make([]Shape, len(c))
	for i, t := range c {
		shapes[i] = t.Shape()
	}
	return shapes
}

// ZerosLike returns zero tensors matching every element of c.
func (c Collection) ZerosLike() Collection {
	out := make(Collection, len(c))
	for i, t := range c {
		out[i] = ZerosLike(t)
	}
	return out
}

// Signature renders the shapes as "4x8,8". Two collections with equal
// signatures are interchangeable inputs to a traced function.
func (c Collection) Signature() string {
	parts := make([]string, len(c))
	for i, t := range c {
		parts[i] = t.Shape().String()
	}
	return strings.Join(parts, ",")
}

// CheckShapes verifies that c matches want element by element.
// The returned error wraps ErrShapeMismatch and names the collection.
func (c Collection) CheckShapes(name string, want []Shape) error {
	if len(c) != len(want) {
		return errors.Wrapf(ErrShapeMismatch, "%s: expected %d tensors, got %d", name, len(want), len(c))
	}
	for i, t := range c {
		if t == nil {
			return errors.Wrapf(ErrShapeMismatch, "%s[%d]: nil tensor", name, i)
		}
		if !t.Shape().Equal(want[i]) {
			return errors.Wrapf(ErrShapeMismatch, "%s[%d]: expected shape %v, got %v", name, i, want[i], t.Shape())
		}
	}
	return nil
}

// Equal reports element-wise bit equality of two collections.
func (c Collection) Equal(other Collection) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if !c[i].Equal(other[i]) {
			return false
		}
	}
	return true
}
