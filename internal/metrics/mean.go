package metrics

import (
	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/tensor"
)

// Mean averages every element it is given.
//
// StatelessUpdate ignores targets and averages predictions, so a Mean can
// track any per-batch value. A loss tracker (see NewLossTracker) is a Mean
// that a Set feeds with the batch loss, weighted by the batch size, instead
// of predictions.
type Mean struct {
	sumCount
	tracksLoss bool
}

// NewMean creates a Mean named name.
func NewMean(name string) *Mean {
	return &Mean{sumCount: newSumCount(name)}
}

// NewLossTracker creates a Mean named "loss" that averages batch losses.
func NewLossTracker() *Mean {
	return &Mean{sumCount: newSumCount("loss"), tracksLoss: true}
}

// TracksLoss reports whether a Set should feed this metric the batch loss.
func (m *Mean) TracksLoss() bool { return m.tracksLoss }

// StatelessUpdate adds sum(values) and the element count.
func (m *Mean) StatelessUpdate(b tensor.Backend, vars tensor.Collection, _, values *tensor.Tensor) (tensor.Collection, error) {
	if err := m.check(vars); err != nil {
		return nil, err
	}
	if values == nil {
		return nil, errors.Errorf("%s: nil values", m.name)
	}
	return m.add(b, vars, b.Sum(values), values.NumElements())
}

// StatelessUpdateWeighted adds value * n to the total and n to the count,
// so a per-batch mean of n samples counts as n samples.
func (m *Mean) StatelessUpdateWeighted(b tensor.Backend, vars tensor.Collection, value *tensor.Tensor, n int) (tensor.Collection, error) {
	if err := m.check(vars); err != nil {
		return nil, err
	}
	if value == nil || value.NumElements() != 1 {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "%s: weighted value must be a scalar", m.name)
	}
	if n <= 0 {
		return nil, errors.Errorf("%s: weight must be > 0, got %d", m.name, n)
	}
	return m.add(b, vars, b.MulScalar(b.Sum(value), float32(n)), n)
}
