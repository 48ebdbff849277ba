package metrics

import (
	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/tensor"
)

// MeanSquaredError averages (predictions - targets)² over every element seen.
type MeanSquaredError struct {
	sumCount
}

// NewMeanSquaredError creates the metric named "mse".
func NewMeanSquaredError() *MeanSquaredError {
	return &MeanSquaredError{sumCount: newSumCount("mse")}
}

// StatelessUpdate adds the squared error sum and the element count.
func (m *MeanSquaredError) StatelessUpdate(b tensor.Backend, vars tensor.Collection, targets, predictions *tensor.Tensor) (tensor.Collection, error) {
	if err := m.check(vars); err != nil {
		return nil, err
	}
	targets, err := tensor.AlignTargets(predictions, targets)
	if err != nil {
		return nil, errors.WithMessage(err, m.name)
	}
	diff := b.Sub(predictions, targets)
	return m.add(b, vars, b.Sum(b.Mul(diff, diff)), predictions.NumElements())
}
