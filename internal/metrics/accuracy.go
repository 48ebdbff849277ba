package metrics

import (
	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/tensor"
)

// SparseCategoricalAccuracy is the fraction of rows whose argmax matches the
// integer class label.
//
// Predictions are scores [N, C] (logits or probabilities); targets are class
// indices [N] stored as float32.
type SparseCategoricalAccuracy struct {
	sumCount
}

// NewSparseCategoricalAccuracy creates the metric named "accuracy".
func NewSparseCategoricalAccuracy() *SparseCategoricalAccuracy {
	return &SparseCategoricalAccuracy{sumCount: newSumCount("accuracy")}
}

// StatelessUpdate adds the number of correct rows and the row count.
func (a *SparseCategoricalAccuracy) StatelessUpdate(b tensor.Backend, vars tensor.Collection, targets, predictions *tensor.Tensor) (tensor.Collection, error) {
	if err := a.check(vars); err != nil {
		return nil, err
	}
	ps, ts := predictions.Shape(), targets.Shape()
	if len(ps) != 2 || len(ts) != 1 || ts[0] != ps[0] {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "%s: predictions %v vs targets %v", a.name, ps, ts)
	}

	predicted := b.Argmax(predictions).Data()
	var correct float32
	for i, label := range targets.Data() {
		if predicted[i] == label {
			correct++
		}
	}
	return a.add(b, vars, tensor.Scalar(correct), ps[0])
}
