package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/tensor"
)

// Loss computes a scalar training objective from predictions and targets.
//
// Compute must use only backend operations on predictions so the result
// stays differentiable through a recording backend.
type Loss interface {
	Name() string
	Compute(b tensor.Backend, predictions, targets *tensor.Tensor) (*tensor.Tensor, error)
}

// ParseLoss returns the loss registered under name.
func ParseLoss(name string) (Loss, error) {
	switch name {
	case "mse", "mean_squared_error":
		return MeanSquaredError{}, nil
	case "sparse_categorical_crossentropy", "cross_entropy":
		return SparseCategoricalCrossentropy{}, nil
	default:
		return nil, errors.Errorf("unknown loss %q", name)
	}
}

// MeanSquaredError computes Mean Squared Error loss.
//
// Loss = mean((predictions - targets)²)
//
// MSE is commonly used for regression tasks where the goal is to predict
// continuous values. Targets of shape [N] are accepted for predictions of
// shape [N, 1].
type MeanSquaredError struct{}

// Name returns "mse".
func (MeanSquaredError) Name() string { return "mse" }

// Compute returns the scalar MSE.
func (MeanSquaredError) Compute(b tensor.Backend, predictions, targets *tensor.Tensor) (*tensor.Tensor, error) {
	targets, err := tensor.AlignTargets(predictions, targets)
	if err != nil {
		return nil, errors.WithMessage(err, "mse")
	}
	diff := b.Sub(predictions, targets)
	return b.Mean(b.Mul(diff, diff)), nil
}

// SparseCategoricalCrossentropy computes cross-entropy from logits and
// integer class labels.
//
// Loss = mean_i(-log(softmax(logits_i)[label_i]))
//
// Predictions are raw logits [N, C]; targets are class indices [N] stored
// as float32.
type SparseCategoricalCrossentropy struct{}

// Name returns "sparse_categorical_crossentropy".
func (SparseCategoricalCrossentropy) Name() string { return "sparse_categorical_crossentropy" }

// Compute returns the scalar cross-entropy.
func (SparseCategoricalCrossentropy) Compute(b tensor.Backend, logits, labels *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkClassLabels(logits, labels); err != nil {
		return nil, errors.WithMessage(err, "sparse_categorical_crossentropy")
	}
	return b.SoftmaxCrossEntropy(logits, labels), nil
}

// checkClassLabels validates logits [N, C] against labels [N] with integral
// values in [0, C).
func checkClassLabels(logits, labels *tensor.Tensor) error {
	ls, ys := logits.Shape(), labels.Shape()
	if len(ls) != 2 || len(ys) != 1 || ys[0] != ls[0] {
		return errors.Wrapf(tensor.ErrShapeMismatch, "logits %v vs labels %v", ls, ys)
	}
	for i, y := range labels.Data() {
		if _, ok := tensor.ClassIndex(y, ls[1]); !ok {
			return errors.Errorf("label[%d] = %g is not a class index in [0, %d)", i, y, ls[1])
		}
	}
	return nil
}
