package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/tensor"
)

// Dense implements a fully connected layer.
//
// Performs the transformation: y = act(x @ W.T + b)
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [units, in_features]
//   - b is the bias vector with shape [units]
//   - y is the output tensor with shape [batch_size, units]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
//
// With L2 > 0 the layer contributes L2 * sum(W²) to the extra losses.
type Dense struct {
	units      int
	activation Activation
	l2         float32
	weight     *Variable // [units, in_features]
	bias       *Variable // [units]
}

// DenseConfig configures a Dense layer.
type DenseConfig struct {
	Units      int
	Activation Activation // Empty means linear
	L2         float32    // Kernel penalty coefficient, 0 disables it
}

// NewDense creates a new, unbuilt Dense layer.
func NewDense(cfg DenseConfig) *Dense {
	return &Dense{
		units:      cfg.Units,
		activation: cfg.Activation,
		l2:         cfg.L2,
	}
}

// Kind returns "dense".
func (d *Dense) Kind() string { return "dense" }

// Build allocates the weight and bias.
func (d *Dense) Build(name string, inFeatures int, rng *rand.Rand) (int, error) {
	if d.units <= 0 {
		return 0, errors.Errorf("%s: units must be positive, got %d", name, d.units)
	}
	if d.l2 < 0 {
		return 0, errors.Errorf("%s: l2 must be non-negative, got %g", name, d.l2)
	}
	if _, err := ParseActivation(string(d.activation)); err != nil {
		return 0, errors.WithMessage(err, name)
	}

	weightShape := tensor.Shape{d.units, inFeatures}
	d.weight = NewVariable(name+"/kernel", tensor.Xavier(inFeatures, d.units, weightShape, rng), true)
	d.bias = NewVariable(name+"/bias", tensor.Zeros(tensor.Shape{d.units}), true)
	return d.units, nil
}

// Variables returns [kernel, bias].
func (d *Dense) Variables() []*Variable {
	if d.weight == nil {
		return nil
	}
	return []*Variable{d.weight, d.bias}
}

// Call computes the layer output.
func (d *Dense) Call(s *Scope, x *tensor.Tensor) *tensor.Tensor {
	b := s.Backend()
	w := s.Value(d.weight)

	// y = x @ W.T + b
	y := b.Add(b.MatMul(x, b.Transpose(w)), s.Value(d.bias))

	if d.l2 > 0 && s.CollectsLosses() {
		s.AddLoss(b.MulScalar(b.Sum(b.Mul(w, w)), d.l2))
	}
	return d.activation.apply(b, y)
}

// String returns a short description.
func (d *Dense) String() string {
	act := d.activation
	if act == "" {
		act = ActivationLinear
	}
	return fmt.Sprintf("Dense(units=%d, activation=%s, l2=%g)", d.units, act, d.l2)
}
