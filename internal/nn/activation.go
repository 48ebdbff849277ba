package nn

import (
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/tensor"
)

// Activation names an element-wise nonlinearity.
type Activation string

// Supported activations.
const (
	ActivationLinear  Activation = "linear"
	ActivationReLU    Activation = "relu"
	ActivationTanh    Activation = "tanh"
	ActivationSigmoid Activation = "sigmoid"
)

// ParseActivation validates an activation name. The empty string means linear.
func ParseActivation(name string) (Activation, error) {
	switch Activation(name) {
	case "", ActivationLinear:
		return ActivationLinear, nil
	case ActivationReLU, ActivationTanh, ActivationSigmoid:
		return Activation(name), nil
	default:
		return "", errors.Errorf("unknown activation %q", name)
	}
}

func (a Activation) apply(b tensor.Backend, x *tensor.Tensor) *tensor.Tensor {
	switch a {
	case ActivationReLU:
		return b.ReLU(x)
	case ActivationTanh:
		return b.Tanh(x)
	case ActivationSigmoid:
		return b.Sigmoid(x)
	default:
		return x
	}
}

// ActivationLayer applies an activation as a standalone layer.
//
// It has no variables.
//
// Example:
//
//	model := nn.NewModel(
//	    nn.NewDense(nn.DenseConfig{Units: 16}),
//	    nn.NewReLU(),
//	    nn.NewDense(nn.DenseConfig{Units: 1}),
//	)
type ActivationLayer struct {
	activation Activation
}

// NewActivation creates an activation layer.
func NewActivation(a Activation) *ActivationLayer {
	return &ActivationLayer{activation: a}
}

// NewReLU creates a ReLU activation layer.
func NewReLU() *ActivationLayer { return NewActivation(ActivationReLU) }

// NewTanh creates a Tanh activation layer.
func NewTanh() *ActivationLayer { return NewActivation(ActivationTanh) }

// NewSigmoid creates a Sigmoid activation layer.
func NewSigmoid() *ActivationLayer { return NewActivation(ActivationSigmoid) }

// Kind returns the activation name.
func (a *ActivationLayer) Kind() string { return string(a.activation) }

// Build validates the activation; the output width equals the input width.
func (a *ActivationLayer) Build(name string, inFeatures int, _ *rand.Rand) (int, error) {
	if _, err := ParseActivation(string(a.activation)); err != nil {
		return 0, errors.WithMessage(err, name)
	}
	return inFeatures, nil
}

// Variables returns nil.
func (a *ActivationLayer) Variables() []*Variable { return nil }

// Call applies the activation.
func (a *ActivationLayer) Call(s *Scope, x *tensor.Tensor) *tensor.Tensor {
	return a.activation.apply(s.Backend(), x)
}
