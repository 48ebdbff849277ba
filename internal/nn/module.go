// Package nn implements the layers and models driven by the stateless step functions.
//
// This package provides building blocks for constructing neural networks:
//   - Layer interface: Base interface for all NN components
//   - Variable: Named state owned by a layer (trainable or not)
//   - Dense: Fully connected layer with optional L2 kernel penalty
//   - Activations: ReLU, Sigmoid, Tanh
//   - BatchNorm: Per-feature normalization with moving statistics
//   - Loss functions: MSE, sparse categorical cross-entropy
//   - Model: Sequential container with a pure StatelessCall
//
// Layers never read their own variables directly during a call. Values come
// from a Scope that the model builds from the collections it was handed, so a
// call is a function of its arguments only.
package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/purestep/internal/tensor"
)

// Layer is the base interface for all neural network components.
//
// Layers are created unbuilt. Build allocates variables once the input
// width is known; Call computes the output from variable values supplied by
// the scope.
type Layer interface {
	// Kind returns a short layer type name ("dense", "batch_norm", ...).
	Kind() string

	// Build creates the layer's variables for inputs of width inFeatures and
	// returns the output width. name prefixes every variable name.
	Build(name string, inFeatures int, rng *rand.Rand) (outFeatures int, err error)

	// Variables returns the layer's variables in a stable order.
	Variables() []*Variable

	// Call computes the layer output for x [batch, inFeatures].
	Call(s *Scope, x *tensor.Tensor) *tensor.Tensor
}

// Scope carries everything a layer may read or write during one call.
//
// Values are looked up by variable identity. Writes to non-trainable state
// are collected as updates and never touch the variable itself.
type Scope struct {
	backend  tensor.Backend
	training bool
	values   map[*Variable]*tensor.Tensor
	updates  map[*Variable]*tensor.Tensor
	losses   tensor.Collection
	collect  bool
}

func newScope(b tensor.Backend, training, collectLosses bool) *Scope {
	return &Scope{
		backend:  b,
		training: training,
		values:   make(map[*Variable]*tensor.Tensor),
		updates:  make(map[*Variable]*tensor.Tensor),
		collect:  collectLosses,
	}
}

// Backend returns the backend every layer op must go through.
func (s *Scope) Backend() tensor.Backend { return s.backend }

// Training reports whether the call runs in training mode.
func (s *Scope) Training() bool { return s.training }

// CollectsLosses reports whether extra losses are requested.
func (s *Scope) CollectsLosses() bool { return s.collect }

// Value returns the value bound to v for this call.
func (s *Scope) Value(v *Variable) *tensor.Tensor {
	t, ok := s.values[v]
	if !ok {
		panic(fmt.Sprintf("nn: variable %q is not bound in this scope", v.Name()))
	}
	return t
}

// Update records a new value for a non-trainable variable.
func (s *Scope) Update(v *Variable, t *tensor.Tensor) {
	if v.Trainable() {
		panic(fmt.Sprintf("nn: variable %q is trainable and cannot be updated in a call", v.Name()))
	}
	s.updates[v] = t
}

// AddLoss appends an extra scalar loss. It is a no-op unless losses are collected.
func (s *Scope) AddLoss(t *tensor.Tensor) {
	if s.collect {
		s.losses = append(s.losses, t)
	}
}

func (s *Scope) bind(vars []*Variable, values tensor.Collection) {
	for i, v := range vars {
		s.values[v] = values[i]
	}
}
