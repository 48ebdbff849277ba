// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package stateless

import (
	"github.com/born-ml/purestep/internal/metrics"
	"github.com/born-ml/purestep/internal/nn"
	"github.com/born-ml/purestep/internal/optim"
	"github.com/born-ml/purestep/internal/stateless"
	"github.com/born-ml/purestep/internal/tensor"
)

// State types.
type (
	// Collection is an ordered list of tensors.
	Collection = stateless.Collection

	// State is the full training snapshot.
	State = stateless.State

	// EvalState is the snapshot an evaluation step threads.
	EvalState = stateless.EvalState
)

// Errors.
var (
	ErrShapeMismatch = stateless.ErrShapeMismatch
	ErrNotScalar     = stateless.ErrNotScalar
)

// InitialState snapshots a built model, a built optimizer and an optional metric set.
func InitialState(model *nn.Model, opt optim.Optimizer, set *metrics.Set) (State, error) {
	return stateless.InitialState(model, opt, set)
}

// Reattach writes a final state back into the long-lived objects.
func Reattach(state State, model *nn.Model, opt optim.Optimizer, set *metrics.Set) error {
	return stateless.Reattach(state, model, opt, set)
}

// Gradients.

// LossFunc computes a scalar loss and an auxiliary result.
type LossFunc[X, A any] = stateless.LossFunc[X, A]

// Value is the forward result of a ValueAndGradFunc.
type Value[A any] = stateless.Value[A]

// ValueAndGradFunc evaluates a loss together with its gradient.
type ValueAndGradFunc[X, A any] = stateless.ValueAndGradFunc[X, A]

// GradFunc evaluates only the gradient of a loss.
type GradFunc[X any] = stateless.GradFunc[X]

// ValueAndGrad transforms f into a function that also returns d loss / d params.
func ValueAndGrad[X, A any](f LossFunc[X, A]) ValueAndGradFunc[X, A] {
	return stateless.ValueAndGrad(f)
}

// Grad is ValueAndGrad for losses without an auxiliary result.
func Grad[X any](f func(b tensor.Backend, params Collection, x X) (*tensor.Tensor, error)) GradFunc[X] {
	return stateless.Grad(f)
}

// Steps.

// StepFunc is a pure step function.
type StepFunc[S any] = stateless.StepFunc[S]

// StepConfig names the collaborators of the standard steps.
type StepConfig = stateless.StepConfig

// NewTrainStep returns the standard training step.
func NewTrainStep(cfg StepConfig) StepFunc[State] { return stateless.NewTrainStep(cfg) }

// NewEvalStep returns the standard evaluation step.
func NewEvalStep(cfg StepConfig) StepFunc[EvalState] { return stateless.NewEvalStep(cfg) }

// Compilation.

// Signer is implemented by state types a compiled step can key on.
type Signer = stateless.Signer

// Compiled is a step memoized per shape signature.
type Compiled[S Signer] = stateless.Compiled[S]

// Trace describes one traced specialization.
type Trace = stateless.Trace

// Recorder is a backend decorator that logs operation names.
type Recorder = stateless.Recorder

// Compile wraps step in a trace cache.
func Compile[S Signer](name string, step StepFunc[S]) *Compiled[S] {
	return stateless.Compile(name, step)
}

// NewRecorder wraps inner with operation logging.
func NewRecorder(inner tensor.Backend) *Recorder { return stateless.NewRecorder(inner) }
