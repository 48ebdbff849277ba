// Package stateless threads training state through pure step functions.
//
// A training step is a function (state, batch) -> (loss, state'). The state
// is an explicit snapshot of everything that changes during training:
//
//	State{Trainable, NonTrainable, OptimizerVars, MetricVars}
//
// Nothing inside a step reads or writes the long-lived model, optimizer or
// metric objects. They are consulted once to build the initial State and
// updated once at the end with Reattach.
//
// Pieces:
//   - ValueAndGrad / Grad: loss and gradients with respect to a parameter collection
//   - NewTrainStep / NewEvalStep: the standard step functions
//   - Compile: a per-signature trace cache around any step function
package stateless

import (
	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/metrics"
	"github.com/born-ml/purestep/internal/nn"
	"github.com/born-ml/purestep/internal/optim"
	"github.com/born-ml/purestep/internal/tensor"
)

// Collection is an ordered list of tensors.
type Collection = tensor.Collection

// Errors surfaced by stateless steps.
var (
	ErrShapeMismatch = tensor.ErrShapeMismatch
	ErrNotScalar     = errors.New("loss is not a scalar")
)

// State is the full training snapshot. Field order is fixed.
type State struct {
	Trainable     Collection
	NonTrainable  Collection
	OptimizerVars Collection
	MetricVars    Collection
}

// Signature renders the shapes of every collection, e.g.
// "t[4x8,8]|n[8,8]|o[(),4x8,8]|m[(),()]". Equal signatures mean interchangeable
// states for a compiled step.
func (s State) Signature() string {
	return "t[" + s.Trainable.Signature() +
		"]|n[" + s.NonTrainable.Signature() +
		"]|o[" + s.OptimizerVars.Signature() +
		"]|m[" + s.MetricVars.Signature() + "]"
}

// Eval returns the evaluation view of s.
func (s State) Eval() EvalState {
	return EvalState{Trainable: s.Trainable, NonTrainable: s.NonTrainable, MetricVars: s.MetricVars}
}

// EvalState is the snapshot an evaluation step threads. It has no
// optimizer accumulators.
type EvalState struct {
	Trainable    Collection
	NonTrainable Collection
	MetricVars   Collection
}

// Signature renders the shapes of every collection.
func (s EvalState) Signature() string {
	return "t[" + s.Trainable.Signature() +
		"]|n[" + s.NonTrainable.Signature() +
		"]|m[" + s.MetricVars.Signature() + "]"
}

// InitialState snapshots the current values of a built model, a built
// optimizer and a metric set. set may be nil.
func InitialState(model *nn.Model, opt optim.Optimizer, set *metrics.Set) (State, error) {
	if !model.Built() {
		return State{}, nn.ErrNotBuilt
	}
	if !opt.Built() {
		return State{}, optim.ErrNotBuilt
	}
	state := State{
		Trainable:     model.TrainableValues(),
		NonTrainable:  model.NonTrainableValues(),
		OptimizerVars: opt.Variables(),
		MetricVars:    Collection{},
	}
	if set != nil {
		state.MetricVars = set.Variables()
	}
	return state, nil
}

// Reattach writes a final state back into the long-lived objects.
// set may be nil.
func Reattach(state State, model *nn.Model, opt optim.Optimizer, set *metrics.Set) error {
	// Check everything first so a bad state leaves all three objects untouched.
	if err := state.OptimizerVars.CheckShapes("optimizer_vars", opt.Variables().Shapes()); err != nil {
		return errors.WithMessage(err, "reattach optimizer")
	}
	if set != nil {
		if err := state.MetricVars.CheckShapes("metric_vars", set.Variables().Shapes()); err != nil {
			return errors.WithMessage(err, "reattach metrics")
		}
	}
	if err := model.Assign(state.Trainable, state.NonTrainable); err != nil {
		return errors.WithMessage(err, "reattach model")
	}
	if err := opt.Assign(state.OptimizerVars); err != nil {
		return errors.WithMessage(err, "reattach optimizer")
	}
	if set != nil {
		if err := set.Assign(state.MetricVars); err != nil {
			return errors.WithMessage(err, "reattach metrics")
		}
	}
	return nil
}
