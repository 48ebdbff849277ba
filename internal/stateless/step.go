package stateless

import (
	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/data"
	"github.com/born-ml/purestep/internal/metrics"
	"github.com/born-ml/purestep/internal/nn"
	"github.com/born-ml/purestep/internal/optim"
	"github.com/born-ml/purestep/internal/tensor"
)

// StepFunc is a pure step: it maps (state, batch) to (loss, state').
//
// Implementations must not modify state or batch and must not read any
// mutable value outside their arguments.
type StepFunc[S any] func(b tensor.Backend, state S, batch data.Batch) (*tensor.Tensor, S, error)

// StepConfig names the collaborators a step function closes over. The
// objects are only used for their stateless methods.
type StepConfig struct {
	Model     *nn.Model
	Loss      nn.Loss
	Optimizer optim.Optimizer // Unused by evaluation steps
	Metrics   *metrics.Set    // Optional
}

func (c StepConfig) validate(train bool) error {
	if c.Model == nil {
		return errors.New("step: model is required")
	}
	if c.Loss == nil {
		return errors.New("step: loss is required")
	}
	if train && c.Optimizer == nil {
		return errors.New("step: optimizer is required")
	}
	return nil
}

// forwardInput is what the loss closure needs besides the trainable values.
type forwardInput struct {
	nonTrainable Collection
	batch        data.Batch
}

// forwardAux carries the forward results that are not the loss.
type forwardAux struct {
	predictions  *tensor.Tensor
	nonTrainable Collection
}

// NewTrainStep returns the standard training step:
//
//  1. forward pass in training mode, collecting extra losses
//  2. loss = Loss(targets, predictions) + sum(extra losses)
//  3. gradients of loss with respect to the trainable values
//  4. optimizer update of trainable values and optimizer accumulators
//  5. metric update with (targets, predictions, loss)
//
// Non-trainable values come from the forward pass (e.g. moving statistics).
func NewTrainStep(cfg StepConfig) StepFunc[State] {
	vg := ValueAndGrad(func(b tensor.Backend, trainable Collection, in forwardInput) (*tensor.Tensor, forwardAux, error) {
		res, err := cfg.Model.StatelessCall(b, trainable, in.nonTrainable, in.batch.Inputs, true, true)
		if err != nil {
			return nil, forwardAux{}, err
		}
		loss, err := cfg.Loss.Compute(b, res.Predictions, in.batch.Targets)
		if err != nil {
			return nil, forwardAux{}, err
		}
		for _, extra := range res.Losses {
			loss = b.Add(loss, extra)
		}
		return loss, forwardAux{predictions: res.Predictions, nonTrainable: res.NonTrainable}, nil
	})

	return func(b tensor.Backend, state State, batch data.Batch) (*tensor.Tensor, State, error) {
		if err := cfg.validate(true); err != nil {
			return nil, State{}, err
		}
		value, grads, err := vg(b, state.Trainable, forwardInput{nonTrainable: state.NonTrainable, batch: batch})
		if err != nil {
			return nil, State{}, errors.WithMessage(err, "train step")
		}

		trainable, optVars, err := cfg.Optimizer.StatelessApply(b, state.OptimizerVars, grads, state.Trainable)
		if err != nil {
			return nil, State{}, errors.WithMessage(err, "train step")
		}

		metricVars, err := updateMetrics(b, cfg.Metrics, state.MetricVars, batch, value.Aux.predictions, value.Loss)
		if err != nil {
			return nil, State{}, errors.WithMessage(err, "train step")
		}

		return value.Loss, State{
			Trainable:     trainable,
			NonTrainable:  value.Aux.nonTrainable,
			OptimizerVars: optVars,
			MetricVars:    metricVars,
		}, nil
	}
}

// NewEvalStep returns the standard evaluation step: forward pass in
// inference mode, loss, metric update. Trainable and non-trainable values
// pass through unchanged.
func NewEvalStep(cfg StepConfig) StepFunc[EvalState] {
	return func(b tensor.Backend, state EvalState, batch data.Batch) (*tensor.Tensor, EvalState, error) {
		if err := cfg.validate(false); err != nil {
			return nil, EvalState{}, err
		}
		res, err := cfg.Model.StatelessCall(b, state.Trainable, state.NonTrainable, batch.Inputs, false, false)
		if err != nil {
			return nil, EvalState{}, errors.WithMessage(err, "eval step")
		}
		loss, err := cfg.Loss.Compute(b, res.Predictions, batch.Targets)
		if err != nil {
			return nil, EvalState{}, errors.WithMessage(err, "eval step")
		}
		metricVars, err := updateMetrics(b, cfg.Metrics, state.MetricVars, batch, res.Predictions, loss)
		if err != nil {
			return nil, EvalState{}, errors.WithMessage(err, "eval step")
		}
		return loss, EvalState{
			Trainable:    state.Trainable,
			NonTrainable: res.NonTrainable,
			MetricVars:   metricVars,
		}, nil
	}
}

func updateMetrics(b tensor.Backend, set *metrics.Set, vars Collection, batch data.Batch, predictions, loss *tensor.Tensor) (Collection, error) {
	if set == nil {
		if len(vars) != 0 {
			return nil, errors.Wrapf(ErrShapeMismatch, "metric vars: expected 0 tensors, got %d", len(vars))
		}
		return vars, nil
	}
	return set.StatelessUpdate(b, vars, batch.Targets, predictions, loss)
}
