// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package stateless_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/purestep/backend/cpu"
	"github.com/born-ml/purestep/data"
	"github.com/born-ml/purestep/metrics"
	"github.com/born-ml/purestep/nn"
	"github.com/born-ml/purestep/optim"
	"github.com/born-ml/purestep/stateless"
	"github.com/born-ml/purestep/tensor"
)

// TestPublicAPI_HandWrittenStep trains with a step built from the public
// packages only: ValueAndGrad, the stateless optimizer and Compile.
func TestPublicAPI_HandWrittenStep(t *testing.T) {
	x, y, err := data.Linear(data.LinearConfig{Samples: 32, Features: 2, Seed: 8})
	require.NoError(t, err)
	batch := data.Batch{Inputs: x, Targets: y}

	model := nn.NewModel(nn.NewDense(nn.DenseConfig{Units: 1}))
	require.NoError(t, model.Build(2, 1))
	opt := optim.NewSGD(optim.SGDConfig{Config: optim.Config{LR: 0.1}})
	require.NoError(t, opt.Build(model.TrainableValues()))
	set, err := metrics.NewSet(metrics.NewLossTracker())
	require.NoError(t, err)

	type input struct {
		nonTrainable stateless.Collection
		batch        data.Batch
	}
	type aux struct{ predictions *tensor.Tensor }
	vg := stateless.ValueAndGrad(func(b tensor.Backend, p stateless.Collection, in input) (*tensor.Tensor, aux, error) {
		res, err := model.StatelessCall(b, p, in.nonTrainable, in.batch.Inputs, true, false)
		if err != nil {
			return nil, aux{}, err
		}
		loss, err := nn.MeanSquaredError{}.Compute(b, res.Predictions, in.batch.Targets)
		return loss, aux{res.Predictions}, err
	})

	step := stateless.Compile("hand_written", func(b tensor.Backend, s stateless.State, batch data.Batch) (*tensor.Tensor, stateless.State, error) {
		value, grads, err := vg(b, s.Trainable, input{s.NonTrainable, batch})
		if err != nil {
			return nil, s, err
		}
		params, optVars, err := opt.StatelessApply(b, s.OptimizerVars, grads, s.Trainable)
		if err != nil {
			return nil, s, err
		}
		metricVars, err := set.StatelessUpdate(b, s.MetricVars, batch.Targets, value.Aux.predictions, value.Loss)
		if err != nil {
			return nil, s, err
		}
		return value.Loss, stateless.State{
			Trainable:     params,
			NonTrainable:  s.NonTrainable,
			OptimizerVars: optVars,
			MetricVars:    metricVars,
		}, nil
	})

	state, err := stateless.InitialState(model, opt, set)
	require.NoError(t, err)
	b := cpu.New()

	first, state, err := step.Call(b, state, batch)
	require.NoError(t, err)
	var last *tensor.Tensor
	for i := 0; i < 20; i++ {
		last, state, err = step.Call(b, state, batch)
		require.NoError(t, err)
	}
	assert.Less(t, last.Item(), first.Item())
	assert.Len(t, step.Traces(), 1)

	require.NoError(t, stateless.Reattach(state, model, opt, set))
	assert.Equal(t, 21, optim.Iterations(opt.Variables()))
	assert.Greater(t, set.Results()["loss"], float32(0))
}
