package stateless_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/purestep/internal/backend/cpu"
	"github.com/born-ml/purestep/internal/data"
	"github.com/born-ml/purestep/internal/metrics"
	"github.com/born-ml/purestep/internal/nn"
	"github.com/born-ml/purestep/internal/optim"
	"github.com/born-ml/purestep/internal/stateless"
	"github.com/born-ml/purestep/internal/tensor"
)

// fixture is a built model, optimizer and metric set plus a matching batch.
type fixture struct {
	model *nn.Model
	opt   optim.Optimizer
	set   *metrics.Set
	cfg   stateless.StepConfig
	batch data.Batch
}

// linearFixture is a single Dense unit trained with MSE on 32 samples of a
// noiseless linear problem.
func linearFixture(t *testing.T, lr float32) fixture {
	t.Helper()
	x, y, err := data.Linear(data.LinearConfig{Samples: 32, Features: 3, Seed: 11})
	require.NoError(t, err)

	model := nn.NewModel(nn.NewDense(nn.DenseConfig{Units: 1}))
	require.NoError(t, model.Build(3, 5))
	opt := optim.NewSGD(optim.SGDConfig{Config: optim.Config{LR: lr}})
	require.NoError(t, opt.Build(model.TrainableValues()))
	set, err := metrics.NewSet(metrics.NewLossTracker(), metrics.NewMeanSquaredError())
	require.NoError(t, err)

	return fixture{
		model: model,
		opt:   opt,
		set:   set,
		cfg:   stateless.StepConfig{Model: model, Loss: nn.MeanSquaredError{}, Optimizer: opt, Metrics: set},
		batch: data.Batch{Inputs: x, Targets: y},
	}
}

// classifierFixture has batch norm, an L2 penalty and Adam, so every
// collection of the state is non-trivial.
func classifierFixture(t *testing.T) fixture {
	t.Helper()
	x, y, err := data.Blobs(data.BlobsConfig{Samples: 24, Features: 4, Classes: 3, Seed: 2})
	require.NoError(t, err)

	model := nn.NewModel(
		nn.NewDense(nn.DenseConfig{Units: 8, Activation: nn.ActivationTanh, L2: 1e-3}),
		nn.NewBatchNorm(nn.BatchNormConfig{Momentum: 0.9}),
		nn.NewDense(nn.DenseConfig{Units: 3}),
	)
	require.NoError(t, model.Build(4, 3))
	opt := optim.NewAdam(optim.AdamConfig{Config: optim.Config{LR: 0.01}})
	require.NoError(t, opt.Build(model.TrainableValues()))
	set, err := metrics.NewSet(metrics.NewLossTracker(), metrics.NewSparseCategoricalAccuracy())
	require.NoError(t, err)

	return fixture{
		model: model,
		opt:   opt,
		set:   set,
		cfg:   stateless.StepConfig{Model: model, Loss: nn.SparseCategoricalCrossentropy{}, Optimizer: opt, Metrics: set},
		batch: data.Batch{Inputs: x, Targets: y},
	}
}

func (f fixture) state(t *testing.T) stateless.State {
	t.Helper()
	s, err := stateless.InitialState(f.model, f.opt, f.set)
	require.NoError(t, err)
	return s
}

func cloneState(s stateless.State) stateless.State {
	return stateless.State{
		Trainable:     s.Trainable.Clone(),
		NonTrainable:  s.NonTrainable.Clone(),
		OptimizerVars: s.OptimizerVars.Clone(),
		MetricVars:    s.MetricVars.Clone(),
	}
}

func statesEqual(a, b stateless.State) bool {
	return a.Trainable.Equal(b.Trainable) &&
		a.NonTrainable.Equal(b.NonTrainable) &&
		a.OptimizerVars.Equal(b.OptimizerVars) &&
		a.MetricVars.Equal(b.MetricVars)
}

func TestValueAndGrad_LinearLoss(t *testing.T) {
	// loss = mean(w * x) with w, x [3]: d loss / d w = x / 3.
	vg := stateless.ValueAndGrad(func(b tensor.Backend, p stateless.Collection, x *tensor.Tensor) (*tensor.Tensor, string, error) {
		return b.Mean(b.Mul(p[0], x)), "aux", nil
	})
	w := tensor.MustFromSlice([]float32{1, 2, 3}, tensor.Shape{3})
	unused := tensor.MustFromSlice([]float32{4, 5}, tensor.Shape{2})
	x := tensor.MustFromSlice([]float32{3, 6, 9}, tensor.Shape{3})
	params := stateless.Collection{w, unused}

	value, grads, err := vg(cpu.New(), params, x)
	require.NoError(t, err)

	assert.InDelta(t, (3+12+27)/3.0, value.Loss.Item(), 1e-5)
	assert.Equal(t, "aux", value.Aux)
	require.Len(t, grads, 2)
	assert.InDeltaSlice(t, []float32{1, 2, 3}, grads[0].Data(), 1e-5)
	assert.Equal(t, []float32{0, 0}, grads[1].Data(), "unreached parameters get zeros")
	assert.Equal(t, []float32{1, 2, 3}, w.Data(), "params must not be mutated")
}

func TestValueAndGrad_AliasedParamsGetIndependentGradients(t *testing.T) {
	g := stateless.Grad(func(b tensor.Backend, p stateless.Collection, _ struct{}) (*tensor.Tensor, error) {
		// loss = sum(p0 * 2 + p1 * 3)
		return b.Sum(b.Add(b.MulScalar(p[0], 2), b.MulScalar(p[1], 3))), nil
	})
	shared := tensor.MustFromSlice([]float32{1}, tensor.Shape{1})

	grads, err := g(cpu.New(), stateless.Collection{shared, shared}, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, float32(2), grads[0].Item())
	assert.Equal(t, float32(3), grads[1].Item())
}

func TestValueAndGrad_NotScalar(t *testing.T) {
	vg := stateless.ValueAndGrad(func(b tensor.Backend, p stateless.Collection, _ struct{}) (*tensor.Tensor, struct{}, error) {
		return b.Mul(p[0], p[0]), struct{}{}, nil
	})
	_, _, err := vg(cpu.New(), stateless.Collection{tensor.Ones(tensor.Shape{2})}, struct{}{})
	assert.ErrorIs(t, err, stateless.ErrNotScalar)
}

func TestValueAndGrad_MatchesFiniteDifferences(t *testing.T) {
	f := classifierFixture(t)
	state := f.state(t)
	b := cpu.New()

	lossOf := func(b tensor.Backend, trainable stateless.Collection, _ struct{}) (*tensor.Tensor, struct{}, error) {
		res, err := f.model.StatelessCall(b, trainable, state.NonTrainable, f.batch.Inputs, true, true)
		if err != nil {
			return nil, struct{}{}, err
		}
		loss, err := nn.SparseCategoricalCrossentropy{}.Compute(b, res.Predictions, f.batch.Targets)
		if err != nil {
			return nil, struct{}{}, err
		}
		for _, extra := range res.Losses {
			loss = b.Add(loss, extra)
		}
		return loss, struct{}{}, nil
	}
	_, grads, err := stateless.ValueAndGrad(lossOf)(b, state.Trainable, struct{}{})
	require.NoError(t, err)

	const eps = 1e-2
	for i, p := range state.Trainable {
		for _, j := range []int{0, p.NumElements() - 1} {
			eval := func(delta float32) float32 {
				perturbed := state.Trainable.Clone()
				perturbed[i].Data()[j] += delta
				loss, _, err := lossOf(b, perturbed, struct{}{})
				require.NoError(t, err)
				return loss.Item()
			}
			numeric := (eval(eps) - eval(-eps)) / (2 * eps)
			assert.InDelta(t, numeric, grads[i].Data()[j], 2e-2, "param %d element %d", i, j)
		}
	}
}

func TestTrainStep_IsPure(t *testing.T) {
	for name, f := range map[string]fixture{
		"linear":     linearFixture(t, 0.1),
		"classifier": classifierFixture(t),
	} {
		t.Run(name, func(t *testing.T) {
			step := stateless.NewTrainStep(f.cfg)
			state := f.state(t)
			before := cloneState(state)
			batchBefore := f.batch.Inputs.Clone()

			loss1, next1, err := step(cpu.New(), state, f.batch)
			require.NoError(t, err)
			loss2, next2, err := step(cpu.New(), state, f.batch)
			require.NoError(t, err)

			assert.True(t, loss1.Equal(loss2), "same inputs must give the same loss")
			assert.True(t, statesEqual(next1, next2), "same inputs must give the same state")
			assert.True(t, statesEqual(state, before), "input state must not be mutated")
			assert.True(t, f.batch.Inputs.Equal(batchBefore), "batch must not be mutated")
			assert.True(t, f.model.TrainableValues().Equal(before.Trainable), "model must not be touched")
			assert.True(t, f.opt.Variables().Equal(before.OptimizerVars), "optimizer must not be touched")
			assert.True(t, f.set.Variables().Equal(before.MetricVars), "metrics must not be touched")
		})
	}
}

func TestTrainStep_PreservesSignature(t *testing.T) {
	f := classifierFixture(t)
	step := stateless.NewTrainStep(f.cfg)
	state := f.state(t)

	_, next, err := step(cpu.New(), state, f.batch)
	require.NoError(t, err)
	assert.Equal(t, state.Signature(), next.Signature())
	assert.False(t, next.NonTrainable.Equal(state.NonTrainable), "batch norm statistics must move")
	assert.Equal(t, 1, optim.Iterations(next.OptimizerVars))

	results, err := f.set.StatelessResults(next.MetricVars)
	require.NoError(t, err)
	assert.Greater(t, results["loss"], float32(0))
}

// TestTrainStep_LowersEvalLoss runs one SGD step (lr 0.1) on 32 synthetic
// samples of a linear problem and checks the evaluation loss drops.
func TestTrainStep_LowersEvalLoss(t *testing.T) {
	f := linearFixture(t, 0.1)
	b := cpu.New()
	train := stateless.NewTrainStep(f.cfg)
	eval := stateless.NewEvalStep(f.cfg)
	state := f.state(t)

	before, _, err := eval(b, state.Eval(), f.batch)
	require.NoError(t, err)

	_, state, err = train(b, state, f.batch)
	require.NoError(t, err)

	after, evalState, err := eval(b, state.Eval(), f.batch)
	require.NoError(t, err)
	assert.Less(t, after.Item(), before.Item())
	assert.True(t, evalState.Trainable.Equal(state.Trainable), "eval must pass trainable through")
}

func TestEvalStep_UpdatesOnlyMetrics(t *testing.T) {
	f := classifierFixture(t)
	eval := stateless.NewEvalStep(f.cfg)
	state := f.state(t).Eval()

	_, next, err := eval(cpu.New(), state, f.batch)
	require.NoError(t, err)
	assert.True(t, next.Trainable.Equal(state.Trainable))
	assert.True(t, next.NonTrainable.Equal(state.NonTrainable), "inference mode must not move statistics")
	assert.False(t, next.MetricVars.Equal(state.MetricVars))
	assert.Equal(t, state.Signature(), next.Signature())
}

func TestSteps_Errors(t *testing.T) {
	f := linearFixture(t, 0.1)
	state := f.state(t)

	_, _, err := stateless.NewTrainStep(stateless.StepConfig{Model: f.model, Loss: nn.MeanSquaredError{}})(cpu.New(), state, f.batch)
	assert.Error(t, err, "missing optimizer")

	bad := state
	bad.Trainable = stateless.Collection{state.Trainable[1], state.Trainable[0]}
	_, _, err = stateless.NewTrainStep(f.cfg)(cpu.New(), bad, f.batch)
	assert.ErrorIs(t, err, stateless.ErrShapeMismatch)

	unbuilt := nn.NewModel(nn.NewDense(nn.DenseConfig{Units: 1}))
	_, err = stateless.InitialState(unbuilt, f.opt, nil)
	assert.ErrorIs(t, err, nn.ErrNotBuilt)
	_, err = stateless.InitialState(f.model, optim.NewAdam(optim.AdamConfig{}), nil)
	assert.ErrorIs(t, err, optim.ErrNotBuilt)
}

func TestReattach_RoundTrip(t *testing.T) {
	f := classifierFixture(t)
	step := stateless.NewTrainStep(f.cfg)
	state := f.state(t)

	var err error
	for i := 0; i < 3; i++ {
		_, state, err = step(cpu.New(), state, f.batch)
		require.NoError(t, err)
	}
	require.NoError(t, stateless.Reattach(state, f.model, f.opt, f.set))

	again := f.state(t)
	assert.True(t, statesEqual(state, again), "objects must hold exactly the final state")
	assert.Equal(t, 3, optim.Iterations(f.opt.Variables()))

	bad := cloneState(state)
	bad.Trainable[0] = tensor.ZerosLike(bad.Trainable[0])
	bad.OptimizerVars = bad.OptimizerVars[:1]
	assert.ErrorIs(t, stateless.Reattach(bad, f.model, f.opt, f.set), stateless.ErrShapeMismatch)
	assert.True(t, f.model.TrainableValues().Equal(state.Trainable), "a rejected state must not be half applied")
}

func TestStepsWithoutMetrics(t *testing.T) {
	f := linearFixture(t, 0.1)
	f.cfg.Metrics = nil
	state, err := stateless.InitialState(f.model, f.opt, nil)
	require.NoError(t, err)
	assert.Empty(t, state.MetricVars)

	_, next, err := stateless.NewTrainStep(f.cfg)(cpu.New(), state, f.batch)
	require.NoError(t, err)
	assert.Empty(t, next.MetricVars)
}
