package nn_test

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/purestep/internal/backend/cpu"
	"github.com/born-ml/purestep/internal/nn"
	"github.com/born-ml/purestep/internal/tensor"
)

func newMLP(t *testing.T, batchNorm bool) *nn.Model {
	t.Helper()
	layers := []nn.Layer{nn.NewDense(nn.DenseConfig{Units: 4, Activation: nn.ActivationReLU, L2: 0.01})}
	if batchNorm {
		layers = append(layers, nn.NewBatchNorm(nn.BatchNormConfig{}))
	}
	layers = append(layers, nn.NewDense(nn.DenseConfig{Units: 2}))
	model := nn.NewModel(layers...)
	require.NoError(t, model.Build(3, 7))
	return model
}

func sampleInput() *tensor.Tensor {
	return tensor.MustFromSlice([]float32{
		0.1, 0.2, 0.3,
		-0.5, 0.4, 0.9,
		1.0, -1.0, 0.0,
		0.3, 0.3, -0.6,
	}, tensor.Shape{4, 3})
}

func TestModel_BuildPartitionsVariables(t *testing.T) {
	model := newMLP(t, true)

	var trainable, nonTrainable []string
	for _, v := range model.TrainableVariables() {
		trainable = append(trainable, v.Name())
	}
	for _, v := range model.NonTrainableVariables() {
		nonTrainable = append(nonTrainable, v.Name())
	}

	assert.Equal(t, []string{
		"dense_0/kernel", "dense_0/bias",
		"batch_norm_1/gamma", "batch_norm_1/beta",
		"dense_2/kernel", "dense_2/bias",
	}, trainable)
	assert.Equal(t, []string{"batch_norm_1/moving_mean", "batch_norm_1/moving_variance"}, nonTrainable)
	assert.Equal(t, 3, model.InFeatures())
	assert.Equal(t, 2, model.OutFeatures())
	assert.Contains(t, model.Summary(), "dense_0/kernel")
}

func TestModel_BuildIsDeterministic(t *testing.T) {
	a, b := newMLP(t, false), newMLP(t, false)
	assert.True(t, a.TrainableValues().Equal(b.TrainableValues()))

	c := nn.NewModel(nn.NewDense(nn.DenseConfig{Units: 4, Activation: nn.ActivationReLU}), nn.NewDense(nn.DenseConfig{Units: 2}))
	require.NoError(t, c.Build(3, 8))
	assert.False(t, a.TrainableValues()[0].Equal(c.TrainableValues()[0]))
}

func TestModel_BuildErrors(t *testing.T) {
	assert.Error(t, nn.NewModel().Build(3, 1))
	assert.Error(t, nn.NewModel(nn.NewDense(nn.DenseConfig{Units: 0})).Build(3, 1))
	assert.Error(t, nn.NewModel(nn.NewActivation("swish")).Build(3, 1))

	model := nn.NewModel(nn.NewDense(nn.DenseConfig{Units: 1}))
	require.NoError(t, model.Build(3, 1))
	assert.Error(t, model.Build(3, 1), "second Build must fail")
}

func TestModel_StatelessCallBeforeBuild(t *testing.T) {
	model := nn.NewModel(nn.NewDense(nn.DenseConfig{Units: 1}))
	_, err := model.StatelessCall(cpu.New(), nil, nil, sampleInput(), false, false)
	assert.ErrorIs(t, err, nn.ErrNotBuilt)

	assert.ErrorIs(t, model.Assign(nil, nil), nn.ErrNotBuilt)
}

func TestModel_StatelessCallShapeMismatch(t *testing.T) {
	model := newMLP(t, false)
	b := cpu.New()
	trainable := model.TrainableValues()

	_, err := model.StatelessCall(b, trainable[:1], nil, sampleInput(), false, false)
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch), "short collection: %v", err)

	swapped := tensor.Collection{trainable[1], trainable[0], trainable[2], trainable[3]}
	_, err = model.StatelessCall(b, swapped, nil, sampleInput(), false, false)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	wide := tensor.Zeros(tensor.Shape{4, 5})
	_, err = model.StatelessCall(b, trainable, nil, wide, false, false)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestModel_StatelessCallIsPure(t *testing.T) {
	model := newMLP(t, true)
	b := cpu.New()

	trainable := model.TrainableValues()
	nonTrainable := model.NonTrainableValues()
	trainableCopy, nonTrainableCopy := trainable.Clone(), nonTrainable.Clone()
	x := sampleInput()
	xCopy := x.Clone()

	first, err := model.StatelessCall(b, trainable, nonTrainable, x, true, true)
	require.NoError(t, err)
	second, err := model.StatelessCall(b, trainable, nonTrainable, x, true, true)
	require.NoError(t, err)

	assert.True(t, first.Predictions.Equal(second.Predictions))
	assert.True(t, first.NonTrainable.Equal(second.NonTrainable))
	assert.True(t, trainable.Equal(trainableCopy), "inputs must not be mutated")
	assert.True(t, nonTrainable.Equal(nonTrainableCopy), "inputs must not be mutated")
	assert.True(t, x.Equal(xCopy))
	assert.True(t, model.NonTrainableValues().Equal(nonTrainableCopy), "model variables must not change")
}

func TestModel_BatchNormUpdatesOnlyInTraining(t *testing.T) {
	model := newMLP(t, true)
	b := cpu.New()
	trainable, nonTrainable := model.TrainableValues(), model.NonTrainableValues()

	train, err := model.StatelessCall(b, trainable, nonTrainable, sampleInput(), true, false)
	require.NoError(t, err)
	assert.False(t, train.NonTrainable.Equal(nonTrainable), "training call must move statistics")
	assertShapes(t, tensor.Collection(nonTrainable).Shapes(), train.NonTrainable.Shapes())

	infer, err := model.StatelessCall(b, trainable, nonTrainable, sampleInput(), false, false)
	require.NoError(t, err)
	assert.True(t, infer.NonTrainable.Equal(nonTrainable), "inference call must pass statistics through")
}

func TestModel_ExtraLosses(t *testing.T) {
	model := newMLP(t, false)
	b := cpu.New()
	trainable := model.TrainableValues()

	res, err := model.StatelessCall(b, trainable, nil, sampleInput(), true, true)
	require.NoError(t, err)
	require.Len(t, res.Losses, 1, "only the first dense layer has an L2 penalty")

	var want float32
	for _, w := range trainable[0].Data() {
		want += w * w
	}
	assert.InDelta(t, 0.01*want, res.Losses[0].Item(), 1e-6)

	res, err = model.StatelessCall(b, trainable, nil, sampleInput(), true, false)
	require.NoError(t, err)
	assert.Nil(t, res.Losses)
}

func TestModel_AssignAndPredict(t *testing.T) {
	model := nn.NewModel(nn.NewDense(nn.DenseConfig{Units: 1}))
	require.NoError(t, model.Build(2, 1))

	w := tensor.MustFromSlice([]float32{2, -1}, tensor.Shape{1, 2})
	bias := tensor.MustFromSlice([]float32{0.5}, tensor.Shape{1})
	require.NoError(t, model.Assign(tensor.Collection{w, bias}, nil))

	x := tensor.MustFromSlice([]float32{1, 1, 3, 2}, tensor.Shape{2, 2})
	y, err := model.Predict(cpu.New(), x)
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, 4.5}, y.Data())

	bad := tensor.Collection{tensor.Zeros(tensor.Shape{2, 1}), bias}
	assert.ErrorIs(t, model.Assign(bad, nil), tensor.ErrShapeMismatch)
	assert.True(t, model.TrainableValues()[0].Equal(w), "failed Assign must not change values")
}

func TestVariable_Assign(t *testing.T) {
	v := nn.NewVariable("v", tensor.Zeros(tensor.Shape{2}), true)
	require.NoError(t, v.Assign(tensor.Ones(tensor.Shape{2})))
	assert.Equal(t, []float32{1, 1}, v.Value().Data())
	assert.ErrorIs(t, v.Assign(tensor.Ones(tensor.Shape{3})), tensor.ErrShapeMismatch)
	assert.ErrorIs(t, v.Assign(nil), tensor.ErrShapeMismatch)
}

func TestLoss_MeanSquaredError(t *testing.T) {
	b := cpu.New()
	preds := tensor.MustFromSlice([]float32{1, 2, 3}, tensor.Shape{3, 1})

	loss, err := nn.MeanSquaredError{}.Compute(b, preds, tensor.MustFromSlice([]float32{1, 0, 0}, tensor.Shape{3}))
	require.NoError(t, err)
	assert.InDelta(t, (0+4+9)/3.0, loss.Item(), 1e-6)

	_, err = nn.MeanSquaredError{}.Compute(b, preds, tensor.Zeros(tensor.Shape{2}))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestLoss_SparseCategoricalCrossentropy(t *testing.T) {
	b := cpu.New()
	logits := tensor.MustFromSlice([]float32{0, 0, 0, 0}, tensor.Shape{2, 2})

	loss, err := nn.SparseCategoricalCrossentropy{}.Compute(b, logits, tensor.MustFromSlice([]float32{0, 1}, tensor.Shape{2}))
	require.NoError(t, err)
	assert.InDelta(t, math32.Log(2), loss.Item(), 1e-6)

	_, err = nn.SparseCategoricalCrossentropy{}.Compute(b, logits, tensor.MustFromSlice([]float32{0, 2}, tensor.Shape{2}))
	assert.Error(t, err)
	_, err = nn.SparseCategoricalCrossentropy{}.Compute(b, logits, tensor.MustFromSlice([]float32{0.5, 1}, tensor.Shape{2}))
	assert.Error(t, err)
	_, err = nn.SparseCategoricalCrossentropy{}.Compute(b, logits, tensor.Zeros(tensor.Shape{3}))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestParseLossAndActivation(t *testing.T) {
	l, err := nn.ParseLoss("mse")
	require.NoError(t, err)
	assert.Equal(t, "mse", l.Name())
	_, err = nn.ParseLoss("hinge")
	assert.Error(t, err)

	a, err := nn.ParseActivation("")
	require.NoError(t, err)
	assert.Equal(t, nn.ActivationLinear, a)
	_, err = nn.ParseActivation("gelu")
	assert.Error(t, err)
}

func assertShapes(t *testing.T, expected, actual []tensor.Shape) {
	t.Helper()
	require.Equal(t, len(expected), len(actual))
	for i := range expected {
		if !expected[i].Equal(actual[i]) {
			t.Errorf("shape[%d]: expected %v, got %v", i, expected[i], actual[i])
		}
	}
}
