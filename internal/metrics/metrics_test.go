package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/purestep/internal/backend/cpu"
	"github.com/born-ml/purestep/internal/metrics"
	"github.com/born-ml/purestep/internal/tensor"
)

func TestMean(t *testing.T) {
	b := cpu.New()
	m := metrics.NewMean("value")
	vars := m.StatelessReset()

	vars, err := m.StatelessUpdate(b, vars, nil, tensor.MustFromSlice([]float32{1, 2, 3}, tensor.Shape{3}))
	require.NoError(t, err)
	vars, err = m.StatelessUpdate(b, vars, nil, tensor.Scalar(6))
	require.NoError(t, err)

	r, err := m.StatelessResult(vars)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, r, 1e-6)
	assert.Equal(t, float32(0), m.Result(), "stateless update must not touch the metric")
}

func TestSparseCategoricalAccuracy(t *testing.T) {
	b := cpu.New()
	m := metrics.NewSparseCategoricalAccuracy()
	preds := tensor.MustFromSlice([]float32{
		0.9, 0.1,
		0.2, 0.8,
		0.6, 0.4,
		0.3, 0.7,
	}, tensor.Shape{4, 2})
	labels := tensor.MustFromSlice([]float32{0, 1, 1, 1}, tensor.Shape{4})

	vars, err := m.StatelessUpdate(b, m.StatelessReset(), labels, preds)
	require.NoError(t, err)
	r, err := m.StatelessResult(vars)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, r, 1e-6)

	_, err = m.StatelessUpdate(b, m.StatelessReset(), tensor.Zeros(tensor.Shape{3}), preds)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestMeanSquaredError(t *testing.T) {
	b := cpu.New()
	m := metrics.NewMeanSquaredError()
	preds := tensor.MustFromSlice([]float32{1, 2, 3}, tensor.Shape{3, 1})
	targets := tensor.MustFromSlice([]float32{1, 0, 0}, tensor.Shape{3})

	vars, err := m.StatelessUpdate(b, m.StatelessReset(), targets, preds)
	require.NoError(t, err)
	r, err := m.StatelessResult(vars)
	require.NoError(t, err)
	assert.InDelta(t, 13.0/3.0, r, 1e-5)
}

func TestMetric_Uninitialized(t *testing.T) {
	b := cpu.New()
	m := metrics.NewMeanSquaredError()
	x := tensor.Zeros(tensor.Shape{2, 1})

	_, err := m.StatelessUpdate(b, nil, x, x)
	assert.ErrorIs(t, err, metrics.ErrUninitialized)
	_, err = m.StatelessResult(nil)
	assert.ErrorIs(t, err, metrics.ErrUninitialized)

	_, err = m.StatelessUpdate(b, tensor.Collection{tensor.Scalar(0)}, x, x)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

// TestMetric_AccumulationIsAssociative checks that updating with A then B
// equals one update with A and B concatenated.
func TestMetric_AccumulationIsAssociative(t *testing.T) {
	b := cpu.New()
	predsA := tensor.MustFromSlice([]float32{0.5, 1.5, -0.5, 2.0}, tensor.Shape{2, 2})
	predsB := tensor.MustFromSlice([]float32{3.0, 1.0, 0.0, 0.25, 1.0, 1.0}, tensor.Shape{3, 2})
	labelsA := tensor.MustFromSlice([]float32{1, 1}, tensor.Shape{2})
	labelsB := tensor.MustFromSlice([]float32{0, 1, 0}, tensor.Shape{3})
	predsAB := tensor.MustFromSlice(append(append([]float32{}, predsA.Data()...), predsB.Data()...), tensor.Shape{5, 2})
	labelsAB := tensor.MustFromSlice(append(append([]float32{}, labelsA.Data()...), labelsB.Data()...), tensor.Shape{5})

	for _, m := range []metrics.Metric{
		metrics.NewMean("mean"),
		metrics.NewSparseCategoricalAccuracy(),
	} {
		t.Run(m.Name(), func(t *testing.T) {
			split, err := m.StatelessUpdate(b, m.StatelessReset(), labelsA, predsA)
			require.NoError(t, err)
			split, err = m.StatelessUpdate(b, split, labelsB, predsB)
			require.NoError(t, err)

			joined, err := m.StatelessUpdate(b, m.StatelessReset(), labelsAB, predsAB)
			require.NoError(t, err)

			for i := range split {
				assert.InDelta(t, joined[i].Item(), split[i].Item(), 1e-5)
			}
			r1, _ := m.StatelessResult(split)
			r2, _ := m.StatelessResult(joined)
			assert.InDelta(t, r2, r1, 1e-6)
		})
	}
}

func TestMetric_CountOverflow(t *testing.T) {
	b := cpu.New()
	m := metrics.NewMean("value")
	full := tensor.Collection{tensor.Scalar(0), tensor.Scalar(metrics.MaxCount - 1)}

	vars, err := m.StatelessUpdate(b, full, nil, tensor.Scalar(1))
	require.NoError(t, err)
	assert.Equal(t, float32(metrics.MaxCount), vars[1].Item())

	_, err = m.StatelessUpdate(b, vars, nil, tensor.Scalar(1))
	assert.ErrorIs(t, err, metrics.ErrCountOverflow)
}

// TestSet_LossWeightedByBatchSize checks that the loss tracker obeys the
// same split/concatenate rule as the other metrics when batch sizes differ.
func TestSet_LossWeightedByBatchSize(t *testing.T) {
	b := cpu.New()
	set, err := metrics.NewSet(metrics.NewLossTracker())
	require.NoError(t, err)

	predsA := tensor.Zeros(tensor.Shape{1, 2})
	predsB := tensor.Zeros(tensor.Shape{3, 2})
	labelsA := tensor.Zeros(tensor.Shape{1})
	labelsB := tensor.Zeros(tensor.Shape{3})

	// Per-sample losses: A = {4}, B = {0, 0, 0}; batch means 4 and 0.
	vars, err := set.StatelessUpdate(b, set.StatelessReset(), labelsA, predsA, tensor.Scalar(4))
	require.NoError(t, err)
	vars, err = set.StatelessUpdate(b, vars, labelsB, predsB, tensor.Scalar(0))
	require.NoError(t, err)

	joined, err := set.StatelessUpdate(b, set.StatelessReset(),
		tensor.Zeros(tensor.Shape{4}), tensor.Zeros(tensor.Shape{4, 2}), tensor.Scalar(1))
	require.NoError(t, err)

	split, err := set.StatelessResults(vars)
	require.NoError(t, err)
	whole, err := set.StatelessResults(joined)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, split["loss"], 1e-6)
	assert.InDelta(t, whole["loss"], split["loss"], 1e-6)
	assert.True(t, vars.Equal(joined))

	_, err = metrics.NewLossTracker().StatelessUpdateWeighted(b, metrics.NewLossTracker().StatelessReset(),
		tensor.Zeros(tensor.Shape{2}), 2)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestSet(t *testing.T) {
	b := cpu.New()
	loss := metrics.NewLossTracker()
	acc := metrics.NewSparseCategoricalAccuracy()
	set, err := metrics.NewSet(loss, acc)
	require.NoError(t, err)
	assert.Equal(t, []string{"loss", "accuracy"}, set.Names())

	vars := set.StatelessReset()
	require.Len(t, vars, 4)

	preds := tensor.MustFromSlice([]float32{0.9, 0.1, 0.2, 0.8}, tensor.Shape{2, 2})
	labels := tensor.MustFromSlice([]float32{0, 0}, tensor.Shape{2})
	vars, err = set.StatelessUpdate(b, vars, labels, preds, tensor.Scalar(0.4))
	require.NoError(t, err)
	vars, err = set.StatelessUpdate(b, vars, labels, preds, tensor.Scalar(0.2))
	require.NoError(t, err)

	results, err := set.StatelessResults(vars)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, results["loss"], 1e-6)
	assert.InDelta(t, 0.5, results["accuracy"], 1e-6)

	// Nothing is attached until Assign.
	assert.Equal(t, float32(0), set.Results()["loss"])
	require.NoError(t, set.Assign(vars))
	assert.InDelta(t, 0.3, loss.Result(), 1e-6)
	assert.InDelta(t, 0.5, acc.Result(), 1e-6)
	assert.True(t, set.Variables().Equal(vars))

	set.Reset()
	assert.Equal(t, float32(0), acc.Result())
	assert.True(t, set.Variables().Equal(set.StatelessReset()))
}

func TestSet_Errors(t *testing.T) {
	_, err := metrics.NewSet(metrics.NewMean("x"), metrics.NewMean("x"))
	assert.Error(t, err)

	set, err := metrics.NewSet(metrics.NewMeanSquaredError())
	require.NoError(t, err)
	x := tensor.Zeros(tensor.Shape{2, 1})

	_, err = set.StatelessUpdate(cpu.New(), nil, x, x, tensor.Scalar(0))
	assert.ErrorIs(t, err, metrics.ErrUninitialized)
	_, err = set.StatelessUpdate(cpu.New(), tensor.Collection{tensor.Scalar(0)}, x, x, tensor.Scalar(0))
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
	assert.ErrorIs(t, set.Assign(tensor.Collection{tensor.Scalar(0), tensor.Zeros(tensor.Shape{2})}), tensor.ErrShapeMismatch)

	empty, err := metrics.NewSet()
	require.NoError(t, err)
	out, err := empty.StatelessUpdate(cpu.New(), empty.StatelessReset(), x, x, tensor.Scalar(0))
	require.NoError(t, err)
	assert.Empty(t, out)
}
