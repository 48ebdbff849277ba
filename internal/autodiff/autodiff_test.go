package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/purestep/internal/autodiff"
	"github.com/born-ml/purestep/internal/backend/cpu"
	"github.com/born-ml/purestep/internal/tensor"
)

func TestAutodiffBackend_Name(t *testing.T) {
	backend := autodiff.New(cpu.New())
	assert.Equal(t, "Autodiff(CPU)", backend.Name())
}

func TestTape_RecordsOnlyWhileRecording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := tensor.MustFromSlice([]float32{1, 2}, tensor.Shape{2})

	_ = backend.Add(x, x)
	assert.Equal(t, 0, backend.Tape().NumOps(), "ops must not be recorded before StartRecording")

	backend.Tape().StartRecording()
	y := backend.Mul(x, x)
	_ = backend.Sum(y)
	_ = backend.Argmax(tensor.MustFromSlice([]float32{1, 2}, tensor.Shape{1, 2}))
	assert.Equal(t, []string{"mul", "sum"}, backend.Tape().OpNames())

	backend.Tape().Clear()
	assert.Equal(t, 0, backend.Tape().NumOps())
	assert.True(t, backend.Tape().IsRecording(), "Clear must preserve recording state")
}

func TestBackward_Square(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := tensor.MustFromSlice([]float32{1, 2, 3}, tensor.Shape{3})
	loss := backend.Sum(backend.Mul(x, x)) // sum(x²)

	grads := autodiff.Backward(loss, backend)
	require.Contains(t, grads, x)
	assert.Equal(t, []float32{2, 4, 6}, grads[x].Data())
}

func TestBackward_AccumulatesReusedInputs(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := tensor.MustFromSlice([]float32{3}, tensor.Shape{1})
	y := backend.Add(backend.MulScalar(x, 2), backend.Mul(x, x)) // 2x + x²
	grads := autodiff.Backward(backend.Sum(y), backend)

	assert.InDelta(t, 8.0, grads[x].Item(), 1e-6) // 2 + 2x
}

func TestBackward_RowBroadcastBias(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := tensor.MustFromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2})
	bias := tensor.MustFromSlice([]float32{0.5, -0.5}, tensor.Shape{2})
	grads := autodiff.Backward(backend.Sum(backend.Add(x, bias)), backend)

	assertShape(t, tensor.Shape{2}, grads[bias].Shape())
	assert.Equal(t, []float32{3, 3}, grads[bias].Data())
	assert.Equal(t, []float32{1, 1, 1, 1, 1, 1}, grads[x].Data())
}

func TestBackward_UnreachedTensorsAbsent(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := tensor.MustFromSlice([]float32{1, 2}, tensor.Shape{2})
	unused := tensor.MustFromSlice([]float32{7, 7}, tensor.Shape{2})
	_ = backend.Mul(unused, unused)
	loss := backend.Sum(x)

	grads := autodiff.Backward(loss, backend)
	assert.NotContains(t, grads, unused)
	assert.Contains(t, grads, x)
}

func TestBackward_DoesNotRecordBackwardPass(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := tensor.MustFromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	w := tensor.MustFromSlice([]float32{1, 0, 0, 1}, tensor.Shape{2, 2})
	loss := backend.Mean(backend.MatMul(x, w))
	before := backend.Tape().NumOps()

	_ = autodiff.Backward(loss, backend)
	assert.Equal(t, before, backend.Tape().NumOps())
	assert.True(t, backend.Tape().IsRecording())
}

func TestBackward_PanicsWithoutRecording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := tensor.MustFromSlice([]float32{1}, tensor.Shape{1})
	loss := backend.Sum(x)

	assert.Panics(t, func() { autodiff.Backward(loss, backend) })
}

func TestBackward_PanicsOnNonScalar(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()
	x := tensor.MustFromSlice([]float32{1, 2}, tensor.Shape{2})
	y := backend.Mul(x, x)

	assert.Panics(t, func() { autodiff.Backward(y, backend) })
}

func TestBackward_CrossEntropyIgnoresLabels(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	logits := tensor.MustFromSlice([]float32{0, 0, 0, 0}, tensor.Shape{2, 2})
	labels := tensor.MustFromSlice([]float32{0, 1}, tensor.Shape{2})
	grads := autodiff.Backward(backend.SoftmaxCrossEntropy(logits, labels), backend)

	assert.NotContains(t, grads, labels)
	// (softmax - onehot) / N with uniform softmax 0.5.
	assert.Equal(t, []float32{-0.25, 0.25, 0.25, -0.25}, grads[logits].Data())
}

func assertShape(t *testing.T, expected, actual tensor.Shape) {
	t.Helper()
	if !expected.Equal(actual) {
		t.Errorf("expected shape %v, got %v", expected, actual)
	}
}
