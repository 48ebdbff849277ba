package stateless

import (
	"github.com/born-ml/purestep/internal/tensor"
)

// Recorder wraps a Backend and logs the name of every operation it runs.
//
// Compile runs the first call for each signature through a Recorder; the
// resulting op list is the trace shown by Compiled.Traces.
type Recorder struct {
	inner tensor.Backend
	ops   []string
}

// NewRecorder creates a Recorder around inner.
func NewRecorder(inner tensor.Backend) *Recorder {
	return &Recorder{inner: inner}
}

// Ops returns the recorded operation names in execution order.
func (r *Recorder) Ops() []string {
	return append([]string(nil), r.ops...)
}

func (r *Recorder) note(op string) { r.ops = append(r.ops, op) }

// Name returns the wrapped backend name.
func (r *Recorder) Name() string { return r.inner.Name() }

func (r *Recorder) Add(a, b *tensor.Tensor) *tensor.Tensor {
	r.note("add")
	return r.inner.Add(a, b)
}

func (r *Recorder) Sub(a, b *tensor.Tensor) *tensor.Tensor {
	r.note("sub")
	return r.inner.Sub(a, b)
}

func (r *Recorder) Mul(a, b *tensor.Tensor) *tensor.Tensor {
	r.note("mul")
	return r.inner.Mul(a, b)
}

func (r *Recorder) Div(a, b *tensor.Tensor) *tensor.Tensor {
	r.note("div")
	return r.inner.Div(a, b)
}

func (r *Recorder) AddScalar(x *tensor.Tensor, s float32) *tensor.Tensor {
	r.note("add_scalar")
	return r.inner.AddScalar(x, s)
}

func (r *Recorder) MulScalar(x *tensor.Tensor, s float32) *tensor.Tensor {
	r.note("mul_scalar")
	return r.inner.MulScalar(x, s)
}

func (r *Recorder) MatMul(a, b *tensor.Tensor) *tensor.Tensor {
	r.note("matmul")
	return r.inner.MatMul(a, b)
}

func (r *Recorder) Transpose(x *tensor.Tensor) *tensor.Tensor {
	r.note("transpose")
	return r.inner.Transpose(x)
}

func (r *Recorder) Exp(x *tensor.Tensor) *tensor.Tensor {
	r.note("exp")
	return r.inner.Exp(x)
}

func (r *Recorder) Log(x *tensor.Tensor) *tensor.Tensor {
	r.note("log")
	return r.inner.Log(x)
}

func (r *Recorder) Sqrt(x *tensor.Tensor) *tensor.Tensor {
	r.note("sqrt")
	return r.inner.Sqrt(x)
}

func (r *Recorder) ReLU(x *tensor.Tensor) *tensor.Tensor {
	r.note("relu")
	return r.inner.ReLU(x)
}

func (r *Recorder) Tanh(x *tensor.Tensor) *tensor.Tensor {
	r.note("tanh")
	return r.inner.Tanh(x)
}

func (r *Recorder) Sigmoid(x *tensor.Tensor) *tensor.Tensor {
	r.note("sigmoid")
	return r.inner.Sigmoid(x)
}

func (r *Recorder) Softmax(x *tensor.Tensor) *tensor.Tensor {
	r.note("softmax")
	return r.inner.Softmax(x)
}

func (r *Recorder) Sum(x *tensor.Tensor) *tensor.Tensor {
	r.note("sum")
	return r.inner.Sum(x)
}

func (r *Recorder) Mean(x *tensor.Tensor) *tensor.Tensor {
	r.note("mean")
	return r.inner.Mean(x)
}

func (r *Recorder) SumRows(x *tensor.Tensor) *tensor.Tensor {
	r.note("sum_rows")
	return r.inner.SumRows(x)
}

func (r *Recorder) Argmax(x *tensor.Tensor) *tensor.Tensor {
	r.note("argmax")
	return r.inner.Argmax(x)
}

func (r *Recorder) SoftmaxCrossEntropy(logits, labels *tensor.Tensor) *tensor.Tensor {
	r.note("softmax_cross_entropy")
	return r.inner.SoftmaxCrossEntropy(logits, labels)
}

func (r *Recorder) BatchNormTrain(x, gamma, beta *tensor.Tensor, eps float32) (y, mean, variance *tensor.Tensor) {
	r.note("batch_norm_train")
	return r.inner.BatchNormTrain(x, gamma, beta, eps)
}

func (r *Recorder) BatchNormInfer(x, gamma, beta, mean, variance *tensor.Tensor, eps float32) *tensor.Tensor {
	r.note("batch_norm_infer")
	return r.inner.BatchNormInfer(x, gamma, beta, mean, variance, eps)
}
