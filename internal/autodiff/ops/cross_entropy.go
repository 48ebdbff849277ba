package ops

import (
	"github.com/born-ml/purestep/internal/tensor"
)

// SoftmaxCrossEntropyOp represents the fused loss
// mean_i(-log(softmax(logits_i)[label_i])).
//
// Backward pass:
//
//	grad_logits = outputGrad * (softmax(logits) - onehot(labels)) / N
//
// Labels are constants: no gradient flows to them.
type SoftmaxCrossEntropyOp struct{ base }

// NewSoftmaxCrossEntropyOp creates a new SoftmaxCrossEntropyOp.
func NewSoftmaxCrossEntropyOp(logits, labels, output *tensor.Tensor) *SoftmaxCrossEntropyOp {
	return &SoftmaxCrossEntropyOp{base{inputs: []*tensor.Tensor{logits, labels}, output: output}}
}

// Name returns "softmax_cross_entropy".
func (op *SoftmaxCrossEntropyOp) Name() string { return "softmax_cross_entropy" }

// Backward computes the logits gradient.
func (op *SoftmaxCrossEntropyOp) Backward(outputGrad *tensor.Tensor, backend tensor.Backend) []*tensor.Tensor {
	logits, labels := op.inputs[0], op.inputs[1]
	shape := logits.Shape()
	rows, cols := shape[0], shape[1]

	grad := backend.Softmax(logits)
	data, lab := grad.Data(), labels.Data()
	for i := 0; i < rows; i++ {
		data[i*cols+int(lab[i])] -= 1
	}
	scale := outputGrad.Item() / float32(rows)
	return []*tensor.Tensor{backend.MulScalar(grad, scale), nil}
}
