package ops

import "github.com/born-ml/purestep/internal/tensor"

// SumOp represents output = sum(x) (scalar).
// Backward: every input element receives the scalar output gradient.
type SumOp struct{ base }

// NewSumOp creates a new SumOp.
func NewSumOp(x, output *tensor.Tensor) *SumOp {
	return &SumOp{base{inputs: []*tensor.Tensor{x}, output: output}}
}

// Name returns "sum".
func (op *SumOp) Name() string { return "sum" }

// Backward broadcasts the scalar gradient to the input shape.
func (op *SumOp) Backward(outputGrad *tensor.Tensor, _ tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{tensor.Full(op.inputs[0].Shape(), outputGrad.Item())}
}

// MeanOp represents output = mean(x) (scalar).
// Backward: every input element receives outputGrad / N.
type MeanOp struct{ base }

// NewMeanOp creates a new MeanOp.
func NewMeanOp(x, output *tensor.Tensor) *MeanOp {
	return &MeanOp{base{inputs: []*tensor.Tensor{x}, output: output}}
}

// Name returns "mean".
func (op *MeanOp) Name() string { return "mean" }

// Backward broadcasts outputGrad / N to the input shape.
func (op *MeanOp) Backward(outputGrad *tensor.Tensor, _ tensor.Backend) []*tensor.Tensor {
	x := op.inputs[0]
	return []*tensor.Tensor{tensor.Full(x.Shape(), outputGrad.Item()/float32(x.NumElements()))}
}

// SumRowsOp represents output[j] = sum_i x[i, j].
// Backward: the [F] gradient is repeated for every row.
type SumRowsOp struct{ base }

// NewSumRowsOp creates a new SumRowsOp.
func NewSumRowsOp(x, output *tensor.Tensor) *SumRowsOp {
	return &SumRowsOp{base{inputs: []*tensor.Tensor{x}, output: output}}
}

// Name returns "sum_rows".
func (op *SumRowsOp) Name() string { return "sum_rows" }

// Backward tiles the gradient over the reduced rows.
func (op *SumRowsOp) Backward(outputGrad *tensor.Tensor, _ tensor.Backend) []*tensor.Tensor {
	return []*tensor.Tensor{tileRows(outputGrad, op.inputs[0].Shape()[0])}
}
