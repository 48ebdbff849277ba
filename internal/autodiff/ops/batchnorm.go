package ops

import (
	"github.com/chewxy/math32"

	"github.com/born-ml/purestep/internal/tensor"
)

// BatchNormOp represents per-column normalization of x [N, F]:
//
//	y = gamma * (x - mean) / sqrt(var + eps) + beta
//
// In training mode mean/var are the batch moments of x, so the gradient
// flows through them:
//
//	xhat    = (x - mean) * invStd
//	dbeta   = sum_i dy
//	dgamma  = sum_i dy * xhat
//	dx      = gamma * invStd / N * (N*dy - dbeta - xhat*dgamma)
//
// In inference mode mean/var are constants and dx = dy * gamma * invStd.
// The statistics themselves never receive a gradient.
type BatchNormOp struct {
	base
	mean, variance *tensor.Tensor
	eps            float32
	training       bool
}

// NewBatchNormOp creates a new BatchNormOp. Inputs are recorded as [x, gamma, beta].
func NewBatchNormOp(x, gamma, beta, mean, variance, output *tensor.Tensor, eps float32, training bool) *BatchNormOp {
	return &BatchNormOp{
		base:     base{inputs: []*tensor.Tensor{x, gamma, beta}, output: output},
		mean:     mean,
		variance: variance,
		eps:      eps,
		training: training,
	}
}

// Name returns "batch_norm".
func (op *BatchNormOp) Name() string { return "batch_norm" }

// Backward computes gradients for x, gamma and beta.
func (op *BatchNormOp) Backward(outputGrad *tensor.Tensor, _ tensor.Backend) []*tensor.Tensor {
	x, gamma := op.inputs[0], op.inputs[1]
	shape := x.Shape()
	rows, cols := shape[0], shape[1]

	gradX := tensor.ZerosLike(x)
	gradGamma := tensor.Zeros(tensor.Shape{cols})
	gradBeta := tensor.Zeros(tensor.Shape{cols})

	in, dy, dx := x.Data(), outputGrad.Data(), gradX.Data()
	g, mu, v := gamma.Data(), op.mean.Data(), op.variance.Data()
	dg, db := gradGamma.Data(), gradBeta.Data()
	n := float32(rows)

	for j := 0; j < cols; j++ {
		invStd := 1 / math32.Sqrt(v[j]+op.eps)
		var sumDy, sumDyXhat float32
		for i := 0; i < rows; i++ {
			idx := i*cols + j
			xhat := (in[idx] - mu[j]) * invStd
			sumDy += dy[idx]
			sumDyXhat += dy[idx] * xhat
		}
		db[j] = sumDy
		dg[j] = sumDyXhat

		for i := 0; i < rows; i++ {
			idx := i*cols + j
			if !op.training {
				dx[idx] = dy[idx] * g[j] * invStd
				continue
			}
			xhat := (in[idx] - mu[j]) * invStd
			dx[idx] = g[j] * invStd / n * (n*dy[idx] - sumDy - xhat*sumDyXhat)
		}
	}
	return []*tensor.Tensor{gradX, gradGamma, gradBeta}
}
