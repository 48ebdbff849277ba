package cpu

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/born-ml/purestep/internal/tensor"
)

// SoftmaxCrossEntropy computes mean(-log(softmax(logits)[label])) over the batch.
//
// logits: [N, C]; labels: [N] holding class indices as float32.
// Uses log-sum-exp so large logits do not overflow.
func (cpu *CPUBackend) SoftmaxCrossEntropy(logits, labels *tensor.Tensor) *tensor.Tensor {
	rows, cols := require2D("softmax_cross_entropy", logits)
	if labels.NumElements() != rows {
		panic(fmt.Sprintf("softmax_cross_entropy: %d labels for %d rows", labels.NumElements(), rows))
	}

	for _, l := range labels.Data() {
		ClassIndex(l, cols)
	}

	// Per-row losses are summed in row order afterwards so the result does
	// not depend on how rows were split.
	in, lab := logits.Data(), labels.Data()
	losses := make([]float32, rows)
	cpu.rows(rows, func(start, end int) {
		for i := start; i < end; i++ {
			row := in[i*cols : (i+1)*cols]
			losses[i] = logSumExp(row) - row[int(lab[i])]
		}
	})
	var total float64
	for _, l := range losses {
		total += float64(l)
	}
	return tensor.Scalar(float32(total / float64(rows)))
}

// ClassIndex converts a float-encoded label into a checked class index.
func ClassIndex(label float32, numClasses int) int {
	class, ok := tensor.ClassIndex(label, numClasses)
	if !ok {
		panic(fmt.Sprintf("label %v is not a class index in [0, %d)", label, numClasses))
	}
	return class
}

func logSumExp(row []float32) float32 {
	maxVal := math32.Inf(-1)
	for _, v := range row {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float32
	for _, v := range row {
		sum += math32.Exp(v - maxVal)
	}
	return maxVal + math32.Log(sum)
}

// BatchNormTrain normalizes each column of x [N, F] with the batch moments.
//
// Returns y = gamma * (x - mean) / sqrt(var + eps) + beta together with the
// batch mean and biased variance, which the caller folds into its moving
// statistics.
func (cpu *CPUBackend) BatchNormTrain(x, gamma, beta *tensor.Tensor, eps float32) (y, mean, variance *tensor.Tensor) {
	_, cols := require2D("batch_norm", x)
	checkFeatureVector("batch_norm", gamma, cols)
	checkFeatureVector("batch_norm", beta, cols)

	mean, variance = Moments(x)
	y = cpu.BatchNormInfer(x, gamma, beta, mean, variance, eps)
	return y, mean, variance
}

// BatchNormInfer normalizes each column of x [N, F] with supplied statistics.
func (cpu *CPUBackend) BatchNormInfer(x, gamma, beta, mean, variance *tensor.Tensor, eps float32) *tensor.Tensor {
	rows, cols := require2D("batch_norm", x)
	for _, t := range []*tensor.Tensor{gamma, beta, mean, variance} {
		checkFeatureVector("batch_norm", t, cols)
	}

	result := alloc("batch_norm", x.Shape())
	in, out := x.Data(), result.Data()
	g, b, mu, v := gamma.Data(), beta.Data(), mean.Data(), variance.Data()
	invStd := make([]float32, cols)
	for j := range invStd {
		invStd[j] = 1 / math32.Sqrt(v[j]+eps)
	}
	cpu.rows(rows, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < cols; j++ {
				idx := i*cols + j
				out[idx] = g[j]*(in[idx]-mu[j])*invStd[j] + b[j]
			}
		}
	})
	return result
}

// Moments returns the per-column mean and biased variance of x [N, F].
func Moments(x *tensor.Tensor) (mean, variance *tensor.Tensor) {
	rows, cols := require2D("moments", x)
	in := x.Data()
	mean = alloc("moments", tensor.Shape{cols})
	variance = alloc("moments", tensor.Shape{cols})
	mu, v := mean.Data(), variance.Data()
	for j := 0; j < cols; j++ {
		var sum float64
		for i := 0; i < rows; i++ {
			sum += float64(in[i*cols+j])
		}
		m := sum / float64(rows)
		var sq float64
		for i := 0; i < rows; i++ {
			d := float64(in[i*cols+j]) - m
			sq += d * d
		}
		mu[j] = float32(m)
		v[j] = float32(sq / float64(rows))
	}
	return mean, variance
}

func checkFeatureVector(op string, t *tensor.Tensor, features int) {
	if !t.Shape().Equal(tensor.Shape{features}) {
		panic(fmt.Sprintf("%s: expected per-feature vector [%d], got %v", op, features, t.Shape()))
	}
}
