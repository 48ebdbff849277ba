package optim

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/born-ml/purestep/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Adam combines ideas from RMSprop and momentum:
//   - Maintains exponential moving averages of gradients (first moment)
//   - Maintains exponential moving averages of squared gradients (second moment)
//   - Applies bias correction to compensate for initialization at zero
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// Accumulators: [iterations, m(p0..pN-1), v(p0..pN-1)].
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	base
	beta1 float32
	beta2 float32
	eps   float32
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	Config
	Betas [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float32    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new, unbuilt Adam optimizer.
func NewAdam(config AdamConfig) *Adam {
	// Set defaults
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	o := &Adam{beta1: config.Betas[0], beta2: config.Betas[1], eps: config.Eps}
	o.base = newBase("adam", 2, config.Config, o.apply)
	return o
}

func (o *Adam) apply(b tensor.Backend, step int, lr float32, param, grad *tensor.Tensor, slots []*tensor.Tensor) (*tensor.Tensor, []*tensor.Tensor) {
	m := b.Add(b.MulScalar(slots[0], o.beta1), b.MulScalar(grad, 1-o.beta1))
	v := b.Add(b.MulScalar(slots[1], o.beta2), b.MulScalar(b.Mul(grad, grad), 1-o.beta2))

	t := float32(step)
	biasCorrection1 := 1 - math32.Pow(o.beta1, t)
	biasCorrection2 := 1 - math32.Pow(o.beta2, t)

	mHat := b.MulScalar(m, lr/biasCorrection1)
	denom := b.AddScalar(b.Sqrt(b.MulScalar(v, 1/biasCorrection2)), o.eps)
	return b.Sub(param, b.Div(mHat, denom)), []*tensor.Tensor{m, v}
}

// String returns a short description.
func (o *Adam) String() string {
	return fmt.Sprintf("Adam(lr=%g, betas=[%g, %g], eps=%g)", o.LearningRate(), o.beta1, o.beta2, o.eps)
}
