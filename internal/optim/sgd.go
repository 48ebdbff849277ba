package optim

import (
	"fmt"

	"github.com/born-ml/purestep/internal/tensor"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Momentum helps accelerate SGD in relevant directions and dampens oscillations.
// Without momentum the only accumulator is the iteration count.
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{
//	    Config:   optim.Config{LR: 0.01},
//	    Momentum: 0.9,
//	})
type SGD struct {
	base
	momentum float32
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	Config
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new, unbuilt SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	// Set defaults
	if config.LR == 0 {
		config.LR = 0.01
	}

	o := &SGD{momentum: config.Momentum}
	slots := 0
	if config.Momentum != 0 {
		slots = 1
	}
	o.base = newBase("sgd", slots, config.Config, o.apply)
	return o
}

// Momentum returns the momentum factor.
func (o *SGD) Momentum() float32 { return o.momentum }

func (o *SGD) apply(b tensor.Backend, _ int, lr float32, param, grad *tensor.Tensor, slots []*tensor.Tensor) (*tensor.Tensor, []*tensor.Tensor) {
	if len(slots) == 0 {
		return b.Sub(param, b.MulScalar(grad, lr)), nil
	}
	velocity := b.Add(b.MulScalar(slots[0], o.momentum), grad)
	return b.Sub(param, b.MulScalar(velocity, lr)), []*tensor.Tensor{velocity}
}

// String returns a short description.
func (o *SGD) String() string {
	return fmt.Sprintf("SGD(lr=%g, momentum=%g)", o.LearningRate(), o.momentum)
}
