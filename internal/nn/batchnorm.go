package nn

import (
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/tensor"
)

// BatchNorm normalizes every feature over the batch.
//
// Training mode uses batch moments and moves the running statistics:
//
//	moving = momentum * moving + (1 - momentum) * batch
//
// Inference mode uses the running statistics. Gamma and beta are trainable,
// the moving mean and variance are not.
type BatchNorm struct {
	momentum float32
	eps      float32

	gamma, beta           *Variable // [features]
	movingMean, movingVar *Variable // [features]
}

// BatchNormConfig configures a BatchNorm layer.
type BatchNormConfig struct {
	Momentum float32 // Default 0.99
	Epsilon  float32 // Default 1e-3
}

// NewBatchNorm creates a new, unbuilt BatchNorm layer.
func NewBatchNorm(cfg BatchNormConfig) *BatchNorm {
	if cfg.Momentum == 0 {
		cfg.Momentum = 0.99
	}
	if cfg.Epsilon == 0 {
		cfg.Epsilon = 1e-3
	}
	return &BatchNorm{momentum: cfg.Momentum, eps: cfg.Epsilon}
}

// Kind returns "batch_norm".
func (bn *BatchNorm) Kind() string { return "batch_norm" }

// Build allocates gamma=1, beta=0, moving mean=0 and moving variance=1.
func (bn *BatchNorm) Build(name string, inFeatures int, _ *rand.Rand) (int, error) {
	if bn.momentum < 0 || bn.momentum >= 1 {
		return 0, errors.Errorf("%s: momentum must be in [0, 1), got %g", name, bn.momentum)
	}
	if bn.eps <= 0 {
		return 0, errors.Errorf("%s: epsilon must be positive, got %g", name, bn.eps)
	}
	shape := tensor.Shape{inFeatures}
	bn.gamma = NewVariable(name+"/gamma", tensor.Ones(shape), true)
	bn.beta = NewVariable(name+"/beta", tensor.Zeros(shape), true)
	bn.movingMean = NewVariable(name+"/moving_mean", tensor.Zeros(shape), false)
	bn.movingVar = NewVariable(name+"/moving_variance", tensor.Ones(shape), false)
	return inFeatures, nil
}

// Variables returns [gamma, beta, moving_mean, moving_variance].
func (bn *BatchNorm) Variables() []*Variable {
	if bn.gamma == nil {
		return nil
	}
	return []*Variable{bn.gamma, bn.beta, bn.movingMean, bn.movingVar}
}

// Call normalizes x and, in training mode, records new moving statistics.
func (bn *BatchNorm) Call(s *Scope, x *tensor.Tensor) *tensor.Tensor {
	b := s.Backend()
	gamma, beta := s.Value(bn.gamma), s.Value(bn.beta)

	if !s.Training() {
		return b.BatchNormInfer(x, gamma, beta, s.Value(bn.movingMean), s.Value(bn.movingVar), bn.eps)
	}

	y, mean, variance := b.BatchNormTrain(x, gamma, beta, bn.eps)
	s.Update(bn.movingMean, bn.blend(b, s.Value(bn.movingMean), mean))
	s.Update(bn.movingVar, bn.blend(b, s.Value(bn.movingVar), variance))
	return y
}

func (bn *BatchNorm) blend(b tensor.Backend, moving, batch *tensor.Tensor) *tensor.Tensor {
	return b.Add(b.MulScalar(moving, bn.momentum), b.MulScalar(batch, 1-bn.momentum))
}
