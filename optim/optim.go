// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/purestep/internal/optim"
	"github.com/born-ml/purestep/internal/tensor"
)

// Optimizer is the interface every algorithm implements.
type Optimizer = optim.Optimizer

// Config holds the settings shared by every optimizer.
type Config = optim.Config

// ErrNotBuilt is returned when an optimizer is used before Build.
var ErrNotBuilt = optim.ErrNotBuilt

// ErrIterationLimit is returned once the iteration counter reaches MaxIterations.
var ErrIterationLimit = optim.ErrIterationLimit

// MaxIterations is the largest exact float32 iteration count.
const MaxIterations = optim.MaxIterations

// SGD (Stochastic Gradient Descent)

// SGD is the SGD optimizer with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD.
type SGDConfig = optim.SGDConfig

// NewSGD creates an unbuilt SGD optimizer.
//
// Example:
//
//	opt := optim.NewSGD(optim.SGDConfig{Config: optim.Config{LR: 0.1}, Momentum: 0.9})
func NewSGD(cfg SGDConfig) *SGD { return optim.NewSGD(cfg) }

// Adam (Adaptive Moment Estimation)

// Adam is the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam.
type AdamConfig = optim.AdamConfig

// NewAdam creates an unbuilt Adam optimizer.
func NewAdam(cfg AdamConfig) *Adam { return optim.NewAdam(cfg) }

// New creates an optimizer by name ("sgd" or "adam").
func New(name string, cfg Config, momentum float32) (Optimizer, error) {
	return optim.New(name, cfg, momentum)
}

// Schedules

// Schedule maps the iteration count to a learning rate.
type Schedule = optim.Schedule

// Constant is a fixed learning rate.
type Constant = optim.Constant

// ExponentialDecay multiplies the rate by DecayRate every DecaySteps.
type ExponentialDecay = optim.ExponentialDecay

// NewExponentialDecay validates and creates an ExponentialDecay schedule.
func NewExponentialDecay(initial, decayRate float32, decaySteps int, staircase bool) (ExponentialDecay, error) {
	return optim.NewExponentialDecay(initial, decayRate, decaySteps, staircase)
}

// Helpers

// Iterations reads the iteration count from optimizer accumulators.
func Iterations(vars tensor.Collection) int { return optim.Iterations(vars) }

// ClipByGlobalNorm rescales grads so their global L2 norm is at most maxNorm.
func ClipByGlobalNorm(b tensor.Backend, grads tensor.Collection, maxNorm float32) tensor.Collection {
	return optim.ClipByGlobalNorm(b, grads, maxNorm)
}

// GlobalNorm returns the L2 norm of all gradients together.
func GlobalNorm(grads tensor.Collection) float32 { return optim.GlobalNorm(grads) }
