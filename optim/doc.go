// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides stateless optimization algorithms.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with optional momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Schedules: Constant and ExponentialDecay learning rates
//   - Global-norm gradient clipping through Config.ClipNorm
//
// # Basic Usage
//
//	opt := optim.NewAdam(optim.AdamConfig{Config: optim.Config{LR: 0.001}})
//	if err := opt.Build(model.TrainableValues()); err != nil {
//	    log.Fatal(err)
//	}
//
//	params, vars := model.TrainableValues(), opt.Variables()
//	for _, batch := range batches {
//	    grads := gradOf(params, batch)
//	    params, vars, err = opt.StatelessApply(backend, vars, grads, params)
//	}
//	_ = opt.Assign(vars)
//
// # Accumulators
//
// Variables returns [iterations, slot0(p0..pN-1), slot1(p0..pN-1), ...].
// The iteration count comes first, so a schedule reads the current step
// from the accumulators without any hidden counter.
package optim
