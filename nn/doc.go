// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides layers, losses and the sequential Model.
//
// # Overview
//
// This package contains:
//   - Layers: Dense, BatchNorm, activations (ReLU, Tanh, Sigmoid)
//   - Loss functions: MeanSquaredError, SparseCategoricalCrossentropy
//   - Model: sequential container with a pure StatelessCall
//   - Variable: named trainable or non-trainable state
//
// # Basic Usage
//
//	model := nn.NewModel(
//	    nn.NewDense(nn.DenseConfig{Units: 16, Activation: nn.ActivationReLU}),
//	    nn.NewBatchNorm(nn.BatchNormConfig{}),
//	    nn.NewDense(nn.DenseConfig{Units: 3}),
//	)
//	if err := model.Build(4, 42); err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := model.StatelessCall(backend,
//	    model.TrainableValues(), model.NonTrainableValues(),
//	    x, true, true)
//
// # Stateless Calls
//
// StatelessCall never reads or writes the model's variables. It returns the
// predictions, the new non-trainable values (moving statistics in training
// mode) and, when requested, the extra losses added by layers such as the
// L2 penalty of Dense. Assign writes values back into the variables.
package nn
