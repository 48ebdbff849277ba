// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package stateless threads training state through pure step functions.
//
// # Overview
//
// A step maps (state, batch) to (loss, state'). The state is an explicit
// snapshot of everything that changes during training:
//
//	State{Trainable, NonTrainable, OptimizerVars, MetricVars}
//
// The model, optimizer and metric objects are consulted once for the
// initial state and updated once at the end with Reattach.
//
// # Basic Usage
//
//	step := stateless.Compile("train", stateless.NewTrainStep(stateless.StepConfig{
//	    Model:     model,
//	    Loss:      nn.SparseCategoricalCrossentropy{},
//	    Optimizer: opt,
//	    Metrics:   set,
//	}))
//
//	state, err := stateless.InitialState(model, opt, set)
//	for batch := range dataset.Batches(0) {
//	    loss, next, err := step.Call(backend, state, batch)
//	    if err != nil {
//	        return err
//	    }
//	    state = next
//	}
//	err = stateless.Reattach(state, model, opt, set)
//
// # Custom Steps
//
// ValueAndGrad turns a loss function into one that also returns gradients
// with respect to a parameter collection. Any function with the StepFunc
// signature can be compiled.
//
//	vg := stateless.ValueAndGrad(func(b tensor.Backend, p stateless.Collection, batch data.Batch) (*tensor.Tensor, struct{}, error) {
//	    return b.Mean(b.Mul(p[0], batch.Inputs)), struct{}{}, nil
//	})
//
// # Compile
//
// Compile memoizes a step per shape signature. A compiled step accepts one
// state signature for its lifetime and retraces when the batch signature
// changes, e.g. for a short final batch.
package stateless
