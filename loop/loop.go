// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package loop runs compiled stateless steps over epochs.
//
// # Basic Usage
//
//	d := &loop.Driver{
//	    Model:     model,
//	    Loss:      nn.SparseCategoricalCrossentropy{},
//	    Optimizer: opt,
//	    Metrics:   set,
//	    Epochs:    10,
//	    LogEvery:  50,
//	}
//	history, err := d.Fit(ctx, train, val)
//
// The driver logs through log/slog. At the end of Fit the model, optimizer
// and metrics hold the final state.
package loop

import (
	"github.com/born-ml/purestep/internal/loop"
)

// Driver runs the outer training loop.
type Driver = loop.Driver

// EpochResult summarizes one epoch.
type EpochResult = loop.EpochResult

// History is the per-epoch record returned by Driver.Fit.
type History = loop.History

// ErrNoBatches is returned when a source yields nothing for an epoch.
var ErrNoBatches = loop.ErrNoBatches
