// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package metrics provides metrics whose running state is an explicit
// collection of accumulators.
//
// # Overview
//
// This package contains:
//   - Mean and the "loss" tracker
//   - SparseCategoricalAccuracy
//   - MeanSquaredError
//   - Set: several metrics whose accumulators are concatenated positionally
//
// # Basic Usage
//
//	set, err := metrics.NewSet(metrics.NewLossTracker(), metrics.NewSparseCategoricalAccuracy())
//	vars := set.StatelessReset()
//	vars, err = set.StatelessUpdate(backend, vars, targets, predictions, loss)
//	results, err := set.StatelessResults(vars) // {"loss": ..., "accuracy": ...}
package metrics

import (
	"github.com/born-ml/purestep/internal/metrics"
)

// Metric is the interface every metric implements.
type Metric = metrics.Metric

// Set groups several metrics.
type Set = metrics.Set

// ErrUninitialized is returned when a metric is updated without accumulators.
var ErrUninitialized = metrics.ErrUninitialized

// ErrCountOverflow is returned when a count would pass MaxCount.
var ErrCountOverflow = metrics.ErrCountOverflow

// MaxCount is the largest exact float32 accumulator count.
const MaxCount = metrics.MaxCount

// Concrete metrics.
type (
	Mean                      = metrics.Mean
	SparseCategoricalAccuracy = metrics.SparseCategoricalAccuracy
	MeanSquaredError          = metrics.MeanSquaredError
)

// NewSet groups metrics. Names must be unique.
func NewSet(ms ...Metric) (*Set, error) { return metrics.NewSet(ms...) }

// NewMean averages every element it is updated with.
func NewMean(name string) *Mean { return metrics.NewMean(name) }

// NewLossTracker is the Mean named "loss" that a Set feeds the batch loss.
func NewLossTracker() *Mean { return metrics.NewLossTracker() }

// NewSparseCategoricalAccuracy creates the "accuracy" metric.
func NewSparseCategoricalAccuracy() *SparseCategoricalAccuracy {
	return metrics.NewSparseCategoricalAccuracy()
}

// NewMeanSquaredError creates the "mse" metric.
func NewMeanSquaredError() *MeanSquaredError { return metrics.NewMeanSquaredError() }
