// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package data provides batch sources for the training loop.
//
// # Overview
//
// This package contains:
//   - Batch and the Source interface
//   - Dataset: in-memory rows with seeded shuffling and splitting
//   - Blobs and Linear: synthetic classification and regression problems
//   - LoadCSV: numeric CSV files with a label column
//
// # Basic Usage
//
//	x, y, err := data.Blobs(data.BlobsConfig{Samples: 512, Features: 2, Classes: 3, Seed: 1})
//	ds, err := data.NewDataset(x, y, data.DatasetConfig{BatchSize: 32, Shuffle: true, Seed: 1})
//	train, val, err := ds.Split(0.2, 1)
//	for batch := range train.Batches(epoch) {
//	    ...
//	}
package data

import (
	"io"

	"github.com/born-ml/purestep/internal/data"
	"github.com/born-ml/purestep/internal/tensor"
)

// Types.
type (
	Batch         = data.Batch
	Source        = data.Source
	Slice         = data.Slice
	Dataset       = data.Dataset
	DatasetConfig = data.DatasetConfig
	BlobsConfig   = data.BlobsConfig
	LinearConfig  = data.LinearConfig
)

// NewDataset wraps inputs [N, F] and targets [N] or [N, K].
func NewDataset(inputs, targets *tensor.Tensor, cfg DatasetConfig) (*Dataset, error) {
	return data.NewDataset(inputs, targets, cfg)
}

// Blobs generates Gaussian clusters, one per class.
func Blobs(cfg BlobsConfig) (inputs, labels *tensor.Tensor, err error) { return data.Blobs(cfg) }

// Linear generates a noisy linear regression problem.
func Linear(cfg LinearConfig) (inputs, targets *tensor.Tensor, err error) { return data.Linear(cfg) }

// LoadCSV reads a numeric CSV file with a header row.
func LoadCSV(path, labelColumn string) (inputs, targets *tensor.Tensor, err error) {
	return data.LoadCSV(path, labelColumn)
}

// ReadCSV is LoadCSV over a reader.
func ReadCSV(r io.Reader, labelColumn string) (inputs, targets *tensor.Tensor, err error) {
	return data.ReadCSV(r, labelColumn)
}
