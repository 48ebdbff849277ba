// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package checkpoint saves and restores training state.
//
// A checkpoint file holds a stateless.State together with the epoch, step
// and loss it was taken at. Tensor values round-trip bit for bit and the
// data section is protected by a SHA-256 checksum.
//
// Example:
//
//	ckpt, err := checkpoint.Load("run.pstp")
//	if err != nil {
//	    return err
//	}
//	err = stateless.Reattach(ckpt.State, model, opt, set)
package checkpoint

import (
	"github.com/born-ml/purestep/internal/serialization"
)

// Checkpoint is a training state snapshot with its bookkeeping.
type Checkpoint = serialization.Checkpoint

// Meta is the training position a checkpoint was taken at.
type Meta = serialization.CheckpointMeta

// Errors.
var (
	ErrChecksumMismatch   = serialization.ErrChecksumMismatch
	ErrInvalidMagic       = serialization.ErrInvalidMagic
	ErrUnsupportedVersion = serialization.ErrUnsupportedVersion
)

// Save writes ckpt to path atomically.
func Save(path string, ckpt *Checkpoint) error { return serialization.Save(path, ckpt) }

// Load reads and validates a checkpoint.
func Load(path string) (*Checkpoint, error) { return serialization.Load(path) }
