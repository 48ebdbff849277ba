// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense float32 tensors that flow through
// every stateless step.
//
// # Overview
//
// This package contains:
//   - Tensor: row-major float32 array with a Shape
//   - Collection: ordered list of tensors, the unit of training state
//   - Backend: the operation set a step runs on
//
// Tensors are treated as immutable by every stateless API. Operations
// always allocate their result.
//
// # Basic Usage
//
//	x := tensor.MustFromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	b := cpu.New()
//	y := b.MatMul(x, b.Transpose(x))
//
// # Signatures
//
// Collection.Signature renders the shapes of a collection ("4x8,8"). Two
// states with equal signatures are interchangeable inputs to a compiled
// step.
package tensor
