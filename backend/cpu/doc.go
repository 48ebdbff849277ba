// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend.
//
// # Overview
//
// The backend implements every tensor.Backend operation on float32 data:
//   - Elementwise arithmetic with row and scalar broadcasting
//   - MatMul through gonum's blas32 Gemm
//   - Activations, reductions and a fused softmax cross-entropy
//   - Batch normalization in training and inference form
//
// Kernels always allocate their output, so the backend never mutates an
// input tensor.
//
// # Basic Usage
//
//	b := cpu.New()
//	fmt.Println(b.Features())
//
// # Thread Safety
//
// The CPU backend holds no mutable state and is safe for concurrent use.
package cpu
