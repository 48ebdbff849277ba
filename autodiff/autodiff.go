// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// Most code should use stateless.ValueAndGrad, which wraps a fresh tape
// around the caller's backend for every call. This package exposes the
// tape directly for custom gradient code.
//
// Example:
//
//	ad := autodiff.New(cpu.New())
//	ad.Tape().StartRecording()
//	loss := ad.Mean(ad.Mul(w, x))
//	grads := autodiff.Backward(loss, ad)
//	dw := grads[w]
package autodiff

import (
	"github.com/born-ml/purestep/internal/autodiff"
	"github.com/born-ml/purestep/internal/tensor"
)

// AutodiffBackend records every operation on a GradientTape while
// delegating the computation to an inner backend.
type AutodiffBackend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// GradientTape records operations for backpropagation.
type GradientTape = autodiff.GradientTape

// BackwardCapable is a backend that owns a tape.
type BackwardCapable = autodiff.BackwardCapable

// New wraps backend with gradient recording.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return autodiff.New(backend)
}

// NewGradientTape creates an empty tape.
func NewGradientTape() *GradientTape { return autodiff.NewGradientTape() }

// Backward computes gradients of the scalar t with respect to every tensor
// recorded on backend's tape.
func Backward(t *tensor.Tensor, backend BackwardCapable) map[*tensor.Tensor]*tensor.Tensor {
	return autodiff.Backward(t, backend)
}
