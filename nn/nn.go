// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/purestep/internal/nn"
	"github.com/born-ml/purestep/internal/tensor"
)

// Core types.
type (
	// Layer is the interface every model component implements.
	Layer = nn.Layer

	// Scope carries variable values, updates and extra losses through a call.
	Scope = nn.Scope

	// Variable is a named piece of layer state.
	Variable = nn.Variable

	// Model is a sequential container of layers.
	Model = nn.Model

	// CallResult is the output of Model.StatelessCall.
	CallResult = nn.CallResult
)

// ErrNotBuilt is returned when a model is used before Build.
var ErrNotBuilt = nn.ErrNotBuilt

// NewModel creates an unbuilt sequential model.
func NewModel(layers ...Layer) *Model { return nn.NewModel(layers...) }

// NewVariable creates a variable holding value.
func NewVariable(name string, value *tensor.Tensor, trainable bool) *Variable {
	return nn.NewVariable(name, value, trainable)
}

// Dense layer.
type (
	Dense       = nn.Dense
	DenseConfig = nn.DenseConfig
)

// NewDense creates a fully connected layer.
func NewDense(cfg DenseConfig) *Dense { return nn.NewDense(cfg) }

// BatchNorm layer.
type (
	BatchNorm       = nn.BatchNorm
	BatchNormConfig = nn.BatchNormConfig
)

// NewBatchNorm creates a batch normalization layer.
func NewBatchNorm(cfg BatchNormConfig) *BatchNorm { return nn.NewBatchNorm(cfg) }

// Activation names an element-wise nonlinearity.
type Activation = nn.Activation

// ActivationLayer applies an Activation as a standalone layer.
type ActivationLayer = nn.ActivationLayer

// Supported activations.
const (
	ActivationLinear  = nn.ActivationLinear
	ActivationReLU    = nn.ActivationReLU
	ActivationTanh    = nn.ActivationTanh
	ActivationSigmoid = nn.ActivationSigmoid
)

// ParseActivation validates an activation name.
func ParseActivation(name string) (Activation, error) { return nn.ParseActivation(name) }

// NewActivation creates a standalone activation layer.
func NewActivation(a Activation) *ActivationLayer { return nn.NewActivation(a) }

// NewReLU creates a ReLU layer.
func NewReLU() *ActivationLayer { return nn.NewReLU() }

// NewTanh creates a Tanh layer.
func NewTanh() *ActivationLayer { return nn.NewTanh() }

// NewSigmoid creates a Sigmoid layer.
func NewSigmoid() *ActivationLayer { return nn.NewSigmoid() }

// Losses.
type (
	// Loss computes a scalar loss from predictions and targets.
	Loss = nn.Loss

	// MeanSquaredError is mean((predictions - targets)²).
	MeanSquaredError = nn.MeanSquaredError

	// SparseCategoricalCrossentropy is cross-entropy over logits with
	// integer class labels.
	SparseCategoricalCrossentropy = nn.SparseCategoricalCrossentropy
)

// ParseLoss returns the loss registered under name.
func ParseLoss(name string) (Loss, error) { return nn.ParseLoss(name) }
