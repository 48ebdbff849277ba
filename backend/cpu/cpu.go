// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/purestep/internal/backend/cpu"
)

// Backend is the CPU implementation of tensor.Backend.
type Backend = internalcpu.CPUBackend

// Features describes the host CPU.
type Features = internalcpu.Features

// New creates a CPU backend.
func New() *Backend { return internalcpu.New() }

// DetectFeatures reports the host CPU features.
func DetectFeatures() Features { return internalcpu.DetectFeatures() }
