// Package data provides the batch sources a training loop iterates.
//
// A Source yields fully materialized batches for one epoch at a time.
// Iteration is finite, restartable and ordered: asking for the same epoch
// twice yields the same batches in the same order, and shuffling depends
// only on (seed, epoch).
package data

import (
	"iter"

	"github.com/born-ml/purestep/internal/tensor"
)

// Batch is one mini-batch: Inputs [N, F] and Targets [N] or [N, K].
type Batch struct {
	Inputs  *tensor.Tensor
	Targets *tensor.Tensor
}

// Size returns the number of rows in the batch.
func (b Batch) Size() int {
	if b.Inputs == nil || len(b.Inputs.Shape()) == 0 {
		return 0
	}
	return b.Inputs.Shape()[0]
}

// Signature renders the input and target shapes, e.g. "x[32x4]y[32]".
func (b Batch) Signature() string {
	return "x[" + shapeOf(b.Inputs) + "]y[" + shapeOf(b.Targets) + "]"
}

func shapeOf(t *tensor.Tensor) string {
	if t == nil {
		return "nil"
	}
	return t.Shape().String()
}

// Source yields the batches of one epoch.
type Source interface {
	Batches(epoch int) iter.Seq[Batch]
}

// Slice is a fixed list of batches, replayed identically every epoch.
type Slice []Batch

// Batches yields the batches in order.
func (s Slice) Batches(int) iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		for _, b := range s {
			if !yield(b) {
				return
			}
		}
	}
}
