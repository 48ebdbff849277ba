package data

import (
	"iter"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/tensor"
)

// Dataset is an in-memory Source over row-aligned inputs and targets.
//
// Example:
//
//	ds, err := data.NewDataset(x, y, data.DatasetConfig{BatchSize: 32, Shuffle: true, Seed: 1})
//	for batch := range ds.Batches(epoch) {
//	    ...
//	}
type Dataset struct {
	inputs  *tensor.Tensor // [N, F]
	targets *tensor.Tensor // [N] or [N, K]
	cfg     DatasetConfig
}

// DatasetConfig controls batching.
type DatasetConfig struct {
	BatchSize     int
	Shuffle       bool   // Reorder rows every epoch
	Seed          uint64 // Shuffle seed, combined with the epoch number
	DropRemainder bool   // Skip a final batch smaller than BatchSize
}

// NewDataset validates the tensors and returns a Dataset.
func NewDataset(inputs, targets *tensor.Tensor, cfg DatasetConfig) (*Dataset, error) {
	if inputs == nil || targets == nil {
		return nil, errors.New("dataset: inputs and targets are required")
	}
	in, out := inputs.Shape(), targets.Shape()
	if len(in) != 2 {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "dataset: inputs must be [N, F], got %v", in)
	}
	if len(out) < 1 || len(out) > 2 || out[0] != in[0] {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "dataset: targets %v do not match inputs %v", out, in)
	}
	if cfg.BatchSize <= 0 {
		return nil, errors.Errorf("dataset: batch size must be positive, got %d", cfg.BatchSize)
	}
	return &Dataset{inputs: inputs, targets: targets, cfg: cfg}, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return d.inputs.Shape()[0] }

// Features returns the input width.
func (d *Dataset) Features() int { return d.inputs.Shape()[1] }

// Inputs returns the full input tensor.
func (d *Dataset) Inputs() *tensor.Tensor { return d.inputs }

// Targets returns the full target tensor.
func (d *Dataset) Targets() *tensor.Tensor { return d.targets }

// NumBatches returns the number of batches per epoch.
func (d *Dataset) NumBatches() int {
	n := d.Len() / d.cfg.BatchSize
	if !d.cfg.DropRemainder && d.Len()%d.cfg.BatchSize != 0 {
		n++
	}
	return n
}

// Batches yields the batches of epoch. Rows are copied into fresh tensors.
func (d *Dataset) Batches(epoch int) iter.Seq[Batch] {
	order := d.order(epoch)
	return func(yield func(Batch) bool) {
		size := d.cfg.BatchSize
		for start := 0; start < len(order); start += size {
			end := min(start+size, len(order))
			if d.cfg.DropRemainder && end-start < size {
				return
			}
			idx := order[start:end]
			if !yield(Batch{Inputs: gatherRows(d.inputs, idx), Targets: gatherRows(d.targets, idx)}) {
				return
			}
		}
	}
}

// order returns the row order for epoch.
func (d *Dataset) order(epoch int) []int {
	n := d.Len()
	if d.cfg.Shuffle {
		return rand.New(rand.NewPCG(d.cfg.Seed, uint64(epoch))).Perm(n)
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// Split partitions the rows into a training and a validation Dataset.
// Rows are shuffled once with seed; the last fraction of them is held out.
// The validation Dataset never shuffles.
func (d *Dataset) Split(fraction float32, seed uint64) (train, validation *Dataset, err error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, errors.Errorf("dataset: validation fraction must be in (0, 1), got %g", fraction)
	}
	n := d.Len()
	nVal := int(float32(n) * fraction)
	if nVal == 0 || nVal == n {
		return nil, nil, errors.Errorf("dataset: fraction %g of %d rows leaves an empty split", fraction, n)
	}
	perm := rand.New(rand.NewPCG(seed, 0)).Perm(n)
	trainIdx, valIdx := perm[:n-nVal], perm[n-nVal:]

	train, err = NewDataset(gatherRows(d.inputs, trainIdx), gatherRows(d.targets, trainIdx), d.cfg)
	if err != nil {
		return nil, nil, err
	}
	valCfg := d.cfg
	valCfg.Shuffle = false
	valCfg.DropRemainder = false
	validation, err = NewDataset(gatherRows(d.inputs, valIdx), gatherRows(d.targets, valIdx), valCfg)
	if err != nil {
		return nil, nil, err
	}
	return train, validation, nil
}

// gatherRows copies rows idx of t into a new tensor.
func gatherRows(t *tensor.Tensor, idx []int) *tensor.Tensor {
	shape := t.Shape().Clone()
	width := 1
	if len(shape) == 2 {
		width = shape[1]
	}
	shape[0] = len(idx)
	out := tensor.Zeros(shape)
	src, dst := t.Data(), out.Data()
	for i, row := range idx {
		copy(dst[i*width:(i+1)*width], src[row*width:(row+1)*width])
	}
	return out
}
