package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/purestep/internal/tensor"
)

func rangeDataset(t *testing.T, n int, cfg DatasetConfig) *Dataset {
	t.Helper()
	x := tensor.Zeros(tensor.Shape{n, 2})
	y := tensor.Zeros(tensor.Shape{n})
	for i := 0; i < n; i++ {
		x.Data()[2*i] = float32(i)
		x.Data()[2*i+1] = float32(-i)
		y.Data()[i] = float32(i)
	}
	ds, err := NewDataset(x, y, cfg)
	require.NoError(t, err)
	return ds
}

func collect(src Source, epoch int) []Batch {
	var out []Batch
	for b := range src.Batches(epoch) {
		out = append(out, b)
	}
	return out
}

func TestDataset_SequentialBatches(t *testing.T) {
	ds := rangeDataset(t, 10, DatasetConfig{BatchSize: 4})
	batches := collect(ds, 0)

	require.Len(t, batches, 3)
	assert.Equal(t, 3, ds.NumBatches())
	assert.Equal(t, []int{4, 4, 2}, []int{batches[0].Size(), batches[1].Size(), batches[2].Size()})
	assert.Equal(t, []float32{8, 9}, batches[2].Targets.Data())
	assert.Equal(t, []float32{8, -8, 9, -9}, batches[2].Inputs.Data())
	assert.Equal(t, "x[4x2]y[4]", batches[0].Signature())
}

func TestDataset_DropRemainder(t *testing.T) {
	ds := rangeDataset(t, 10, DatasetConfig{BatchSize: 4, DropRemainder: true})
	assert.Len(t, collect(ds, 0), 2)
	assert.Equal(t, 2, ds.NumBatches())
}

func TestDataset_ShuffleIsSeededPerEpoch(t *testing.T) {
	ds := rangeDataset(t, 16, DatasetConfig{BatchSize: 16, Shuffle: true, Seed: 3})

	first := collect(ds, 0)[0].Targets.Data()
	again := collect(ds, 0)[0].Targets.Data()
	next := collect(ds, 1)[0].Targets.Data()

	assert.Equal(t, first, again, "same (seed, epoch) must give the same order")
	assert.NotEqual(t, first, next, "a new epoch must reshuffle")
	assert.ElementsMatch(t, first, next, "shuffling must be a permutation")

	// Inputs stay aligned with targets.
	b := collect(ds, 1)[0]
	for i, y := range b.Targets.Data() {
		assert.Equal(t, y, b.Inputs.Data()[2*i])
	}
}

func TestDataset_EarlyBreak(t *testing.T) {
	ds := rangeDataset(t, 10, DatasetConfig{BatchSize: 2})
	n := 0
	for range ds.Batches(0) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestDataset_Validation(t *testing.T) {
	_, err := NewDataset(tensor.Zeros(tensor.Shape{4}), tensor.Zeros(tensor.Shape{4}), DatasetConfig{BatchSize: 1})
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
	_, err = NewDataset(tensor.Zeros(tensor.Shape{4, 2}), tensor.Zeros(tensor.Shape{3}), DatasetConfig{BatchSize: 1})
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
	_, err = NewDataset(tensor.Zeros(tensor.Shape{4, 2}), tensor.Zeros(tensor.Shape{4}), DatasetConfig{})
	assert.Error(t, err)
}

func TestDataset_Split(t *testing.T) {
	ds := rangeDataset(t, 20, DatasetConfig{BatchSize: 4, Shuffle: true, Seed: 1})
	train, val, err := ds.Split(0.25, 9)
	require.NoError(t, err)
	assert.Equal(t, 15, train.Len())
	assert.Equal(t, 5, val.Len())

	seen := append(append([]float32{}, train.Targets().Data()...), val.Targets().Data()...)
	var want []float32
	for i := 0; i < 20; i++ {
		want = append(want, float32(i))
	}
	assert.ElementsMatch(t, want, seen)

	_, _, err = ds.Split(0, 1)
	assert.Error(t, err)
	_, _, err = ds.Split(0.01, 1)
	assert.Error(t, err)
}

func TestSlice(t *testing.T) {
	b := Batch{Inputs: tensor.Zeros(tensor.Shape{2, 1}), Targets: tensor.Zeros(tensor.Shape{2})}
	s := Slice{b, b}
	assert.Len(t, collect(s, 0), 2)
	assert.Len(t, collect(s, 5), 2)
}

func TestBlobs(t *testing.T) {
	x, y, err := Blobs(BlobsConfig{Samples: 30, Features: 2, Classes: 3, Seed: 4})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{30, 2}.String(), x.Shape().String())
	assert.Equal(t, []float32{0, 1, 2, 0}, y.Data()[:4])

	x2, _, err := Blobs(BlobsConfig{Samples: 30, Features: 2, Classes: 3, Seed: 4})
	require.NoError(t, err)
	assert.True(t, x.Equal(x2))

	_, _, err = Blobs(BlobsConfig{Samples: 30, Features: 2, Classes: 1})
	assert.Error(t, err)
}

func TestLinear(t *testing.T) {
	x, y, err := Linear(LinearConfig{Samples: 32, Features: 3, Seed: 2})
	require.NoError(t, err)
	assert.Equal(t, "32x3", x.Shape().String())
	assert.Equal(t, "32x1", y.Shape().String())

	_, _, err = Linear(LinearConfig{Features: 3})
	assert.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	in := "a,label,b\n1,0,2\n3,1,4\n"
	x, y, err := ReadCSV(strings.NewReader(in), "label")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, x.Data())
	assert.Equal(t, []float32{0, 1}, y.Data())

	_, _, err = ReadCSV(strings.NewReader(in), "missing")
	assert.Error(t, err)
	_, _, err = ReadCSV(strings.NewReader("a,label\nx,1\n"), "label")
	assert.Error(t, err)
	_, _, err = ReadCSV(strings.NewReader("a,label\n"), "label")
	assert.Error(t, err)
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte("x,y\n0.5,1\n-0.5,0\n"), 0o600))

	x, y, err := LoadCSV(path, "y")
	require.NoError(t, err)
	assert.Equal(t, "2x1", x.Shape().String())
	assert.Equal(t, []float32{1, 0}, y.Data())

	_, _, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), "y")
	assert.Error(t, err)
}
