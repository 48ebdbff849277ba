package tensor

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	t := tensor.Zeros(tensor.Shape{3, 4})
func Zeros(shape Shape) *Tensor {
	t, err := New(shape)
	if err != nil {
		panic(err) // Shape validation should prevent this
	}
	return t
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape) *Tensor {
	return Full(shape, 1)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full(tensor.Shape{3, 3}, 3.14)
func Full(shape Shape, value float32) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = value
	}
	return t
}

// ZerosLike returns a zero tensor with the shape of t.
func ZerosLike(t *Tensor) *Tensor {
	return Zeros(t.shape)
}

// RandNormal creates a tensor with values drawn from N(mean, std²).
//
// The generator is explicit so that a fixed seed reproduces the same
// weights on every run.
func RandNormal(shape Shape, mean, std float32, rng *rand.Rand) *Tensor {
	t := Zeros(shape)
	for i := range t.data {
		t.data[i] = mean + std*float32(rng.NormFloat64())
	}
	return t
}

// RandUniform creates a tensor with values drawn from U(low, high).
func RandUniform(shape Shape, low, high float32, rng *rand.Rand) *Tensor {
	t := Zeros(shape)
	span := high - low
	for i := range t.data {
		t.data[i] = low + span*rng.Float32()
	}
	return t
}

// Xavier draws weights from the Glorot uniform distribution
// U(-sqrt(6/(fanIn+fanOut)), sqrt(6/(fanIn+fanOut))).
func Xavier(fanIn, fanOut int, shape Shape, rng *rand.Rand) *Tensor {
	bound := math32.Sqrt(6.0 / float32(fanIn+fanOut))
	return RandUniform(shape, -bound, bound, rng)
}

// NewRand returns a deterministic PCG generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
