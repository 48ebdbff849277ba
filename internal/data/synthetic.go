package data

import (
	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/tensor"
)

// BlobsConfig configures Blobs.
type BlobsConfig struct {
	Samples  int
	Features int
	Classes  int
	Spread   float32 // Standard deviation around each center (default 1)
	Seed     uint64
}

// Blobs generates a classification problem: one Gaussian cluster per class
// with centers drawn uniformly from [-5, 5]^F.
//
// Returns inputs [Samples, Features] and labels [Samples] holding class
// indices as float32. Sample i belongs to class i mod Classes.
func Blobs(cfg BlobsConfig) (inputs, labels *tensor.Tensor, err error) {
	if cfg.Samples <= 0 || cfg.Features <= 0 || cfg.Classes < 2 {
		return nil, nil, errors.Errorf("blobs: need samples > 0, features > 0 and classes >= 2, got %d/%d/%d",
			cfg.Samples, cfg.Features, cfg.Classes)
	}
	if cfg.Spread == 0 {
		cfg.Spread = 1
	}

	rng := tensor.NewRand(cfg.Seed)
	centers := tensor.RandUniform(tensor.Shape{cfg.Classes, cfg.Features}, -5, 5, rng)
	noise := tensor.RandNormal(tensor.Shape{cfg.Samples, cfg.Features}, 0, cfg.Spread, rng)

	inputs = tensor.Zeros(tensor.Shape{cfg.Samples, cfg.Features})
	labels = tensor.Zeros(tensor.Shape{cfg.Samples})
	x, y, c, n := inputs.Data(), labels.Data(), centers.Data(), noise.Data()
	for i := 0; i < cfg.Samples; i++ {
		class := i % cfg.Classes
		y[i] = float32(class)
		for j := 0; j < cfg.Features; j++ {
			x[i*cfg.Features+j] = c[class*cfg.Features+j] + n[i*cfg.Features+j]
		}
	}
	return inputs, labels, nil
}

// LinearConfig configures Linear.
type LinearConfig struct {
	Samples  int
	Features int
	Noise    float32 // Standard deviation of additive target noise
	Seed     uint64
}

// Linear generates a regression problem y = x·w + b + noise with x ~ N(0, 1)
// and w, b ~ N(0, 1).
//
// Returns inputs [Samples, Features] and targets [Samples, 1].
func Linear(cfg LinearConfig) (inputs, targets *tensor.Tensor, err error) {
	if cfg.Samples <= 0 || cfg.Features <= 0 {
		return nil, nil, errors.Errorf("linear: need samples > 0 and features > 0, got %d/%d", cfg.Samples, cfg.Features)
	}

	rng := tensor.NewRand(cfg.Seed)
	weights := tensor.RandNormal(tensor.Shape{cfg.Features}, 0, 1, rng)
	bias := rng.NormFloat64()
	inputs = tensor.RandNormal(tensor.Shape{cfg.Samples, cfg.Features}, 0, 1, rng)

	targets = tensor.Zeros(tensor.Shape{cfg.Samples, 1})
	x, w, y := inputs.Data(), weights.Data(), targets.Data()
	for i := 0; i < cfg.Samples; i++ {
		sum := float32(bias)
		for j := 0; j < cfg.Features; j++ {
			sum += x[i*cfg.Features+j] * w[j]
		}
		if cfg.Noise > 0 {
			sum += cfg.Noise * float32(rng.NormFloat64())
		}
		y[i] = sum
	}
	return inputs, targets, nil
}
