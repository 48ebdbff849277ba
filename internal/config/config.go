// Package config loads the YAML run configuration used by cmd/purestep.
package config

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/purestep/internal/nn"
)

// Dataset kinds.
const (
	DatasetBlobs  = "blobs"
	DatasetLinear = "linear"
	DatasetCSV    = "csv"
)

// Config captures the knobs of a training run.
type Config struct {
	Seed         uint64  `yaml:"seed"`
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	LogEvery     int     `yaml:"log_every"`
	LearningRate float32 `yaml:"learning_rate"`
	Optimizer    string  `yaml:"optimizer"` // sgd | adam
	Momentum     float32 `yaml:"momentum"`  // sgd only
	ClipNorm     float32 `yaml:"clip_norm"`
	Hidden       []int   `yaml:"hidden"` // Hidden layer widths
	Activation   string  `yaml:"activation"`
	BatchNorm    bool    `yaml:"batch_norm"`
	L2           float32 `yaml:"l2"`
	Dataset      Dataset `yaml:"dataset"`
	Checkpoint   string  `yaml:"checkpoint"` // Written after every epoch when set
}

// Dataset selects and shapes the training data.
type Dataset struct {
	Kind            string  `yaml:"kind"`
	Samples         int     `yaml:"samples"`
	Features        int     `yaml:"features"`
	Classes         int     `yaml:"classes"` // For csv: 0 means regression
	Noise           float32 `yaml:"noise"`
	Path            string  `yaml:"path"`
	LabelColumn     string  `yaml:"label_column"`
	ValidationSplit float32 `yaml:"validation_split"`
	Shuffle         bool    `yaml:"shuffle"`
}

// Overrides captures CLI supplied values. Zero values leave the config alone.
type Overrides struct {
	Seed         uint64
	Epochs       int
	BatchSize    int
	LogEvery     int
	LearningRate float32
	Optimizer    string
	DatasetPath  string
	Checkpoint   string
}

// Default returns a small classification run on synthetic blobs.
func Default() *Config {
	return &Config{
		Seed:         42,
		Epochs:       10,
		BatchSize:    32,
		LogEvery:     10,
		LearningRate: 0.01,
		Optimizer:    "adam",
		Hidden:       []int{16},
		Activation:   string(nn.ActivationReLU),
		Dataset: Dataset{
			Kind:            DatasetBlobs,
			Samples:         512,
			Features:        2,
			Classes:         3,
			ValidationSplit: 0.2,
			Shuffle:         true,
		},
	}
}

// Load reads a YAML file over Default and validates the result.
func Load(path string) (*Config, error) {
	//nolint:gosec // G304: config path comes from the user
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over Default. Unknown keys are rejected.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Optimizer != "" {
		c.Optimizer = o.Optimizer
	}
	if o.DatasetPath != "" {
		c.Dataset.Kind = DatasetCSV
		c.Dataset.Path = o.DatasetPath
	}
	if o.Checkpoint != "" {
		c.Checkpoint = o.Checkpoint
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Epochs <= 0 {
		return errors.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return errors.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.LogEvery < 0 {
		return errors.Errorf("log_every must be >= 0 (got %d)", c.LogEvery)
	}
	if c.LearningRate <= 0 {
		return errors.Errorf("learning_rate must be > 0 (got %g)", c.LearningRate)
	}
	switch c.Optimizer {
	case "sgd":
	case "adam":
		if c.Momentum != 0 {
			return errors.New("momentum applies to sgd only")
		}
	default:
		return errors.Errorf("unknown optimizer %q (want sgd or adam)", c.Optimizer)
	}
	if c.ClipNorm < 0 {
		return errors.Errorf("clip_norm must be >= 0 (got %g)", c.ClipNorm)
	}
	for i, h := range c.Hidden {
		if h <= 0 {
			return errors.Errorf("hidden[%d] must be > 0 (got %d)", i, h)
		}
	}
	if _, err := nn.ParseActivation(c.Activation); err != nil {
		return err
	}
	if c.L2 < 0 {
		return errors.Errorf("l2 must be >= 0 (got %g)", c.L2)
	}
	return c.Dataset.validate()
}

func (d Dataset) validate() error {
	switch d.Kind {
	case DatasetBlobs:
		if d.Classes < 2 {
			return errors.Errorf("dataset.classes must be >= 2 (got %d)", d.Classes)
		}
		fallthrough
	case DatasetLinear:
		if d.Samples <= 0 || d.Features <= 0 {
			return errors.Errorf("dataset.samples and dataset.features must be > 0 (got %d, %d)", d.Samples, d.Features)
		}
	case DatasetCSV:
		if d.Path == "" {
			return errors.New("dataset.path is required for csv")
		}
	default:
		return errors.Errorf("unknown dataset kind %q (want blobs, linear or csv)", d.Kind)
	}
	if d.ValidationSplit < 0 || d.ValidationSplit >= 1 {
		return errors.Errorf("dataset.validation_split must be in [0, 1) (got %g)", d.ValidationSplit)
	}
	return nil
}

// Classification reports whether the run trains a classifier.
func (c *Config) Classification() bool {
	switch c.Dataset.Kind {
	case DatasetLinear:
		return false
	case DatasetCSV:
		return c.Dataset.Classes > 0
	}
	return true
}
