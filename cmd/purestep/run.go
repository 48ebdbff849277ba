package main

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/backend/cpu"
	"github.com/born-ml/purestep/internal/config"
	"github.com/born-ml/purestep/internal/data"
	"github.com/born-ml/purestep/internal/loop"
	"github.com/born-ml/purestep/internal/metrics"
	"github.com/born-ml/purestep/internal/nn"
	"github.com/born-ml/purestep/internal/optim"
	"github.com/born-ml/purestep/internal/serialization"
	"github.com/born-ml/purestep/internal/stateless"
	"github.com/born-ml/purestep/internal/tensor"
)

// run is everything a train command needs.
type run struct {
	driver     *loop.Driver
	train      data.Source
	validation data.Source // Nil without a validation split
}

func newRun(cfg *config.Config, backend *cpu.CPUBackend, logger *slog.Logger) (*run, error) {
	x, y, err := loadData(cfg.Dataset, cfg.Seed)
	if err != nil {
		return nil, err
	}
	ds, err := data.NewDataset(x, y, data.DatasetConfig{
		BatchSize: cfg.BatchSize,
		Shuffle:   cfg.Dataset.Shuffle,
		Seed:      cfg.Seed,
	})
	if err != nil {
		return nil, err
	}
	r := &run{train: ds}
	if cfg.Dataset.ValidationSplit > 0 {
		train, val, err := ds.Split(cfg.Dataset.ValidationSplit, cfg.Seed)
		if err != nil {
			return nil, err
		}
		r.train, r.validation = train, val
	}
	logger.Info("data", "kind", cfg.Dataset.Kind, "rows", ds.Len(), "features", ds.Features(),
		"validation", r.validation != nil)

	outputs := 1
	var loss nn.Loss = nn.MeanSquaredError{}
	set, err := metrics.NewSet(metrics.NewLossTracker(), metrics.NewMeanSquaredError())
	if cfg.Classification() {
		if outputs, err = numClasses(y, cfg.Dataset.Classes); err != nil {
			return nil, err
		}
		loss = nn.SparseCategoricalCrossentropy{}
		set, err = metrics.NewSet(metrics.NewLossTracker(), metrics.NewSparseCategoricalAccuracy())
	}
	if err != nil {
		return nil, err
	}

	model, err := buildModel(cfg, ds.Features(), outputs)
	if err != nil {
		return nil, err
	}
	opt, err := optim.New(cfg.Optimizer, optim.Config{LR: cfg.LearningRate, ClipNorm: cfg.ClipNorm}, cfg.Momentum)
	if err != nil {
		return nil, err
	}
	if err := opt.Build(model.TrainableValues()); err != nil {
		return nil, err
	}

	r.driver = &loop.Driver{
		Model:          model,
		Loss:           loss,
		Optimizer:      opt,
		Metrics:        set,
		Backend:        backend,
		Epochs:         cfg.Epochs,
		LogEvery:       cfg.LogEvery,
		CheckpointPath: cfg.Checkpoint,
		Logger:         logger,
	}
	return r, nil
}

func loadData(cfg config.Dataset, seed uint64) (x, y *tensor.Tensor, err error) {
	switch cfg.Kind {
	case config.DatasetBlobs:
		return data.Blobs(data.BlobsConfig{
			Samples:  cfg.Samples,
			Features: cfg.Features,
			Classes:  cfg.Classes,
			Seed:     seed,
		})
	case config.DatasetLinear:
		return data.Linear(data.LinearConfig{
			Samples:  cfg.Samples,
			Features: cfg.Features,
			Noise:    cfg.Noise,
			Seed:     seed,
		})
	case config.DatasetCSV:
		return data.LoadCSV(cfg.Path, cfg.LabelColumn)
	}
	return nil, nil, errors.Errorf("unknown dataset kind %q", cfg.Kind)
}

// numClasses returns configured when set, else 1 + the largest label.
func numClasses(labels *tensor.Tensor, configured int) (int, error) {
	if configured > 0 {
		return configured, nil
	}
	maxLabel := float32(0)
	for _, v := range labels.Data() {
		maxLabel = max(maxLabel, v)
	}
	n := int(maxLabel) + 1
	if n < 2 {
		return 0, errors.New("classification needs at least two classes")
	}
	return n, nil
}

func buildModel(cfg *config.Config, inFeatures, outputs int) (*nn.Model, error) {
	activation, err := nn.ParseActivation(cfg.Activation)
	if err != nil {
		return nil, err
	}
	var layers []nn.Layer
	for _, units := range cfg.Hidden {
		if cfg.BatchNorm {
			layers = append(layers,
				nn.NewDense(nn.DenseConfig{Units: units, L2: cfg.L2}),
				nn.NewBatchNorm(nn.BatchNormConfig{}),
				nn.NewActivation(activation))
			continue
		}
		layers = append(layers, nn.NewDense(nn.DenseConfig{Units: units, Activation: activation, L2: cfg.L2}))
	}
	layers = append(layers, nn.NewDense(nn.DenseConfig{Units: outputs}))

	model := nn.NewModel(layers...)
	if err := model.Build(inFeatures, cfg.Seed); err != nil {
		return nil, err
	}
	return model, nil
}

// resume restores a checkpoint into the run's objects and continues after
// the epochs it records.
func (r *run) resume(path string) error {
	ckpt, err := serialization.Load(path)
	if err != nil {
		return err
	}
	d := r.driver
	// Metric accumulators are reset at every epoch boundary anyway.
	ckpt.State.MetricVars = d.Metrics.StatelessReset()
	if err := stateless.Reattach(ckpt.State, d.Model, d.Optimizer, d.Metrics); err != nil {
		return errors.WithMessagef(err, "resume from %s", path)
	}
	if ckpt.Meta.Epoch >= d.Epochs {
		return errors.Errorf("resume: checkpoint already covers %d of %d epochs", ckpt.Meta.Epoch, d.Epochs)
	}
	d.InitialEpoch = ckpt.Meta.Epoch
	d.InitialStep = ckpt.Meta.Step
	d.Logger.Info("resumed", "path", path, "epoch", ckpt.Meta.Epoch, "step", ckpt.Meta.Step,
		"run_id", ckpt.RunID.String())
	return nil
}
