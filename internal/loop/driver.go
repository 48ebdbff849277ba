// Package loop drives stateless step functions over epochs of batches.
//
// The Driver owns the only mutable state of a run: the current
// stateless.State value. Long-lived objects (model, optimizer, metrics) are
// read once at the start and written back once at the end. Every LogEvery
// steps the metric accumulators are assigned to the metric objects so their
// results can be logged.
package loop

import (
	"context"
	"log/slog"
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/backend/cpu"
	"github.com/born-ml/purestep/internal/data"
	"github.com/born-ml/purestep/internal/metrics"
	"github.com/born-ml/purestep/internal/nn"
	"github.com/born-ml/purestep/internal/optim"
	"github.com/born-ml/purestep/internal/serialization"
	"github.com/born-ml/purestep/internal/stateless"
	"github.com/born-ml/purestep/internal/tensor"
)

// ErrNoBatches is returned when a source yields nothing for an epoch.
var ErrNoBatches = errors.New("source yielded no batches")

// Driver runs the outer training loop.
type Driver struct {
	Model     *nn.Model
	Loss      nn.Loss
	Optimizer optim.Optimizer
	Metrics   *metrics.Set   // Optional
	Backend   tensor.Backend // Defaults to the CPU backend

	Epochs       int
	InitialEpoch int   // First epoch index, for resumed runs
	InitialStep  int64 // Steps already taken, for resumed runs
	LogEvery     int   // Steps between log lines; 0 logs only at epoch end

	// CheckpointPath, when set, receives a checkpoint at the end of every epoch.
	CheckpointPath string

	Logger *slog.Logger // Defaults to slog.Default()

	train *stateless.Compiled[stateless.State]
	eval  *stateless.Compiled[stateless.EvalState]
}

// EpochResult summarizes one epoch.
type EpochResult struct {
	Epoch      int
	Steps      int
	Loss       float32            // Mean training loss over the epoch
	Metrics    map[string]float32 // Training metrics at epoch end
	Validation map[string]float32 // Nil without a validation source
}

// History is the per-epoch record returned by Fit.
type History struct {
	Epochs []EpochResult
}

// Last returns the most recent epoch.
func (h History) Last() (EpochResult, bool) {
	if len(h.Epochs) == 0 {
		return EpochResult{}, false
	}
	return h.Epochs[len(h.Epochs)-1], true
}

func (d *Driver) validate() error {
	switch {
	case d.Model == nil:
		return errors.New("driver: model is required")
	case d.Loss == nil:
		return errors.New("driver: loss is required")
	case d.Optimizer == nil:
		return errors.New("driver: optimizer is required")
	case d.Epochs <= 0:
		return errors.Errorf("driver: epochs must be > 0 (got %d)", d.Epochs)
	case d.InitialEpoch < 0 || d.InitialEpoch >= d.Epochs:
		return errors.Errorf("driver: initial epoch %d outside [0, %d)", d.InitialEpoch, d.Epochs)
	case d.InitialStep < 0:
		return errors.Errorf("driver: initial step must be >= 0 (got %d)", d.InitialStep)
	case d.LogEvery < 0:
		return errors.Errorf("driver: log_every must be >= 0 (got %d)", d.LogEvery)
	}
	return nil
}

func (d *Driver) backend() tensor.Backend {
	if d.Backend == nil {
		d.Backend = cpu.New()
	}
	return d.Backend
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d *Driver) steps() (*stateless.Compiled[stateless.State], *stateless.Compiled[stateless.EvalState]) {
	if d.train == nil {
		cfg := stateless.StepConfig{Model: d.Model, Loss: d.Loss, Optimizer: d.Optimizer, Metrics: d.Metrics}
		d.train = stateless.Compile("train_step", stateless.NewTrainStep(cfg))
		d.eval = stateless.Compile("eval_step", stateless.NewEvalStep(cfg))
	}
	return d.train, d.eval
}

// TrainStep returns the compiled training step, for trace inspection.
// It is nil before the first Fit or Evaluate.
func (d *Driver) TrainStep() *stateless.Compiled[stateless.State] { return d.train }

// Fit trains for epochs [InitialEpoch, Epochs) over train and, when
// validation is non-nil, evaluates after every epoch.
//
// The context is checked between steps. On cancellation the state reached
// so far is still written back to the model, optimizer and metrics.
func (d *Driver) Fit(ctx context.Context, train, validation data.Source) (History, error) {
	var history History
	if err := d.validate(); err != nil {
		return history, err
	}
	state, err := stateless.InitialState(d.Model, d.Optimizer, d.Metrics)
	if err != nil {
		return history, err
	}
	trainStep, _ := d.steps()
	b := d.backend()
	log := d.logger()

	step := d.InitialStep
	for epoch := d.InitialEpoch; epoch < d.Epochs; epoch++ {
		var lossSum float64
		n := 0
		for batch := range train.Batches(epoch) {
			if err := ctx.Err(); err != nil {
				return history, d.finish(state, err)
			}
			loss, next, err := trainStep.Call(b, state, batch)
			if err != nil {
				return history, d.finish(state, errors.WithMessagef(err, "epoch %d step %d", epoch+1, step+1))
			}
			state = next
			step++
			n++
			lossSum += float64(loss.Item())

			if d.LogEvery > 0 && step%int64(d.LogEvery) == 0 {
				attrs, err := d.metricAttrs(state.MetricVars)
				if err != nil {
					return history, d.finish(state, err)
				}
				log.Info("train",
					append([]any{"epoch", epoch + 1, "step", step, "loss", loss.Item()}, attrs...)...)
			}
		}
		if n == 0 {
			return history, d.finish(state, errors.Wrapf(ErrNoBatches, "training epoch %d", epoch+1))
		}

		result := EpochResult{Epoch: epoch + 1, Steps: n, Loss: float32(lossSum / float64(n))}
		if result.Metrics, err = d.results(state.MetricVars, result.Loss); err != nil {
			return history, d.finish(state, err)
		}
		if validation != nil {
			result.Validation, err = d.evaluate(ctx, state.Eval(), validation, epoch)
			if err != nil {
				return history, d.finish(state, errors.WithMessagef(err, "validation epoch %d", epoch+1))
			}
		}
		history.Epochs = append(history.Epochs, result)
		d.logEpoch(result)

		if d.CheckpointPath != "" {
			if err := d.checkpoint(state, result, step); err != nil {
				return history, d.finish(state, err)
			}
		}

		if d.Metrics != nil {
			state.MetricVars = d.Metrics.StatelessReset()
			d.Metrics.Reset()
		}
	}
	return history, d.finish(state, nil)
}

// Evaluate runs the evaluation step over source with the model's current
// values and fresh metric accumulators. It changes no long-lived object.
func (d *Driver) Evaluate(ctx context.Context, source data.Source) (map[string]float32, error) {
	if d.Model == nil || d.Loss == nil {
		return nil, errors.New("driver: model and loss are required")
	}
	if !d.Model.Built() {
		return nil, nn.ErrNotBuilt
	}
	state := stateless.EvalState{
		Trainable:    d.Model.TrainableValues(),
		NonTrainable: d.Model.NonTrainableValues(),
	}
	return d.evaluate(ctx, state, source, 0)
}

func (d *Driver) evaluate(ctx context.Context, state stateless.EvalState, source data.Source, epoch int) (map[string]float32, error) {
	_, evalStep := d.steps()
	state.MetricVars = stateless.Collection{}
	if d.Metrics != nil {
		state.MetricVars = d.Metrics.StatelessReset()
	}

	var lossSum float64
	n := 0
	for batch := range source.Batches(epoch) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loss, next, err := evalStep.Call(d.backend(), state, batch)
		if err != nil {
			return nil, err
		}
		state = next
		lossSum += float64(loss.Item())
		n++
	}
	if n == 0 {
		return nil, errors.Wrap(ErrNoBatches, "evaluation")
	}
	return d.results(state.MetricVars, float32(lossSum/float64(n)))
}

// results reduces metric accumulators. When no metric tracks the loss,
// meanLoss is reported under "loss".
func (d *Driver) results(vars stateless.Collection, meanLoss float32) (map[string]float32, error) {
	out := map[string]float32{}
	if d.Metrics != nil {
		r, err := d.Metrics.StatelessResults(vars)
		if err != nil {
			return nil, err
		}
		out = r
	}
	if _, ok := out["loss"]; !ok {
		out["loss"] = meanLoss
	}
	return out, nil
}

// metricAttrs assigns vars to the metric objects and renders their results
// as slog key-value pairs in metric order.
func (d *Driver) metricAttrs(vars stateless.Collection) ([]any, error) {
	if d.Metrics == nil {
		return nil, nil
	}
	if err := d.Metrics.Assign(vars); err != nil {
		return nil, errors.WithMessage(err, "assign metrics")
	}
	results := d.Metrics.Results()
	var attrs []any
	for _, name := range d.Metrics.Names() {
		if name == "loss" {
			continue // Logged from the step itself
		}
		attrs = append(attrs, name, results[name])
	}
	return attrs, nil
}

func (d *Driver) logEpoch(r EpochResult) {
	attrs := []any{"epoch", r.Epoch, "steps", r.Steps, "loss", r.Loss}
	for _, name := range d.metricNames() {
		if name == "loss" {
			continue
		}
		attrs = append(attrs, name, r.Metrics[name])
	}
	if r.Validation != nil {
		attrs = append(attrs, "val_loss", r.Validation["loss"])
		for _, name := range d.metricNames() {
			if name == "loss" {
				continue
			}
			attrs = append(attrs, "val_"+name, r.Validation[name])
		}
	}
	d.logger().Info("epoch", attrs...)
}

func (d *Driver) metricNames() []string {
	if d.Metrics == nil {
		return nil
	}
	return d.Metrics.Names()
}

func (d *Driver) checkpoint(state stateless.State, r EpochResult, step int64) error {
	ckpt := &serialization.Checkpoint{
		State: state,
		Meta: serialization.CheckpointMeta{
			Epoch:     r.Epoch,
			Step:      step,
			Loss:      float64(r.Loss),
			Optimizer: d.Optimizer.Name(),
		},
	}
	if math.IsNaN(ckpt.Meta.Loss) || math.IsInf(ckpt.Meta.Loss, 0) {
		ckpt.Meta.Loss = 0 // JSON has no NaN
	}
	if err := serialization.Save(d.CheckpointPath, ckpt); err != nil {
		return errors.WithMessagef(err, "checkpoint epoch %d", r.Epoch)
	}
	d.logger().Info("checkpoint", "path", d.CheckpointPath, "epoch", r.Epoch, "run_id", ckpt.RunID.String())
	return nil
}

// finish writes state back to the long-lived objects and returns cause,
// or the reattach error when cause is nil.
func (d *Driver) finish(state stateless.State, cause error) error {
	if err := stateless.Reattach(state, d.Model, d.Optimizer, d.Metrics); err != nil {
		if cause != nil {
			return cause
		}
		return err
	}
	return cause
}
