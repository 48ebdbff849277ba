// Package optim implements stateless optimization algorithms.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//   - Schedules: learning rate as a function of the iteration count
//   - Global-norm gradient clipping
//
// An optimizer never mutates parameters. StatelessApply takes the current
// accumulators, gradients and parameters and returns new parameters and new
// accumulators. The first accumulator is always the scalar iteration count.
//
// Example usage:
//
//	opt := optim.NewSGD(optim.SGDConfig{Config: optim.Config{LR: 0.1}})
//	if err := opt.Build(model.TrainableValues()); err != nil { ... }
//	vars := opt.Variables()
//
//	for _, batch := range batches {
//	    _, grads, _ := valueAndGrad(backend, params, batch)
//	    params, vars, err = opt.StatelessApply(backend, vars, grads, params)
//	}
//	_ = opt.Assign(vars)
package optim

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/tensor"
)

// ErrNotBuilt is returned when an optimizer is used before Build.
var ErrNotBuilt = errors.New("optimizer is not built")

// ErrIterationLimit is returned once the iteration counter reaches
// MaxIterations.
var ErrIterationLimit = errors.New("optimizer iteration counter exhausted")

// MaxIterations is the largest count the float32 iteration accumulator
// holds exactly (2^24). Past it, adding 1 rounds back to the same value and
// the schedule and Adam's bias correction would silently freeze.
const MaxIterations = 1 << 24

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Name returns the algorithm name ("sgd", "adam").
	Name() string

	// Build derives the accumulator layout from the parameter shapes and
	// initializes the accumulators. It may be called once.
	Build(params tensor.Collection) error

	// Built reports whether Build succeeded.
	Built() bool

	// Variables returns the optimizer's current accumulators.
	Variables() tensor.Collection

	// StatelessApply computes one update as a pure function.
	//
	// vars, grads and params must match the layout fixed by Build. The
	// inputs are not modified.
	StatelessApply(b tensor.Backend, vars, grads, params tensor.Collection) (newParams, newVars tensor.Collection, err error)

	// Assign re-attaches accumulators produced by StatelessApply.
	Assign(vars tensor.Collection) error

	// LearningRate returns the rate the next update will use.
	LearningRate() float32
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR       float32  // Learning rate, used when Schedule is nil
	Schedule Schedule // Optional learning rate schedule
	ClipNorm float32  // Global gradient norm limit, 0 disables clipping
}

// rule is the per-parameter update an algorithm contributes to base.
//
// slots holds the algorithm's accumulators for one parameter; rule returns
// the new parameter and new slots.
type rule func(b tensor.Backend, step int, lr float32, param, grad *tensor.Tensor, slots []*tensor.Tensor) (*tensor.Tensor, []*tensor.Tensor)

// base holds the bookkeeping shared by every optimizer: the accumulator
// layout, the current accumulators and the schedule.
//
// Accumulators are laid out as
//
//	[iterations, slot0(p0) ... slot0(pN-1), slot1(p0) ... slot1(pN-1), ...]
type base struct {
	name     string
	slots    int
	schedule Schedule
	clipNorm float32
	update   rule

	built  bool
	shapes []tensor.Shape // Parameter shapes
	vars   tensor.Collection
}

func newBase(name string, slots int, cfg Config, update rule) base {
	schedule := cfg.Schedule
	if schedule == nil {
		schedule = Constant(cfg.LR)
	}
	return base{
		name:     name,
		slots:    slots,
		schedule: schedule,
		clipNorm: cfg.ClipNorm,
		update:   update,
	}
}

// Name returns the algorithm name.
func (o *base) Name() string { return o.name }

// Built reports whether Build succeeded.
func (o *base) Built() bool { return o.built }

// Build initializes the iteration count to zero and every slot to zeros.
func (o *base) Build(params tensor.Collection) error {
	if o.built {
		return errors.Errorf("%s: already built", o.name)
	}
	for i, p := range params {
		if p == nil {
			return errors.Wrapf(tensor.ErrShapeMismatch, "%s: params[%d] is nil", o.name, i)
		}
	}
	o.shapes = params.Shapes()
	vars := tensor.Collection{tensor.Scalar(0)}
	for s := 0; s < o.slots; s++ {
		vars = append(vars, params.ZerosLike()...)
	}
	o.vars = vars
	o.built = true
	return nil
}

// Variables returns the current accumulators.
func (o *base) Variables() tensor.Collection { return o.vars }

// Assign replaces the accumulators after checking the layout.
func (o *base) Assign(vars tensor.Collection) error {
	if !o.built {
		return ErrNotBuilt
	}
	if err := vars.CheckShapes(o.name+" vars", o.varShapes()); err != nil {
		return err
	}
	o.vars = vars
	return nil
}

// LearningRate returns the scheduled rate for the current iteration.
func (o *base) LearningRate() float32 {
	if !o.built {
		return o.schedule.Rate(0)
	}
	return o.schedule.Rate(Iterations(o.vars))
}

// StatelessApply validates the layout, clips, and applies the update rule
// to every parameter.
func (o *base) StatelessApply(b tensor.Backend, vars, grads, params tensor.Collection) (tensor.Collection, tensor.Collection, error) {
	if !o.built {
		return nil, nil, ErrNotBuilt
	}
	if err := params.CheckShapes("params", o.shapes); err != nil {
		return nil, nil, errors.WithMessage(err, o.name)
	}
	if err := grads.CheckShapes("grads", o.shapes); err != nil {
		return nil, nil, errors.WithMessage(err, o.name)
	}
	if err := vars.CheckShapes("vars", o.varShapes()); err != nil {
		return nil, nil, errors.WithMessage(err, o.name)
	}

	step := Iterations(vars)
	if step >= MaxIterations {
		return nil, nil, errors.Wrapf(ErrIterationLimit, "%s: %d iterations", o.name, step)
	}
	lr := o.schedule.Rate(step)
	if o.clipNorm > 0 {
		grads = ClipByGlobalNorm(b, grads, o.clipNorm)
	}

	n := len(params)
	newParams := make(tensor.Collection, n)
	newVars := make(tensor.Collection, len(vars))
	newVars[0] = b.AddScalar(vars[0], 1)

	slots := make([]*tensor.Tensor, o.slots)
	for i := range params {
		for s := range slots {
			slots[s] = vars[1+s*n+i]
		}
		p, updated := o.update(b, step+1, lr, params[i], grads[i], slots)
		newParams[i] = p
		for s, t := range updated {
			newVars[1+s*n+i] = t
		}
	}
	return newParams, newVars, nil
}

func (o *base) varShapes() []tensor.Shape {
	shapes := []tensor.Shape{{}}
	for s := 0; s < o.slots; s++ {
		shapes = append(shapes, o.shapes...)
	}
	return shapes
}

// Iterations reads the iteration count from an accumulator collection.
func Iterations(vars tensor.Collection) int {
	if len(vars) == 0 {
		return 0
	}
	return int(vars[0].Item())
}

// ClipByGlobalNorm rescales grads so their joint L2 norm is at most maxNorm.
// Gradients already within the limit are returned unchanged.
func ClipByGlobalNorm(b tensor.Backend, grads tensor.Collection, maxNorm float32) tensor.Collection {
	norm := GlobalNorm(grads)
	if norm <= maxNorm || norm == 0 {
		return grads
	}
	scale := maxNorm / norm
	out := make(tensor.Collection, len(grads))
	for i, g := range grads {
		out[i] = b.MulScalar(g, scale)
	}
	return out
}

// GlobalNorm returns sqrt(sum of squares) over every gradient element.
func GlobalNorm(grads tensor.Collection) float32 {
	var sum float64
	for _, g := range grads {
		for _, v := range g.Data() {
			sum += float64(v) * float64(v)
		}
	}
	return math32.Sqrt(float32(sum))
}

// New returns the optimizer registered under name ("sgd" or "adam").
// momentum is only used by SGD.
func New(name string, cfg Config, momentum float32) (Optimizer, error) {
	switch name {
	case "sgd":
		if momentum < 0 || momentum >= 1 {
			return nil, errors.Errorf("sgd: momentum must be in [0, 1), got %g", momentum)
		}
		return NewSGD(SGDConfig{Config: cfg, Momentum: momentum}), nil
	case "adam":
		return NewAdam(AdamConfig{Config: cfg}), nil
	default:
		return nil, errors.Errorf("unknown optimizer %q", name)
	}
}
