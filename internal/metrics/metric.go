// Package metrics implements metrics whose running state is an explicit
// collection of accumulator tensors.
//
// Every metric can be driven two ways:
//   - Stateless: StatelessUpdate/StatelessResult/StatelessReset take and
//     return accumulators and never touch the metric itself.
//   - Stateful: Variables/Assign/Result/Reset operate on the accumulators
//     the metric holds, which is how a training loop reports progress.
//
// Accumulators are additive partial sums, so updating with batch A and then
// batch B gives the same state as updating once with A and B concatenated.
package metrics

import (
	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/tensor"
)

// ErrUninitialized is returned when a metric is updated without accumulators.
var ErrUninitialized = errors.New("metric accumulators are not initialized")

// ErrCountOverflow is returned when an update would push a count past
// MaxCount.
var ErrCountOverflow = errors.New("metric count exceeds float32 precision")

// MaxCount is the largest count a float32 accumulator holds exactly (2^24).
// Reset the metric at least this often.
const MaxCount = 1 << 24

// Metric is the interface every metric implements.
type Metric interface {
	// Name returns the name used for logging.
	Name() string

	// Variables returns the metric's current accumulators.
	Variables() tensor.Collection

	// StatelessUpdate folds one batch into vars and returns the new accumulators.
	StatelessUpdate(b tensor.Backend, vars tensor.Collection, targets, predictions *tensor.Tensor) (tensor.Collection, error)

	// StatelessResult reduces vars to the metric value.
	StatelessResult(vars tensor.Collection) (float32, error)

	// StatelessReset returns zeroed accumulators.
	StatelessReset() tensor.Collection

	// Assign replaces the metric's accumulators.
	Assign(vars tensor.Collection) error

	// Result reduces the metric's own accumulators.
	Result() float32

	// Reset zeroes the metric's own accumulators.
	Reset()
}

// sumCount is the accumulator layout shared by every metric here:
// [total, count], both scalars. The value is total / count.
type sumCount struct {
	name string
	vars tensor.Collection
}

func newSumCount(name string) sumCount {
	s := sumCount{name: name}
	s.vars = s.StatelessReset()
	return s
}

// Name returns the metric name.
func (s *sumCount) Name() string { return s.name }

// Variables returns [total, count].
func (s *sumCount) Variables() tensor.Collection { return s.vars }

// StatelessReset returns [0, 0].
func (s *sumCount) StatelessReset() tensor.Collection {
	return tensor.Collection{tensor.Scalar(0), tensor.Scalar(0)}
}

// StatelessResult returns total / count, or 0 before any update.
func (s *sumCount) StatelessResult(vars tensor.Collection) (float32, error) {
	if err := s.check(vars); err != nil {
		return 0, err
	}
	count := vars[1].Item()
	if count == 0 {
		return 0, nil
	}
	return vars[0].Item() / count, nil
}

// Assign replaces the accumulators.
func (s *sumCount) Assign(vars tensor.Collection) error {
	if err := s.check(vars); err != nil {
		return err
	}
	s.vars = vars
	return nil
}

// Result reduces the metric's own accumulators.
func (s *sumCount) Result() float32 {
	r, _ := s.StatelessResult(s.vars)
	return r
}

// Reset zeroes the metric's own accumulators.
func (s *sumCount) Reset() { s.vars = s.StatelessReset() }

func (s *sumCount) check(vars tensor.Collection) error {
	if vars == nil {
		return errors.Wrap(ErrUninitialized, s.name)
	}
	return vars.CheckShapes(s.name, []tensor.Shape{{}, {}})
}

// add returns [total + amount, count + n].
func (s *sumCount) add(b tensor.Backend, vars tensor.Collection, amount *tensor.Tensor, n int) (tensor.Collection, error) {
	if count := vars[1].Item(); float64(count)+float64(n) > MaxCount {
		return nil, errors.Wrapf(ErrCountOverflow, "%s: count %.0f + %d", s.name, count, n)
	}
	return tensor.Collection{b.Add(vars[0], amount), b.AddScalar(vars[1], float32(n))}, nil
}
