package optim

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// Schedule maps the number of completed updates to a learning rate.
//
// Schedules are pure: the rate depends only on the iteration count stored in
// the accumulators, so a step function stays a function of its state.
type Schedule interface {
	Rate(iterations int) float32
}

// Constant is a fixed learning rate.
type Constant float32

// Rate returns the constant.
func (c Constant) Rate(int) float32 { return float32(c) }

// ExponentialDecay decays the rate by DecayRate every DecaySteps updates:
//
//	lr = Initial * DecayRate^(iterations / DecaySteps)
//
// With Staircase the exponent is truncated to an integer.
type ExponentialDecay struct {
	Initial    float32
	DecayRate  float32
	DecaySteps int
	Staircase  bool
}

// NewExponentialDecay validates and returns an ExponentialDecay schedule.
func NewExponentialDecay(initial, decayRate float32, decaySteps int, staircase bool) (ExponentialDecay, error) {
	if initial <= 0 {
		return ExponentialDecay{}, errors.Errorf("initial learning rate must be positive, got %g", initial)
	}
	if decayRate <= 0 || decayRate > 1 {
		return ExponentialDecay{}, errors.Errorf("decay rate must be in (0, 1], got %g", decayRate)
	}
	if decaySteps <= 0 {
		return ExponentialDecay{}, errors.Errorf("decay steps must be positive, got %d", decaySteps)
	}
	return ExponentialDecay{Initial: initial, DecayRate: decayRate, DecaySteps: decaySteps, Staircase: staircase}, nil
}

// Rate returns the decayed learning rate.
func (e ExponentialDecay) Rate(iterations int) float32 {
	p := float32(iterations) / float32(e.DecaySteps)
	if e.Staircase {
		p = math32.Floor(p)
	}
	return e.Initial * math32.Pow(e.DecayRate, p)
}
