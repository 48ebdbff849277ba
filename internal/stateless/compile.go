package stateless

import (
	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/data"
	"github.com/born-ml/purestep/internal/tensor"
)

// Signer is implemented by state types a compiled step can key on.
type Signer interface {
	Signature() string
}

// Trace describes one traced specialization of a compiled step.
type Trace struct {
	Key            string   // StateSignature + "|" + BatchSignature
	StateSignature string
	BatchSignature string
	Ops            []string // Backend operations of the traced call, in order
	Calls          int      // Calls served by this trace, including the first
}

// Compiled memoizes a step function per shape signature.
//
// The first call for a new (state, batch) signature runs the step through a
// Recorder and stores the trace; later calls with the same signature reuse
// it. The state signature is pinned by the first successful call: a state
// with any other signature is rejected with ErrShapeMismatch, while a new
// batch signature (e.g. a short final batch) triggers a retrace. A step
// whose output state signature differs from its input is rejected as well.
//
// Compiled is not safe for concurrent use.
type Compiled[S Signer] struct {
	name  string
	step  StepFunc[S]
	state string // Pinned state signature, empty until the first trace

	traces map[string]*Trace
	order  []string
	calls  int
}

// Compile wraps step in a trace cache. name identifies the step in errors.
func Compile[S Signer](name string, step StepFunc[S]) *Compiled[S] {
	return &Compiled[S]{
		name:   name,
		step:   step,
		traces: make(map[string]*Trace),
	}
}

// Call runs the step for (state, batch).
func (c *Compiled[S]) Call(b tensor.Backend, state S, batch data.Batch) (*tensor.Tensor, S, error) {
	var zero S
	stateSig := state.Signature()
	if len(c.order) > 0 && stateSig != c.state {
		return nil, zero, errors.Wrapf(ErrShapeMismatch, "%s: compiled for state %s, got %s", c.name, c.state, stateSig)
	}

	batchSig := batch.Signature()
	key := stateSig + "|" + batchSig
	trace, cached := c.traces[key]

	run := b
	var rec *Recorder
	if !cached {
		rec = NewRecorder(b)
		run = rec
	}

	loss, next, err := c.step(run, state, batch)
	if err != nil {
		return nil, zero, errors.WithMessage(err, c.name)
	}
	if out := next.Signature(); out != stateSig {
		return nil, zero, errors.Wrapf(ErrShapeMismatch, "%s: step changed state signature from %s to %s", c.name, stateSig, out)
	}

	if !cached {
		trace = &Trace{Key: key, StateSignature: stateSig, BatchSignature: batchSig, Ops: rec.Ops()}
		c.traces[key] = trace
		c.order = append(c.order, key)
		c.state = stateSig
	}
	trace.Calls++
	c.calls++
	return loss, next, nil
}

// Name returns the step name.
func (c *Compiled[S]) Name() string { return c.name }

// Calls returns the number of successful calls.
func (c *Compiled[S]) Calls() int { return c.calls }

// Traces returns every trace in creation order.
func (c *Compiled[S]) Traces() []Trace {
	out := make([]Trace, len(c.order))
	for i, key := range c.order {
		out[i] = c.copyTrace(c.traces[key])
	}
	return out
}

// Trace returns the trace stored under key.
func (c *Compiled[S]) Trace(key string) (Trace, bool) {
	t, ok := c.traces[key]
	if !ok {
		return Trace{}, false
	}
	return c.copyTrace(t), true
}

func (c *Compiled[S]) copyTrace(t *Trace) Trace {
	cp := *t
	cp.Ops = append([]string(nil), t.Ops...)
	return cp
}
