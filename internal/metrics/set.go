package metrics

import (
	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/tensor"
)

// lossTracker is implemented by metrics that want the batch loss rather
// than (targets, predictions).
type lossTracker interface {
	TracksLoss() bool
	StatelessUpdateWeighted(b tensor.Backend, vars tensor.Collection, value *tensor.Tensor, n int) (tensor.Collection, error)
}

// Set groups metrics and concatenates their accumulators positionally.
//
// For metrics [m0, m1] the set's accumulators are m0.Variables() followed by
// m1.Variables(). The split is fixed by each metric's StatelessReset layout.
type Set struct {
	metrics []Metric
	sizes   []int
}

// NewSet creates a Set. Metric names must be unique.
func NewSet(metrics ...Metric) (*Set, error) {
	seen := make(map[string]bool, len(metrics))
	sizes := make([]int, len(metrics))
	for i, m := range metrics {
		if seen[m.Name()] {
			return nil, errors.Errorf("duplicate metric name %q", m.Name())
		}
		seen[m.Name()] = true
		sizes[i] = len(m.StatelessReset())
	}
	return &Set{metrics: metrics, sizes: sizes}, nil
}

// Metrics returns the metrics in order.
func (s *Set) Metrics() []Metric { return s.metrics }

// Names returns the metric names in order.
func (s *Set) Names() []string {
	names := make([]string, len(s.metrics))
	for i, m := range s.metrics {
		names[i] = m.Name()
	}
	return names
}

// Variables concatenates every metric's current accumulators.
func (s *Set) Variables() tensor.Collection {
	var vars tensor.Collection
	for _, m := range s.metrics {
		vars = append(vars, m.Variables()...)
	}
	if vars == nil {
		vars = tensor.Collection{}
	}
	return vars
}

// StatelessReset concatenates every metric's zero state.
func (s *Set) StatelessReset() tensor.Collection {
	vars := tensor.Collection{}
	for _, m := range s.metrics {
		vars = append(vars, m.StatelessReset()...)
	}
	return vars
}

// StatelessUpdate folds one batch into every metric. Loss trackers receive
// loss weighted by the batch size (rows of predictions); every other metric
// receives targets and predictions.
func (s *Set) StatelessUpdate(b tensor.Backend, vars tensor.Collection, targets, predictions, loss *tensor.Tensor) (tensor.Collection, error) {
	parts, err := s.split(vars)
	if err != nil {
		return nil, err
	}
	out := make(tensor.Collection, 0, len(vars))
	for i, m := range s.metrics {
		var updated tensor.Collection
		if lt, ok := m.(lossTracker); ok && lt.TracksLoss() {
			updated, err = lt.StatelessUpdateWeighted(b, parts[i], loss, batchRows(predictions))
		} else {
			updated, err = m.StatelessUpdate(b, parts[i], targets, predictions)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, updated...)
	}
	return out, nil
}

// StatelessResults reduces vars to one value per metric name.
func (s *Set) StatelessResults(vars tensor.Collection) (map[string]float32, error) {
	parts, err := s.split(vars)
	if err != nil {
		return nil, err
	}
	results := make(map[string]float32, len(s.metrics))
	for i, m := range s.metrics {
		r, err := m.StatelessResult(parts[i])
		if err != nil {
			return nil, err
		}
		results[m.Name()] = r
	}
	return results, nil
}

// Assign splits vars and assigns each part to its metric. Nothing is
// assigned unless every part is valid.
func (s *Set) Assign(vars tensor.Collection) error {
	parts, err := s.split(vars)
	if err != nil {
		return err
	}
	for i, m := range s.metrics {
		if _, err := m.StatelessResult(parts[i]); err != nil {
			return err
		}
	}
	for i, m := range s.metrics {
		if err := m.Assign(parts[i]); err != nil {
			return err
		}
	}
	return nil
}

// Results reduces every metric's own accumulators.
func (s *Set) Results() map[string]float32 {
	results := make(map[string]float32, len(s.metrics))
	for _, m := range s.metrics {
		results[m.Name()] = m.Result()
	}
	return results
}

// Reset zeroes every metric's own accumulators.
func (s *Set) Reset() {
	for _, m := range s.metrics {
		m.Reset()
	}
}

func (s *Set) split(vars tensor.Collection) ([]tensor.Collection, error) {
	if vars == nil && len(s.metrics) > 0 {
		return nil, ErrUninitialized
	}
	total := 0
	for _, n := range s.sizes {
		total += n
	}
	if len(vars) != total {
		return nil, errors.Wrapf(tensor.ErrShapeMismatch, "metric vars: expected %d tensors, got %d", total, len(vars))
	}
	parts := make([]tensor.Collection, len(s.metrics))
	offset := 0
	for i, n := range s.sizes {
		parts[i] = append(tensor.Collection(nil), vars[offset:offset+n]...)
		offset += n
	}
	return parts, nil
}

func batchRows(predictions *tensor.Tensor) int {
	if predictions == nil || len(predictions.Shape()) == 0 {
		return 1
	}
	return predictions.Shape()[0]
}
