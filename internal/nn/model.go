package nn

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/purestep/internal/tensor"
)

// ErrNotBuilt is returned when a model is used before Build.
var ErrNotBuilt = errors.New("model is not built")

// Model is a sequential container of layers.
//
// Each layer's output becomes the next layer's input. Variables are
// partitioned into trainable and non-trainable lists, each in layer order;
// those orders define the positions of the collections StatelessCall takes.
//
// Example:
//
//	model := nn.NewModel(
//	    nn.NewDense(nn.DenseConfig{Units: 16, Activation: nn.ActivationReLU}),
//	    nn.NewDense(nn.DenseConfig{Units: 3}),
//	)
//	if err := model.Build(4, 42); err != nil { ... }
//	res, err := model.StatelessCall(backend, trainable, nonTrainable, x, true, true)
type Model struct {
	layers      []Layer
	built       bool
	inFeatures  int
	outFeatures int

	trainable    []*Variable
	nonTrainable []*Variable
}

// CallResult is the output of StatelessCall.
type CallResult struct {
	Predictions  *tensor.Tensor
	NonTrainable tensor.Collection // Updated non-trainable values, same order as the input
	Losses       tensor.Collection // Extra scalar losses; nil unless requested
}

// NewModel creates a new, unbuilt Model.
func NewModel(layers ...Layer) *Model {
	return &Model{layers: layers}
}

// Layers returns the layers in call order.
func (m *Model) Layers() []Layer {
	return m.layers
}

// Build allocates every layer's variables for inputs of width inFeatures.
// All initial values are drawn from a generator seeded with seed.
//
// Calling Build twice is an error: the first build fixes the state layout.
func (m *Model) Build(inFeatures int, seed uint64) error {
	if m.built {
		return errors.New("model is already built")
	}
	if len(m.layers) == 0 {
		return errors.New("model has no layers")
	}
	if inFeatures <= 0 {
		return errors.Errorf("input features must be positive, got %d", inFeatures)
	}

	rng := tensor.NewRand(seed)
	width := inFeatures
	var trainable, nonTrainable []*Variable
	for i, layer := range m.layers {
		out, err := layer.Build(fmt.Sprintf("%s_%d", layer.Kind(), i), width, rng)
		if err != nil {
			return errors.Wrapf(err, "build layer %d", i)
		}
		width = out
		for _, v := range layer.Variables() {
			if v.Trainable() {
				trainable = append(trainable, v)
			} else {
				nonTrainable = append(nonTrainable, v)
			}
		}
	}

	m.inFeatures, m.outFeatures = inFeatures, width
	m.trainable, m.nonTrainable = trainable, nonTrainable
	m.built = true
	return nil
}

// Built reports whether Build succeeded.
func (m *Model) Built() bool { return m.built }

// InFeatures returns the input width fixed by Build.
func (m *Model) InFeatures() int { return m.inFeatures }

// OutFeatures returns the output width fixed by Build.
func (m *Model) OutFeatures() int { return m.outFeatures }

// TrainableVariables returns the trainable variables in layer order.
func (m *Model) TrainableVariables() []*Variable { return m.trainable }

// NonTrainableVariables returns the non-trainable variables in layer order.
func (m *Model) NonTrainableVariables() []*Variable { return m.nonTrainable }

// TrainableValues snapshots the current trainable values.
func (m *Model) TrainableValues() tensor.Collection { return Values(m.trainable) }

// NonTrainableValues snapshots the current non-trainable values.
func (m *Model) NonTrainableValues() tensor.Collection { return Values(m.nonTrainable) }

// StatelessCall runs the forward pass as a pure function of its arguments.
//
// trainable and nonTrainable must match the shapes of TrainableVariables and
// NonTrainableVariables position by position. The model's own variables are
// neither read nor written. In training mode layers may produce new
// non-trainable values, returned in CallResult.NonTrainable; entries no layer
// updated are passed through unchanged. With returnLosses the extra losses
// of every layer are returned in call order.
func (m *Model) StatelessCall(
	b tensor.Backend,
	trainable, nonTrainable tensor.Collection,
	x *tensor.Tensor,
	training, returnLosses bool,
) (CallResult, error) {
	if !m.built {
		return CallResult{}, ErrNotBuilt
	}
	if err := trainable.CheckShapes("trainable", Shapes(m.trainable)); err != nil {
		return CallResult{}, err
	}
	if err := nonTrainable.CheckShapes("non_trainable", Shapes(m.nonTrainable)); err != nil {
		return CallResult{}, err
	}
	if err := m.checkInput(x); err != nil {
		return CallResult{}, err
	}

	s := newScope(b, training, returnLosses)
	s.bind(m.trainable, trainable)
	s.bind(m.nonTrainable, nonTrainable)

	out := x
	for _, layer := range m.layers {
		out = layer.Call(s, out)
	}

	updated := make(tensor.Collection, len(nonTrainable))
	for i, v := range m.nonTrainable {
		if t, ok := s.updates[v]; ok {
			updated[i] = t
		} else {
			updated[i] = nonTrainable[i]
		}
	}

	res := CallResult{Predictions: out, NonTrainable: updated}
	if returnLosses {
		res.Losses = s.losses
		if res.Losses == nil {
			res.Losses = tensor.Collection{}
		}
	}
	return res, nil
}

// Predict runs an inference-mode forward pass with the model's current values.
func (m *Model) Predict(b tensor.Backend, x *tensor.Tensor) (*tensor.Tensor, error) {
	if !m.built {
		return nil, ErrNotBuilt
	}
	res, err := m.StatelessCall(b, m.TrainableValues(), m.NonTrainableValues(), x, false, false)
	if err != nil {
		return nil, err
	}
	return res.Predictions, nil
}

// Assign re-attaches trainable and non-trainable values to the model.
// Nothing is changed unless both collections match the variable shapes.
func (m *Model) Assign(trainable, nonTrainable tensor.Collection) error {
	if !m.built {
		return ErrNotBuilt
	}
	if err := trainable.CheckShapes("trainable", Shapes(m.trainable)); err != nil {
		return err
	}
	if err := assignAll("non_trainable", m.nonTrainable, nonTrainable); err != nil {
		return err
	}
	return assignAll("trainable", m.trainable, trainable)
}

// Summary renders one line per variable.
func (m *Model) Summary() string {
	var sb strings.Builder
	total := 0
	for _, group := range [][]*Variable{m.trainable, m.nonTrainable} {
		for _, v := range group {
			n := v.Shape().NumElements()
			total += n
			fmt.Fprintf(&sb, "%-32s %-10v %8d trainable=%t\n", v.Name(), v.Shape(), n, v.Trainable())
		}
	}
	fmt.Fprintf(&sb, "total parameters: %d\n", total)
	return sb.String()
}

func (m *Model) checkInput(x *tensor.Tensor) error {
	if x == nil {
		return errors.Wrap(tensor.ErrShapeMismatch, "input: nil tensor")
	}
	shape := x.Shape()
	if len(shape) != 2 || shape[1] != m.inFeatures {
		return errors.Wrapf(tensor.ErrShapeMismatch, "input: expected [batch, %d], got %v", m.inFeatures, shape)
	}
	return nil
}
