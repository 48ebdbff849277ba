package cpu

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/born-ml/purestep/internal/tensor"
)

// binary applies f element-wise with row or scalar broadcasting of b.
func binary(op string, a, b *tensor.Tensor, f func(x, y float32) float32) *tensor.Tensor {
	mode, err := tensor.ResolveBroadcast(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}

	result := alloc(op, a.Shape())
	out, av, bv := result.Data(), a.Data(), b.Data()

	switch mode {
	case tensor.BroadcastNone:
		for i := range out {
			out[i] = f(av[i], bv[i])
		}
	case tensor.BroadcastScalar:
		s := bv[0]
		for i := range out {
			out[i] = f(av[i], s)
		}
	case tensor.BroadcastRow:
		cols := len(bv)
		for i := range out {
			out[i] = f(av[i], bv[i%cols])
		}
	}
	return result
}

// unary applies f element-wise.
func unary(op string, x *tensor.Tensor, f func(v float32) float32) *tensor.Tensor {
	result := alloc(op, x.Shape())
	out, in := result.Data(), x.Data()
	for i := range out {
		out[i] = f(in[i])
	}
	return result
}

// Add performs element-wise addition with broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.Tensor) *tensor.Tensor {
	return binary("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.Tensor) *tensor.Tensor {
	return binary("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.Tensor) *tensor.Tensor {
	return binary("mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.Tensor) *tensor.Tensor {
	return binary("div", a, b, func(x, y float32) float32 { return x / y })
}

// AddScalar adds s to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.Tensor, s float32) *tensor.Tensor {
	return unary("add_scalar", x, func(v float32) float32 { return v + s })
}

// MulScalar multiplies every element by s.
func (cpu *CPUBackend) MulScalar(x *tensor.Tensor, s float32) *tensor.Tensor {
	return unary("mul_scalar", x, func(v float32) float32 { return v * s })
}

// Exp computes e^x element-wise.
func (cpu *CPUBackend) Exp(x *tensor.Tensor) *tensor.Tensor {
	return unary("exp", x, math32.Exp)
}

// Log computes the natural logarithm element-wise.
func (cpu *CPUBackend) Log(x *tensor.Tensor) *tensor.Tensor {
	return unary("log", x, math32.Log)
}

// Sqrt computes the square root element-wise.
func (cpu *CPUBackend) Sqrt(x *tensor.Tensor) *tensor.Tensor {
	return unary("sqrt", x, math32.Sqrt)
}

// ReLU computes max(0, x).
func (cpu *CPUBackend) ReLU(x *tensor.Tensor) *tensor.Tensor {
	return unary("relu", x, func(v float32) float32 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// Tanh computes the hyperbolic tangent.
func (cpu *CPUBackend) Tanh(x *tensor.Tensor) *tensor.Tensor {
	return unary("tanh", x, math32.Tanh)
}

// Sigmoid computes 1 / (1 + e^-x) in a numerically stable way.
func (cpu *CPUBackend) Sigmoid(x *tensor.Tensor) *tensor.Tensor {
	return unary("sigmoid", x, func(v float32) float32 {
		if v >= 0 {
			return 1 / (1 + math32.Exp(-v))
		}
		e := math32.Exp(v)
		return e / (1 + e)
	})
}
