package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Every method returns a freshly allocated tensor and leaves its inputs
// untouched. Malformed shapes are programming errors and panic, the same
// way out-of-range slice indexing does.
//
// Implementations:
//   - CPU: pure Go kernels with a gonum BLAS matmul
//   - Autodiff: decorator recording operations on a gradient tape
//   - Recorder: decorator recording op names while a step is traced
type Backend interface {
	// Element-wise binary operations. b may be a row vector [F] broadcast
	// over a [N, F] matrix, or a single-element tensor.
	Add(a, b *Tensor) *Tensor
	Sub(a, b *Tensor) *Tensor
	Mul(a, b *Tensor) *Tensor
	Div(a, b *Tensor) *Tensor

	// Scalar operations (element-wise with scalar)
	AddScalar(x *Tensor, s float32) *Tensor
	MulScalar(x *Tensor, s float32) *Tensor

	// Matrix operations (2D only)
	MatMul(a, b *Tensor) *Tensor // [M,K] @ [K,N] -> [M,N]
	Transpose(x *Tensor) *Tensor // [M,N] -> [N,M]

	// Math operations (element-wise)
	Exp(x *Tensor) *Tensor
	Log(x *Tensor) *Tensor
	Sqrt(x *Tensor) *Tensor

	// Activation functions
	ReLU(x *Tensor) *Tensor
	Tanh(x *Tensor) *Tensor
	Sigmoid(x *Tensor) *Tensor
	Softmax(x *Tensor) *Tensor // row-wise over the last dimension of [N, C]

	// Reductions
	Sum(x *Tensor) *Tensor     // total sum, scalar result
	Mean(x *Tensor) *Tensor    // total mean, scalar result
	SumRows(x *Tensor) *Tensor // [N, F] -> [F]
	Argmax(x *Tensor) *Tensor  // [N, C] -> [N] class indices stored as float32

	// Fused training ops. labels hold class indices as float32.
	SoftmaxCrossEntropy(logits, labels *Tensor) *Tensor
	BatchNormTrain(x, gamma, beta *Tensor, eps float32) (y, mean, variance *Tensor)
	BatchNormInfer(x, gamma, beta, mean, variance *Tensor, eps float32) *Tensor

	// Metadata
	Name() string
}
