package tensor

// Backend defines the compute operations raug needs from a device backend.
//
// The surface is deliberately small: enough for the nn modules to run a
// forward pass and for the optimizers to apply parameter updates. Backends
// operate on float32 RawTensors and panic on shape or dtype misuse, matching
// the behavior callers get from the typed Tensor wrappers.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// MatMul multiplies two 2D tensors: [M, K] @ [K, N] -> [M, N].
	MatMul(a, b *RawTensor) *RawTensor

	// Element-wise operations with a scalar.
	AddScalar(x *RawTensor, scalar float32) *RawTensor
	MulScalar(x *RawTensor, scalar float32) *RawTensor

	// Sqrt computes the element-wise square root.
	Sqrt(x *RawTensor) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, shape Shape) *RawTensor
	Transpose(t *RawTensor) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
