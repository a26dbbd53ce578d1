// Package cpu implements the pure-Go CPU compute backend.
package cpu

import (
	"fmt"

	"github.com/peuBouzon/raug/internal/parallel"
	"github.com/peuBouzon/raug/internal/tensor"
)

// CPUBackend implements tensor.Backend on the host CPU.
//
// Binary operations support NumPy-style broadcasting. Large element counts
// are chunked across goroutines via internal/parallel.
type CPUBackend struct {
	device tensor.Device
	cfg    parallel.Config
}

// New creates a new CPU backend with default parallelism.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		cfg:    parallel.DefaultConfig(),
	}
}

// Name returns the backend name.
func (c *CPUBackend) Name() string { return "CPU" }

// Device returns the compute device.
func (c *CPUBackend) Device() tensor.Device { return c.device }

// Add performs element-wise addition with broadcasting.
func (c *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (c *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (c *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (c *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binary("div", a, b, func(x, y float32) float32 { return x / y })
}

// binary applies op element-wise over broadcast inputs.
func (c *CPUBackend) binary(name string, a, b *tensor.RawTensor, op func(x, y float32) float32) *tensor.RawTensor {
	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result, err := tensor.NewRaw(outShape, tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	out := result.AsFloat32()
	aData, bData := a.AsFloat32(), b.AsFloat32()

	if a.Shape().Equal(b.Shape()) {
		// Fast path: identical shapes, flat iteration.
		parallel.For(len(out), func(i int) {
			out[i] = op(aData[i], bData[i])
		}, c.cfg)
		return result
	}

	aIdx := newBroadcastIndexer(a.Shape(), outShape)
	bIdx := newBroadcastIndexer(b.Shape(), outShape)
	outStrides := outShape.ComputeStrides()
	parallel.For(len(out), func(i int) {
		out[i] = op(aData[aIdx.source(i, outStrides)], bData[bIdx.source(i, outStrides)])
	}, c.cfg)
	return result
}

// broadcastIndexer maps flat output indices back to source-tensor indices
// for a shape broadcast into outShape.
type broadcastIndexer struct {
	srcStrides []int // stride per output dim, 0 where the source dim is 1
}

func newBroadcastIndexer(src, out tensor.Shape) *broadcastIndexer {
	srcStrides := src.ComputeStrides()
	strides := make([]int, len(out))
	offset := len(out) - len(src)
	for i := range out {
		if i < offset {
			continue // implicit leading 1-dim
		}
		if src[i-offset] != 1 {
			strides[i] = srcStrides[i-offset]
		}
	}
	return &broadcastIndexer{srcStrides: strides}
}

func (bi *broadcastIndexer) source(flat int, outStrides []int) int {
	src := 0
	for i, stride := range outStrides {
		coord := flat / stride
		flat %= stride
		src += coord * bi.srcStrides[i]
	}
	return src
}

// MatMul multiplies two 2D float32 tensors: [M, K] @ [K, N] -> [M, N].
func (c *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions differ: %v @ %v", aShape, bShape))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]
	result, err := tensor.NewRaw(tensor.Shape{m, n}, tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: %v", err))
	}

	aData, bData, out := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
	parallel.For(m, func(i int) {
		rowA := aData[i*k : (i+1)*k]
		rowOut := out[i*n : (i+1)*n]
		for kk := 0; kk < k; kk++ {
			av := rowA[kk]
			if av == 0 {
				continue
			}
			rowB := bData[kk*n : (kk+1)*n]
			for j := range rowOut {
				rowOut[j] += av * rowB[j]
			}
		}
	}, c.cfg)
	return result
}

// AddScalar adds a scalar to every element.
func (c *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return c.unary(x, func(v float32) float32 { return v + scalar })
}

// MulScalar multiplies every element by a scalar.
func (c *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return c.unary(x, func(v float32) float32 { return v * scalar })
}

// Sqrt computes the element-wise square root.
func (c *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unary(x, sqrt32)
}

func (c *CPUBackend) unary(x *tensor.RawTensor, op func(float32) float32) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("unary: %v", err))
	}
	src, out := x.AsFloat32(), result.AsFloat32()
	parallel.For(len(out), func(i int) {
		out[i] = op(src[i])
	}, c.cfg)
	return result
}

// Reshape returns a view with a new shape; the element count must match.
func (c *CPUBackend) Reshape(t *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	view, err := t.WithShape(shape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return view
}

// Transpose returns the transpose of a 2D tensor.
func (c *CPUBackend) Transpose(t *tensor.RawTensor) *tensor.RawTensor {
	shape := t.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("transpose: expected 2D tensor, got %v", shape))
	}
	rows, cols := shape[0], shape[1]
	result, err := tensor.NewRaw(tensor.Shape{cols, rows}, tensor.Float32, c.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}
	src, out := t.AsFloat32(), result.AsFloat32()
	parallel.For(rows, func(i int) {
		for j := 0; j < cols; j++ {
			out[j*rows+i] = src[i*cols+j]
		}
	}, c.cfg)
	return result
}
