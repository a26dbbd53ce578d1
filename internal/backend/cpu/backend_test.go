package cpu_test

import (
	"math"
	"testing"

	"github.com/peuBouzon/raug/internal/backend/cpu"
	"github.com/peuBouzon/raug/internal/tensor"
)

func raw(t *testing.T, vals []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	out, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	copy(out.AsFloat32(), vals)
	return out
}

func assertFloats(t *testing.T, got *tensor.RawTensor, want []float32) {
	t.Helper()
	data := got.AsFloat32()
	if len(data) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(data))
	}
	for i := range want {
		if math.Abs(float64(data[i]-want[i])) > 1e-6 {
			t.Fatalf("element %d: expected %f, got %f", i, want[i], data[i])
		}
	}
}

func TestAddSameShape(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := raw(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})
	assertFloats(t, backend.Add(a, b), []float32{11, 22, 33, 44})
}

func TestAddBroadcastsRow(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	bias := raw(t, []float32{10, 20, 30}, tensor.Shape{1, 3})
	assertFloats(t, backend.Add(a, bias), []float32{11, 22, 33, 14, 25, 36})
}

func TestSubMulDiv(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float32{4, 9, 16, 25}, tensor.Shape{4})
	b := raw(t, []float32{2, 3, 4, 5}, tensor.Shape{4})
	assertFloats(t, backend.Sub(a, b), []float32{2, 6, 12, 20})
	assertFloats(t, backend.Mul(a, b), []float32{8, 27, 64, 125})
	assertFloats(t, backend.Div(a, b), []float32{2, 3, 4, 5})
}

func TestMatMul(t *testing.T) {
	backend := cpu.New()
	// [1 2; 3 4] @ [5 6; 7 8] = [19 22; 43 50]
	a := raw(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := raw(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})
	assertFloats(t, backend.MatMul(a, b), []float32{19, 22, 43, 50})
}

func TestMatMulRectangular(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := raw(t, []float32{1, 0, 0, 1, 1, 1}, tensor.Shape{3, 2})
	assertFloats(t, backend.MatMul(a, b), []float32{4, 5, 10, 11})
}

func TestScalarOps(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float32{1, 4, 9}, tensor.Shape{3})
	assertFloats(t, backend.AddScalar(a, 1), []float32{2, 5, 10})
	assertFloats(t, backend.MulScalar(a, 2), []float32{2, 8, 18})
	assertFloats(t, backend.Sqrt(a), []float32{1, 2, 3})
}

func TestTranspose(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	got := backend.Transpose(a)
	if !got.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("expected shape [3 2], got %v", got.Shape())
	}
	assertFloats(t, got, []float32{1, 4, 2, 5, 3, 6})
}

func TestReshape(t *testing.T) {
	backend := cpu.New()
	a := raw(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	got := backend.Reshape(a, tensor.Shape{3, 2})
	if !got.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("expected shape [3 2], got %v", got.Shape())
	}
	assertFloats(t, got, []float32{1, 2, 3, 4, 5, 6})
}
