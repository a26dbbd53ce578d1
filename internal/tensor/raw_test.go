package tensor

import (
	"testing"
)

func TestNewRawAllocation(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3}, Float32, CPU)
	if err != nil {
		t.Fatalf("NewRaw: %v", err)
	}
	if raw.ByteSize() != 24 {
		t.Errorf("expected 24 bytes, got %d", raw.ByteSize())
	}
	if raw.NumElements() != 6 {
		t.Errorf("expected 6 elements, got %d", raw.NumElements())
	}
	if raw.DType() != Float32 {
		t.Errorf("expected Float32, got %v", raw.DType())
	}

	if _, err := NewRaw(Shape{2, -1}, Float32, CPU); err == nil {
		t.Error("invalid shape accepted")
	}
}

func TestRawCloneIsIndependent(t *testing.T) {
	raw, err := NewRaw(Shape{4}, Float32, CPU)
	if err != nil {
		t.Fatal(err)
	}
	data := raw.AsFloat32()
	copy(data, []float32{1, 2, 3, 4})

	clone := raw.Clone()
	clone.AsFloat32()[0] = 99

	if data[0] != 1 {
		t.Error("clone shares storage with the original")
	}
}

func TestWithShapeView(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3}, Float32, CPU)
	if err != nil {
		t.Fatal(err)
	}
	copy(raw.AsFloat32(), []float32{1, 2, 3, 4, 5, 6})

	view, err := raw.WithShape(Shape{3, 2})
	if err != nil {
		t.Fatalf("WithShape: %v", err)
	}
	if !view.Shape().Equal(Shape{3, 2}) {
		t.Errorf("expected shape [3 2], got %v", view.Shape())
	}
	// Views share storage.
	view.AsFloat32()[0] = 42
	if raw.AsFloat32()[0] != 42 {
		t.Error("view does not share storage")
	}

	if _, err := raw.WithShape(Shape{4, 2}); err == nil {
		t.Error("element-count mismatch accepted")
	}
}

func TestFloat16RoundTrip(t *testing.T) {
	raw, err := NewRaw(Shape{4}, Float32, CPU)
	if err != nil {
		t.Fatal(err)
	}
	// Exactly representable in half precision.
	copy(raw.AsFloat32(), []float32{0, 1, -2.5, 0.25})

	half, err := Float32ToFloat16(raw)
	if err != nil {
		t.Fatalf("Float32ToFloat16: %v", err)
	}
	if half.DType() != Float16 {
		t.Fatalf("expected Float16, got %v", half.DType())
	}
	if half.ByteSize() != 8 {
		t.Errorf("expected 8 bytes, got %d", half.ByteSize())
	}

	back, err := Float16ToFloat32(half)
	if err != nil {
		t.Fatalf("Float16ToFloat32: %v", err)
	}
	got := back.AsFloat32()
	for i, want := range []float32{0, 1, -2.5, 0.25} {
		if got[i] != want {
			t.Errorf("round trip at %d: expected %f, got %f", i, want, got[i])
		}
	}
}
