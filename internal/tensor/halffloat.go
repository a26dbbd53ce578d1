package tensor

import (
	"github.com/x448/float16"
)

// Float16ToFloat32 converts a Float16 tensor to a new Float32 tensor.
// Snapshots may carry half-precision payloads (e.g. weights exported from
// mixed-precision training); compute in raug is always float32.
func Float16ToFloat32(r *RawTensor) (*RawTensor, error) {
	bits := r.AsFloat16Bits()
	out, err := NewRaw(r.Shape(), Float32, r.Device())
	if err != nil {
		return nil, err
	}
	dst := out.AsFloat32()
	for i, b := range bits {
		dst[i] = float16.Frombits(b).Float32()
	}
	return out, nil
}

// Float32ToFloat16 converts a Float32 tensor to a new Float16 tensor,
// rounding to nearest even. Values outside the half-precision range become
// +/-Inf, matching IEEE 754 conversion.
func Float32ToFloat16(r *RawTensor) (*RawTensor, error) {
	src := r.AsFloat32()
	out, err := NewRaw(r.Shape(), Float16, r.Device())
	if err != nil {
		return nil, err
	}
	dst := out.AsFloat16Bits()
	for i, f := range src {
		dst[i] = float16.Fromfloat32(f).Bits()
	}
	return out, nil
}
