// Copyright 2025 The Raug Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/peuBouzon/raug/internal/tensor"
)

// RawTensor is the untyped tensor storage behind Tensor. State dicts are
// maps from parameter names to raw tensors, which is what the snapshot
// format reads and writes.
type RawTensor = tensor.RawTensor

// NewRaw allocates an uninitialized raw tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// Float16ToFloat32 widens a half-precision raw tensor to float32.
func Float16ToFloat32(r *RawTensor) (*RawTensor, error) {
	return tensor.Float16ToFloat32(r)
}

// Float32ToFloat16 narrows a float32 raw tensor to half precision, rounding
// to nearest even. Useful for shrinking snapshots of inference-only models.
func Float32ToFloat16(r *RawTensor) (*RawTensor, error) {
	return tensor.Float32ToFloat16(r)
}
