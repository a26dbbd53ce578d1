// Copyright 2025 The Raug Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package onnx provides the public API for ONNX model export.
//
// Supported modules: Linear (as Gemm), ReLU, Sigmoid, Tanh, Flatten, and
// Dropout (exported as Identity, since exported graphs are inference-only).
// Sequential and DataParallel containers are walked recursively.
//
// Example:
//
//	data, err := onnx.Export(model, sample,
//	    []string{"input"}, []string{"output"},
//	    onnx.DynamicAxes{"input": {0: "batch_size"}, "output": {0: "batch_size"}})
package onnx

import (
	"github.com/peuBouzon/raug/internal/nn"
	"github.com/peuBouzon/raug/internal/onnx"
	"github.com/peuBouzon/raug/internal/tensor"
)

// DynamicAxes marks tensor dimensions as symbolic, keyed by input or
// output name, then by axis index.
type DynamicAxes = onnx.DynamicAxes

// ModelProto is the top-level ONNX model message.
type ModelProto = onnx.ModelProto

// GraphProto is the computational graph of an ONNX model.
type GraphProto = onnx.GraphProto

// Export serializes model into ONNX wire format.
//
// sample fixes the graph input shape; the model runs on it once to derive
// the output shape. Exactly one input name and one output name are
// required.
func Export[B tensor.Backend](model nn.Module[B], sample *tensor.Tensor[float32, B], inputNames, outputNames []string, dynamicAxes DynamicAxes) ([]byte, error) {
	return onnx.Export(model, sample, inputNames, outputNames, dynamicAxes)
}

// Marshal encodes a model into ONNX wire format.
func Marshal(m *ModelProto) []byte {
	return onnx.Marshal(m)
}

// Parse decodes ONNX wire format produced by Marshal or by other ONNX
// writers, covering the message subset this package emits.
func Parse(data []byte) (*ModelProto, error) {
	return onnx.Parse(data)
}
