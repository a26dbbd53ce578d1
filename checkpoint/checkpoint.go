// Copyright 2025 The Raug Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package checkpoint provides the public API for persisting training state.
//
// Save maintains two snapshots under a checkpoint directory:
//
//	<dir>/last-checkpoint/last-checkpoint.raug   the most recent save
//	<dir>/best-checkpoint/best-checkpoint.raug   the best save so far
//
// A typical training loop:
//
//	for epoch := start; epoch < epochs; epoch++ {
//	    loss := trainEpoch(model, opt, data)
//	    isBest := loss < bestLoss
//	    if err := checkpoint.Save(model, dir, epoch, opt, loss, isBest); err != nil {
//	        return err
//	    }
//	}
//
// And to resume:
//
//	state, err := checkpoint.Load(checkpoint.LastPath(dir), backend, model, opt)
//	if err != nil {
//	    return err
//	}
//	start = state.Epoch + 1
package checkpoint

import (
	"github.com/peuBouzon/raug/internal/checkpoint"
	"github.com/peuBouzon/raug/internal/nn"
	"github.com/peuBouzon/raug/internal/onnx"
	"github.com/peuBouzon/raug/internal/tensor"
)

// Errors returned by this package.
var (
	// ErrNotFound is returned by Load when the snapshot file does not exist.
	ErrNotFound = checkpoint.ErrNotFound

	// ErrNotParallel is returned when Options.MultiDevice is set but the
	// model is not an nn.DataParallel wrapper.
	ErrNotParallel = checkpoint.ErrNotParallel
)

// OptimizerState represents an optimizer whose state can be persisted.
// Optimizers from the optim package implement it.
type OptimizerState = checkpoint.OptimizerState

// Options adjusts how snapshots are written and exported.
type Options = checkpoint.Options

// State is the training metadata restored from a snapshot.
type State = checkpoint.State

// LastPath returns the path of the most recent snapshot under dir.
func LastPath(dir string) string { return checkpoint.LastPath(dir) }

// BestPath returns the path of the best snapshot under dir.
func BestPath(dir string) string { return checkpoint.BestPath(dir) }

// Save writes a training snapshot of model and opt under dir. The snapshot
// always lands in last-checkpoint; when isBest is true the identical
// snapshot is also written to best-checkpoint.
func Save[B tensor.Backend](model nn.Module[B], dir string, epoch int, opt OptimizerState, loss float64, isBest bool) error {
	return checkpoint.Save(model, dir, epoch, opt, loss, isBest)
}

// SaveWithOptions is Save with explicit Options. With Options.MultiDevice
// the inner module of an nn.DataParallel wrapper is persisted.
func SaveWithOptions[B tensor.Backend](model nn.Module[B], dir string, epoch int, opt OptimizerState, loss float64, isBest bool, opts Options) error {
	return checkpoint.SaveWithOptions(model, dir, epoch, opt, loss, isBest, opts)
}

// Load restores a snapshot from path into pre-constructed model and opt,
// returning the epoch and loss recorded at save time. Pass a nil opt to
// restore model parameters alone. A missing file is reported as
// ErrNotFound.
func Load[B tensor.Backend](path string, backend B, model nn.Module[B], opt OptimizerState) (*State, error) {
	return checkpoint.Load(path, backend, model, opt)
}

// Export serializes the model to an ONNX file named name under dir. The
// model is run in evaluation mode on sample to fix the graph shapes and
// restored to its previous mode afterwards.
func Export[B tensor.Backend](model nn.Module[B], dir, name string, sample *tensor.Tensor[float32, B], inputNames, outputNames []string, dynamicAxes onnx.DynamicAxes) error {
	return checkpoint.Export(model, dir, name, sample, inputNames, outputNames, dynamicAxes)
}

// ExportWithOptions is Export with explicit Options. With
// Options.MultiDevice the inner module of an nn.DataParallel wrapper is
// exported.
func ExportWithOptions[B tensor.Backend](model nn.Module[B], dir, name string, sample *tensor.Tensor[float32, B], inputNames, outputNames []string, dynamicAxes onnx.DynamicAxes, opts Options) error {
	return checkpoint.ExportWithOptions(model, dir, name, sample, inputNames, outputNames, dynamicAxes, opts)
}
