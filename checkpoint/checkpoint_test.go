// Copyright 2025 The Raug Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package checkpoint_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/peuBouzon/raug/backend/cpu"
	"github.com/peuBouzon/raug/checkpoint"
	"github.com/peuBouzon/raug/nn"
	"github.com/peuBouzon/raug/onnx"
	"github.com/peuBouzon/raug/optim"
	"github.com/peuBouzon/raug/tensor"
)

type Backend = *cpu.Backend

// TestSaveLoadPublicAPI drives a full save/resume cycle through the public
// packages alone.
func TestSaveLoadPublicAPI(t *testing.T) {
	backend := cpu.New()
	dir := t.TempDir()

	model := nn.NewLinear[Backend](3, 2, backend)
	opt := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.01}, backend)

	if err := checkpoint.Save[Backend](model, dir, 7, opt, 0.25, true); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	for _, path := range []string{checkpoint.LastPath(dir), checkpoint.BestPath(dir)} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected snapshot at %s: %v", path, err)
		}
	}

	fresh := nn.NewLinear[Backend](3, 2, backend)
	freshOpt := optim.NewSGD(fresh.Parameters(), optim.SGDConfig{LR: 0.01}, backend)
	state, err := checkpoint.Load(checkpoint.LastPath(dir), backend, fresh, freshOpt)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if state.Epoch != 7 {
		t.Errorf("Epoch = %d, want 7", state.Epoch)
	}
	if state.Loss != 0.25 {
		t.Errorf("Loss = %v, want 0.25", state.Loss)
	}

	input := tensor.Randn(tensor.Shape{1, 3}, backend)
	want := model.Forward(input).Data()
	got := fresh.Forward(input).Data()
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("restored model diverges at %d: %v vs %v", i, want[i], got[i])
		}
	}
}

// TestLoadMissingSnapshot verifies the ErrNotFound sentinel survives the
// facade re-export.
func TestLoadMissingSnapshot(t *testing.T) {
	backend := cpu.New()
	model := nn.NewLinear[Backend](3, 2, backend)

	_, err := checkpoint.Load(checkpoint.LastPath(t.TempDir()), backend, model, nil)
	if !errors.Is(err, checkpoint.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestExportPublicAPI verifies Export produces a file the onnx facade can
// parse back.
func TestExportPublicAPI(t *testing.T) {
	backend := cpu.New()
	dir := t.TempDir()

	model := nn.NewSequential[Backend](
		nn.NewLinear[Backend](4, 2, backend),
		nn.NewReLU[Backend](),
	)
	sample := tensor.Randn(tensor.Shape{1, 4}, backend)

	err := checkpoint.Export[Backend](model, dir, "model.onnx", sample,
		[]string{"input"}, []string{"output"}, onnx.DynamicAxes{"input": {0: "batch_size"}})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "model.onnx"))
	if err != nil {
		t.Fatalf("reading exported file: %v", err)
	}
	parsed, err := onnx.Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(parsed.Graph.Nodes) != 2 {
		t.Errorf("expected 2 nodes, got %d", len(parsed.Graph.Nodes))
	}
}
