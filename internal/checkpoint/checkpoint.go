// Package checkpoint persists training state to .raug snapshot files and
// exports trained models to ONNX.
//
// The package manages a checkpoint directory with two subfolders:
//
//	<dir>/last-checkpoint/last-checkpoint.raug   always the most recent save
//	<dir>/best-checkpoint/best-checkpoint.raug   updated only on best saves
//
// A snapshot bundles the model state dict, the optimizer state dict, and
// training metadata (epoch, loss) in a single file, so an interrupted run
// can resume exactly where it stopped.
package checkpoint

import (
	"errors"
	"path/filepath"

	"github.com/peuBouzon/raug/internal/nn"
	"github.com/peuBouzon/raug/internal/tensor"
)

const (
	// LastDirName is the subfolder holding the most recent snapshot.
	LastDirName = "last-checkpoint"
	// BestDirName is the subfolder holding the best snapshot so far.
	BestDirName = "best-checkpoint"

	lastFileName = "last-checkpoint.raug"
	bestFileName = "best-checkpoint.raug"
)

var (
	// ErrNotFound is returned by Load when the snapshot file does not exist.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrNotParallel is returned when Options.MultiDevice is set but the
	// model is not wrapped in nn.DataParallel, so there is no inner module
	// to extract.
	ErrNotParallel = errors.New("model is not a DataParallel wrapper")
)

// OptimizerState represents an optimizer that can save and load its state.
//
// The interface decouples this package from optim so the two do not form an
// import cycle. Optimizers from the optim package implement it.
type OptimizerState interface {
	// StateDict returns the optimizer state for serialization.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores optimizer state from serialization.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error

	// GetLR returns the current learning rate.
	GetLR() float32
}

// Options adjusts how snapshots are written and exported.
type Options struct {
	// MultiDevice marks the model as an nn.DataParallel wrapper; the
	// inner module is persisted so the snapshot loads into a plain model.
	MultiDevice bool

	// Verbose enables folder bookkeeping logs.
	Verbose bool
}

// State is the training metadata restored from a snapshot.
type State struct {
	Epoch int
	Loss  float64
}

// LastPath returns the path of the most recent snapshot under dir.
func LastPath(dir string) string {
	return filepath.Join(dir, LastDirName, lastFileName)
}

// BestPath returns the path of the best snapshot under dir.
func BestPath(dir string) string {
	return filepath.Join(dir, BestDirName, bestFileName)
}

// unwrap extracts the inner module from an nn.DataParallel wrapper.
func unwrap[B tensor.Backend](model nn.Module[B]) (nn.Module[B], bool) {
	if dp, ok := model.(*nn.DataParallel[B]); ok {
		return dp.Module(), true
	}
	return nil, false
}
