package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/peuBouzon/raug/internal/nn"
	"github.com/peuBouzon/raug/internal/serialization"
	"github.com/peuBouzon/raug/internal/tensor"
)

// Save writes a training snapshot of model and opt under dir.
//
// Both the last-checkpoint and best-checkpoint subfolders are created if
// missing. The snapshot always lands in last-checkpoint; when isBest is
// true the identical snapshot is also written to best-checkpoint, so the
// best file only ever changes on a best save.
//
// opt may be nil to persist model parameters alone.
func Save[B tensor.Backend](model nn.Module[B], dir string, epoch int, opt OptimizerState, loss float64, isBest bool) error {
	return SaveWithOptions(model, dir, epoch, opt, loss, isBest, Options{})
}

// SaveWithOptions is Save with explicit Options.
//
// With Options.MultiDevice the model must be an nn.DataParallel wrapper;
// the inner module's state dict is persisted so the snapshot loads into an
// unwrapped model.
func SaveWithOptions[B tensor.Backend](model nn.Module[B], dir string, epoch int, opt OptimizerState, loss float64, isBest bool, opts Options) error {
	lastDir, err := ensureSubdir(dir, LastDirName, opts.Verbose)
	if err != nil {
		return err
	}
	bestDir, err := ensureSubdir(dir, BestDirName, opts.Verbose)
	if err != nil {
		return err
	}

	target := model
	if opts.MultiDevice {
		inner, ok := unwrap(model)
		if !ok {
			return fmt.Errorf("%w: %T", ErrNotParallel, model)
		}
		target = inner
	}

	// Combine model and optimizer state into one tensor table, optimizer
	// entries namespaced under "optimizer.".
	combined := make(map[string]*tensor.RawTensor)
	for name, raw := range target.StateDict() {
		combined[name] = raw
	}
	if opt != nil {
		for name, raw := range opt.StateDict() {
			combined[serialization.OptimizerPrefix+name] = raw
		}
	}

	header := serialization.Header{
		ModelType: "Checkpoint",
		// Pre-assigned so the last and best copies of a best save come
		// out byte-identical.
		SnapshotID: uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Checkpoint: &serialization.CheckpointMeta{
			IsCheckpoint:    true,
			Epoch:           epoch,
			Loss:            loss,
			OptimizerType:   optimizerType(opt),
			OptimizerConfig: optimizerConfig(opt),
		},
	}

	lastPath := LastPath(dir)
	if err := writeSnapshot(lastPath, combined, header); err != nil {
		return err
	}
	if opts.Verbose {
		klog.V(1).Infof("saved checkpoint to %s", lastDir)
	}

	if isBest {
		if err := writeSnapshot(BestPath(dir), combined, header); err != nil {
			return err
		}
		if opts.Verbose {
			klog.V(1).Infof("saved best checkpoint to %s", bestDir)
		}
	}

	return nil
}

// ensureSubdir creates <dir>/<name> if it does not already exist.
func ensureSubdir(dir, name string, verbose bool) (string, error) {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		if verbose {
			klog.V(1).Infof("folder %s already exists", path)
		}
		return path, nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if verbose {
		klog.V(1).Infof("created folder %s", path)
	}
	return path, nil
}

func writeSnapshot(path string, stateDict map[string]*tensor.RawTensor, header serialization.Header) (err error) {
	writer, err := serialization.NewWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := writer.WriteStateDictWithHeader(stateDict, header); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// optimizerType reports a human-readable name for the optimizer, recorded
// in the snapshot header for inspection.
func optimizerType(opt OptimizerState) string {
	if opt == nil {
		return ""
	}
	return fmt.Sprintf("%T", opt)
}

func optimizerConfig(opt OptimizerState) map[string]any {
	if opt == nil {
		return nil
	}
	return map[string]any{"lr": opt.GetLR()}
}
