package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/peuBouzon/raug/internal/nn"
	"github.com/peuBouzon/raug/internal/serialization"
	"github.com/peuBouzon/raug/internal/tensor"
)

// Load restores a snapshot from path into pre-constructed model and opt.
//
// The model (and optimizer, when given) must have the same architecture and
// configuration as at save time; parameter shapes and dtypes are validated
// on the way in. Pass a nil opt to restore model parameters alone.
//
// Returns the epoch and loss recorded in the snapshot. A missing file is
// reported as ErrNotFound:
//
//	state, err := checkpoint.Load(checkpoint.LastPath(dir), backend, model, opt)
//	if errors.Is(err, checkpoint.ErrNotFound) {
//	    // start training from scratch
//	}
func Load[B tensor.Backend](path string, backend B, model nn.Module[B], opt OptimizerState) (_ *State, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat checkpoint: %w", statErr)
	}

	reader, err := serialization.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	header := reader.Header()
	if header.Checkpoint == nil || !header.Checkpoint.IsCheckpoint {
		return nil, fmt.Errorf("%s: %w", path, serialization.ErrNotCheckpoint)
	}

	stateDict, err := reader.ReadStateDict(backend.Device())
	if err != nil {
		return nil, fmt.Errorf("failed to read state dict: %w", err)
	}

	modelState := make(map[string]*tensor.RawTensor)
	optState := make(map[string]*tensor.RawTensor)
	for name, raw := range stateDict {
		if rest, ok := strings.CutPrefix(name, serialization.OptimizerPrefix); ok {
			optState[rest] = raw
		} else {
			modelState[name] = raw
		}
	}

	if err := model.LoadStateDict(modelState); err != nil {
		return nil, fmt.Errorf("failed to load model state: %w", err)
	}
	if opt != nil {
		if err := opt.LoadStateDict(optState); err != nil {
			return nil, fmt.Errorf("failed to load optimizer state: %w", err)
		}
	}

	return &State{
		Epoch: header.Checkpoint.Epoch,
		Loss:  header.Checkpoint.Loss,
	}, nil
}
