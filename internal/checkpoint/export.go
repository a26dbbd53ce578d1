package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"

	"github.com/peuBouzon/raug/internal/nn"
	"github.com/peuBouzon/raug/internal/onnx"
	"github.com/peuBouzon/raug/internal/tensor"
)

// Export serializes the model to an ONNX file named name under dir.
//
// sample is a representative input whose shape becomes the graph's input
// shape; the model is run on it once to determine the output shape. The
// model is switched to evaluation mode for the export and restored to its
// previous mode afterwards, so inference-only behavior (dropout disabled)
// is what lands in the graph.
//
// dynamicAxes marks input/output dimensions as symbolic, keyed by tensor
// name then axis index, e.g. {"input": {0: "batch_size"}}.
func Export[B tensor.Backend](model nn.Module[B], dir, name string, sample *tensor.Tensor[float32, B], inputNames, outputNames []string, dynamicAxes onnx.DynamicAxes) error {
	return ExportWithOptions(model, dir, name, sample, inputNames, outputNames, dynamicAxes, Options{})
}

// ExportWithOptions is Export with explicit Options. With
// Options.MultiDevice the inner module of an nn.DataParallel wrapper is
// exported, since the wrapper itself has no ONNX representation.
func ExportWithOptions[B tensor.Backend](model nn.Module[B], dir, name string, sample *tensor.Tensor[float32, B], inputNames, outputNames []string, dynamicAxes onnx.DynamicAxes, opts Options) error {
	if _, err := os.Stat(dir); err == nil {
		if opts.Verbose {
			klog.V(1).Infof("folder %s already exists", dir)
		}
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	} else if opts.Verbose {
		klog.V(1).Infof("created folder %s", dir)
	}

	target := model
	if opts.MultiDevice {
		inner, ok := unwrap(model)
		if !ok {
			return fmt.Errorf("%w: %T", ErrNotParallel, model)
		}
		target = inner
	}

	wasTraining := nn.IsTraining(target)
	nn.SetTraining(target, false)
	defer nn.SetTraining(target, wasTraining)

	data, err := onnx.Export(target, sample, inputNames, outputNames, dynamicAxes)
	if err != nil {
		return fmt.Errorf("failed to export model: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if opts.Verbose {
		klog.V(1).Infof("exported ONNX model to %s", path)
	}
	return nil
}
