package nn

import (
	"fmt"

	"github.com/peuBouzon/raug/internal/parallel"
	"github.com/peuBouzon/raug/internal/tensor"
)

// DataParallel is the multi-device training wrapper. It exposes the same
// Module interface as the wrapped model while splitting each forward batch
// across replica goroutines. The canonical parameters live one level deeper,
// in the wrapped inner module: persisted state dict keys therefore carry a
// "module." prefix, and checkpoint code must unwrap via Module() to read the
// true parameters.
type DataParallel[B tensor.Backend] struct {
	inner    Module[B]
	replicas int
}

// NewDataParallel wraps inner to run forward passes across replicas
// concurrent chunks of the batch dimension. replicas < 1 falls back to 1.
func NewDataParallel[B tensor.Backend](inner Module[B], replicas int) *DataParallel[B] {
	if replicas < 1 {
		replicas = 1
	}
	return &DataParallel[B]{inner: inner, replicas: replicas}
}

// Module returns the wrapped inner module holding the canonical parameters.
// This is the explicit unwrap surface used when persisting or exporting a
// model trained under the wrapper.
func (d *DataParallel[B]) Module() Module[B] { return d.inner }

// Replicas returns the configured replica count.
func (d *DataParallel[B]) Replicas() int { return d.replicas }

// Forward splits the batch (first) dimension into contiguous chunks, runs
// the inner module on each chunk concurrently, and reassembles the output
// in batch order. Inputs with fewer rows than replicas run directly.
func (d *DataParallel[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) < 2 || shape[0] < d.replicas || d.replicas == 1 {
		return d.inner.Forward(input)
	}

	batch := shape[0]
	rowLen := shape.NumElements() / batch
	data := input.Data()
	backend := input.Backend()

	chunkSize := (batch + d.replicas - 1) / d.replicas
	numChunks := (batch + chunkSize - 1) / chunkSize
	outputs := make([]*tensor.Tensor[float32, B], numChunks)

	parallel.ForChunks(batch, d.replicas, func(start, end int) {
		rows := end - start
		chunkShape := shape.Clone()
		chunkShape[0] = rows
		chunk, err := tensor.FromSlice(data[start*rowLen:end*rowLen], chunkShape, backend)
		if err != nil {
			panic(fmt.Sprintf("DataParallel.Forward: %v", err))
		}
		outputs[start/chunkSize] = d.inner.Forward(chunk)
	})

	return concatRows(outputs, backend)
}

// concatRows stacks chunk outputs along the batch dimension.
func concatRows[B tensor.Backend](chunks []*tensor.Tensor[float32, B], backend B) *tensor.Tensor[float32, B] {
	first := chunks[0].Shape()
	outShape := first.Clone()
	outShape[0] = 0
	for _, c := range chunks {
		outShape[0] += c.Shape()[0]
	}

	out := tensor.Zeros[float32](outShape, backend)
	data := out.Data()
	offset := 0
	for _, c := range chunks {
		n := copy(data[offset:], c.Data())
		offset += n
	}
	return out
}

// Parameters returns the inner module's parameters.
func (d *DataParallel[B]) Parameters() []*Parameter[B] {
	return d.inner.Parameters()
}

// SetTraining propagates the mode flag to the inner module.
func (d *DataParallel[B]) SetTraining(training bool) {
	SetTraining(d.inner, training)
}

// Training reports the inner module's mode.
func (d *DataParallel[B]) Training() bool {
	return IsTraining(d.inner)
}

// StateDict returns the inner state dict with every key prefixed "module.",
// mirroring how the wrapper nests the true parameters one level deeper.
func (d *DataParallel[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)
	for name, raw := range d.inner.StateDict() {
		stateDict["module."+name] = raw
	}
	return stateDict
}

// LoadStateDict strips the "module." prefix and restores the inner module.
func (d *DataParallel[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if len(stateDict) == 0 && len(d.inner.StateDict()) > 0 {
		return fmt.Errorf("empty state dict for wrapped module")
	}
	innerDict := make(map[string]*tensor.RawTensor, len(stateDict))
	for name, raw := range stateDict {
		const prefix = "module."
		if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
			return fmt.Errorf("unexpected state dict key %q: missing %q prefix", name, prefix)
		}
		innerDict[name[len(prefix):]] = raw
	}
	return d.inner.LoadStateDict(innerDict)
}
