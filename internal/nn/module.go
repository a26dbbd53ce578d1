// Package nn implements the neural network building blocks raug persists.
//
// The package provides:
//   - Module interface: forward pass plus state dict access
//   - Parameter: a named trainable tensor
//   - Linear, activations, Dropout, Flatten, Sequential
//   - DataParallel: the multi-device training wrapper
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/peuBouzon/raug/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Modules without trainable
	// state return an empty slice.
	Parameters() []*Parameter[B]

	// StateDict returns a map from parameter name to raw tensor,
	// capturing the full learnable state of the module.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores parameters from a state dictionary,
	// mutating the module in place. Shapes and dtypes must match.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// Trainable is implemented by modules whose forward pass differs between
// training and evaluation (e.g. Dropout). Containers propagate the flag to
// their children.
type Trainable interface {
	// SetTraining switches the module between training and evaluation mode.
	SetTraining(training bool)

	// Training reports whether the module is in training mode.
	Training() bool
}

// SetTraining switches m (and, via containers, its children) between
// training and evaluation mode. Modules that do not implement Trainable are
// unaffected.
func SetTraining[B tensor.Backend](m Module[B], training bool) {
	if t, ok := any(m).(Trainable); ok {
		t.SetTraining(training)
	}
}

// IsTraining reports whether m is in training mode. Modules without a mode
// are considered to be in evaluation mode.
func IsTraining[B tensor.Backend](m Module[B]) bool {
	if t, ok := any(m).(Trainable); ok {
		return t.Training()
	}
	return false
}
