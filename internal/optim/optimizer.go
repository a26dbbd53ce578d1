// Package optim implements the optimization algorithms whose internal state
// raug checkpoints persist and restore.
//
// Design inspired by PyTorch's torch.optim, adapted for Go generics.
package optim

import (
	"github.com/peuBouzon/raug/internal/nn"
	"github.com/peuBouzon/raug/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies gradient updates to all parameters in place.
	// The map associates each parameter's RawTensor with its gradient.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32

	// StateDict returns the optimizer's internal bookkeeping (momentum
	// buffers, moment estimates) for serialization.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores internal bookkeeping from a state dict.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// Config is the base configuration shared by all optimizers.
type Config struct {
	LR float32 // Learning rate
}

// getGradient retrieves the gradient for a parameter, or nil when the
// parameter did not participate in the backward pass.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}
