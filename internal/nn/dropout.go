package nn

import (
	"fmt"
	"math/rand"

	"github.com/peuBouzon/raug/internal/tensor"
)

// Dropout randomly zeroes elements during training with probability p and
// rescales the survivors by 1/(1-p) (inverted dropout). In evaluation mode
// the input passes through unchanged; this is the training-only stochastic
// behavior that evaluation mode exists to disable.
type Dropout[B tensor.Backend] struct {
	p        float32
	training bool
}

// NewDropout creates a Dropout module with drop probability p in [0, 1).
// New modules start in training mode, matching layer construction during
// training setup.
func NewDropout[B tensor.Backend](p float32) *Dropout[B] {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("Dropout: probability must be in [0, 1), got %v", p))
	}
	return &Dropout[B]{p: p, training: true}
}

// Forward applies dropout in training mode and is the identity in
// evaluation mode.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.p == 0 {
		return input
	}

	out := input.Clone()
	data := out.Data()
	scale := 1 / (1 - d.p)
	for i := range data {
		if rand.Float32() < d.p {
			data[i] = 0
		} else {
			data[i] *= scale
		}
	}
	return out
}

// P returns the drop probability.
func (d *Dropout[B]) P() float32 { return d.p }

// SetTraining switches between training and evaluation mode.
func (d *Dropout[B]) SetTraining(training bool) { d.training = training }

// Training reports whether the module is in training mode.
func (d *Dropout[B]) Training() bool { return d.training }

// Parameters returns an empty slice; Dropout has no trainable state.
func (d *Dropout[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty map.
func (d *Dropout[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (d *Dropout[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }
