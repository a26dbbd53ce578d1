package optim

import (
	"fmt"
	"math"

	"github.com/peuBouzon/raug/internal/nn"
	"github.com/peuBouzon/raug/internal/tensor"
)

// Adam implements the Adam optimizer (adaptive moment estimation).
//
// Per parameter it maintains exponential moving averages of the gradient
// (first moment) and the squared gradient (second moment):
//
//	m = beta1 * m + (1 - beta1) * grad
//	v = beta2 * v + (1 - beta2) * grad^2
//	param -= lr * mhat / (sqrt(vhat) + eps)
//
// with bias-corrected mhat = m / (1 - beta1^t), vhat = v / (1 - beta2^t).
type Adam[B tensor.Backend] struct {
	params  []*nn.Parameter[B]
	lr      float32
	beta1   float32
	beta2   float32
	eps     float32
	step    int64
	moment1 map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	moment2 map[*nn.Parameter[B]]*tensor.Tensor[float32, B]
	backend B
}

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig struct {
	LR    float32 // Learning rate (default: 0.001)
	Beta1 float32 // First moment decay (default: 0.9)
	Beta2 float32 // Second moment decay (default: 0.999)
	Eps   float32 // Numerical stability term (default: 1e-8)
}

// NewAdam creates a new Adam optimizer over the given parameters.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Beta1 == 0 {
		config.Beta1 = 0.9
	}
	if config.Beta2 == 0 {
		config.Beta2 = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam[B]{
		params:  params,
		lr:      config.LR,
		beta1:   config.Beta1,
		beta2:   config.Beta2,
		eps:     config.Eps,
		moment1: make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		moment2: make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B]),
		backend: backend,
	}
}

// Step applies one Adam update to every parameter with a gradient.
func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.step++
	correction1 := 1 - float32(math.Pow(float64(a.beta1), float64(a.step)))
	correction2 := 1 - float32(math.Pow(float64(a.beta2), float64(a.step)))

	for _, param := range a.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}
		gradTensor := tensor.New[float32](grad, a.backend)

		m := a.moment(a.moment1, param)
		v := a.moment(a.moment2, param)

		// m = beta1*m + (1-beta1)*grad
		newM := m.MulScalar(a.beta1).Add(gradTensor.MulScalar(1 - a.beta1))
		copy(m.Data(), newM.Data())

		// v = beta2*v + (1-beta2)*grad^2
		newV := v.MulScalar(a.beta2).Add(gradTensor.Mul(gradTensor).MulScalar(1 - a.beta2))
		copy(v.Data(), newV.Data())

		// param -= lr * mhat / (sqrt(vhat) + eps)
		mhat := m.MulScalar(1 / correction1)
		vhat := v.MulScalar(1 / correction2)
		update := mhat.MulScalar(a.lr).Div(vhat.Sqrt().AddScalar(a.eps))
		updated := param.Tensor().Sub(update)
		copy(param.Tensor().Data(), updated.Data())
	}
}

func (a *Adam[B]) moment(moments map[*nn.Parameter[B]]*tensor.Tensor[float32, B], param *nn.Parameter[B]) *tensor.Tensor[float32, B] {
	m, ok := moments[param]
	if !ok {
		m = tensor.Zeros[float32](param.Tensor().Shape(), a.backend)
		moments[param] = m
	}
	return m
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam[B]) ZeroGrad() {
	for _, param := range a.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current learning rate.
func (a *Adam[B]) GetLR() float32 { return a.lr }

// SetLR updates the learning rate, for scheduling.
func (a *Adam[B]) SetLR(lr float32) { a.lr = lr }

// Step count of updates applied so far.
func (a *Adam[B]) StepCount() int64 { return a.step }

// StateDict exports both moment buffers per parameter ("m.{i}", "v.{i}")
// plus the update counter ("step", an int64 scalar).
func (a *Adam[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)

	stepRaw, err := tensor.NewRaw(tensor.Shape{1}, tensor.Int64, a.backend.Device())
	if err != nil {
		panic(fmt.Sprintf("adam: %v", err))
	}
	stepRaw.AsInt64()[0] = a.step
	stateDict["step"] = stepRaw

	for i, param := range a.params {
		if m, ok := a.moment1[param]; ok {
			stateDict[fmt.Sprintf("m.%d", i)] = m.Raw()
		}
		if v, ok := a.moment2[param]; ok {
			stateDict[fmt.Sprintf("v.%d", i)] = v.Raw()
		}
	}
	return stateDict
}

// LoadStateDict restores the moment buffers and the update counter.
func (a *Adam[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	if stepRaw, ok := stateDict["step"]; ok {
		if stepRaw.DType() != tensor.Int64 {
			return fmt.Errorf("step dtype mismatch: expected int64, got %v", stepRaw.DType())
		}
		a.step = stepRaw.AsInt64()[0]
	}

	a.moment1 = make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])
	a.moment2 = make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])
	for i, param := range a.params {
		if err := a.loadMoment(a.moment1, stateDict, fmt.Sprintf("m.%d", i), param, i); err != nil {
			return err
		}
		if err := a.loadMoment(a.moment2, stateDict, fmt.Sprintf("v.%d", i), param, i); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adam[B]) loadMoment(moments map[*nn.Parameter[B]]*tensor.Tensor[float32, B], stateDict map[string]*tensor.RawTensor, key string, param *nn.Parameter[B], i int) error {
	raw, ok := stateDict[key]
	if !ok {
		return nil
	}
	if !raw.Shape().Equal(param.Tensor().Shape()) {
		return fmt.Errorf("%s shape mismatch for parameter %d: expected %v, got %v",
			key, i, param.Tensor().Shape(), raw.Shape())
	}
	moments[param] = tensor.New[float32](raw, a.backend)
	return nil
}
