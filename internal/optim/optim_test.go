package optim_test

import (
	"math"
	"testing"

	"github.com/peuBouzon/raug/internal/backend/cpu"
	"github.com/peuBouzon/raug/internal/nn"
	"github.com/peuBouzon/raug/internal/optim"
	"github.com/peuBouzon/raug/internal/tensor"
)

type CPUBackend = *cpu.CPUBackend

func param(t *testing.T, vals []float32, backend CPUBackend) *nn.Parameter[CPUBackend] {
	t.Helper()
	tt, err := tensor.FromSlice(vals, tensor.Shape{len(vals)}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return nn.NewParameter("p", tt)
}

func gradsFor(t *testing.T, p *nn.Parameter[CPUBackend], vals []float32, backend CPUBackend) map[*tensor.RawTensor]*tensor.RawTensor {
	t.Helper()
	g, err := tensor.FromSlice(vals, p.Tensor().Shape(), backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return map[*tensor.RawTensor]*tensor.RawTensor{p.Tensor().Raw(): g.Raw()}
}

// cloneState deep-copies a state dict the way a disk round trip would,
// so two optimizers never share live buffers.
func cloneState(state map[string]*tensor.RawTensor) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor, len(state))
	for name, raw := range state {
		out[name] = raw.Clone()
	}
	return out
}

func assertClose(t *testing.T, got, want []float32) {
	t.Helper()
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Fatalf("element %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestSGDStep(t *testing.T) {
	backend := cpu.New()
	p := param(t, []float32{1, 2}, backend)
	sgd := optim.NewSGD([]*nn.Parameter[CPUBackend]{p}, optim.SGDConfig{LR: 0.1}, backend)

	sgd.Step(gradsFor(t, p, []float32{1, -1}, backend))
	assertClose(t, p.Tensor().Data(), []float32{0.9, 2.1})
}

func TestSGDMomentumAccumulates(t *testing.T) {
	backend := cpu.New()
	p := param(t, []float32{1}, backend)
	sgd := optim.NewSGD([]*nn.Parameter[CPUBackend]{p}, optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)

	// v=1, p=1-0.1*1=0.9
	sgd.Step(gradsFor(t, p, []float32{1}, backend))
	assertClose(t, p.Tensor().Data(), []float32{0.9})
	// v=0.9+1=1.9, p=0.9-0.19=0.71
	sgd.Step(gradsFor(t, p, []float32{1}, backend))
	assertClose(t, p.Tensor().Data(), []float32{0.71})
}

func TestSGDSkipsParamsWithoutGradient(t *testing.T) {
	backend := cpu.New()
	p := param(t, []float32{5}, backend)
	sgd := optim.NewSGD([]*nn.Parameter[CPUBackend]{p}, optim.SGDConfig{LR: 0.1}, backend)

	sgd.Step(map[*tensor.RawTensor]*tensor.RawTensor{})
	assertClose(t, p.Tensor().Data(), []float32{5})
}

func TestSGDStateDictRoundTrip(t *testing.T) {
	backend := cpu.New()
	p1 := param(t, []float32{1}, backend)
	sgd1 := optim.NewSGD([]*nn.Parameter[CPUBackend]{p1}, optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)
	sgd1.Step(gradsFor(t, p1, []float32{1}, backend))

	state := sgd1.StateDict()
	if _, ok := state["velocity.0"]; !ok {
		t.Fatalf("expected velocity.0 in state dict, got %v", state)
	}

	// A fresh optimizer over a parameter at the same point must continue
	// the same trajectory after restoring the velocity.
	p2 := param(t, []float32{0.9}, backend)
	sgd2 := optim.NewSGD([]*nn.Parameter[CPUBackend]{p2}, optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)
	if err := sgd2.LoadStateDict(cloneState(state)); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}

	sgd1.Step(gradsFor(t, p1, []float32{1}, backend))
	sgd2.Step(gradsFor(t, p2, []float32{1}, backend))
	assertClose(t, p2.Tensor().Data(), p1.Tensor().Data())
}

func TestSGDLoadStateDictRejectsWrongShape(t *testing.T) {
	backend := cpu.New()
	p := param(t, []float32{1, 2}, backend)
	sgd := optim.NewSGD([]*nn.Parameter[CPUBackend]{p}, optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)

	bad, err := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatal(err)
	}
	if err := sgd.LoadStateDict(map[string]*tensor.RawTensor{"velocity.0": bad}); err == nil {
		t.Fatal("wrong velocity shape accepted")
	}
}

func TestAdamStepMovesAgainstGradient(t *testing.T) {
	backend := cpu.New()
	p := param(t, []float32{1, -1}, backend)
	adam := optim.NewAdam([]*nn.Parameter[CPUBackend]{p}, optim.AdamConfig{LR: 0.1}, backend)

	adam.Step(gradsFor(t, p, []float32{1, -1}, backend))
	data := p.Tensor().Data()
	if data[0] >= 1 {
		t.Errorf("expected first element to decrease, got %f", data[0])
	}
	if data[1] <= -1 {
		t.Errorf("expected second element to increase, got %f", data[1])
	}
	if adam.StepCount() != 1 {
		t.Errorf("expected step count 1, got %d", adam.StepCount())
	}
}

func TestAdamStateDictRoundTrip(t *testing.T) {
	backend := cpu.New()
	p1 := param(t, []float32{1}, backend)
	adam1 := optim.NewAdam([]*nn.Parameter[CPUBackend]{p1}, optim.AdamConfig{LR: 0.01}, backend)
	adam1.Step(gradsFor(t, p1, []float32{0.5}, backend))
	adam1.Step(gradsFor(t, p1, []float32{0.5}, backend))

	state := adam1.StateDict()
	for _, key := range []string{"m.0", "v.0", "step"} {
		if _, ok := state[key]; !ok {
			t.Fatalf("expected %s in state dict, got %v", key, state)
		}
	}
	if got := state["step"].AsInt64()[0]; got != 2 {
		t.Fatalf("expected step 2, got %d", got)
	}

	p2 := param(t, p1.Tensor().Data(), backend)
	adam2 := optim.NewAdam([]*nn.Parameter[CPUBackend]{p2}, optim.AdamConfig{LR: 0.01}, backend)
	if err := adam2.LoadStateDict(cloneState(state)); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}
	if adam2.StepCount() != 2 {
		t.Fatalf("expected restored step count 2, got %d", adam2.StepCount())
	}

	// Identical continued trajectories.
	adam1.Step(gradsFor(t, p1, []float32{0.5}, backend))
	adam2.Step(gradsFor(t, p2, []float32{0.5}, backend))
	assertClose(t, p2.Tensor().Data(), p1.Tensor().Data())
}

func TestGetLRAndSetLR(t *testing.T) {
	backend := cpu.New()
	p := param(t, []float32{1}, backend)

	sgd := optim.NewSGD([]*nn.Parameter[CPUBackend]{p}, optim.SGDConfig{LR: 0.05}, backend)
	if sgd.GetLR() != 0.05 {
		t.Errorf("expected LR 0.05, got %f", sgd.GetLR())
	}
	sgd.SetLR(0.01)
	if sgd.GetLR() != 0.01 {
		t.Errorf("expected LR 0.01 after SetLR, got %f", sgd.GetLR())
	}

	adam := optim.NewAdam([]*nn.Parameter[CPUBackend]{p}, optim.AdamConfig{}, backend)
	if adam.GetLR() != 0.001 {
		t.Errorf("expected default LR 0.001, got %f", adam.GetLR())
	}
}
