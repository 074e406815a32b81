package optimizer

import "testing"

// allDefaultSpecs builds one default spec per variant
func allDefaultSpecs(t *testing.T) map[string]*Spec {
	t.Helper()

	specs := make(map[string]*Spec)
	add := func(spec *Spec, err error) {
		if err != nil {
			t.Fatalf("default construction failed: %v", err)
		}
		specs[spec.Type().String()] = spec
	}

	add(NewSGD(DefaultSGDConfig()))
	add(NewRMSProp(DefaultRMSPropConfig()))
	add(NewAdaGrad(DefaultAdaGradConfig()))
	add(NewAdaDelta(DefaultAdaDeltaConfig()))
	add(NewAdam(DefaultAdamConfig()))
	add(NewAdaMax(DefaultAdaMaxConfig()))
	add(NewNadam(DefaultNadamConfig()))
	return specs
}

// TestNewFromSpecDispatch verifies every variant yields a working updater
func TestNewFromSpecDispatch(t *testing.T) {
	shapes := [][]int{{4, 2}, {2}}

	for name, spec := range allDefaultSpecs(t) {
		t.Run(name, func(t *testing.T) {
			opt, err := NewFromSpec(spec, shapes)
			if err != nil {
				t.Fatalf("NewFromSpec failed: %v", err)
			}

			weights := [][]float64{make([]float64, 8), make([]float64, 2)}
			grads := [][]float64{make([]float64, 8), make([]float64, 2)}
			for i := range grads[0] {
				grads[0][i] = 0.5
			}
			grads[1][0], grads[1][1] = -0.25, 0.25

			if err := opt.Step(weights, grads); err != nil {
				t.Fatalf("step failed: %v", err)
			}
			if opt.StepCount() != 1 {
				t.Errorf("expected step count 1, got %d", opt.StepCount())
			}

			// weights with nonzero gradients must have moved
			if weights[0][0] == 0 {
				t.Error("weight did not move under nonzero gradient")
			}
		})
	}
}

// TestNewFromSpecArguments tests constructor argument validation
func TestNewFromSpecArguments(t *testing.T) {
	spec, err := NewSGD(DefaultSGDConfig())
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}

	if _, err := NewFromSpec(nil, [][]int{{1}}); err == nil {
		t.Error("expected error for nil spec")
	}
	if _, err := NewFromSpec(spec, nil); err == nil {
		t.Error("expected error for missing shapes")
	}
	if _, err := NewFromSpec(spec, [][]int{{}}); err == nil {
		t.Error("expected error for empty shape")
	}
	if _, err := NewFromSpec(spec, [][]int{{4, 0}}); err == nil {
		t.Error("expected error for zero dimension")
	}
}

// TestStepShapeMismatch tests per-step slice layout validation
func TestStepShapeMismatch(t *testing.T) {
	spec, err := NewSGD(DefaultSGDConfig())
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}
	opt, err := NewFromSpec(spec, [][]int{{2}})
	if err != nil {
		t.Fatalf("NewFromSpec failed: %v", err)
	}

	good := [][]float64{{0, 0}}
	if err := opt.Step(good, [][]float64{{1, 1}, {1}}); err == nil {
		t.Error("expected error for extra gradient tensor")
	}
	if err := opt.Step([][]float64{{0, 0, 0}}, [][]float64{{1, 1, 1}}); err == nil {
		t.Error("expected error for oversized tensors")
	}
	if err := opt.Step(good, [][]float64{{1}}); err == nil {
		t.Error("expected error for undersized gradient")
	}
}

// TestSetLearningRate tests external schedule support
func TestSetLearningRate(t *testing.T) {
	for name, spec := range allDefaultSpecs(t) {
		opt, err := NewFromSpec(spec, [][]int{{1}})
		if err != nil {
			t.Fatalf("%s: NewFromSpec failed: %v", name, err)
		}
		opt.SetLearningRate(0.123)
		if opt.LearningRate() != 0.123 {
			t.Errorf("%s: learning rate not updated, got %f", name, opt.LearningRate())
		}
	}
}
