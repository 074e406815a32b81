package optimizer

import (
	"math"
	"testing"
)

// TestAdaDeltaConfig tests the AdaDelta default configuration
func TestAdaDeltaConfig(t *testing.T) {
	config := DefaultAdaDeltaConfig()

	if config.LearningRate != 1.0 {
		t.Errorf("Expected learning rate 1.0, got %f", config.LearningRate)
	}
	if config.Rho != 0.95 {
		t.Errorf("Expected rho 0.95, got %f", config.Rho)
	}
	if config.Epsilon != nil {
		t.Errorf("Expected epsilon unset, got %v", *config.Epsilon)
	}
	if config.Decay != 0.0 {
		t.Errorf("Expected decay 0.0, got %f", config.Decay)
	}
}

// TestAdaDeltaStep tests the dual-accumulator update
func TestAdaDeltaStep(t *testing.T) {
	eps := 1e-6
	cfg := DefaultAdaDeltaConfig()
	cfg.Epsilon = Eps(eps)
	spec, err := NewAdaDelta(cfg)
	if err != nil {
		t.Fatalf("spec construction failed: %v", err)
	}

	opt, err := NewFromSpec(spec, [][]int{{1}})
	if err != nil {
		t.Fatalf("NewFromSpec failed: %v", err)
	}

	weights := [][]float64{{1.0}}
	grads := [][]float64{{2.0}}

	if err := opt.Step(weights, grads); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	// acc = 0.05*4 = 0.2
	// update = 2 * sqrt(0 + eps) / sqrt(0.2 + eps)
	update := 2.0 * math.Sqrt(eps) / math.Sqrt(0.2+eps)
	expected := 1.0 - update
	if math.Abs(weights[0][0]-expected) > 1e-12 {
		t.Errorf("expected %f, got %f", expected, weights[0][0])
	}
}
