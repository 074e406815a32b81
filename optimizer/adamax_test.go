package optimizer

import (
	"math"
	"testing"
)

// TestAdaMaxConfig tests the AdaMax default configuration
func TestAdaMaxConfig(t *testing.T) {
	config := DefaultAdaMaxConfig()

	if config.LearningRate != 0.002 {
		t.Errorf("Expected learning rate 0.002, got %f", config.LearningRate)
	}
	if config.Beta1 != 0.9 {
		t.Errorf("Expected beta1 0.9, got %f", config.Beta1)
	}
	if config.Beta2 != 0.999 {
		t.Errorf("Expected beta2 0.999, got %f", config.Beta2)
	}
	if config.Epsilon != nil {
		t.Errorf("Expected epsilon unset, got %v", *config.Epsilon)
	}
	if config.Decay != 0.0 {
		t.Errorf("Expected decay 0.0, got %f", config.Decay)
	}
}

// TestAdaMaxBetaBounds tests the open-interval constraint
func TestAdaMaxBetaBounds(t *testing.T) {
	cfg := DefaultAdaMaxConfig()
	cfg.Beta1 = 1.0
	if _, err := NewAdaMax(cfg); err == nil {
		t.Error("beta_1 = 1.0 should be rejected")
	}

	cfg = DefaultAdaMaxConfig()
	cfg.Beta2 = 0.0
	if _, err := NewAdaMax(cfg); err == nil {
		t.Error("beta_2 = 0.0 should be rejected")
	}
}

// TestAdaMaxFirstStep tests the infinity-norm scaled update.
// On the first step u = |g|, so the update is lr/(1-beta1) * (1-beta1)*g / |g|,
// which reduces to lr * sign(g).
func TestAdaMaxFirstStep(t *testing.T) {
	cfg := DefaultAdaMaxConfig()
	cfg.Epsilon = Eps(0)
	spec, err := NewAdaMax(cfg)
	if err != nil {
		t.Fatalf("spec construction failed: %v", err)
	}

	opt, err := NewFromSpec(spec, [][]int{{2}})
	if err != nil {
		t.Fatalf("NewFromSpec failed: %v", err)
	}

	weights := [][]float64{{1.0, 1.0}}
	grads := [][]float64{{0.25, -8.0}}

	if err := opt.Step(weights, grads); err != nil {
		t.Fatalf("step failed: %v", err)
	}

	if math.Abs(weights[0][0]-(1.0-0.002)) > 1e-12 {
		t.Errorf("expected %f, got %f", 1.0-0.002, weights[0][0])
	}
	if math.Abs(weights[0][1]-(1.0+0.002)) > 1e-12 {
		t.Errorf("expected %f, got %f", 1.0+0.002, weights[0][1])
	}
}
