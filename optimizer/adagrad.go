package optimizer

import "math"

// AdaGradConfig holds configuration for the AdaGrad optimizer.
// AdaGrad adapts the learning rate per parameter using the accumulated sum of
// squared gradients, so the effective rate decays per parameter rather than
// over time.
type AdaGradConfig struct {
	LearningRate float64  // step size, >= 0
	Epsilon      *float64 // numerical stability constant; nil = engine default
	Decay        float64  // time-based learning rate decay, >= 0
}

// DefaultAdaGradConfig returns default AdaGrad configuration
func DefaultAdaGradConfig() AdaGradConfig {
	return AdaGradConfig{
		LearningRate: 0.01,
		Epsilon:      nil,
		Decay:        0.0,
	}
}

// NewAdaGrad validates config and returns an immutable AdaGrad spec
func NewAdaGrad(config AdaGradConfig) (*Spec, error) {
	if err := checkNonNegative("lr", config.LearningRate); err != nil {
		return nil, err
	}
	if err := checkEpsilon(config.Epsilon); err != nil {
		return nil, err
	}
	if err := checkNonNegative("decay", config.Decay); err != nil {
		return nil, err
	}
	return &Spec{optType: AdaGrad, config: config}, nil
}

// adaGradState applies AdaGrad updates.
//
// Update rule:
//
//	a += g^2
//	w -= lr * g / (sqrt(a) + eps)
type adaGradState struct {
	lr           float64
	eps          float64
	decay        float64
	sizes        []int
	accumulators [][]float64
	stepCount    uint64
}

func newAdaGradState(config AdaGradConfig, sizes []int) *adaGradState {
	return &adaGradState{
		lr:           config.LearningRate,
		eps:          resolveEpsilon(config.Epsilon),
		decay:        config.Decay,
		sizes:        sizes,
		accumulators: zeroBuffers(sizes),
	}
}

func (a *adaGradState) Step(weights, grads [][]float64) error {
	if err := checkStepArgs(weights, grads, a.sizes); err != nil {
		return err
	}

	lr := decayedLR(a.lr, a.decay, a.stepCount)

	for i := range weights {
		w := weights[i]
		g := grads[i]
		acc := a.accumulators[i]

		for j := range w {
			acc[j] += g[j] * g[j]
			w[j] -= lr * g[j] / (math.Sqrt(acc[j]) + a.eps)
		}
	}

	a.stepCount++
	return nil
}

func (a *adaGradState) LearningRate() float64 {
	return a.lr
}

func (a *adaGradState) SetLearningRate(lr float64) {
	a.lr = lr
}

func (a *adaGradState) StepCount() uint64 {
	return a.stepCount
}
