package optimizer

import "math"

// AdaDeltaConfig holds configuration for the AdaDelta optimizer.
// AdaDelta adapts learning rates using a decaying window of squared gradients
// and squared updates; the algorithm is designed to need no manual learning
// rate tuning, so LearningRate is conventionally left at 1.0.
type AdaDeltaConfig struct {
	LearningRate float64  // step size, >= 0
	Rho          float64  // decay rate of both moving averages, >= 0
	Epsilon      *float64 // numerical stability constant; nil = engine default
	Decay        float64  // time-based learning rate decay, >= 0
}

// DefaultAdaDeltaConfig returns default AdaDelta configuration
func DefaultAdaDeltaConfig() AdaDeltaConfig {
	return AdaDeltaConfig{
		LearningRate: 1.0,
		Rho:          0.95,
		Epsilon:      nil,
		Decay:        0.0,
	}
}

// NewAdaDelta validates config and returns an immutable AdaDelta spec
func NewAdaDelta(config AdaDeltaConfig) (*Spec, error) {
	if err := checkNonNegative("lr", config.LearningRate); err != nil {
		return nil, err
	}
	if err := checkNonNegative("rho", config.Rho); err != nil {
		return nil, err
	}
	if err := checkEpsilon(config.Epsilon); err != nil {
		return nil, err
	}
	if err := checkNonNegative("decay", config.Decay); err != nil {
		return nil, err
	}
	return &Spec{optType: AdaDelta, config: config}, nil
}

// adaDeltaState applies AdaDelta updates.
//
// Update rule:
//
//	a = rho*a + (1-rho)*g^2
//	update = g * sqrt(d + eps) / sqrt(a + eps)
//	w -= lr * update
//	d = rho*d + (1-rho)*update^2
type adaDeltaState struct {
	lr           float64
	rho          float64
	eps          float64
	decay        float64
	sizes        []int
	squaredGrads [][]float64
	squaredDelta [][]float64
	stepCount    uint64
}

func newAdaDeltaState(config AdaDeltaConfig, sizes []int) *adaDeltaState {
	return &adaDeltaState{
		lr:           config.LearningRate,
		rho:          config.Rho,
		eps:          resolveEpsilon(config.Epsilon),
		decay:        config.Decay,
		sizes:        sizes,
		squaredGrads: zeroBuffers(sizes),
		squaredDelta: zeroBuffers(sizes),
	}
}

func (a *adaDeltaState) Step(weights, grads [][]float64) error {
	if err := checkStepArgs(weights, grads, a.sizes); err != nil {
		return err
	}

	lr := decayedLR(a.lr, a.decay, a.stepCount)

	for i := range weights {
		w := weights[i]
		g := grads[i]
		acc := a.squaredGrads[i]
		delta := a.squaredDelta[i]

		for j := range w {
			acc[j] = a.rho*acc[j] + (1-a.rho)*g[j]*g[j]
			update := g[j] * math.Sqrt(delta[j]+a.eps) / math.Sqrt(acc[j]+a.eps)
			w[j] -= lr * update
			delta[j] = a.rho*delta[j] + (1-a.rho)*update*update
		}
	}

	a.stepCount++
	return nil
}

func (a *adaDeltaState) LearningRate() float64 {
	return a.lr
}

func (a *adaDeltaState) SetLearningRate(lr float64) {
	a.lr = lr
}

func (a *adaDeltaState) StepCount() uint64 {
	return a.stepCount
}
