package optimizer

import "math"

// AdaMaxConfig holds configuration for the AdaMax optimizer, the Adam variant
// based on the infinity norm of past gradients instead of the L2 norm.
type AdaMaxConfig struct {
	LearningRate float64  // step size, >= 0
	Beta1        float64  // first-moment decay, in (0, 1)
	Beta2        float64  // infinity-norm decay, in (0, 1)
	Epsilon      *float64 // numerical stability constant; nil = engine default
	Decay        float64  // time-based learning rate decay, >= 0
}

// DefaultAdaMaxConfig returns default AdaMax configuration
func DefaultAdaMaxConfig() AdaMaxConfig {
	return AdaMaxConfig{
		LearningRate: 0.002,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      nil,
		Decay:        0.0,
	}
}

// NewAdaMax validates config and returns an immutable AdaMax spec
func NewAdaMax(config AdaMaxConfig) (*Spec, error) {
	if err := checkNonNegative("lr", config.LearningRate); err != nil {
		return nil, err
	}
	if err := checkOpenUnit("beta_1", config.Beta1); err != nil {
		return nil, err
	}
	if err := checkOpenUnit("beta_2", config.Beta2); err != nil {
		return nil, err
	}
	if err := checkEpsilon(config.Epsilon); err != nil {
		return nil, err
	}
	if err := checkNonNegative("decay", config.Decay); err != nil {
		return nil, err
	}
	return &Spec{optType: AdaMax, config: config}, nil
}

// adaMaxState applies AdaMax updates.
//
// Update rule:
//
//	m = beta1*m + (1-beta1)*g
//	u = max(beta2*u, |g|)
//	w -= lr / (1 - beta1^t) * m / (u + eps)
type adaMaxState struct {
	lr        float64
	beta1     float64
	beta2     float64
	eps       float64
	decay     float64
	sizes     []int
	m         [][]float64 // first moment estimates
	u         [][]float64 // exponentially weighted infinity norm
	stepCount uint64
}

func newAdaMaxState(config AdaMaxConfig, sizes []int) *adaMaxState {
	return &adaMaxState{
		lr:    config.LearningRate,
		beta1: config.Beta1,
		beta2: config.Beta2,
		eps:   resolveEpsilon(config.Epsilon),
		decay: config.Decay,
		sizes: sizes,
		m:     zeroBuffers(sizes),
		u:     zeroBuffers(sizes),
	}
}

func (a *adaMaxState) Step(weights, grads [][]float64) error {
	if err := checkStepArgs(weights, grads, a.sizes); err != nil {
		return err
	}

	lr := decayedLR(a.lr, a.decay, a.stepCount)

	t := float64(a.stepCount + 1)
	biasCorrection := 1 - math.Pow(a.beta1, t)

	for i := range weights {
		w := weights[i]
		g := grads[i]
		m := a.m[i]
		u := a.u[i]

		for j := range w {
			m[j] = a.beta1*m[j] + (1-a.beta1)*g[j]
			u[j] = math.Max(a.beta2*u[j], math.Abs(g[j]))
			w[j] -= lr / biasCorrection * m[j] / (u[j] + a.eps)
		}
	}

	a.stepCount++
	return nil
}

func (a *adaMaxState) LearningRate() float64 {
	return a.lr
}

func (a *adaMaxState) SetLearningRate(lr float64) {
	a.lr = lr
}

func (a *adaMaxState) StepCount() uint64 {
	return a.stepCount
}
