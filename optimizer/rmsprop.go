package optimizer

import "math"

// RMSPropConfig holds configuration for the RMSProp optimizer.
// RMSProp divides the gradient by a running average of its recent magnitude
// and is a reasonable default for recurrent architectures.
type RMSPropConfig struct {
	LearningRate float64  // step size, >= 0
	Rho          float64  // decay rate of the squared-gradient average, >= 0
	Epsilon      *float64 // numerical stability constant; nil = engine default
	Decay        float64  // time-based learning rate decay, >= 0
}

// DefaultRMSPropConfig returns default RMSProp configuration
func DefaultRMSPropConfig() RMSPropConfig {
	return RMSPropConfig{
		LearningRate: 0.01,
		Rho:          0.9,
		Epsilon:      nil,
		Decay:        0.0,
	}
}

// NewRMSProp validates config and returns an immutable RMSProp spec
func NewRMSProp(config RMSPropConfig) (*Spec, error) {
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
	return &Spec{optType: RMSProp, config: config}, nil
}

// rmsPropState applies RMSProp updates.
//
// Update rule:
//
//	a = rho*a + (1-rho)*g^2
//	w -= lr * g / (sqrt(a) + eps)
type rmsPropState struct {
	lr          float64
	rho         float64
	eps         float64
	decay       float64
	sizes       []int
	squaredAvgs [][]float64
	stepCount   uint64
}

func newRMSPropState(config RMSPropConfig, sizes []int) *rmsPropState {
	return &rmsPropState{
		lr:          config.LearningRate,
		rho:         config.Rho,
		eps:         resolveEpsilon(config.Epsilon),
		decay:       config.Decay,
		sizes:       sizes,
		squaredAvgs: zeroBuffers(sizes),
	}
}

func (r *rmsPropState) Step(weights, grads [][]float64) error {
	if err := checkStepArgs(weights, grads, r.sizes); err != nil {
		return err
	}

	lr := decayedLR(r.lr, r.decay, r.stepCount)

	for i := range weights {
		w := weights[i]
		g := grads[i]
		a := r.squaredAvgs[i]

		for j := range w {
			a[j] = r.rho*a[j] + (1-r.rho)*g[j]*g[j]
			w[j] -= lr * g[j] / (math.Sqrt(a[j]) + r.eps)
		}
	}

	r.stepCount++
	return nil
}

func (r *rmsPropState) LearningRate() float64 {
	return r.lr
}

func (r *rmsPropState) SetLearningRate(lr float64) {
	r.lr = lr
}

func (r *rmsPropState) StepCount() uint64 {
	return r.stepCount
}
