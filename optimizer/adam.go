package optimizer

import "math"

// AdamConfig holds configuration for the Adam optimizer.
//
// Adam keeps exponential moving averages of the gradient (first moment) and
// the squared gradient (second moment), with bias correction for their zero
// initialization. AMSGrad switches the denominator to the running maximum of
// past second-moment estimates.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type AdamConfig struct {
	LearningRate float64  // step size, >= 0
	Beta1        float64  // first-moment decay, in (0, 1)
	Beta2        float64  // second-moment decay, in (0, 1)
	Epsilon      *float64 // numerical stability constant; nil = engine default
	Decay        float64  // time-based learning rate decay, >= 0
	AMSGrad      bool     // use max-of-past-squared-gradients variant
}

// DefaultAdamConfig returns default Adam configuration
func DefaultAdamConfig() AdamConfig {
	return AdamConfig{
		LearningRate: 0.001,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      nil,
		Decay:        0.0,
		AMSGrad:      false,
	}
}

// NewAdam validates config and returns an immutable Adam spec
func NewAdam(config AdamConfig) (*Spec, error) {
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
	return &Spec{optType: Adam, config: config}, nil
}

// adamState applies Adam updates.
//
// Update rule:
//
//	m = beta1*m + (1-beta1)*g
//	v = beta2*v + (1-beta2)*g^2
//	m_hat = m / (1 - beta1^t)
//	v_hat = v / (1 - beta2^t)
//	w -= lr * m_hat / (sqrt(v_hat) + eps)
//
// With AMSGrad the denominator uses max(v_hat_max, v_hat) instead of v_hat.
type adamState struct {
	lr        float64
	beta1     float64
	beta2     float64
	eps       float64
	decay     float64
	amsgrad   bool
	sizes     []int
	m         [][]float64 // first moment estimates
	v         [][]float64 // second moment estimates
	vMax      [][]float64 // running max of bias-corrected v, AMSGrad only
	stepCount uint64
}

func newAdamState(config AdamConfig, sizes []int) *adamState {
	state := &adamState{
		lr:      config.LearningRate,
		beta1:   config.Beta1,
		beta2:   config.Beta2,
		eps:     resolveEpsilon(config.Epsilon),
		decay:   config.Decay,
		amsgrad: config.AMSGrad,
		sizes:   sizes,
		m:       zeroBuffers(sizes),
		v:       zeroBuffers(sizes),
	}
	if config.AMSGrad {
		state.vMax = zeroBuffers(sizes)
	}
	return state
}

func (a *adamState) Step(weights, grads [][]float64) error {
	if err := checkStepArgs(weights, grads, a.sizes); err != nil {
		return err
	}

	lr := decayedLR(a.lr, a.decay, a.stepCount)

	t := float64(a.stepCount + 1)
	biasCorrection1 := 1 - math.Pow(a.beta1, t)
	biasCorrection2 := 1 - math.Pow(a.beta2, t)

	for i := range weights {
		w := weights[i]
		g := grads[i]
		m := a.m[i]
		v := a.v[i]

		for j := range w {
			m[j] = a.beta1*m[j] + (1-a.beta1)*g[j]
			v[j] = a.beta2*v[j] + (1-a.beta2)*g[j]*g[j]

			mHat := m[j] / biasCorrection1
			vHat := v[j] / biasCorrection2

			if a.amsgrad {
				if vHat > a.vMax[i][j] {
					a.vMax[i][j] = vHat
				}
				vHat = a.vMax[i][j]
			}

			w[j] -= lr * mHat / (math.Sqrt(vHat) + a.eps)
		}
	}

	a.stepCount++
	return nil
}

func (a *adamState) LearningRate() float64 {
	return a.lr
}

func (a *adamState) SetLearningRate(lr float64) {
	a.lr = lr
}

func (a *adamState) StepCount() uint64 {
	return a.stepCount
}
