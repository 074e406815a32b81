package optimizer

import "math"

// NadamConfig holds configuration for the Nadam optimizer, which combines
// Adam's RMS-style second-moment scaling with Nesterov lookahead momentum.
// ScheduleDecay controls the momentum warmup schedule.
type NadamConfig struct {
	LearningRate  float64  // step size, >= 0
	Beta1         float64  // first-moment decay, in (0, 1)
	Beta2         float64  // second-moment decay, in (0, 1)
	Epsilon       *float64 // numerical stability constant; nil = engine default
	ScheduleDecay float64  // momentum schedule decay, in (0, 1)
}

// DefaultNadamConfig returns default Nadam configuration
func DefaultNadamConfig() NadamConfig {
	return NadamConfig{
		LearningRate:  0.002, // Nadam conventionally uses a slightly higher lr than Adam
		Beta1:         0.9,
		Beta2:         0.999,
		Epsilon:       nil,
		ScheduleDecay: 0.004,
	}
}

// NewNadam validates config and returns an immutable Nadam spec
func NewNadam(config NadamConfig) (*Spec, error) {
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
	if err := checkOpenUnit("schedule_decay", config.ScheduleDecay); err != nil {
		return nil, err
	}
	return &Spec{optType: Nadam, config: config}, nil
}

// nadamState applies Nadam updates.
//
// The momentum coefficient is warmed up over steps:
//
//	mu_t   = beta1 * (1 - 0.5*0.96^(t*schedule_decay))
//	mu_t+1 = beta1 * (1 - 0.5*0.96^((t+1)*schedule_decay))
//
// and the update interpolates the lookahead first moment with the current
// gradient before RMS scaling:
//
//	m = beta1*m + (1-beta1)*g
//	v = beta2*v + (1-beta2)*g^2
//	m_bar = (1-mu_t)*g/(1-schedule_t) + mu_t+1*m/(1-schedule_t+1)
//	w -= lr * m_bar / (sqrt(v/(1-beta2^t)) + eps)
//
// where schedule_t is the running product of the mu coefficients.
type nadamState struct {
	lr            float64
	beta1         float64
	beta2         float64
	eps           float64
	scheduleDecay float64
	sizes         []int
	m             [][]float64 // first moment estimates
	v             [][]float64 // second moment estimates
	mSchedule     float64     // running product of momentum coefficients
	stepCount     uint64
}

func newNadamState(config NadamConfig, sizes []int) *nadamState {
	return &nadamState{
		lr:            config.LearningRate,
		beta1:         config.Beta1,
		beta2:         config.Beta2,
		eps:           resolveEpsilon(config.Epsilon),
		scheduleDecay: config.ScheduleDecay,
		sizes:         sizes,
		m:             zeroBuffers(sizes),
		v:             zeroBuffers(sizes),
		mSchedule:     1.0,
	}
}

// momentumCoefficient computes the warmed-up momentum at step t (1-based)
func (n *nadamState) momentumCoefficient(t float64) float64 {
	return n.beta1 * (1 - 0.5*math.Pow(0.96, t*n.scheduleDecay))
}

func (n *nadamState) Step(weights, grads [][]float64) error {
	if err := checkStepArgs(weights, grads, n.sizes); err != nil {
		return err
	}

	t := float64(n.stepCount + 1)
	muT := n.momentumCoefficient(t)
	muNext := n.momentumCoefficient(t + 1)

	scheduleT := n.mSchedule * muT
	scheduleNext := scheduleT * muNext

	biasCorrection2 := 1 - math.Pow(n.beta2, t)

	for i := range weights {
		w := weights[i]
		g := grads[i]
		m := n.m[i]
		v := n.v[i]

		for j := range w {
			gPrime := g[j] / (1 - scheduleT)

			m[j] = n.beta1*m[j] + (1-n.beta1)*g[j]
			v[j] = n.beta2*v[j] + (1-n.beta2)*g[j]*g[j]

			mPrime := m[j] / (1 - scheduleNext)
			vPrime := v[j] / biasCorrection2

			mBar := (1-muT)*gPrime + muNext*mPrime

			w[j] -= n.lr * mBar / (math.Sqrt(vPrime) + n.eps)
		}
	}

	n.mSchedule = scheduleT
	n.stepCount++
	return nil
}

func (n *nadamState) LearningRate() float64 {
	return n.lr
}

func (n *nadamState) SetLearningRate(lr float64) {
	n.lr = lr
}

func (n *nadamState) StepCount() uint64 {
	return n.stepCount
}
