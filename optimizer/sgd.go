package optimizer

// SGDConfig holds configuration for stochastic gradient descent with
// optional momentum and Nesterov lookahead.
type SGDConfig struct {
	LearningRate float64 // step size, >= 0
	Momentum     float64 // momentum coefficient, >= 0
	Decay        float64 // time-based learning rate decay, >= 0
	Nesterov     bool    // apply lookahead-gradient correction
}

// DefaultSGDConfig returns default SGD configuration
func DefaultSGDConfig() SGDConfig {
	return SGDConfig{
		LearningRate: 0.01,
		Momentum:     0.0,
		Decay:        0.0,
		Nesterov:     false,
	}
}

// NewSGD validates config and returns an immutable SGD spec.
// Fails with an InvalidHyperparameterError if any value is out of range.
func NewSGD(config SGDConfig) (*Spec, error) {
	if err := checkNonNegative("lr", config.LearningRate); err != nil {
		return nil, err
	}
	if err := checkNonNegative("momentum", config.Momentum); err != nil {
		return nil, err
	}
	if err := checkNonNegative("decay", config.Decay); err != nil {
		return nil, err
	}
	return &Spec{optType: SGD, config: config}, nil
}

// sgdState applies momentum SGD updates.
//
// Update rule:
//
//	v = momentum*v - lr*g
//	w += v                     (plain momentum)
//	w += momentum*v - lr*g     (nesterov)
type sgdState struct {
	lr         float64
	momentum   float64
	decay      float64
	nesterov   bool
	sizes      []int
	velocities [][]float64
	stepCount  uint64
}

func newSGDState(config SGDConfig, sizes []int) *sgdState {
	return &sgdState{
		lr:         config.LearningRate,
		momentum:   config.Momentum,
		decay:      config.Decay,
		nesterov:   config.Nesterov,
		sizes:      sizes,
		velocities: zeroBuffers(sizes),
	}
}

func (s *sgdState) Step(weights, grads [][]float64) error {
	if err := checkStepArgs(weights, grads, s.sizes); err != nil {
		return err
	}

	lr := decayedLR(s.lr, s.decay, s.stepCount)

	for i := range weights {
		w := weights[i]
		g := grads[i]
		v := s.velocities[i]

		for j := range w {
			v[j] = s.momentum*v[j] - lr*g[j]
			if s.nesterov {
				w[j] += s.momentum*v[j] - lr*g[j]
			} else {
				w[j] += v[j]
			}
		}
	}

	s.stepCount++
	return nil
}

func (s *sgdState) LearningRate() float64 {
	return s.lr
}

func (s *sgdState) SetLearningRate(lr float64) {
	s.lr = lr
}

func (s *sgdState) StepCount() uint64 {
	return s.stepCount
}
