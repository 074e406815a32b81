package optimizer

import "fmt"

// DefaultEpsilon is the engine-wide numerical-stability constant used when a
// config leaves Epsilon unset.
const DefaultEpsilon = 1e-7

// Optimizer is the common interface of all stateful updaters built from a
// Spec. Implementations hold per-parameter state buffers (velocities, moment
// estimates, accumulators) and update weights in place.
type Optimizer interface {
	// Step applies one gradient update. weights and grads carry one flat
	// float64 slice per parameter tensor and must match the shapes the
	// updater was constructed with.
	Step(weights, grads [][]float64) error

	// LearningRate returns the current base learning rate.
	LearningRate() float64

	// SetLearningRate updates the base learning rate, for external schedules.
	SetLearningRate(lr float64)

	// StepCount returns the number of completed optimization steps.
	StepCount() uint64
}

// NewFromSpec builds the stateful updater for a validated spec. shapes lists
// the dimensions of every parameter tensor the updater will manage, in the
// order Step will receive them.
func NewFromSpec(spec *Spec, shapes [][]int) (Optimizer, error) {
	if spec == nil {
		return nil, fmt.Errorf("optimizer: spec cannot be nil")
	}
	if len(shapes) == 0 {
		return nil, fmt.Errorf("optimizer: no parameter shapes provided")
	}

	sizes := make([]int, len(shapes))
	for i, shape := range shapes {
		sizes[i] = tensorSize(shape)
		if sizes[i] <= 0 {
			return nil, fmt.Errorf("optimizer: parameter %d has empty shape %v", i, shape)
		}
	}

	switch c := spec.config.(type) {
	case SGDConfig:
		return newSGDState(c, sizes), nil
	case RMSPropConfig:
		return newRMSPropState(c, sizes), nil
	case AdaGradConfig:
		return newAdaGradState(c, sizes), nil
	case AdaDeltaConfig:
		return newAdaDeltaState(c, sizes), nil
	case AdamConfig:
		return newAdamState(c, sizes), nil
	case AdaMaxConfig:
		return newAdaMaxState(c, sizes), nil
	case NadamConfig:
		return newNadamState(c, sizes), nil
	default:
		return nil, fmt.Errorf("optimizer: unsupported spec type %s", spec.optType)
	}
}

// tensorSize computes the element count of a tensor shape
func tensorSize(shape []int) int {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	if len(shape) == 0 {
		return 0
	}
	return size
}

// resolveEpsilon picks the effective epsilon for an optional config value
func resolveEpsilon(eps *float64) float64 {
	if eps == nil {
		return DefaultEpsilon
	}
	return *eps
}

// checkStepArgs validates the per-step slice layout against the construction
// shapes. A mismatch indicates a caller bug, not a recoverable condition, but
// it is reported as an error to match the rest of the training surface.
func checkStepArgs(weights, grads [][]float64, sizes []int) error {
	if len(weights) != len(sizes) {
		return fmt.Errorf("optimizer: got %d weight tensors, expected %d", len(weights), len(sizes))
	}
	if len(grads) != len(sizes) {
		return fmt.Errorf("optimizer: got %d gradient tensors, expected %d", len(grads), len(sizes))
	}
	for i, size := range sizes {
		if len(weights[i]) != size {
			return fmt.Errorf("optimizer: weight tensor %d has %d elements, expected %d", i, len(weights[i]), size)
		}
		if len(grads[i]) != size {
			return fmt.Errorf("optimizer: gradient tensor %d has %d elements, expected %d", i, len(grads[i]), size)
		}
	}
	return nil
}

// zeroBuffers allocates one zeroed float64 buffer per parameter tensor
func zeroBuffers(sizes []int) [][]float64 {
	buffers := make([][]float64, len(sizes))
	for i, size := range sizes {
		buffers[i] = make([]float64, size)
	}
	return buffers
}

// decayedLR computes the effective learning rate under time-based decay:
// lr / (1 + decay * iterations), with iterations counted before the step.
func decayedLR(lr, decay float64, step uint64) float64 {
	if decay == 0 {
		return lr
	}
	return lr / (1 + decay*float64(step))
}
