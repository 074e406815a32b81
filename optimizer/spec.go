// Package optimizer provides the catalog of gradient-based optimization
// algorithms supported by the training engine.
//
// Each algorithm is described by a config struct with documented defaults.
// Configs are validated and frozen into an immutable Spec, which the training
// engine consumes at compile time. A Spec can also be turned into a stateful
// updater via NewFromSpec for CPU execution.
package optimizer

// Type identifies one supported optimization algorithm
type Type int

const (
	SGD Type = iota
	RMSProp
	AdaGrad
	AdaDelta
	Adam
	AdaMax
	Nadam
)

func (t Type) String() string {
	switch t {
	case SGD:
		return "SGD"
	case RMSProp:
		return "RMSProp"
	case AdaGrad:
		return "AdaGrad"
	case AdaDelta:
		return "AdaDelta"
	case Adam:
		return "Adam"
	case AdaMax:
		return "AdaMax"
	case Nadam:
		return "Nadam"
	default:
		return "Unknown"
	}
}

// typeByName maps the wire/display name back to the Type tag
var typeByName = map[string]Type{
	"SGD":      SGD,
	"RMSProp":  RMSProp,
	"AdaGrad":  AdaGrad,
	"AdaDelta": AdaDelta,
	"Adam":     Adam,
	"AdaMax":   AdaMax,
	"Nadam":    Nadam,
}

// Spec is an immutable, validated description of one fully-configured
// optimizer. It is produced by the per-variant constructors (NewSGD, NewAdam,
// ...) and holds the variant's typed config; construction is all-or-nothing,
// so a Spec never carries an out-of-range hyperparameter.
type Spec struct {
	optType Type
	config  interface{} // one of the variant config value types
}

// Type returns the algorithm variant this spec describes.
func (s *Spec) Type() Type {
	return s.optType
}

// Params returns the spec's hyperparameter mapping, keyed by the canonical
// hyperparameter names ("lr", "beta_1", ...). Values are float64 or bool.
// An epsilon left unset is reported as an explicit nil entry, distinguishable
// from an explicit 0.0, and means "use the engine default".
//
// The returned map is a fresh copy; mutating it does not affect the spec.
func (s *Spec) Params() map[string]interface{} {
	switch c := s.config.(type) {
	case SGDConfig:
		return map[string]interface{}{
			"lr":       c.LearningRate,
			"momentum": c.Momentum,
			"decay":    c.Decay,
			"nesterov": c.Nesterov,
		}
	case RMSPropConfig:
		return map[string]interface{}{
			"lr":      c.LearningRate,
			"rho":     c.Rho,
			"epsilon": epsilonParam(c.Epsilon),
			"decay":   c.Decay,
		}
	case AdaGradConfig:
		return map[string]interface{}{
			"lr":      c.LearningRate,
			"epsilon": epsilonParam(c.Epsilon),
			"decay":   c.Decay,
		}
	case AdaDeltaConfig:
		return map[string]interface{}{
			"lr":      c.LearningRate,
			"rho":     c.Rho,
			"epsilon": epsilonParam(c.Epsilon),
			"decay":   c.Decay,
		}
	case AdamConfig:
		return map[string]interface{}{
			"lr":      c.LearningRate,
			"beta_1":  c.Beta1,
			"beta_2":  c.Beta2,
			"epsilon": epsilonParam(c.Epsilon),
			"decay":   c.Decay,
			"amsgrad": c.AMSGrad,
		}
	case AdaMaxConfig:
		return map[string]interface{}{
			"lr":      c.LearningRate,
			"beta_1":  c.Beta1,
			"beta_2":  c.Beta2,
			"epsilon": epsilonParam(c.Epsilon),
			"decay":   c.Decay,
		}
	case NadamConfig:
		return map[string]interface{}{
			"lr":             c.LearningRate,
			"beta_1":         c.Beta1,
			"beta_2":         c.Beta2,
			"epsilon":        epsilonParam(c.Epsilon),
			"schedule_decay": c.ScheduleDecay,
		}
	default:
		return map[string]interface{}{}
	}
}

func (s *Spec) String() string {
	return s.optType.String()
}

// epsilonParam converts an optional epsilon into its mapping value:
// nil stays nil ("use engine default"), a set pointer becomes its value.
func epsilonParam(eps *float64) interface{} {
	if eps == nil {
		return nil
	}
	return *eps
}

// Eps is a convenience for setting an explicit epsilon on a config:
//
//	cfg := optimizer.DefaultAdamConfig()
//	cfg.Epsilon = optimizer.Eps(1e-8)
func Eps(v float64) *float64 {
	return &v
}
