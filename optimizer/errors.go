package optimizer

import (
	"errors"
	"fmt"
)

// ErrInvalidHyperparameter is the sentinel wrapped by every
// InvalidHyperparameterError. Check with errors.Is:
//
//	if errors.Is(err, optimizer.ErrInvalidHyperparameter) { ... }
var ErrInvalidHyperparameter = errors.New("optimizer: invalid hyperparameter")

// InvalidHyperparameterError reports a hyperparameter whose supplied value
// violates its documented range. Construction of a Spec fails with this error
// before anything is built; no partially-configured spec is ever produced.
type InvalidHyperparameterError struct {
	Field string  // hyperparameter name, e.g. "lr", "beta_1"
	Value float64 // the offending value
	Bound string  // the violated constraint, e.g. "must be >= 0"
}

func (e *InvalidHyperparameterError) Error() string {
	return fmt.Sprintf("optimizer: invalid hyperparameter %s=%v: %s", e.Field, e.Value, e.Bound)
}

func (e *InvalidHyperparameterError) Unwrap() error {
	return ErrInvalidHyperparameter
}

// checkNonNegative validates fields constrained to [0, +inf)
func checkNonNegative(field string, value float64) error {
	if value < 0 {
		return &InvalidHyperparameterError{Field: field, Value: value, Bound: "must be >= 0"}
	}
	return nil
}

// checkOpenUnit validates fields constrained to the open interval (0, 1)
func checkOpenUnit(field string, value float64) error {
	if value <= 0 || value >= 1 {
		return &InvalidHyperparameterError{Field: field, Value: value, Bound: "must lie in (0, 1)"}
	}
	return nil
}

// checkEpsilon validates an optional epsilon; nil means "use engine default"
// and is always valid
func checkEpsilon(eps *float64) error {
	if eps == nil {
		return nil
	}
	return checkNonNegative("epsilon", *eps)
}
