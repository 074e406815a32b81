package training

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Metric evaluates model predictions against targets, returning a scalar in
// batch-mean form.
type Metric interface {
	Name() string
	Compute(predictions, targets *mat.Dense) float64
}

// MetricByName resolves a metric from its canonical name.
// Supported: "accuracy", "mean_absolute_error".
func MetricByName(name string) (Metric, error) {
	switch name {
	case "accuracy", "acc":
		return accuracy{}, nil
	case "mean_absolute_error", "mae":
		return meanAbsoluteError{}, nil
	default:
		return nil, fmt.Errorf("training: unknown metric %q", name)
	}
}

// accuracy is threshold accuracy for single-column outputs and argmax
// accuracy for one-hot outputs.
type accuracy struct{}

func (accuracy) Name() string { return "accuracy" }

func (accuracy) Compute(predictions, targets *mat.Dense) float64 {
	rows, cols := predictions.Dims()
	hits := make([]float64, rows)

	for i := 0; i < rows; i++ {
		var correct bool
		if cols == 1 {
			correct = (predictions.At(i, 0) > 0.5) == (targets.At(i, 0) > 0.5)
		} else {
			correct = argmaxRow(predictions, i, cols) == argmaxRow(targets, i, cols)
		}
		if correct {
			hits[i] = 1
		}
	}
	return stat.Mean(hits, nil)
}

func argmaxRow(m *mat.Dense, row, cols int) int {
	best := 0
	bestVal := m.At(row, 0)
	for j := 1; j < cols; j++ {
		if v := m.At(row, j); v > bestVal {
			best = j
			bestVal = v
		}
	}
	return best
}

type meanAbsoluteError struct{}

func (meanAbsoluteError) Name() string { return "mean_absolute_error" }

func (meanAbsoluteError) Compute(predictions, targets *mat.Dense) float64 {
	rows, cols := predictions.Dims()
	perSample := make([]float64, rows)
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			diff := predictions.At(i, j) - targets.At(i, j)
			if diff < 0 {
				diff = -diff
			}
			sum += diff
		}
		perSample[i] = sum / float64(cols)
	}
	return stat.Mean(perSample, nil)
}
