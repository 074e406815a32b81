package training

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// clampProb keeps probabilities away from 0 and 1 before taking logs
const clampProb = 1e-7

// Loss computes a scalar training objective and its gradient with respect to
// the model predictions. Predictions and targets are batch-major matrices
// (one row per sample). Gradients include the batch averaging factor, so the
// backward pass can consume them directly.
type Loss interface {
	Name() string
	Compute(predictions, targets *mat.Dense) float64
	Gradient(predictions, targets *mat.Dense) *mat.Dense
}

// LossByName resolves a loss function from its canonical name.
// Supported: "mean_squared_error", "binary_crossentropy",
// "categorical_crossentropy".
func LossByName(name string) (Loss, error) {
	switch name {
	case "mean_squared_error", "mse":
		return meanSquaredError{}, nil
	case "binary_crossentropy":
		return binaryCrossEntropy{}, nil
	case "categorical_crossentropy":
		return categoricalCrossEntropy{}, nil
	default:
		return nil, fmt.Errorf("training: unknown loss %q", name)
	}
}

type meanSquaredError struct{}

func (meanSquaredError) Name() string { return "mean_squared_error" }

func (meanSquaredError) Compute(predictions, targets *mat.Dense) float64 {
	rows, cols := predictions.Dims()
	sum := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			diff := predictions.At(i, j) - targets.At(i, j)
			sum += diff * diff
		}
	}
	return sum / float64(rows*cols)
}

func (meanSquaredError) Gradient(predictions, targets *mat.Dense) *mat.Dense {
	rows, cols := predictions.Dims()
	grad := mat.NewDense(rows, cols, nil)
	scale := 2.0 / float64(rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			grad.Set(i, j, scale*(predictions.At(i, j)-targets.At(i, j)))
		}
	}
	return grad
}

type binaryCrossEntropy struct{}

func (binaryCrossEntropy) Name() string { return "binary_crossentropy" }

func (binaryCrossEntropy) Compute(predictions, targets *mat.Dense) float64 {
	rows, cols := predictions.Dims()
	sum := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			p := clamp(predictions.At(i, j))
			y := targets.At(i, j)
			sum += -(y*math.Log(p) + (1-y)*math.Log(1-p))
		}
	}
	return sum / float64(rows*cols)
}

func (binaryCrossEntropy) Gradient(predictions, targets *mat.Dense) *mat.Dense {
	rows, cols := predictions.Dims()
	grad := mat.NewDense(rows, cols, nil)
	scale := 1.0 / float64(rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			p := clamp(predictions.At(i, j))
			y := targets.At(i, j)
			grad.Set(i, j, scale*(p-y)/(p*(1-p)))
		}
	}
	return grad
}

type categoricalCrossEntropy struct{}

func (categoricalCrossEntropy) Name() string { return "categorical_crossentropy" }

func (categoricalCrossEntropy) Compute(predictions, targets *mat.Dense) float64 {
	rows, cols := predictions.Dims()
	sum := 0.0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if y := targets.At(i, j); y != 0 {
				sum += -y * math.Log(clamp(predictions.At(i, j)))
			}
		}
	}
	return sum / float64(rows)
}

func (categoricalCrossEntropy) Gradient(predictions, targets *mat.Dense) *mat.Dense {
	rows, cols := predictions.Dims()
	grad := mat.NewDense(rows, cols, nil)
	scale := 1.0 / float64(rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if y := targets.At(i, j); y != 0 {
				grad.Set(i, j, -scale*y/clamp(predictions.At(i, j)))
			}
		}
	}
	return grad
}

func clamp(p float64) float64 {
	if p < clampProb {
		return clampProb
	}
	if p > 1-clampProb {
		return 1 - clampProb
	}
	return p
}
