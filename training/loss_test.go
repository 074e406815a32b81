package training

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLossByName(t *testing.T) {
	for _, name := range []string{"mean_squared_error", "mse", "binary_crossentropy", "categorical_crossentropy"} {
		loss, err := LossByName(name)
		require.NoError(t, err, name)
		require.NotNil(t, loss)
	}

	_, err := LossByName("hinge")
	assert.Error(t, err)
}

func TestMeanSquaredError(t *testing.T) {
	loss, err := LossByName("mean_squared_error")
	require.NoError(t, err)

	pred := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	target := mat.NewDense(2, 2, []float64{0, 2, 3, 2})

	// ((1)^2 + 0 + 0 + (2)^2) / 4
	assert.InDelta(t, 1.25, loss.Compute(pred, target), 1e-12)

	grad := loss.Gradient(pred, target)
	// 2*(pred-target)/4
	assert.InDelta(t, 0.5, grad.At(0, 0), 1e-12)
	assert.InDelta(t, 0.0, grad.At(0, 1), 1e-12)
	assert.InDelta(t, 1.0, grad.At(1, 1), 1e-12)
}

func TestBinaryCrossEntropy(t *testing.T) {
	loss, err := LossByName("binary_crossentropy")
	require.NoError(t, err)

	pred := mat.NewDense(2, 1, []float64{0.9, 0.2})
	target := mat.NewDense(2, 1, []float64{1, 0})

	expected := -(math.Log(0.9) + math.Log(0.8)) / 2
	assert.InDelta(t, expected, loss.Compute(pred, target), 1e-12)

	// confident wrong predictions must not produce NaN or Inf
	worst := mat.NewDense(1, 1, []float64{0.0})
	hot := mat.NewDense(1, 1, []float64{1.0})
	v := loss.Compute(worst, hot)
	assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))

	grad := loss.Gradient(worst, hot)
	assert.False(t, math.IsNaN(grad.At(0, 0)) || math.IsInf(grad.At(0, 0), 0))
}

func TestCategoricalCrossEntropy(t *testing.T) {
	loss, err := LossByName("categorical_crossentropy")
	require.NoError(t, err)

	pred := mat.NewDense(2, 3, []float64{
		0.7, 0.2, 0.1,
		0.1, 0.1, 0.8,
	})
	target := mat.NewDense(2, 3, []float64{
		1, 0, 0,
		0, 0, 1,
	})

	expected := -(math.Log(0.7) + math.Log(0.8)) / 2
	assert.InDelta(t, expected, loss.Compute(pred, target), 1e-12)

	grad := loss.Gradient(pred, target)
	assert.InDelta(t, -1.0/(2*0.7), grad.At(0, 0), 1e-9)
	assert.Zero(t, grad.At(0, 1))
}
