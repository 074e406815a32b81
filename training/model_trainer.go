// Package training interprets layer specifications as a runnable model:
// compiling a model spec together with an optimizer spec, loss, and metrics,
// then fitting, evaluating, and predicting over tabular data.
package training

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/optima-ml/optima/layers"
	"github.com/optima-ml/optima/optimizer"
)

// layerOp is the executable view of one LayerSpec
type layerOp struct {
	layerType layers.LayerType
	weightIdx int // index into weights for a Dense kernel, -1 otherwise
	biasIdx   int // index into weights for a Dense bias, -1 when absent
	dropRate  float64
}

// CompiledModel binds a model spec to initialized weights, an optimizer
// built from its spec, a loss, and metrics. It is the consumer of a
// validated optimizer.Spec.
type CompiledModel struct {
	modelSpec *layers.ModelSpec
	optSpec   *optimizer.Spec
	opt       optimizer.Optimizer
	loss      Loss
	metrics   []Metric

	ops        []layerOp
	weights    []*mat.Dense // kernels as in x out, biases as 1 x out
	fusedFinal bool         // final activation folded into the loss gradient
	rng        *rand.Rand
	epoch      int
}

// History records the mean training loss per epoch
type History struct {
	Loss []float64
}

// CompileModel consumes a compiled model spec and a validated optimizer spec
// and produces a trainable model. lossName and metricNames follow the
// canonical names understood by LossByName and MetricByName.
//
// Weight initialization is randomized; use CompileModelSeeded for
// reproducible runs.
func CompileModel(model *layers.ModelSpec, optSpec *optimizer.Spec, lossName string, metricNames []string) (*CompiledModel, error) {
	return CompileModelSeeded(model, optSpec, lossName, metricNames, time.Now().UnixNano())
}

// CompileModelSeeded is CompileModel with a fixed seed for weight
// initialization and dropout masks.
func CompileModelSeeded(model *layers.ModelSpec, optSpec *optimizer.Spec, lossName string, metricNames []string, seed int64) (*CompiledModel, error) {
	if model == nil || !model.Compiled {
		return nil, fmt.Errorf("training: model spec must be compiled first")
	}
	if optSpec == nil {
		return nil, fmt.Errorf("training: optimizer spec cannot be nil")
	}

	loss, err := LossByName(lossName)
	if err != nil {
		return nil, err
	}

	metrics := make([]Metric, 0, len(metricNames))
	for _, name := range metricNames {
		metric, err := MetricByName(name)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, metric)
	}

	opt, err := optimizer.NewFromSpec(optSpec, model.ParameterShapes)
	if err != nil {
		return nil, err
	}

	cm := &CompiledModel{
		modelSpec: model,
		optSpec:   optSpec,
		opt:       opt,
		loss:      loss,
		metrics:   metrics,
		rng:       rand.New(rand.NewSource(seed)),
	}

	if err := cm.buildOps(); err != nil {
		return nil, err
	}
	cm.initWeights()
	cm.fusedFinal = cm.detectFusedFinal()

	return cm, nil
}

// buildOps converts layer specs into executable ops and checks placement
// constraints the builder cannot see (loss pairing).
func (cm *CompiledModel) buildOps() error {
	weightIdx := 0
	for i, layer := range cm.modelSpec.Layers {
		op := layerOp{layerType: layer.Type, weightIdx: -1, biasIdx: -1}

		switch layer.Type {
		case layers.Dense:
			op.weightIdx = weightIdx
			weightIdx++
			if useBias, _ := layer.Parameters["use_bias"].(bool); useBias {
				op.biasIdx = weightIdx
				weightIdx++
			}
		case layers.Dropout:
			rate, ok := layer.Parameters["rate"].(float64)
			if !ok || rate < 0 || rate >= 1 {
				return fmt.Errorf("training: dropout layer %s needs a rate in [0, 1), got %v", layer.Name, layer.Parameters["rate"])
			}
			op.dropRate = rate
		case layers.Softmax:
			if i != len(cm.modelSpec.Layers)-1 || cm.loss.Name() != "categorical_crossentropy" {
				return fmt.Errorf("training: softmax is only supported as the final activation with categorical_crossentropy")
			}
		}

		cm.ops = append(cm.ops, op)
	}
	return nil
}

// initWeights applies Xavier-uniform initialization to kernels and zeros to
// biases.
func (cm *CompiledModel) initWeights() {
	cm.weights = make([]*mat.Dense, len(cm.modelSpec.ParameterShapes))
	for i, shape := range cm.modelSpec.ParameterShapes {
		if len(shape) == 2 {
			in, out := shape[0], shape[1]
			data := make([]float64, in*out)
			limit := math.Sqrt(6.0 / float64(in+out))
			for j := range data {
				data[j] = (cm.rng.Float64()*2 - 1) * limit
			}
			cm.weights[i] = mat.NewDense(in, out, data)
		} else {
			cm.weights[i] = mat.NewDense(1, shape[0], make([]float64, shape[0]))
		}
	}
}

// detectFusedFinal reports whether the loss gradient can be taken directly
// with respect to the final pre-activation (sigmoid+BCE, softmax+CCE).
func (cm *CompiledModel) detectFusedFinal() bool {
	if len(cm.ops) == 0 {
		return false
	}
	last := cm.ops[len(cm.ops)-1].layerType
	switch {
	case last == layers.Sigmoid && cm.loss.Name() == "binary_crossentropy":
		return true
	case last == layers.Softmax && cm.loss.Name() == "categorical_crossentropy":
		return true
	}
	return false
}

// forward runs the model over a batch. It returns the output of every layer
// (activations[0] is the input) and, in training mode, the dropout masks.
func (cm *CompiledModel) forward(input *mat.Dense, train bool) ([]*mat.Dense, map[int]*mat.Dense) {
	activations := make([]*mat.Dense, 0, len(cm.ops)+1)
	activations = append(activations, input)
	masks := make(map[int]*mat.Dense)

	current := input
	for opIdx, op := range cm.ops {
		rows, cols := current.Dims()
		var next *mat.Dense

		switch op.layerType {
		case layers.Dense:
			w := cm.weights[op.weightIdx]
			_, out := w.Dims()
			next = mat.NewDense(rows, out, nil)
			next.Mul(current, w)
			if op.biasIdx >= 0 {
				bias := cm.weights[op.biasIdx].RawMatrix().Data
				data := next.RawMatrix().Data
				for r := 0; r < rows; r++ {
					row := data[r*out : (r+1)*out]
					for c := range row {
						row[c] += bias[c]
					}
				}
			}
		case layers.ReLU:
			next = applyElementwise(current, func(v float64) float64 {
				if v < 0 {
					return 0
				}
				return v
			})
		case layers.Sigmoid:
			next = applyElementwise(current, func(v float64) float64 {
				return 1 / (1 + math.Exp(-v))
			})
		case layers.Tanh:
			next = applyElementwise(current, math.Tanh)
		case layers.Softmax:
			next = softmaxRows(current)
		case layers.Dropout:
			if train && op.dropRate > 0 {
				mask := mat.NewDense(rows, cols, nil)
				keep := 1 - op.dropRate
				maskData := mask.RawMatrix().Data
				for j := range maskData {
					if cm.rng.Float64() < keep {
						maskData[j] = 1 / keep
					}
				}
				next = mat.NewDense(rows, cols, nil)
				next.MulElem(current, mask)
				masks[opIdx] = mask
			} else {
				next = current
			}
		}

		activations = append(activations, next)
		current = next
	}

	return activations, masks
}

// backward computes gradients for every parameter tensor, aligned with the
// weights slice.
func (cm *CompiledModel) backward(activations []*mat.Dense, masks map[int]*mat.Dense, targets *mat.Dense) [][]float64 {
	grads := make([][]float64, len(cm.weights))
	predictions := activations[len(activations)-1]

	var delta *mat.Dense
	if cm.fusedFinal {
		// d(loss)/d(pre-activation) collapses to (p - y) scaled by the
		// loss's batch averaging
		rows, cols := predictions.Dims()
		delta = mat.NewDense(rows, cols, nil)
		delta.Sub(predictions, targets)
		scale := 1.0 / float64(rows)
		if cm.loss.Name() == "binary_crossentropy" {
			scale = 1.0 / float64(rows*cols)
		}
		delta.Scale(scale, delta)
	} else {
		delta = cm.loss.Gradient(predictions, targets)
	}

	for i := len(cm.ops) - 1; i >= 0; i-- {
		op := cm.ops[i]
		output := activations[i+1]

		switch op.layerType {
		case layers.Dense:
			input := activations[i]
			w := cm.weights[op.weightIdx]
			in, out := w.Dims()

			gradW := mat.NewDense(in, out, nil)
			gradW.Mul(input.T(), delta)
			grads[op.weightIdx] = gradW.RawMatrix().Data

			if op.biasIdx >= 0 {
				rows, _ := delta.Dims()
				gradB := make([]float64, out)
				deltaData := delta.RawMatrix().Data
				for r := 0; r < rows; r++ {
					row := deltaData[r*out : (r+1)*out]
					for c := range row {
						gradB[c] += row[c]
					}
				}
				grads[op.biasIdx] = gradB
			}

			if i > 0 {
				rows, _ := delta.Dims()
				next := mat.NewDense(rows, in, nil)
				next.Mul(delta, w.T())
				delta = next
			}
		case layers.ReLU:
			delta = mulDerivative(delta, output, func(a float64) float64 {
				if a > 0 {
					return 1
				}
				return 0
			})
		case layers.Sigmoid:
			if cm.fusedFinal && i == len(cm.ops)-1 {
				break // gradient already taken at the pre-activation
			}
			delta = mulDerivative(delta, output, func(a float64) float64 {
				return a * (1 - a)
			})
		case layers.Tanh:
			delta = mulDerivative(delta, output, func(a float64) float64 {
				return 1 - a*a
			})
		case layers.Softmax:
			// only reachable in the fused configuration; gradient already
			// taken at the pre-activation
		case layers.Dropout:
			if mask, ok := masks[i]; ok {
				rows, cols := delta.Dims()
				next := mat.NewDense(rows, cols, nil)
				next.MulElem(delta, mask)
				delta = next
			}
		}
	}

	return grads
}

// Fit trains the model with mini-batch gradient descent. x carries one
// feature row and y one label row per sample.
func (cm *CompiledModel) Fit(x, y [][]float64, epochs, batchSize int) (*History, error) {
	dataset, err := NewTabularDataset(x, y)
	if err != nil {
		return nil, err
	}
	return cm.FitDataset(dataset, epochs, batchSize)
}

// FitDataset trains over an arbitrary Dataset
func (cm *CompiledModel) FitDataset(dataset Dataset, epochs, batchSize int) (*History, error) {
	if epochs <= 0 {
		return nil, fmt.Errorf("training: epochs must be positive, got %d", epochs)
	}

	loader, err := NewDataLoader(dataset, batchSize, true, cm.rng.Int63())
	if err != nil {
		return nil, err
	}

	history := &History{}
	for epoch := 0; epoch < epochs; epoch++ {
		loader.Reset()

		epochLoss := 0.0
		batches := 0
		for {
			batch, err := loader.Next()
			if err != nil {
				return nil, err
			}
			if batch == nil {
				break
			}

			loss, err := cm.trainStep(batch)
			if err != nil {
				return nil, err
			}
			epochLoss += loss
			batches++
		}

		cm.epoch++
		history.Loss = append(history.Loss, epochLoss/float64(batches))
	}

	return history, nil
}

// trainStep runs forward, backward, and one optimizer step over a batch
func (cm *CompiledModel) trainStep(batch *Batch) (float64, error) {
	input, err := denseFromRows(batch.Features)
	if err != nil {
		return 0, err
	}
	targets, err := denseFromRows(batch.Labels)
	if err != nil {
		return 0, err
	}

	activations, masks := cm.forward(input, true)
	predictions := activations[len(activations)-1]
	loss := cm.loss.Compute(predictions, targets)

	grads := cm.backward(activations, masks, targets)

	flatWeights := make([][]float64, len(cm.weights))
	for i, w := range cm.weights {
		flatWeights[i] = w.RawMatrix().Data
	}
	if err := cm.opt.Step(flatWeights, grads); err != nil {
		return 0, err
	}

	return loss, nil
}

// Evaluate computes the loss and all compiled metrics over a dataset
func (cm *CompiledModel) Evaluate(x, y [][]float64) (map[string]float64, error) {
	input, err := denseFromRows(x)
	if err != nil {
		return nil, err
	}
	targets, err := denseFromRows(y)
	if err != nil {
		return nil, err
	}

	activations, _ := cm.forward(input, false)
	predictions := activations[len(activations)-1]

	results := map[string]float64{
		"loss": cm.loss.Compute(predictions, targets),
	}
	for _, metric := range cm.metrics {
		results[metric.Name()] = metric.Compute(predictions, targets)
	}
	return results, nil
}

// Predict runs inference and returns one output row per sample
func (cm *CompiledModel) Predict(x [][]float64) ([][]float64, error) {
	input, err := denseFromRows(x)
	if err != nil {
		return nil, err
	}

	activations, _ := cm.forward(input, false)
	predictions := activations[len(activations)-1]

	rows, cols := predictions.Dims()
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = make([]float64, cols)
		copy(out[i], predictions.RawMatrix().Data[i*cols:(i+1)*cols])
	}
	return out, nil
}

// ModelSpec returns the architecture this model was compiled from
func (cm *CompiledModel) ModelSpec() *layers.ModelSpec {
	return cm.modelSpec
}

// OptimizerSpec returns the optimizer configuration this model was compiled
// with
func (cm *CompiledModel) OptimizerSpec() *optimizer.Spec {
	return cm.optSpec
}

// LossName returns the compiled loss function's canonical name
func (cm *CompiledModel) LossName() string {
	return cm.loss.Name()
}

// MetricNames returns the compiled metrics' canonical names
func (cm *CompiledModel) MetricNames() []string {
	names := make([]string, len(cm.metrics))
	for i, m := range cm.metrics {
		names[i] = m.Name()
	}
	return names
}

// Epoch returns the number of completed training epochs
func (cm *CompiledModel) Epoch() int {
	return cm.epoch
}

// StepCount returns the number of completed optimization steps
func (cm *CompiledModel) StepCount() uint64 {
	return cm.opt.StepCount()
}

// WeightData returns a deep copy of every parameter tensor, flattened
// row-major, in spec order.
func (cm *CompiledModel) WeightData() [][]float64 {
	out := make([][]float64, len(cm.weights))
	for i, w := range cm.weights {
		data := w.RawMatrix().Data
		out[i] = make([]float64, len(data))
		copy(out[i], data)
	}
	return out
}

// SetWeightData overwrites every parameter tensor from flattened row-major
// data in spec order.
func (cm *CompiledModel) SetWeightData(data [][]float64) error {
	if len(data) != len(cm.weights) {
		return fmt.Errorf("training: got %d weight tensors, expected %d", len(data), len(cm.weights))
	}
	for i, values := range data {
		dst := cm.weights[i].RawMatrix().Data
		if len(values) != len(dst) {
			return fmt.Errorf("training: weight tensor %d has %d elements, expected %d", i, len(values), len(dst))
		}
		copy(dst, values)
	}
	return nil
}

// denseFromRows builds a batch matrix from per-sample rows
func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("training: empty batch")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("training: row %d has %d columns, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

func applyElementwise(m *mat.Dense, fn func(float64) float64) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	src := m.RawMatrix().Data
	dst := out.RawMatrix().Data
	for i := range src {
		dst[i] = fn(src[i])
	}
	return out
}

// mulDerivative scales delta by an activation derivative computed from the
// activation's own output
func mulDerivative(delta, output *mat.Dense, derivative func(float64) float64) *mat.Dense {
	rows, cols := delta.Dims()
	out := mat.NewDense(rows, cols, nil)
	deltaData := delta.RawMatrix().Data
	outputData := output.RawMatrix().Data
	dst := out.RawMatrix().Data
	for i := range dst {
		dst[i] = deltaData[i] * derivative(outputData[i])
	}
	return out
}

// softmaxRows applies a numerically stable softmax per row
func softmaxRows(m *mat.Dense) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	src := m.RawMatrix().Data
	dst := out.RawMatrix().Data
	for r := 0; r < rows; r++ {
		row := src[r*cols : (r+1)*cols]
		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		sum := 0.0
		outRow := dst[r*cols : (r+1)*cols]
		for c, v := range row {
			outRow[c] = math.Exp(v - maxVal)
			sum += outRow[c]
		}
		for c := range outRow {
			outRow[c] /= sum
		}
	}
	return out
}
