// Package layers defines model architecture as pure configuration.
// A ModelSpec carries no execution logic; the training package interprets it.
package layers

import "fmt"

// LayerType represents the type of neural network layer
type LayerType int

const (
	Dense LayerType = iota
	ReLU
	Sigmoid
	Tanh
	Softmax
	Dropout
)

func (lt LayerType) String() string {
	switch lt {
	case Dense:
		return "Dense"
	case ReLU:
		return "ReLU"
	case Sigmoid:
		return "Sigmoid"
	case Tanh:
		return "Tanh"
	case Softmax:
		return "Softmax"
	case Dropout:
		return "Dropout"
	default:
		return "Unknown"
	}
}

// LayerSpec defines layer configuration for the training engine.
// This is pure configuration - no execution logic.
type LayerSpec struct {
	Type       LayerType              `json:"type"`
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters"`

	// Shape information (computed during model compilation)
	InputShape  []int `json:"input_shape,omitempty"`
	OutputShape []int `json:"output_shape,omitempty"`

	// Parameter metadata (computed during model compilation)
	ParameterShapes [][]int `json:"parameter_shapes,omitempty"`
	ParameterCount  int64   `json:"parameter_count,omitempty"`
}

// ModelSpec defines a complete neural network model as layer configuration
type ModelSpec struct {
	Layers []LayerSpec `json:"layers"`

	// Compiled model information
	TotalParameters int64   `json:"total_parameters"`
	ParameterShapes [][]int `json:"parameter_shapes"`
	InputShape      []int   `json:"input_shape"`
	OutputShape     []int   `json:"output_shape"`
	Compiled        bool    `json:"compiled"`
}

// ModelBuilder helps construct neural network models
type ModelBuilder struct {
	layers     []LayerSpec
	inputShape []int
	compiled   bool
}

// NewModelBuilder creates a new model builder. inputShape is the shape of a
// single batch, e.g. {batchSize, features} for tabular data.
func NewModelBuilder(inputShape []int) *ModelBuilder {
	return &ModelBuilder{
		layers:     make([]LayerSpec, 0),
		inputShape: inputShape,
		compiled:   false,
	}
}

// AddLayer adds a layer to the model
func (mb *ModelBuilder) AddLayer(layer LayerSpec) *ModelBuilder {
	mb.layers = append(mb.layers, layer)
	mb.compiled = false // Invalidate compilation
	return mb
}

// AddDense adds a fully-connected layer. Input size is computed during
// compilation from the previous layer's output.
func (mb *ModelBuilder) AddDense(outputSize int, useBias bool, name string) *ModelBuilder {
	return mb.AddLayer(LayerSpec{
		Type: Dense,
		Name: name,
		Parameters: map[string]interface{}{
			"output_size": outputSize,
			"use_bias":    useBias,
		},
	})
}

// AddReLU adds a ReLU activation to the model
func (mb *ModelBuilder) AddReLU(name string) *ModelBuilder {
	return mb.AddLayer(LayerSpec{
		Type:       ReLU,
		Name:       name,
		Parameters: map[string]interface{}{},
	})
}

// AddSigmoid adds a Sigmoid activation to the model
func (mb *ModelBuilder) AddSigmoid(name string) *ModelBuilder {
	return mb.AddLayer(LayerSpec{
		Type:       Sigmoid,
		Name:       name,
		Parameters: map[string]interface{}{},
	})
}

// AddTanh adds a Tanh activation to the model
func (mb *ModelBuilder) AddTanh(name string) *ModelBuilder {
	return mb.AddLayer(LayerSpec{
		Type:       Tanh,
		Name:       name,
		Parameters: map[string]interface{}{},
	})
}

// AddSoftmax adds a Softmax activation to the model
func (mb *ModelBuilder) AddSoftmax(name string) *ModelBuilder {
	return mb.AddLayer(LayerSpec{
		Type:       Softmax,
		Name:       name,
		Parameters: map[string]interface{}{},
	})
}

// AddDropout adds a Dropout layer to the model.
// rate is the drop probability (0.0 = no dropout).
func (mb *ModelBuilder) AddDropout(rate float64, name string) *ModelBuilder {
	return mb.AddLayer(LayerSpec{
		Type: Dropout,
		Name: name,
		Parameters: map[string]interface{}{
			"rate": rate,
		},
	})
}

// Compile compiles the model and computes shapes and parameter counts
func (mb *ModelBuilder) Compile() (*ModelSpec, error) {
	if len(mb.layers) == 0 {
		return nil, fmt.Errorf("cannot compile empty model")
	}
	if len(mb.inputShape) != 2 || mb.inputShape[0] <= 0 || mb.inputShape[1] <= 0 {
		return nil, fmt.Errorf("input shape must be {batch, features} with positive dimensions, got %v", mb.inputShape)
	}

	model := &ModelSpec{
		Layers:     make([]LayerSpec, len(mb.layers)),
		InputShape: mb.inputShape,
		Compiled:   false,
	}
	copy(model.Layers, mb.layers)

	currentShape := mb.inputShape
	var allParameterShapes [][]int
	totalParams := int64(0)

	for i := range model.Layers {
		layer := &model.Layers[i]

		layer.InputShape = make([]int, len(currentShape))
		copy(layer.InputShape, currentShape)

		outputShape, paramShapes, paramCount, err := computeLayerInfo(layer, currentShape)
		if err != nil {
			return nil, fmt.Errorf("failed to compute layer %d (%s) info: %v", i, layer.Name, err)
		}

		layer.OutputShape = outputShape
		layer.ParameterShapes = paramShapes
		layer.ParameterCount = paramCount

		allParameterShapes = append(allParameterShapes, paramShapes...)
		totalParams += paramCount

		currentShape = outputShape
	}

	model.OutputShape = currentShape
	model.ParameterShapes = allParameterShapes
	model.TotalParameters = totalParams
	model.Compiled = true
	mb.compiled = true

	return model, nil
}

// computeLayerInfo computes output shape and parameter information for a layer
func computeLayerInfo(layer *LayerSpec, inputShape []int) ([]int, [][]int, int64, error) {
	switch layer.Type {
	case Dense:
		return computeDenseInfo(layer, inputShape)
	case ReLU, Sigmoid, Tanh, Softmax, Dropout:
		// shape passthrough, no learnable parameters
		outputShape := make([]int, len(inputShape))
		copy(outputShape, inputShape)
		return outputShape, nil, 0, nil
	default:
		return nil, nil, 0, fmt.Errorf("unsupported layer type: %s", layer.Type)
	}
}

func computeDenseInfo(layer *LayerSpec, inputShape []int) ([]int, [][]int, int64, error) {
	outputSize, err := intParameter(layer, "output_size")
	if err != nil {
		return nil, nil, 0, err
	}
	if outputSize <= 0 {
		return nil, nil, 0, fmt.Errorf("output_size must be positive, got %d", outputSize)
	}

	inputSize := inputShape[len(inputShape)-1]
	layer.Parameters["input_size"] = inputSize

	outputShape := make([]int, len(inputShape))
	copy(outputShape, inputShape)
	outputShape[len(outputShape)-1] = outputSize

	paramShapes := [][]int{{inputSize, outputSize}}
	paramCount := int64(inputSize * outputSize)

	useBias, _ := layer.Parameters["use_bias"].(bool)
	if useBias {
		paramShapes = append(paramShapes, []int{outputSize})
		paramCount += int64(outputSize)
	}

	return outputShape, paramShapes, paramCount, nil
}

// intParameter reads an integer layer parameter, tolerating the float64 form
// JSON decoding produces.
func intParameter(layer *LayerSpec, key string) (int, error) {
	switch v := layer.Parameters[key].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("layer %s missing %q parameter", layer.Name, key)
	}
}
