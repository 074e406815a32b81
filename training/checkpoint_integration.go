package training

import (
	"fmt"
	"time"

	"github.com/optima-ml/optima/checkpoints"
	"github.com/optima-ml/optima/layers"
)

// frameworkName identifies checkpoints produced by this module
const frameworkName = "optima"

// BuildCheckpoint captures the full state of a compiled model
func BuildCheckpoint(cm *CompiledModel, description string) (*checkpoints.Checkpoint, error) {
	optimizerState, err := checkpoints.NewOptimizerState(cm.OptimizerSpec())
	if err != nil {
		return nil, err
	}

	return &checkpoints.Checkpoint{
		ModelSpec: cm.ModelSpec(),
		Weights:   collectWeights(cm),
		TrainingState: checkpoints.TrainingState{
			Epoch:        cm.Epoch(),
			Step:         cm.StepCount(),
			LearningRate: cm.opt.LearningRate(),
		},
		OptimizerState: optimizerState,
		Metadata: checkpoints.CheckpointMetadata{
			Version:     "1.0.0",
			Framework:   frameworkName,
			CreatedAt:   time.Now().UTC(),
			Description: description,
			Loss:        cm.LossName(),
			Metrics:     cm.MetricNames(),
		},
	}, nil
}

// RestoreCheckpoint rebuilds a compiled model from a checkpoint. The
// restored model carries the saved weights and optimizer configuration;
// optimizer accumulator state restarts from zero.
func RestoreCheckpoint(checkpoint *checkpoints.Checkpoint) (*CompiledModel, error) {
	if err := checkpoint.Validate(); err != nil {
		return nil, err
	}

	optSpec, err := checkpoint.OptimizerState.DecodeOptimizerSpec()
	if err != nil {
		return nil, err
	}

	lossName := checkpoint.Metadata.Loss
	if lossName == "" {
		return nil, fmt.Errorf("training: checkpoint does not name its loss function")
	}

	cm, err := CompileModel(checkpoint.ModelSpec, optSpec, lossName, checkpoint.Metadata.Metrics)
	if err != nil {
		return nil, err
	}

	data := make([][]float64, len(checkpoint.Weights))
	for i, weight := range checkpoint.Weights {
		data[i] = weight.Data
	}
	if err := cm.SetWeightData(data); err != nil {
		return nil, err
	}
	cm.epoch = checkpoint.TrainingState.Epoch

	return cm, nil
}

// SaveModel writes a compiled model and its training state to a JSON
// checkpoint file
func SaveModel(cm *CompiledModel, path, description string) error {
	checkpoint, err := BuildCheckpoint(cm, description)
	if err != nil {
		return err
	}
	return checkpoints.SaveCheckpoint(checkpoint, path)
}

// LoadModel restores a compiled model from a JSON checkpoint file
func LoadModel(path string) (*CompiledModel, error) {
	checkpoint, err := checkpoints.LoadCheckpoint(path)
	if err != nil {
		return nil, err
	}
	return RestoreCheckpoint(checkpoint)
}

// collectWeights names and copies every parameter tensor in spec order
func collectWeights(cm *CompiledModel) []checkpoints.WeightTensor {
	data := cm.WeightData()
	tensors := make([]checkpoints.WeightTensor, 0, len(data))

	idx := 0
	for _, layer := range cm.ModelSpec().Layers {
		if layer.Type != layers.Dense {
			continue
		}
		for _, shape := range layer.ParameterShapes {
			kind := "weight"
			if len(shape) == 1 {
				kind = "bias"
			}
			tensors = append(tensors, checkpoints.WeightTensor{
				Name:  fmt.Sprintf("%s.%s", layer.Name, kind),
				Shape: shape,
				Data:  data[idx],
				Layer: layer.Name,
				Type:  kind,
			})
			idx++
		}
	}
	return tensors
}
