// Package checkpoints persists a complete model state - architecture,
// weights, training progress, and optimizer configuration - as a single
// JSON document.
package checkpoints

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/optima-ml/optima/layers"
	"github.com/optima-ml/optima/optimizer"
)

// CheckpointFormat defines the serialization format
type CheckpointFormat int

const (
	FormatJSON CheckpointFormat = iota
)

func (cf CheckpointFormat) String() string {
	switch cf {
	case FormatJSON:
		return "JSON"
	default:
		return "Unknown"
	}
}

// Checkpoint represents a complete model state including weights, optimizer
// configuration, and training metadata
type Checkpoint struct {
	// Model architecture and weights
	ModelSpec *layers.ModelSpec `json:"model_spec"`
	Weights   []WeightTensor    `json:"weights"`

	// Training state
	TrainingState TrainingState `json:"training_state"`

	// Optimizer configuration
	OptimizerState OptimizerState `json:"optimizer_state"`

	// Metadata
	Metadata CheckpointMetadata `json:"metadata"`
}

// WeightTensor represents a model parameter tensor with its data
type WeightTensor struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
	Layer string    `json:"layer"`
	Type  string    `json:"type"` // "weight" or "bias"
}

// TrainingState captures the current training progress
type TrainingState struct {
	Epoch        int     `json:"epoch"`
	Step         uint64  `json:"step"`
	LearningRate float64 `json:"learning_rate"`
	BestLoss     float64 `json:"best_loss,omitempty"`
}

// OptimizerState captures the optimizer configuration. Spec holds the
// protobuf-encoded hyperparameter mapping produced by
// optimizer.Spec.MarshalBinary; Type duplicates the variant name for
// human-readable inspection of the JSON.
type OptimizerState struct {
	Type string `json:"type"`
	Spec []byte `json:"spec"`
}

// CheckpointMetadata carries provenance information
type CheckpointMetadata struct {
	Version     string    `json:"version"`
	Framework   string    `json:"framework"`
	CreatedAt   time.Time `json:"created_at"`
	Description string    `json:"description,omitempty"`
	Loss        string    `json:"loss,omitempty"`
	Metrics     []string  `json:"metrics,omitempty"`
}

// NewOptimizerState encodes an optimizer spec for embedding in a checkpoint
func NewOptimizerState(spec *optimizer.Spec) (OptimizerState, error) {
	data, err := spec.MarshalBinary()
	if err != nil {
		return OptimizerState{}, fmt.Errorf("checkpoints: failed to encode optimizer spec: %v", err)
	}
	return OptimizerState{Type: spec.Type().String(), Spec: data}, nil
}

// DecodeOptimizerSpec recovers the validated optimizer spec from a checkpoint
func (s OptimizerState) DecodeOptimizerSpec() (*optimizer.Spec, error) {
	spec, err := optimizer.UnmarshalSpec(s.Spec)
	if err != nil {
		return nil, fmt.Errorf("checkpoints: failed to decode optimizer spec: %v", err)
	}
	if spec.Type().String() != s.Type {
		return nil, fmt.Errorf("checkpoints: optimizer type mismatch: header says %s, spec decodes to %s", s.Type, spec.Type())
	}
	return spec, nil
}

// Validate checks internal consistency before save or after load
func (c *Checkpoint) Validate() error {
	if c.ModelSpec == nil || !c.ModelSpec.Compiled {
		return fmt.Errorf("checkpoints: checkpoint needs a compiled model spec")
	}
	if len(c.Weights) != len(c.ModelSpec.ParameterShapes) {
		return fmt.Errorf("checkpoints: %d weight tensors for %d parameter shapes",
			len(c.Weights), len(c.ModelSpec.ParameterShapes))
	}
	for i, weight := range c.Weights {
		expected := 1
		for _, dim := range c.ModelSpec.ParameterShapes[i] {
			expected *= dim
		}
		if len(weight.Data) != expected {
			return fmt.Errorf("checkpoints: weight %s has %d elements, expected %d",
				weight.Name, len(weight.Data), expected)
		}
	}
	if len(c.OptimizerState.Spec) == 0 {
		return fmt.Errorf("checkpoints: checkpoint is missing its optimizer state")
	}
	return nil
}

// SaveCheckpoint writes a checkpoint to disk
func SaveCheckpoint(checkpoint *Checkpoint, path string) error {
	if err := checkpoint.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoints: failed to encode checkpoint: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("checkpoints: failed to write %s: %v", path, err)
	}
	return nil
}

// LoadCheckpoint reads and validates a checkpoint from disk
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoints: failed to read %s: %v", path, err)
	}

	var checkpoint Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return nil, fmt.Errorf("checkpoints: failed to parse %s: %v", path, err)
	}
	if err := checkpoint.Validate(); err != nil {
		return nil, err
	}
	return &checkpoint, nil
}
