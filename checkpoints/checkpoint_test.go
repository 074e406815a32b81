package checkpoints

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optima-ml/optima/layers"
	"github.com/optima-ml/optima/optimizer"
)

func testModelSpec(t *testing.T) *layers.ModelSpec {
	t.Helper()
	model, err := layers.NewModelBuilder([]int{4, 2}).
		AddDense(3, true, "fc1").
		AddReLU("relu").
		AddDense(1, true, "fc2").
		AddSigmoid("sigmoid").
		Compile()
	require.NoError(t, err)
	return model
}

func testCheckpoint(t *testing.T) *Checkpoint {
	t.Helper()
	model := testModelSpec(t)

	spec, err := optimizer.NewAdam(optimizer.DefaultAdamConfig())
	require.NoError(t, err)
	optState, err := NewOptimizerState(spec)
	require.NoError(t, err)

	weights := make([]WeightTensor, len(model.ParameterShapes))
	for i, shape := range model.ParameterShapes {
		size := 1
		for _, dim := range shape {
			size *= dim
		}
		data := make([]float64, size)
		for j := range data {
			data[j] = float64(i) + float64(j)*0.25
		}
		weights[i] = WeightTensor{
			Name:  "tensor",
			Shape: shape,
			Data:  data,
		}
	}

	return &Checkpoint{
		ModelSpec:      model,
		Weights:        weights,
		TrainingState:  TrainingState{Epoch: 5, Step: 40, LearningRate: 0.001},
		OptimizerState: optState,
		Metadata: CheckpointMetadata{
			Version:   "1.0.0",
			Framework: "optima",
			Loss:      "binary_crossentropy",
		},
	}
}

func TestValidate(t *testing.T) {
	checkpoint := testCheckpoint(t)
	assert.NoError(t, checkpoint.Validate())
}

func TestValidateRejectsUncompiledSpec(t *testing.T) {
	checkpoint := testCheckpoint(t)
	checkpoint.ModelSpec = &layers.ModelSpec{}
	assert.Error(t, checkpoint.Validate())

	checkpoint.ModelSpec = nil
	assert.Error(t, checkpoint.Validate())
}

func TestValidateRejectsWeightCountMismatch(t *testing.T) {
	checkpoint := testCheckpoint(t)
	checkpoint.Weights = checkpoint.Weights[:len(checkpoint.Weights)-1]
	assert.Error(t, checkpoint.Validate())
}

func TestValidateRejectsWeightSizeMismatch(t *testing.T) {
	checkpoint := testCheckpoint(t)
	checkpoint.Weights[0].Data = checkpoint.Weights[0].Data[:1]
	assert.Error(t, checkpoint.Validate())
}

func TestValidateRejectsEmptyOptimizerState(t *testing.T) {
	checkpoint := testCheckpoint(t)
	checkpoint.OptimizerState.Spec = nil
	assert.Error(t, checkpoint.Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	checkpoint := testCheckpoint(t)
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	require.NoError(t, SaveCheckpoint(checkpoint, path))

	loaded, err := LoadCheckpoint(path)
	require.NoError(t, err)

	assert.Equal(t, checkpoint.TrainingState, loaded.TrainingState)
	assert.Equal(t, checkpoint.Metadata.Loss, loaded.Metadata.Loss)
	require.Len(t, loaded.Weights, len(checkpoint.Weights))
	for i := range checkpoint.Weights {
		assert.Equal(t, checkpoint.Weights[i].Data, loaded.Weights[i].Data)
		assert.Equal(t, checkpoint.Weights[i].Shape, loaded.Weights[i].Shape)
	}

	spec, err := loaded.OptimizerState.DecodeOptimizerSpec()
	require.NoError(t, err)
	assert.Equal(t, optimizer.Adam, spec.Type())
}

func TestSaveRejectsInvalidCheckpoint(t *testing.T) {
	checkpoint := testCheckpoint(t)
	checkpoint.Weights = nil

	path := filepath.Join(t.TempDir(), "checkpoint.json")
	assert.Error(t, SaveCheckpoint(checkpoint, path))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadCheckpoint(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadCheckpoint(path)
	assert.Error(t, err)
}

func TestDecodeOptimizerSpecTypeMismatch(t *testing.T) {
	spec, err := optimizer.NewRMSProp(optimizer.DefaultRMSPropConfig())
	require.NoError(t, err)
	state, err := NewOptimizerState(spec)
	require.NoError(t, err)
	assert.Equal(t, "RMSProp", state.Type)

	state.Type = "Adam"
	_, err = state.DecodeOptimizerSpec()
	assert.Error(t, err)
}

func TestCheckpointFormatString(t *testing.T) {
	assert.Equal(t, "JSON", FormatJSON.String())
	assert.Equal(t, "Unknown", CheckpointFormat(99).String())
}
