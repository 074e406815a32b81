package optimizer

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// MarshalBinary encodes the spec's variant name and hyperparameter mapping as
// a protobuf Struct. An unset epsilon is encoded as an explicit null, so the
// "use engine default" marker survives the round trip.
func (s *Spec) MarshalBinary() ([]byte, error) {
	payload, err := structpb.NewStruct(map[string]interface{}{
		"type":       s.optType.String(),
		"parameters": s.Params(),
	})
	if err != nil {
		return nil, fmt.Errorf("optimizer: failed to encode spec: %v", err)
	}
	return proto.Marshal(payload)
}

// UnmarshalSpec decodes a spec produced by MarshalBinary. The hyperparameters
// pass through the same validation as first-hand construction.
func UnmarshalSpec(data []byte) (*Spec, error) {
	var payload structpb.Struct
	if err := proto.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("optimizer: failed to decode spec: %v", err)
	}

	fields := payload.AsMap()

	name, ok := fields["type"].(string)
	if !ok {
		return nil, fmt.Errorf("optimizer: encoded spec is missing its type")
	}
	optType, ok := typeByName[name]
	if !ok {
		return nil, fmt.Errorf("optimizer: unknown optimizer type %q", name)
	}

	params, ok := fields["parameters"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("optimizer: encoded spec is missing its parameters")
	}

	switch optType {
	case SGD:
		return NewSGD(SGDConfig{
			LearningRate: floatParam(params, "lr"),
			Momentum:     floatParam(params, "momentum"),
			Decay:        floatParam(params, "decay"),
			Nesterov:     boolParam(params, "nesterov"),
		})
	case RMSProp:
		return NewRMSProp(RMSPropConfig{
			LearningRate: floatParam(params, "lr"),
			Rho:          floatParam(params, "rho"),
			Epsilon:      optionalParam(params, "epsilon"),
			Decay:        floatParam(params, "decay"),
		})
	case AdaGrad:
		return NewAdaGrad(AdaGradConfig{
			LearningRate: floatParam(params, "lr"),
			Epsilon:      optionalParam(params, "epsilon"),
			Decay:        floatParam(params, "decay"),
		})
	case AdaDelta:
		return NewAdaDelta(AdaDeltaConfig{
			LearningRate: floatParam(params, "lr"),
			Rho:          floatParam(params, "rho"),
			Epsilon:      optionalParam(params, "epsilon"),
			Decay:        floatParam(params, "decay"),
		})
	case Adam:
		return NewAdam(AdamConfig{
			LearningRate: floatParam(params, "lr"),
			Beta1:        floatParam(params, "beta_1"),
			Beta2:        floatParam(params, "beta_2"),
			Epsilon:      optionalParam(params, "epsilon"),
			Decay:        floatParam(params, "decay"),
			AMSGrad:      boolParam(params, "amsgrad"),
		})
	case AdaMax:
		return NewAdaMax(AdaMaxConfig{
			LearningRate: floatParam(params, "lr"),
			Beta1:        floatParam(params, "beta_1"),
			Beta2:        floatParam(params, "beta_2"),
			Epsilon:      optionalParam(params, "epsilon"),
			Decay:        floatParam(params, "decay"),
		})
	case Nadam:
		return NewNadam(NadamConfig{
			LearningRate:  floatParam(params, "lr"),
			Beta1:         floatParam(params, "beta_1"),
			Beta2:         floatParam(params, "beta_2"),
			Epsilon:       optionalParam(params, "epsilon"),
			ScheduleDecay: floatParam(params, "schedule_decay"),
		})
	default:
		return nil, fmt.Errorf("optimizer: unknown optimizer type %q", name)
	}
}

func floatParam(params map[string]interface{}, key string) float64 {
	v, _ := params[key].(float64)
	return v
}

func boolParam(params map[string]interface{}, key string) bool {
	v, _ := params[key].(bool)
	return v
}

// optionalParam reads an optional float; an absent or null entry maps to nil
func optionalParam(params map[string]interface{}, key string) *float64 {
	if v, ok := params[key].(float64); ok {
		return &v
	}
	return nil
}
