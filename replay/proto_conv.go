package replay

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/EmptyBox36/umamusume-auto-train/career/brain"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ActionStruct converts an action to a protobuf Struct through its JSON form.
func ActionStruct(a brain.Action) (*structpb.Struct, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// ActionFromStruct is the inverse of ActionStruct.
func ActionFromStruct(s *structpb.Struct) (brain.Action, error) {
	var a brain.Action
	if s == nil {
		return a, fmt.Errorf("nil action struct")
	}
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return a, err
	}
	err = json.Unmarshal(data, &a)
	return a, err
}

func decisionEnvelope(e TapeEvent) (*structpb.Struct, error) {
	env := &structpb.Struct{Fields: map[string]*structpb.Value{
		"type":         structpb.NewStringValue(e.Type),
		"seq":          structpb.NewNumberValue(float64(e.Seq)),
		"virtual_turn": structpb.NewNumberValue(float64(e.VirtualTurn)),
		"state":        structpb.NewStringValue(e.State),
	}}
	if e.Action != nil {
		act, err := ActionStruct(*e.Action)
		if err != nil {
			return nil, err
		}
		env.Fields["action"] = structpb.NewStructValue(act)
	}
	return env, nil
}

// marshalEnvelope fixes map order so equal tapes encode to equal bytes.
func marshalEnvelope(env *structpb.Struct) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(env)
}

// DecodeEnvelopeB64 reads back the action carried by a tape event envelope.
func DecodeEnvelopeB64(b64 string) (seq uint64, action brain.Action, err error) {
	bin, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return 0, action, fmt.Errorf("decode envelope base64: %w", err)
	}
	var env structpb.Struct
	if err := proto.Unmarshal(bin, &env); err != nil {
		return 0, action, fmt.Errorf("unmarshal envelope: %w", err)
	}
	seq = uint64(env.Fields["seq"].GetNumberValue())
	act := env.Fields["action"].GetStructValue()
	if act == nil {
		return seq, action, fmt.Errorf("envelope %d has no action", seq)
	}
	action, err = ActionFromStruct(act)
	return seq, action, err
}
