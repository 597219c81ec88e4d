package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/EmptyBox36/umamusume-auto-train/career"
	"github.com/EmptyBox36/umamusume-auto-train/career/brain"

	"github.com/tidwall/gjson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client to agent.
const (
	TypeHello       = "hello"
	TypeReset       = "reset"
	TypeObservation = "observation"
)

// Agent to client.
const (
	TypeSession = "session"
	TypeAction  = "action"
	TypeError   = "error"
)

var (
	ErrMalformed   = errors.New("malformed envelope")
	ErrUnknownType = errors.New("unknown envelope type")
)

// Envelope is the frame exchanged with the screen reader / actuator.
type Envelope struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`
	Seq     uint64 `json:"seq,omitempty"`

	Observation json.RawMessage `json:"observation,omitempty"`

	Action      *brain.Action `json:"action,omitempty"`
	State       string        `json:"state,omitempty"`
	VirtualTurn int           `json:"virtual_turn,omitempty"`
	Policy      string        `json:"policy,omitempty"`
	Digest      string        `json:"digest,omitempty"`

	Error *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

const (
	ErrCodeMalformed   int32 = 1
	ErrCodeUnknownType int32 = 2
	ErrCodeObservation int32 = 3
	ErrCodeSession     int32 = 4
)

// DecodeJSON parses a text frame. The type is checked before the body so
// unknown frames are rejected without decoding their payload.
func DecodeJSON(data []byte) (*Envelope, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrMalformed
	}
	typ := gjson.GetBytes(data, "type")
	if typ.Type != gjson.String {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	switch typ.Str {
	case TypeHello, TypeReset, TypeObservation:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ.Str)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == TypeObservation && len(env.Observation) == 0 {
		return nil, fmt.Errorf("%w: observation frame without observation", ErrMalformed)
	}
	return &env, nil
}

// DecodeBinary parses a protobuf Struct frame carrying the same fields as
// the JSON form.
func DecodeBinary(data []byte) (*Envelope, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return DecodeJSON(raw)
}

func EncodeJSON(env *Envelope) ([]byte, error) {
	return json.Marshal(env)
}

func EncodeBinary(env *Envelope) ([]byte, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(s)
}

// ObservationOf decodes the observation payload.
func ObservationOf(env *Envelope) (career.Observation, error) {
	return career.DecodeObservation(env.Observation)
}

func ActionEnvelope(session string, seq uint64, state string, turn int, a brain.Action) *Envelope {
	return &Envelope{
		Type:        TypeAction,
		Session:     session,
		Seq:         seq,
		Action:      &a,
		State:       state,
		VirtualTurn: turn,
	}
}

func ErrorEnvelope(session string, code int32, msg string) *Envelope {
	return &Envelope{
		Type:    TypeError,
		Session: session,
		Error:   &ErrorBody{Code: code, Message: msg},
	}
}
