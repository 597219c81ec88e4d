package replay

import "github.com/EmptyBox36/umamusume-auto-train/career/brain"

const TapeVersion = 1

// Tape is the full decision trace of one replayed career.
type Tape struct {
	TapeVersion int         `json:"tape_version"`
	Policy      string      `json:"policy"`
	Trainee     string      `json:"trainee,omitempty"`
	Events      []TapeEvent `json:"events"`
}

// TapeEvent is one observation/decision pair.
type TapeEvent struct {
	Type        string        `json:"type"`
	Seq         uint64        `json:"seq"`
	Line        int           `json:"line"`
	VirtualTurn int           `json:"virtual_turn"`
	State       string        `json:"state"`
	Action      *brain.Action `json:"action,omitempty"`
	EnvelopeB64 string        `json:"envelope_b64,omitempty"`
}

const (
	EventDecision = "decision"
	EventStop     = "stop"
)
