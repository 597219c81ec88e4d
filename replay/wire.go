package replay

type WireTape struct {
	TapeVersion int         `json:"tapeVersion"`
	Policy      string      `json:"policy"`
	Trainee     string      `json:"trainee,omitempty"`
	Events      []WireEvent `json:"events"`
}

type WireEvent struct {
	Type        string `json:"type"`
	Seq         uint64 `json:"seq"`
	VirtualTurn int    `json:"virtualTurn"`
	State       string `json:"state"`
	EnvelopeB64 string `json:"envelopeB64"`
}

func ToWireTape(tape *Tape) *WireTape {
	if tape == nil {
		return nil
	}
	out := &WireTape{
		TapeVersion: tape.TapeVersion,
		Policy:      tape.Policy,
		Trainee:     tape.Trainee,
		Events:      make([]WireEvent, 0, len(tape.Events)),
	}
	for _, e := range tape.Events {
		out.Events = append(out.Events, WireEvent{
			Type:        e.Type,
			Seq:         e.Seq,
			VirtualTurn: e.VirtualTurn,
			State:       e.State,
			EnvelopeB64: e.EnvelopeB64,
		})
	}
	return out
}
