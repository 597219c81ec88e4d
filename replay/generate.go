package replay

import (
	"encoding/base64"
	"log"

	"github.com/EmptyBox36/umamusume-auto-train/career/brain"
)

type stateful interface {
	State() brain.State
}

// GenerateTape feeds steps through d in order and records every decision.
// Replay ends at the first Stop action; later steps are ignored.
func GenerateTape(d brain.Decider, trainee string, steps []Step) (*Tape, error) {
	if d == nil {
		return nil, &ReplayError{StepIndex: -1, Reason: "no_policy", Message: "decider is nil"}
	}
	if len(steps) == 0 {
		return nil, &ReplayError{StepIndex: -1, Reason: "empty_input", Message: "no observations to replay"}
	}

	builder := newTapeBuilder(d.Name(), trainee)
	for i := range steps {
		obs := steps[i].Observation
		action := d.Decide(&obs)

		state := ""
		if s, ok := d.(stateful); ok {
			state = s.State().String()
		}
		typ := EventDecision
		if action.Kind == brain.ActionKindStop {
			typ = EventStop
		}
		if err := builder.push(TapeEvent{
			Type:        typ,
			Line:        steps[i].Line,
			VirtualTurn: obs.Date().VirtualTurn(obs.Criteria),
			State:       state,
			Action:      &action,
		}); err != nil {
			return nil, &ReplayError{StepIndex: int32(i), Line: steps[i].Line, Reason: "encode_failed", Message: err.Error()}
		}
		if typ == EventStop {
			if rest := len(steps) - i - 1; rest > 0 {
				log.Printf("[Replay] Stopped at step %d, %d observations left unread", i, rest)
			}
			break
		}
	}
	return builder.tape, nil
}

type tapeBuilder struct {
	tape *Tape
	seq  uint64
}

func newTapeBuilder(policy, trainee string) *tapeBuilder {
	return &tapeBuilder{
		tape: &Tape{
			TapeVersion: TapeVersion,
			Policy:      policy,
			Trainee:     trainee,
			Events:      make([]TapeEvent, 0, 64),
		},
	}
}

func (b *tapeBuilder) push(e TapeEvent) error {
	b.seq++
	e.Seq = b.seq
	env, err := decisionEnvelope(e)
	if err != nil {
		return err
	}
	bin, err := marshalEnvelope(env)
	if err != nil {
		return err
	}
	e.EnvelopeB64 = base64.StdEncoding.EncodeToString(bin)
	b.tape.Events = append(b.tape.Events, e)
	return nil
}
