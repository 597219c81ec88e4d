package replay

import (
	"reflect"
	"strings"
	"testing"

	"github.com/EmptyBox36/umamusume-auto-train/career"
	"github.com/EmptyBox36/umamusume-auto-train/career/brain"
)

const lobbyLine = `{"stats":{"spd":400,"sta":300,"pwr":300,"guts":200,"wit":250},"energy":60,"max_energy":100,` +
	`"mood":"GOOD","turn":8,"year":"Classic Year Early Apr","criteria":"Achieved","fans":3000,"debut_done":true,` +
	`"training":{"spd":{"failure":5,"total_supports":3,"friends":{"gray":3}},"wit":{"failure":0,"total_supports":0}}}`

func baseTape() string {
	return strings.Join([]string{
		"# recorded career",
		lobbyLine,
		"",
		`{"event_title":"Get Well Soon!","energy":60,"max_energy":100,"mood":"GOOD","year":"Classic Year Early Apr"}`,
		`{"career_complete":true}`,
		lobbyLine,
	}, "\n")
}

func newDecider() brain.Decider {
	cfg := career.DefaultConfig()
	return brain.New(&cfg, nil, nil, nil)
}

func TestGenerateTape_IsDeterministic(t *testing.T) {
	steps, err := ReadObservations(strings.NewReader(baseTape()))
	if err != nil {
		t.Fatalf("ReadObservations failed: %v", err)
	}
	if len(steps) != 4 {
		t.Fatalf("steps got %d, want 4", len(steps))
	}
	if steps[0].Line != 2 || steps[1].Line != 4 {
		t.Fatalf("line numbers got %d and %d, want 2 and 4", steps[0].Line, steps[1].Line)
	}

	tapeA, err := GenerateTape(newDecider(), "", steps)
	if err != nil {
		t.Fatalf("GenerateTape A failed: %v", err)
	}
	tapeB, err := GenerateTape(newDecider(), "", steps)
	if err != nil {
		t.Fatalf("GenerateTape B failed: %v", err)
	}
	if !reflect.DeepEqual(tapeA, tapeB) {
		t.Fatalf("expected deterministic tape for the same observations")
	}

	if len(tapeA.Events) != 3 {
		t.Fatalf("events got %d, want 3 (replay ends at stop)", len(tapeA.Events))
	}
	first := tapeA.Events[0]
	if first.Action.Kind != brain.ActionKindTrain || first.Action.Stat != career.StatSpeed {
		t.Fatalf("first action got %s, want train:spd", first.Action)
	}
	if first.State != brain.StateDecideTraining.String() || first.VirtualTurn != 31 {
		t.Fatalf("first event got state %q turn %d", first.State, first.VirtualTurn)
	}
	if a := tapeA.Events[1].Action; a.Kind != brain.ActionKindSelectEventChoice || a.Choice != 1 {
		t.Fatalf("event action got %s, want select_event_choice:1", a)
	}
	if last := tapeA.Events[2]; last.Type != EventStop {
		t.Fatalf("last event type got %q, want %q", last.Type, EventStop)
	}
}

func TestEnvelopeCarriesAction(t *testing.T) {
	steps, err := ReadObservations(strings.NewReader(lobbyLine))
	if err != nil {
		t.Fatalf("ReadObservations failed: %v", err)
	}
	tape, err := GenerateTape(newDecider(), "", steps)
	if err != nil {
		t.Fatalf("GenerateTape failed: %v", err)
	}
	seq, action, err := DecodeEnvelopeB64(tape.Events[0].EnvelopeB64)
	if err != nil {
		t.Fatalf("DecodeEnvelopeB64 failed: %v", err)
	}
	if seq != 1 || action != *tape.Events[0].Action {
		t.Fatalf("envelope got seq %d action %+v, want 1 and %+v", seq, action, *tape.Events[0].Action)
	}

	wire := ToWireTape(tape)
	if wire.Events[0].EnvelopeB64 != tape.Events[0].EnvelopeB64 || wire.Policy != tape.Policy {
		t.Fatalf("wire tape does not carry the envelope")
	}
}

func TestReadObservations_ReturnsReplayErrorOnBadLine(t *testing.T) {
	in := lobbyLine + "\n" + `{"energy": "lots"}` + "\n"
	_, err := ReadObservations(strings.NewReader(in))
	if err == nil {
		t.Fatalf("expected a bad line to fail")
	}
	replayErr, ok := err.(*ReplayError)
	if !ok {
		t.Fatalf("expected ReplayError type, got %T", err)
	}
	if replayErr.Reason != "invalid_observation" || replayErr.Line != 2 || replayErr.StepIndex != 1 {
		t.Fatalf("unexpected error: %+v", replayErr)
	}

	_, err = ReadObservations(strings.NewReader("# nothing here\n\n"))
	if replayErr, ok := err.(*ReplayError); !ok || replayErr.Reason != "empty_input" {
		t.Fatalf("empty input got %v, want empty_input", err)
	}
}
