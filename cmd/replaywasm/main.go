//go:build js && wasm

package main

import (
	"encoding/json"
	"errors"
	"strings"
	"syscall/js"

	"github.com/EmptyBox36/umamusume-auto-train/career"
	"github.com/EmptyBox36/umamusume-auto-train/career/brain"
	"github.com/EmptyBox36/umamusume-auto-train/career/events"
	"github.com/EmptyBox36/umamusume-auto-train/career/races"
	"github.com/EmptyBox36/umamusume-auto-train/replay"
)

type runRequest struct {
	Config       json.RawMessage `json:"config,omitempty"`
	Races        json.RawMessage `json:"races,omitempty"`
	Events       json.RawMessage `json:"events,omitempty"`
	Observations string          `json:"observations"`
}

type runResponse struct {
	OK    bool                `json:"ok"`
	Tape  *replay.WireTape    `json:"tape,omitempty"`
	Error *replay.ReplayError `json:"error,omitempty"`
}

func main() {
	js.Global().Set("__replayRun", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 1 {
			return mustJSON(runResponse{
				OK:    false,
				Error: &replay.ReplayError{StepIndex: -1, Reason: "invalid_request", Message: "missing request payload"},
			})
		}
		return mustJSON(handleRun(args[0].String()))
	}))

	select {}
}

func fail(reason string, err error) runResponse {
	return runResponse{OK: false, Error: &replay.ReplayError{StepIndex: -1, Reason: reason, Message: err.Error()}}
}

func handleRun(raw string) runResponse {
	var req runRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return fail("invalid_json", err)
	}

	cfg := career.DefaultConfig()
	if len(req.Config) > 0 {
		loaded, err := career.ParseConfig(req.Config, career.FormatJSON)
		if err != nil {
			return fail("invalid_config", err)
		}
		cfg = *loaded
	}
	calendar := races.NewCalendar()
	if len(req.Races) > 0 {
		if err := calendar.LoadFromJSON(req.Races); err != nil {
			return fail("invalid_races", err)
		}
	}
	db := events.NewDatabase(cfg.Trainee)
	if len(req.Events) > 0 {
		if err := db.LoadFromJSON(req.Events, events.SourceSupport); err != nil {
			return fail("invalid_events", err)
		}
	}

	steps, err := replay.ReadObservations(strings.NewReader(req.Observations))
	if err == nil {
		var tape *replay.Tape
		tape, err = replay.GenerateTape(brain.New(&cfg, db, calendar, nil), cfg.Trainee, steps)
		if err == nil {
			return runResponse{OK: true, Tape: replay.ToWireTape(tape)}
		}
	}
	var replayErr *replay.ReplayError
	if errors.As(err, &replayErr) {
		return runResponse{OK: false, Error: replayErr}
	}
	return fail("replay_generation_failed", err)
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		b2, _ := json.Marshal(fail("marshal_failed", err))
		return string(b2)
	}
	return string(b)
}
