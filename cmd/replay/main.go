package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/EmptyBox36/umamusume-auto-train/career"
	"github.com/EmptyBox36/umamusume-auto-train/career/brain"
	"github.com/EmptyBox36/umamusume-auto-train/career/events"
	"github.com/EmptyBox36/umamusume-auto-train/career/races"
	"github.com/EmptyBox36/umamusume-auto-train/replay"
)

func main() {
	var (
		configPath    = flag.String("config", "", "policy config (.json/.yaml); defaults when empty")
		supportPath   = flag.String("support-events", "", "support card events JSON")
		characterPath = flag.String("character-events", "", "character events JSON")
		scenarioPath  = flag.String("scenario-events", "", "scenario events JSON")
		racesPath     = flag.String("races", "", "race calendar JSON")
		scriptsDir    = flag.String("scripts", "", "directory of Lua event handlers")
		inPath        = flag.String("in", "-", "observation JSONL, - for stdin")
		asJSON        = flag.Bool("json", false, "print the full tape as JSON")
		asWire        = flag.Bool("wire", false, "print the wire tape as JSON")
	)
	flag.Parse()

	cfg := career.DefaultConfig()
	if *configPath != "" {
		loaded, err := career.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("[Replay] %v", err)
		}
		cfg = *loaded
	}

	db := events.NewDatabase(cfg.Trainee)
	for _, src := range []struct {
		path string
		kind events.Source
	}{
		{*supportPath, events.SourceSupport},
		{*characterPath, events.SourceCharacter},
		{*scenarioPath, events.SourceScenario},
	} {
		if src.path == "" {
			continue
		}
		if err := db.LoadFromFile(src.path, src.kind); err != nil {
			log.Fatalf("[Replay] load %s events: %v", src.kind, err)
		}
	}

	calendar := races.NewCalendar()
	if *racesPath != "" {
		if err := calendar.LoadFromFile(*racesPath); err != nil {
			log.Fatalf("[Replay] load races: %v", err)
		}
	}

	special := events.NewSpecialRegistry()
	if *scriptsDir != "" {
		host := events.NewScriptHost()
		if err := host.LoadDir(*scriptsDir); err != nil {
			log.Fatalf("[Replay] load scripts: %v", err)
		}
		host.Install(special)
	}

	in := io.Reader(os.Stdin)
	if *inPath != "-" {
		f, err := os.Open(*inPath)
		if err != nil {
			log.Fatalf("[Replay] open input: %v", err)
		}
		defer f.Close()
		in = f
	}

	steps, err := replay.ReadObservations(in)
	if err != nil {
		exitReplayError(err)
	}
	policy := brain.New(&cfg, db, calendar, special)
	tape, err := replay.GenerateTape(policy, cfg.Trainee, steps)
	if err != nil {
		exitReplayError(err)
	}

	switch {
	case *asWire:
		writeJSON(replay.ToWireTape(tape))
	case *asJSON:
		writeJSON(tape)
	default:
		for _, e := range tape.Events {
			fmt.Printf("%4d  line %-5d turn %-3d %-22s %s\n", e.Seq, e.Line, e.VirtualTurn, e.State, e.Action)
		}
	}
}

func writeJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("[Replay] encode output: %v", err)
	}
}

func exitReplayError(err error) {
	var replayErr *replay.ReplayError
	if errors.As(err, &replayErr) {
		log.Printf("[Replay] %s", replayErr.Error())
		os.Exit(2)
	}
	log.Fatalf("[Replay] %v", err)
}
