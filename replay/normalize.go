package replay

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/EmptyBox36/umamusume-auto-train/career"
)

const maxLineBytes = 1 << 20

// Step is one observation read from a tape source.
type Step struct {
	Line        int
	Observation career.Observation
}

// ReadObservations parses a JSONL stream of observations. Blank lines and
// lines starting with '#' are skipped. Observations the policy can only
// partly read are kept; the policy degrades on them.
func ReadObservations(r io.Reader) ([]Step, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		steps []Step
		line  int
	)
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}
		obs, err := career.DecodeObservation(raw)
		if err != nil {
			return nil, &ReplayError{
				StepIndex: int32(len(steps)),
				Line:      line,
				Reason:    "invalid_observation",
				Message:   err.Error(),
			}
		}
		if warn := lint(&obs); warn != "" {
			log.Printf("[Replay] line %d: %s", line, warn)
		}
		steps = append(steps, Step{Line: line, Observation: obs})
	}
	if err := sc.Err(); err != nil {
		reason := "read_failed"
		if errors.Is(err, bufio.ErrTooLong) {
			reason = "line_too_long"
		}
		return nil, &ReplayError{StepIndex: int32(len(steps)), Line: line + 1, Reason: reason, Message: err.Error()}
	}
	if len(steps) == 0 {
		return nil, &ReplayError{StepIndex: -1, Reason: "empty_input", Message: "no observations in input"}
	}
	return steps, nil
}

// lint reports the first field a lobby observation could not fill.
func lint(obs *career.Observation) string {
	if obs.CareerComplete || obs.Interstitial != "" || obs.EventTitle != "" {
		return ""
	}
	switch {
	case !obs.Date().Valid:
		return fmt.Sprintf("unreadable year %q", obs.Year)
	case !obs.Stats.Readable():
		return "unreadable stats"
	case !obs.Mood.Known():
		return "unknown mood"
	case len(obs.Training) == 0:
		return "no training options"
	}
	return ""
}
