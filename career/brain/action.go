package brain

import (
	"encoding/json"
	"fmt"

	"github.com/EmptyBox36/umamusume-auto-train/career"
)

// AnyRace lets the actuator enter any eligible race.
const AnyRace = "any"

// ActionKind is what the actuator is asked to do.
type ActionKind byte

const (
	ActionKindContinue          ActionKind = 0
	ActionKindTrain             ActionKind = 1
	ActionKindRest              ActionKind = 2
	ActionKindRecreate          ActionKind = 3
	ActionKindVisitRecovery     ActionKind = 4
	ActionKindEnterRace         ActionKind = 5
	ActionKindSelectEventChoice ActionKind = 6
	ActionKindStop              ActionKind = 7
)

var ActionKindDictionary = map[ActionKind]string{
	ActionKindContinue:          "continue",
	ActionKindTrain:             "train",
	ActionKindRest:              "rest",
	ActionKindRecreate:          "recreate",
	ActionKindVisitRecovery:     "visit_recovery",
	ActionKindEnterRace:         "enter_race",
	ActionKindSelectEventChoice: "select_event_choice",
	ActionKindStop:              "stop",
}

func (k ActionKind) String() string { return ActionKindDictionary[k] }

// Action is one decision handed to the actuator. Only the fields of its
// Kind are meaningful.
type Action struct {
	Kind            ActionKind
	Stat            career.Stat           // train
	Mode            career.RecreationMode // recreate
	Race            string                // enter_race: a race name or AnyRace
	PreferHighGrade bool                  // enter_race
	Choice          int                   // select_event_choice, 1-based
	Directive       string                // continue: work a special handler asked for
	Reason          string
}

func Train(s career.Stat, reason string) Action {
	return Action{Kind: ActionKindTrain, Stat: s, Reason: reason}
}

func Rest(reason string) Action { return Action{Kind: ActionKindRest, Reason: reason} }

func Recreate(mode career.RecreationMode, reason string) Action {
	return Action{Kind: ActionKindRecreate, Mode: mode, Reason: reason}
}

func VisitRecovery(reason string) Action {
	return Action{Kind: ActionKindVisitRecovery, Reason: reason}
}

func EnterRace(name string, preferHighGrade bool, reason string) Action {
	return Action{Kind: ActionKindEnterRace, Race: name, PreferHighGrade: preferHighGrade, Reason: reason}
}

func SelectEventChoice(index int, reason string) Action {
	return Action{Kind: ActionKindSelectEventChoice, Choice: index, Reason: reason}
}

func Continue(directive, reason string) Action {
	return Action{Kind: ActionKindContinue, Directive: directive, Reason: reason}
}

func Stop(reason string) Action { return Action{Kind: ActionKindStop, Reason: reason} }

// String is a compact form for logs, e.g. "train:spd" or "enter_race:any".
func (a Action) String() string {
	switch a.Kind {
	case ActionKindTrain:
		return "train:" + a.Stat.String()
	case ActionKindRecreate:
		return "recreate:" + career.RecreationModeDictionary[a.Mode]
	case ActionKindEnterRace:
		return "enter_race:" + a.Race
	case ActionKindSelectEventChoice:
		return fmt.Sprintf("select_event_choice:%d", a.Choice)
	case ActionKindContinue:
		if a.Directive != "" {
			return "continue:" + a.Directive
		}
	}
	return a.Kind.String()
}

type actionWire struct {
	Kind            string `json:"kind"`
	Stat            string `json:"stat,omitempty"`
	Mode            string `json:"mode,omitempty"`
	Race            string `json:"race,omitempty"`
	PreferHighGrade bool   `json:"prefer_high_grade,omitempty"`
	Choice          int    `json:"choice,omitempty"`
	Directive       string `json:"directive,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

func (a Action) MarshalJSON() ([]byte, error) {
	w := actionWire{Kind: a.Kind.String(), Reason: a.Reason}
	switch a.Kind {
	case ActionKindTrain:
		w.Stat = a.Stat.String()
	case ActionKindRecreate:
		w.Mode = career.RecreationModeDictionary[a.Mode]
	case ActionKindEnterRace:
		w.Race = a.Race
		w.PreferHighGrade = a.PreferHighGrade
	case ActionKindSelectEventChoice:
		w.Choice = a.Choice
	case ActionKindContinue:
		w.Directive = a.Directive
	}
	return json.Marshal(w)
}

func (a *Action) UnmarshalJSON(b []byte) error {
	var w actionWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	kind, ok := parseActionKind(w.Kind)
	if !ok {
		return fmt.Errorf("unknown action kind %q", w.Kind)
	}
	*a = Action{Kind: kind, Race: w.Race, PreferHighGrade: w.PreferHighGrade, Choice: w.Choice, Directive: w.Directive, Reason: w.Reason}
	if kind == ActionKindTrain {
		s, err := career.ParseStat(w.Stat)
		if err != nil {
			return err
		}
		a.Stat = s
	}
	if kind == ActionKindRecreate && w.Mode == career.RecreationModeDictionary[career.RecreationFriend] {
		a.Mode = career.RecreationFriend
	}
	return nil
}

func parseActionKind(s string) (ActionKind, bool) {
	for k, name := range ActionKindDictionary {
		if name == s {
			return k, true
		}
	}
	return 0, false
}
