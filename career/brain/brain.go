package brain

import (
	"github.com/EmptyBox36/umamusume-auto-train/career"
)

// Decider is implemented by every turn policy.
type Decider interface {
	// Decide is called once per observed screen.
	Decide(obs *career.Observation) Action
	// Name returns a human-readable identifier for logs.
	Name() string
}

// VerdictKind is the outcome of a training evaluation.
type VerdictKind byte

const (
	VerdictTrain VerdictKind = 0
	VerdictRest  VerdictKind = 1
	// VerdictDefer hands the decision to the most-support fallback.
	VerdictDefer VerdictKind = 2
	// VerdictRace asks for an opportunistic race instead of training.
	VerdictRace VerdictKind = 3
)

var VerdictKindDictionary = map[VerdictKind]string{
	VerdictTrain: "train",
	VerdictRest:  "rest",
	VerdictDefer: "defer",
	VerdictRace:  "race",
}

func (k VerdictKind) String() string { return VerdictKindDictionary[k] }

// Verdict is what the training evaluator or its fallback decided.
type Verdict struct {
	Kind   VerdictKind
	Stat   career.Stat
	Score  float64
	Reason string
}

// TrainingInput is the part of an observation training decisions read.
type TrainingInput struct {
	Training career.TrainingSet
	Stats    career.StatBlock
	Energy   int
	Date     career.CareerDate
}

// OptionScore is one scored training option.
type OptionScore struct {
	Stat   career.Stat
	Option career.TrainingOption
	Rank   int
	Base   float64 // before escalation bonuses and the priority multiplier
	Total  float64
}

// TrainingScorer rates training options. Implementations must be pure.
type TrainingScorer interface {
	Score(s career.Stat, opt career.TrainingOption, date career.CareerDate) OptionScore
	Name() string
}

// better reports whether a beats b on (score, -rank). Equal pairs keep b,
// so callers scanning in on-screen order keep the leftmost option.
func better(aScore float64, aRank int, bScore float64, bRank int) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aRank < bRank
}

// restricted reports dates where opportunistic racing is off: the junior
// and finale years and the summer months.
func restricted(d career.CareerDate) bool {
	return d.Year == career.YearJunior || d.Year == career.YearFinale || d.Month == 6 || d.Month == 7
}
