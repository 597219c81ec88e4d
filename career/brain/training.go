package brain

import (
	"log"

	"github.com/EmptyBox36/umamusume-auto-train/career"
)

// multiplier is the priority multiplier, which stays at 1 in the junior
// year unless the config opts in.
func multiplier(cfg *career.PolicyConfig, s career.Stat, date career.CareerDate) float64 {
	if date.Year == career.YearJunior && !cfg.UsePrioritizeOnJunior {
		return 1
	}
	return cfg.PriorityMultiplier(s, date.Summer())
}

// RainbowScorer values same-type supports at yellow or max (rainbows) above
// supports that can still build friendship.
type RainbowScorer struct {
	Config *career.PolicyConfig
}

func (RainbowScorer) Name() string { return career.TrainingFormulaRainbow }

func (sc RainbowScorer) Score(s career.Stat, opt career.TrainingOption, date career.CareerDate) OptionScore {
	rainbow := float64(opt.Rainbow)
	nonMaxed := float64(opt.NonMaxed())
	maxedOff := float64(opt.Supports) - rainbow - nonMaxed
	if maxedOff < 0 {
		maxedOff = 0
	}

	base := 1.5*rainbow + nonMaxed
	hintOnce := 0.0
	if opt.Hints > 0 && nonMaxed > 0 {
		hintOnce = 1
		base += hintOnce
	}

	total := base
	if opt.Hints > 0 {
		total += sc.Config.HintPoint - hintOnce
	}
	if opt.Rainbow > 1 {
		total += rainbow
	}
	if opt.NonMaxed() > 2 {
		total += 2 * nonMaxed
	}
	total += 0.25 * maxedOff
	total *= multiplier(sc.Config, s, date)

	return OptionScore{Stat: s, Option: opt, Rank: sc.Config.PriorityRank(s), Base: base, Total: total}
}

// FriendValueScorer counts supports still building friendship and boosts
// stacks of them, for scenarios where bond matters more than rainbows.
type FriendValueScorer struct {
	Config *career.PolicyConfig
}

func (FriendValueScorer) Name() string { return career.TrainingFormulaFriendValue }

func (sc FriendValueScorer) Score(s career.Stat, opt career.TrainingOption, date career.CareerDate) OptionScore {
	friend := float64(opt.Friends.Building())
	if opt.Friends.Building() > 2 {
		friend *= 1.5
	}
	rainbow := float64(opt.Rainbow)
	if opt.Rainbow > 1 {
		rainbow *= 1.5
	}
	base := friend + 1.5*rainbow
	total := base
	if opt.Hints > 0 {
		total += sc.Config.HintPoint
	}
	total *= multiplier(sc.Config, s, date)
	return OptionScore{Stat: s, Option: opt, Rank: sc.Config.PriorityRank(s), Base: base, Total: total}
}

// Evaluator picks the attribute to train from the training screen.
type Evaluator struct {
	cfg    *career.PolicyConfig
	scorer TrainingScorer
}

// NewEvaluator uses the scorer named by the config's training formula.
func NewEvaluator(cfg *career.PolicyConfig) *Evaluator {
	var sc TrainingScorer = RainbowScorer{Config: cfg}
	if cfg.TrainingFormula == career.TrainingFormulaFriendValue {
		sc = FriendValueScorer{Config: cfg}
	}
	return &Evaluator{cfg: cfg, scorer: sc}
}

// WithScorer returns a copy of e using sc.
func (e *Evaluator) WithScorer(sc TrainingScorer) *Evaluator {
	return &Evaluator{cfg: e.cfg, scorer: sc}
}

func (e *Evaluator) Scorer() TrainingScorer { return e.scorer }

// Candidates scores every offered attribute below its cap, in on-screen
// order.
func (e *Evaluator) Candidates(in TrainingInput) []OptionScore {
	out := make([]OptionScore, 0, len(in.Training))
	for _, s := range career.AllStats {
		opt, ok := in.Training[s]
		if !ok {
			continue
		}
		if in.Stats.Get(s) >= e.cfg.Cap(s) {
			continue
		}
		out = append(out, e.scorer.Score(s, opt, in.Date))
	}
	return out
}

// Evaluate runs the training decision. It may move the session's failure
// ceiling.
func (e *Evaluator) Evaluate(in TrainingInput, session *career.SessionState) Verdict {
	cands := e.Candidates(in)
	if len(cands) == 0 {
		return Verdict{Kind: VerdictRest, Reason: "every attribute is capped or missing"}
	}

	top := cands[0]
	for _, c := range cands[1:] {
		if better(c.Base, c.Rank, top.Base, top.Rank) {
			top = c
		}
	}
	e.adjustCeiling(top, session)

	safe := cands[:0:0]
	for _, c := range cands {
		if c.Option.Failure > session.FailureCeiling {
			continue
		}
		if c.Stat == career.StatWit && c.Base < 1 {
			continue
		}
		safe = append(safe, c)
	}
	if len(safe) == 0 {
		if in.Energy > e.cfg.SkipTrainingEnergy {
			return Verdict{Kind: VerdictDefer, Reason: "no safe training, energy above skip threshold"}
		}
		return Verdict{Kind: VerdictRest, Reason: "no safe training and low energy"}
	}

	win := safe[0]
	for _, c := range safe[1:] {
		if better(c.Total, c.Rank, win.Total, win.Rank) {
			win = c
		}
	}

	if win.Base < 1.5 {
		for _, c := range safe {
			if c.Stat == career.StatWit && c.Base >= 1 {
				return Verdict{Kind: VerdictTrain, Stat: career.StatWit, Score: c.Total, Reason: "weak board, wit still has a friend"}
			}
		}
		if win.Base == 0 {
			switch {
			case in.Energy > 50 && !restricted(in.Date):
				return Verdict{Kind: VerdictRace, Reason: "no friendship value on the board, racing instead"}
			case in.Energy > 50 || in.Energy >= e.cfg.NeverRestEnergy:
				return Verdict{Kind: VerdictDefer, Reason: "no friendship value on the board"}
			}
			return Verdict{Kind: VerdictRest, Reason: "no friendship value and low energy"}
		}
	}

	log.Printf("[Training] %s selected with %.2f points, %d%% failure", win.Stat, win.Total, win.Option.Failure)
	return Verdict{Kind: VerdictTrain, Stat: win.Stat, Score: win.Total, Reason: "best training score"}
}

func (e *Evaluator) adjustCeiling(top OptionScore, session *career.SessionState) {
	f := e.cfg.Failure
	if !f.EnableCustomFailure {
		return
	}
	if f.EnableCustomHigh && top.Base > f.HighFailureCondition.Point {
		session.FailureCeiling = f.HighFailureCondition.Failure
		log.Printf("[Training] %s has %.2f points, failure ceiling raised to %d%%", top.Stat, top.Base, session.FailureCeiling)
		return
	}
	if f.EnableCustomLow && top.Base < f.LowFailureCondition.Point {
		session.FailureCeiling = f.LowFailureCondition.Failure
		log.Printf("[Training] %s has only %.2f points, failure ceiling lowered to %d%%", top.Stat, top.Base, session.FailureCeiling)
	}
}
