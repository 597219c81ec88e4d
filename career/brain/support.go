package brain

import (
	"log"

	"github.com/EmptyBox36/umamusume-auto-train/career"
)

// supportScore ranks an option by how many supports it gathers.
func (e *Evaluator) supportScore(s career.Stat, opt career.TrainingOption, date career.CareerDate) float64 {
	base := float64(opt.Supports) + 0.5*float64(opt.NonMaxed())
	if opt.Hints > 0 {
		base += e.cfg.HintPoint
	}
	return base * multiplier(e.cfg, s, date)
}

// MostSupport is the fallback used when Evaluate defers: it trains where
// the most supports gathered, within the failure ceiling.
func (e *Evaluator) MostSupport(in TrainingInput, session *career.SessionState) Verdict {
	if in.Energy < e.cfg.SkipTrainingEnergy {
		return Verdict{Kind: VerdictRest, Reason: "energy below skip threshold"}
	}

	var (
		safe      []career.Stat
		othersBad = true
	)
	for _, s := range career.AllStats {
		opt, ok := in.Training[s]
		if !ok || in.Stats.Get(s) >= e.cfg.Cap(s) {
			continue
		}
		if opt.Failure > session.FailureCeiling {
			continue
		}
		safe = append(safe, s)
		if s != career.StatWit {
			othersBad = false
		}
	}

	if wit, ok := in.Training[career.StatWit]; ok && othersBad && wit.Failure <= session.FailureCeiling && wit.Supports >= 2 && in.Stats.Get(career.StatWit) < e.cfg.Cap(career.StatWit) {
		return Verdict{Kind: VerdictTrain, Stat: career.StatWit, Reason: "only wit is safe and it has supports"}
	}
	if len(safe) == 0 {
		return Verdict{Kind: VerdictRest, Reason: "every training is above the failure ceiling"}
	}

	best := safe[0]
	bestScore := e.supportScore(best, in.Training[best], in.Date)
	bestRank := e.cfg.PriorityRank(best)
	for _, s := range safe[1:] {
		sc, rank := e.supportScore(s, in.Training[s], in.Date), e.cfg.PriorityRank(s)
		if better(sc, rank, bestScore, bestRank) {
			best, bestScore, bestRank = s, sc, rank
		}
	}
	opt := in.Training[best]

	if opt.Supports <= 1 {
		if best == career.StatWit {
			switch {
			case len(safe) == 1 && in.Energy > 50 && !restricted(in.Date):
				return Verdict{Kind: VerdictRace, Reason: "board is empty, racing instead"}
			case in.Energy > e.cfg.NeverRestEnergy:
				return Verdict{Kind: VerdictTrain, Stat: best, Score: bestScore, Reason: "lone wit but energy too high to rest"}
			}
			return Verdict{Kind: VerdictRest, Reason: "lone wit training"}
		}
		if opt.Failure == 0 {
			return Verdict{Kind: VerdictTrain, Stat: best, Score: bestScore, Reason: "single support at 0% failure"}
		}
		if in.Energy > e.cfg.NeverRestEnergy {
			return Verdict{Kind: VerdictTrain, Stat: best, Score: bestScore, Reason: "energy above never-rest threshold"}
		}
		return Verdict{Kind: VerdictRest, Reason: "low value training"}
	}

	log.Printf("[Training] Most support: %s with %d supports, %d%% failure", best, opt.Supports, opt.Failure)
	return Verdict{Kind: VerdictTrain, Stat: best, Score: bestScore, Reason: "most supports"}
}
