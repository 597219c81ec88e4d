package events

import (
	"github.com/EmptyBox36/umamusume-auto-train/career"
)

const (
	// lossWeight replaces the headroom weight for stat losses.
	lossWeight = 0.5
	// energyLossFactor scales negative energy outcomes.
	energyLossFactor = 0.5
	// bigEnergyGain is where the overflow penalty halves.
	bigEnergyGain = 100
	// randomFactor discounts outcomes that are not guaranteed.
	randomFactor = 0.9
)

// ChoiceContext is the trainee state a choice is scored against.
type ChoiceContext struct {
	Stats     career.StatBlock
	Energy    int
	MaxEnergy int
	Mood      career.Mood
	Date      career.CareerDate
}

// ContextFromObservation builds a ChoiceContext using session-corrected stats.
func ContextFromObservation(obs *career.Observation, stats career.StatBlock) ChoiceContext {
	return ChoiceContext{
		Stats:     stats,
		Energy:    obs.Energy,
		MaxEnergy: obs.MaxEnergy,
		Mood:      obs.Mood,
		Date:      obs.Date(),
	}
}

// ChoiceScorer rates the outcome of one event choice.
type ChoiceScorer interface {
	Score(o Outcome, ctx ChoiceContext) float64
}

// WeightedScorer sums config-weighted outcome terms with cap headroom,
// energy overflow and mood need taken into account.
type WeightedScorer struct {
	Config *career.PolicyConfig
}

func (s WeightedScorer) Score(o Outcome, ctx ChoiceContext) float64 {
	cfg := s.Config
	w := cfg.ChoiceWeight
	score := 0.0

	for _, st := range career.AllStats {
		gain := o.Stats.Get(st)
		if gain == 0 {
			continue
		}
		mult := 1.0
		if cfg.UsePriorityOnChoice {
			mult = cfg.PriorityMultiplier(st, ctx.Date.Summer())
		}
		score += w.Stat(st) * mult * headroomWeight(gain, ctx.Stats.Get(st), cfg.Cap(st)) * float64(gain)
	}

	score += w.HP * energyTerm(o.Energy, ctx.Energy, ctx.MaxEnergy)

	switch {
	case o.Mood < 0:
		score += w.Mood * float64(o.Mood)
	case o.Mood > 0 && ctx.Mood.Known() && ctx.Mood < cfg.MoodFloor(ctx.Date, false):
		score += w.Mood * float64(o.Mood)
	}

	score += w.MaxEnergy * float64(o.MaxEnergy)
	score += w.SkillPts * float64(o.SkillPts)
	score += w.Bond * float64(o.Bond)

	if o.Random {
		score *= randomFactor
	}
	return score
}

func headroomWeight(gain, current, cap int) float64 {
	if gain < 0 {
		return lossWeight
	}
	if current >= cap || cap <= 0 {
		return 0
	}
	n := float64(cap-current) / float64(cap)
	if n > 1 {
		return 1
	}
	return n
}

// energyTerm is the unweighted energy contribution. Gains that would spill
// over max energy are discounted by the overflowing share.
func energyTerm(gain, energy, maxEnergy int) float64 {
	if gain < 0 {
		return float64(gain) * energyLossFactor
	}
	if gain == 0 {
		return 0
	}
	if maxEnergy <= 0 {
		maxEnergy = 100
	}
	headroom := maxEnergy - energy
	if headroom < 0 {
		headroom = 0
	}
	overflow := gain - headroom
	if overflow < 0 {
		overflow = 0
	}
	penalty := 1.0
	if gain >= bigEnergyGain {
		penalty = 0.5
	}
	factor := 1 - float64(overflow)/float64(gain)*penalty
	if factor < 0 {
		factor = 0
	}
	return float64(gain) * factor
}
