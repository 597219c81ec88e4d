package brain

import (
	"log"
	"strings"

	"github.com/EmptyBox36/umamusume-auto-train/career"
	"github.com/EmptyBox36/umamusume-auto-train/career/events"
	"github.com/EmptyBox36/umamusume-auto-train/career/races"
)

// State is the turn policy's position in its per-tick state machine.
type State byte

const (
	StateObserving           State = 0
	StateConsumeInterstitial State = 1
	StateResolveEvent        State = 2
	StateRunRaceDay          State = 3
	StateRunScheduledRace    State = 4
	StatePursueGoalRace      State = 5
	StateDecideTraining      State = 6
	StateRest                State = 7
	StateRecreate            State = 8
	StateVisitRecovery       State = 9
	StateStopped             State = 10
)

var StateDictionary = map[State]string{
	StateObserving:           "observing",
	StateConsumeInterstitial: "consume_interstitial",
	StateResolveEvent:        "resolve_event",
	StateRunRaceDay:          "run_race_day",
	StateRunScheduledRace:    "run_scheduled_race",
	StatePursueGoalRace:      "pursue_goal_race",
	StateDecideTraining:      "decide_training",
	StateRest:                "rest",
	StateRecreate:            "recreate",
	StateVisitRecovery:       "visit_recovery",
	StateStopped:             "stopped",
}

func (s State) String() string { return StateDictionary[s] }

const (
	// summerRestFloor is the energy at or below which the pre-summer turn rests.
	summerRestFloor = 50
	// summerEnergyGap keeps recreation off in summer when little energy is missing.
	summerEnergyGap = 40
)

// Policy is the per-career turn state machine. It is not safe for
// concurrent use; the caller runs one Decide at a time.
type Policy struct {
	cfg       *career.PolicyConfig
	session   *career.SessionState
	evaluator *Evaluator
	planner   *GoalPlanner
	resolver  *events.Resolver
	state     State
}

func NewPolicy(cfg *career.PolicyConfig, session *career.SessionState, evaluator *Evaluator, planner *GoalPlanner, resolver *events.Resolver) *Policy {
	return &Policy{
		cfg:       cfg,
		session:   session,
		evaluator: evaluator,
		planner:   planner,
		resolver:  resolver,
		state:     StateObserving,
	}
}

// New wires a fresh policy and session over loaded datasets. A nil special
// registry gets the built-in handlers.
func New(cfg *career.PolicyConfig, db *events.Database, calendar *races.Calendar, special *events.SpecialRegistry) *Policy {
	if db == nil {
		db = events.NewDatabase(cfg.Trainee)
	}
	return NewPolicy(cfg, career.NewSessionState(cfg), NewEvaluator(cfg),
		NewGoalPlanner(cfg, calendar), events.NewResolver(cfg, db, special))
}

func (p *Policy) Name() string {
	if p.cfg.Trainee != "" {
		return p.cfg.Trainee + "/" + p.evaluator.Scorer().Name()
	}
	return p.evaluator.Scorer().Name()
}

// State returns the state the last Decide ended in.
func (p *Policy) State() State { return p.state }

// Session exposes the mutable per-career record.
func (p *Policy) Session() *career.SessionState { return p.session }

// Decide implements Decider.
func (p *Policy) Decide(obs *career.Observation) Action {
	a, next := p.tick(obs)
	p.state = next
	if a.Kind == ActionKindEnterRace {
		p.session.MarkRaceAttempt(a.Race)
	}
	return a
}

func (p *Policy) tick(obs *career.Observation) (Action, State) {
	if p.state == StateStopped {
		return Stop("career already complete"), StateStopped
	}
	if obs.CareerComplete {
		log.Printf("[Brain] Career complete, stopping")
		return Stop("career complete"), StateStopped
	}
	if obs.Interstitial != "" {
		return Continue("", "dismiss "+obs.Interstitial), StateConsumeInterstitial
	}

	view := *obs
	view.Energy, view.MaxEnergy = p.session.Energy(obs.Energy, obs.MaxEnergy)
	obs = &view
	stats := p.session.Stats(obs.Stats)

	if obs.EventTitle != "" {
		res := p.resolver.Resolve(obs.EventTitle, events.ContextFromObservation(obs, stats))
		if res.Handled {
			return Continue(res.Directive, "event handled by "+res.Key), StateResolveEvent
		}
		return SelectEventChoice(res.Choice, "event "+res.Via.String()), StateResolveEvent
	}

	p.session.BeginTurn(obs.Year+"|"+obs.Criteria, obs.RaceUnavailable)
	date := obs.Date()
	apt := p.session.Aptitudes(obs.Aptitudes)

	if obs.Turn.RaceDay && !p.session.RaceFailed(AnyRace) {
		return EnterRace(AnyRace, p.cfg.PrioritizeG1Race, "race day"), StateRunRaceDay
	}
	if name, ok := p.planner.Scheduled(date); ok && !p.session.RaceFailed(name) {
		return EnterRace(name, false, "scheduled race"), StateRunScheduledRace
	}
	if !strings.Contains(strings.ToLower(obs.Criteria), "achieved") {
		plan := p.planner.Plan(RaceQueryFromObservation(obs, apt))
		if !plan.None() && !p.session.RaceFailed(plan.Target) {
			return EnterRace(plan.Target, plan.PreferHighGrade, "goal criteria unmet"), StatePursueGoalRace
		}
	}

	in := TrainingInput{Training: obs.Training, Stats: stats, Energy: obs.Energy, Date: date}
	return p.decideTraining(obs, in, apt)
}

func (p *Policy) recreation(obs *career.Observation) career.RecreationMode {
	if obs.FriendRecreation {
		return career.RecreationFriend
	}
	return career.RecreationTrainee
}

// missingMood is how many mood steps the trainee is below the floor.
func (p *Policy) missingMood(obs *career.Observation, date career.CareerDate) int {
	if !obs.Mood.Known() {
		return 0
	}
	floor := p.cfg.MoodFloor(date, obs.FriendRecreation)
	if obs.Mood >= floor {
		return 0
	}
	return int(floor) - int(obs.Mood)
}

func (p *Policy) preSummer(obs *career.Observation, date career.CareerDate) bool {
	if date.Year != career.YearClassic && date.Year != career.YearSenior {
		return false
	}
	if date.MonthName() != "Jun" {
		return false
	}
	if date.Late {
		return true
	}
	_, scheduled := p.planner.scheduledAt(date.Year.String(), "Late Jun")
	return obs.Turn.Left == 1 || scheduled
}

func (p *Policy) decideTraining(obs *career.Observation, in TrainingInput, apt career.Aptitude) (Action, State) {
	date := in.Date
	summer := date.Summer()
	mood := p.missingMood(obs, date)
	missingEnergy := obs.MissingEnergy()

	verdict := p.evaluator.Evaluate(in, p.session)

	if p.preSummer(obs, date) {
		if verdict.Kind != VerdictTrain {
			return Rest("save energy for summer camp"), StateRest
		}
		if verdict.Score < 2 {
			if obs.Energy <= summerRestFloor {
				return Rest("weak board before summer camp"), StateRest
			}
			return Train(career.StatWit, "weak board before summer camp"), StateDecideTraining
		}
	}

	if sev := career.StatusSeverity(obs.StatusEffects); obs.InfirmaryAvailable && sev > 0 {
		switch {
		case sev <= 1 && mood > 0 && !(summer && missingEnergy < summerEnergyGap):
			return Recreate(p.recreation(obs), "mild condition and low mood"), StateRecreate
		case missingEnergy < p.cfg.SkipInfirmaryUnlessMissingEnergy:
			log.Printf("[Brain] Infirmary deferred, only %d energy missing", missingEnergy)
		default:
			return VisitRecovery("status condition"), StateVisitRecovery
		}
	}

	if !summer && mood > 1 {
		return Recreate(p.recreation(obs), "mood far below floor"), StateRecreate
	}

	threshold := 3.0
	if summer {
		threshold = 1.5
	}
	if verdict.Kind == VerdictTrain && verdict.Score >= threshold {
		return Train(verdict.Stat, verdict.Reason), StateDecideTraining
	}
	if mood > 0 {
		return Recreate(p.recreation(obs), "mood below floor"), StateRecreate
	}
	if verdict.Kind == VerdictTrain && verdict.Score >= 1 {
		return Train(verdict.Stat, verdict.Reason), StateDecideTraining
	}

	if verdict.Kind == VerdictRace {
		if a, ok := p.opportunisticRace(obs, apt, verdict.Reason); ok {
			return a, StatePursueGoalRace
		}
		verdict.Kind = VerdictDefer
	}
	if verdict.Kind == VerdictDefer || verdict.Kind == VerdictTrain {
		verdict = p.evaluator.MostSupport(in, p.session)
	}
	switch verdict.Kind {
	case VerdictTrain:
		return Train(verdict.Stat, verdict.Reason), StateDecideTraining
	case VerdictRace:
		if a, ok := p.opportunisticRace(obs, apt, verdict.Reason); ok {
			return a, StatePursueGoalRace
		}
	}

	if date.Year == career.YearFinale {
		if obs.FriendRecreation {
			return Recreate(career.RecreationFriend, "finale friend outing"), StateRecreate
		}
		if strings.Contains(obs.Criteria, "Finals") {
			return Train(career.StatWit, "finale filler"), StateDecideTraining
		}
	}
	return p.rest(obs, verdict.Reason)
}

// opportunisticRace asks the planner for any fan race this turn.
func (p *Policy) opportunisticRace(obs *career.Observation, apt career.Aptitude, reason string) (Action, bool) {
	plan := p.planner.Opportunistic(RaceQueryFromObservation(obs, apt))
	if plan.None() || p.session.RaceFailed(plan.Target) {
		return Action{}, false
	}
	return EnterRace(plan.Target, plan.PreferHighGrade, reason), true
}

// rest refuses to rest on high energy and trains wit instead.
func (p *Policy) rest(obs *career.Observation, reason string) (Action, State) {
	if obs.Energy > p.cfg.NeverRestEnergy {
		return Train(career.StatWit, "energy too high to rest"), StateDecideTraining
	}
	return Rest(reason), StateRest
}
