package brain

import (
	"log"
	"regexp"
	"strings"

	"github.com/EmptyBox36/umamusume-auto-train/career"
	"github.com/EmptyBox36/umamusume-auto-train/career/races"
)

var (
	g1Token = regexp.MustCompile(`\bg(1|i)\b`)

	wideGrades   = map[string]bool{"G1": true, "G2": true, "G3": true, "OP": true, "PRE-OP": true}
	narrowGrades = map[string]bool{"G1": true, "G2": true, "G3": true}

	aptitudeScore = map[string]int{"s": 2, "a": 2, "b": 1}
)

// RaceQuery is the planner's view of one turn.
type RaceQuery struct {
	Date      career.CareerDate
	TurnsLeft int
	Criteria  string
	Fans      int
	Aptitudes career.Aptitude
	DebutDone bool
}

// RaceQueryFromObservation fills a query from obs with cached aptitudes.
func RaceQueryFromObservation(obs *career.Observation, apt career.Aptitude) RaceQuery {
	return RaceQuery{
		Date:      obs.Date(),
		TurnsLeft: obs.Turn.Left,
		Criteria:  obs.Criteria,
		Fans:      obs.Fans,
		Aptitudes: apt,
		DebutDone: obs.DebutDone,
	}
}

// RacePlan is the planner's answer. An empty Target means no race.
type RacePlan struct {
	PreferHighGrade bool
	Target          string
}

func (p RacePlan) None() bool { return p.Target == "" }

// GoalPlanner decides whether an unmet goal calls for a race.
type GoalPlanner struct {
	cfg      *career.PolicyConfig
	calendar *races.Calendar
}

func NewGoalPlanner(cfg *career.PolicyConfig, calendar *races.Calendar) *GoalPlanner {
	if calendar == nil {
		calendar = races.NewCalendar()
	}
	return &GoalPlanner{cfg: cfg, calendar: calendar}
}

func (p *GoalPlanner) turnCeiling() int {
	if p.cfg.Race.TurnCeiling > 0 {
		return p.cfg.Race.TurnCeiling
	}
	return 10
}

func (p *GoalPlanner) keywords() []string {
	if len(p.cfg.Race.Keywords) > 0 {
		return p.cfg.Race.Keywords
	}
	return []string{"fan", "maiden", "progress"}
}

// Plan looks at the goal criteria and returns the race to pursue.
func (p *GoalPlanner) Plan(q RaceQuery) RacePlan {
	if q.Date.PreDebut {
		return RacePlan{}
	}
	left := q.TurnsLeft
	if left < 0 {
		left = 0
	}
	if left >= p.turnCeiling() {
		return RacePlan{}
	}
	if !q.DebutDone && left >= p.cfg.Race.ExtendedWindow {
		return RacePlan{}
	}

	text := strings.ToLower(q.Criteria)
	matched := false
	for _, k := range p.keywords() {
		if k != "" && strings.Contains(text, strings.ToLower(k)) {
			matched = true
			break
		}
	}
	if !matched {
		return RacePlan{}
	}
	if !strings.Contains(text, "progress") && !strings.Contains(text, "fan") {
		return p.any()
	}
	return p.pick(q, text, left)
}

// Opportunistic asks for a fan race regardless of the goal turn window.
func (p *GoalPlanner) Opportunistic(q RaceQuery) RacePlan {
	if q.Date.PreDebut {
		return RacePlan{}
	}
	left := q.TurnsLeft
	if left < 0 {
		left = 0
	}
	return p.pick(q, "fan", left)
}

func (p *GoalPlanner) any() RacePlan {
	return RacePlan{PreferHighGrade: p.cfg.PrioritizeG1Race, Target: AnyRace}
}

func (p *GoalPlanner) pick(q RaceQuery, text string, left int) RacePlan {
	g1Only := g1Token.MatchString(text)
	grades := narrowGrades
	if !q.DebutDone || left <= 2 {
		grades = wideGrades
	}

	var (
		best      races.Entry
		bestScore = -1
	)
	for _, e := range p.calendar.Window(q.Date.RaceKey()) {
		grade := strings.ToUpper(e.Grade)
		if !grades[grade] {
			continue
		}
		if q.Fans != career.UnknownFans && e.Fans.Required > q.Fans {
			continue
		}
		if g1Only && grade != "G1" {
			continue
		}
		terrain := aptitudeScore[q.Aptitudes.Grade("surface_"+e.Terrain)]
		distance := aptitudeScore[q.Aptitudes.Grade("distance_"+e.Distance.Type)]
		if terrain == 0 || distance == 0 {
			continue
		}
		score := terrain + distance
		if score > bestScore || (score == bestScore && e.Fans.Gained > best.Fans.Gained) {
			best, bestScore = e, score
		}
	}

	if bestScore < 0 {
		if g1Only {
			log.Printf("[Race] No eligible G1 for %q", q.Date.RaceKey())
			return RacePlan{}
		}
		return p.any()
	}
	log.Printf("[Race] Goal race %s (%s, score %d)", best.Name, best.Grade, bestScore)
	return RacePlan{PreferHighGrade: g1Only, Target: best.Name}
}

// Scheduled returns the configured race for the given date, if any.
func (p *GoalPlanner) Scheduled(d career.CareerDate) (string, bool) {
	return p.scheduledAt(d.Year.String(), d.Window())
}

func (p *GoalPlanner) scheduledAt(year, window string) (string, bool) {
	if window == "" {
		return "", false
	}
	for _, r := range p.cfg.RaceSchedule {
		if strings.EqualFold(r.Year, year) && strings.EqualFold(r.Date, window) {
			return r.Name, true
		}
	}
	return "", false
}
