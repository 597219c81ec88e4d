package events

import (
	"log"

	"github.com/EmptyBox36/umamusume-auto-train/career"
)

const (
	// HandledChoice means a special handler dealt with the event itself.
	HandledChoice = 0
	// DefaultChoice is the top on-screen choice.
	DefaultChoice = 1
	// maxChoices bounds overrides for events with no known choice count.
	maxChoices = 5
)

// Via records which pipeline step produced a Result.
type Via byte

const (
	ViaDefault  Via = 0
	ViaSpecial  Via = 1
	ViaOverride Via = 2
	ViaHint     Via = 3
	ViaScore    Via = 4
	ViaFixed    Via = 5
	ViaTop      Via = 6
)

var ViaDictionary = map[Via]string{
	ViaDefault:  "default",
	ViaSpecial:  "special",
	ViaOverride: "override",
	ViaHint:     "skill_hint",
	ViaScore:    "score",
	ViaFixed:    "fixed",
	ViaTop:      "top_choice",
}

func (v Via) String() string { return ViaDictionary[v] }

// Result is the resolved answer for one event dialog.
type Result struct {
	Choice    int
	Total     int
	Handled   bool
	Directive string
	Matched   bool
	Key       string
	Via       Via
	Score     float64
}

// Resolver picks the choice for a narrative event.
type Resolver struct {
	cfg       *career.PolicyConfig
	db        *Database
	special   *SpecialRegistry
	scorer    ChoiceScorer
	overrides map[string]int
	desired   map[string]bool
	threshold float64
}

// NewResolver builds a resolver. A nil registry gets the built-in handlers.
func NewResolver(cfg *career.PolicyConfig, db *Database, special *SpecialRegistry) *Resolver {
	if special == nil {
		special = NewSpecialRegistry()
	}
	r := &Resolver{
		cfg:       cfg,
		db:        db,
		special:   special,
		scorer:    WeightedScorer{Config: cfg},
		overrides: make(map[string]int, len(cfg.Event.EventChoices)),
		desired:   make(map[string]bool),
		threshold: cfg.Event.FuzzyThreshold,
	}
	if r.threshold <= 0 {
		r.threshold = DefaultFuzzyThreshold
	}
	for _, o := range cfg.Event.EventChoices {
		r.overrides[Normalize(o.EventName)] = o.Chosen
	}
	for _, s := range cfg.DesiredSkills() {
		if k := Normalize(s); k != "" {
			r.desired[k] = true
		}
	}
	return r
}

// SetScorer swaps the choice scoring strategy.
func (r *Resolver) SetScorer(s ChoiceScorer) { r.scorer = s }

// Resolve runs the full pipeline for a raw dialog title.
func (r *Resolver) Resolve(title string, ctx ChoiceContext) Result {
	key := Normalize(title)
	if key == "" {
		return Result{Choice: DefaultChoice, Via: ViaDefault}
	}

	if res, ok := r.direct(key, title); ok {
		return res
	}

	if !r.db.Has(key) {
		if m, ok := BestMatch(key, r.db.Keys(), r.threshold); ok {
			log.Printf("[Event] Fuzzy match %q -> %q (%.2f)", key, m.Key, m.Score)
			key = m.Key
			if res, ok := r.direct(key, title); ok {
				return res
			}
		} else {
			log.Printf("[Event] No match for %q (best %q %.2f), using top choice", key, m.Key, m.Score)
			return Result{Choice: DefaultChoice, Key: key, Via: ViaDefault}
		}
	}

	rec := r.db.Record(key)
	if rec == nil {
		if fc, ok := r.db.Fixed(key); ok {
			return Result{Choice: fc.Choice, Total: fc.Total, Matched: true, Key: key, Via: ViaFixed}
		}
		return Result{Choice: DefaultChoice, Key: key, Via: ViaDefault}
	}

	total := r.total(key, rec)
	if !r.cfg.Event.UseOptimalEventChoices {
		return Result{Choice: DefaultChoice, Total: total, Matched: true, Key: key, Via: ViaTop}
	}

	if idx, ok := r.hintChoice(rec); ok {
		log.Printf("[Event] %q: choice %d carries a desired skill hint", key, idx)
		return Result{Choice: idx, Total: total, Matched: true, Key: key, Via: ViaHint}
	}

	best, bestScore := DefaultChoice, 0.0
	first := true
	for _, i := range rec.Indexes() {
		s := r.scorer.Score(rec.Outcomes[i], ctx)
		if first || s > bestScore {
			best, bestScore, first = i, s, false
		}
	}
	log.Printf("[Event] %q: choice %d scored %.3f", key, best, bestScore)
	return Result{Choice: best, Total: total, Matched: true, Key: key, Via: ViaScore, Score: bestScore}
}

// direct runs the special handler and override steps for key.
func (r *Resolver) direct(key, title string) (Result, bool) {
	if sp, ok := r.special.Run(HandlerContext{Key: key, Title: title, Config: r.cfg}); ok {
		if sp.Choice > 0 {
			return Result{Choice: sp.Choice, Matched: true, Key: key, Via: ViaSpecial}, true
		}
		return Result{Choice: HandledChoice, Handled: true, Directive: sp.Directive, Matched: true, Key: key, Via: ViaSpecial}, true
	}

	chosen, ok := r.overrides[key]
	if !ok {
		return Result{}, false
	}
	total := r.total(key, r.db.Record(key))
	limit := total
	if limit == 0 {
		limit = maxChoices
	}
	if chosen < 1 || chosen > limit {
		log.Printf("[Event] Override %d for %q out of range [1,%d], ignored", chosen, key, limit)
		return Result{}, false
	}
	return Result{Choice: chosen, Total: total, Matched: true, Key: key, Via: ViaOverride}, true
}

func (r *Resolver) total(key string, rec *Record) int {
	if rec != nil && rec.Total() > 0 {
		return rec.Total()
	}
	if fc, ok := r.db.Fixed(key); ok {
		return fc.Total
	}
	return 0
}

func (r *Resolver) hintChoice(rec *Record) (int, bool) {
	if len(r.desired) == 0 {
		return 0, false
	}
	for _, i := range rec.Indexes() {
		for _, h := range rec.Outcomes[i].Hints {
			if r.desired[Normalize(h)] {
				return i, true
			}
		}
	}
	return 0, false
}
