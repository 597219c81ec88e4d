package events

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/EmptyBox36/umamusume-auto-train/career"
)

// Source identifies which dataset an event record came from.
type Source byte

const (
	SourceFixed     Source = 0
	SourceCharacter Source = 1
	SourceSupport   Source = 2
	SourceScenario  Source = 3
)

var SourceDictionary = map[Source]string{
	SourceFixed:     "fixed",
	SourceCharacter: "character",
	SourceSupport:   "support",
	SourceScenario:  "scenario",
}

func (s Source) String() string { return SourceDictionary[s] }

// lookupOrder is the precedence when a key exists in several datasets.
var lookupOrder = []Source{SourceCharacter, SourceSupport, SourceScenario}

// Outcome is the effect of picking one choice.
type Outcome struct {
	Stats     career.StatBlock
	Energy    int
	Mood      int
	MaxEnergy int
	SkillPts  int
	Bond      int
	Hints     []string
	Random    bool
}

var statColumns = map[string]career.Stat{
	"Speed":   career.StatSpeed,
	"Stamina": career.StatStamina,
	"Power":   career.StatPower,
	"Guts":    career.StatGuts,
	"Wit":     career.StatWit,
	"Wisdom":  career.StatWit,
}

// UnmarshalJSON reads a dataset stats row such as
// {"Speed": 10, "HP": -5, "Skill Hint": "Corner Recovery ○"}.
func (o *Outcome) UnmarshalJSON(b []byte) error {
	var row map[string]json.RawMessage
	if err := json.Unmarshal(b, &row); err != nil {
		return err
	}
	*o = Outcome{}
	for col, raw := range row {
		if st, ok := statColumns[col]; ok {
			o.Stats.Set(st, rawInt(raw))
			continue
		}
		switch col {
		case "HP", "Energy":
			o.Energy = rawInt(raw)
		case "Mood":
			o.Mood = rawInt(raw)
		case "Max Energy", "Maximum Energy":
			o.MaxEnergy = rawInt(raw)
		case "Skill Pts", "Skill Points", "Skill points":
			o.SkillPts = rawInt(raw)
		case "Friendship", "Bond":
			o.Bond = rawInt(raw)
		case "Skill Hint", "Skill hint":
			o.Hints = rawStrings(raw)
		case "Random", "random":
			var flag bool
			if json.Unmarshal(raw, &flag) == nil {
				o.Random = flag
			}
		}
	}
	return nil
}

func rawInt(raw json.RawMessage) int {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "+")); err == nil {
			return n
		}
	}
	return 0
}

func rawStrings(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '/' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Record is one narrative event with its numbered choices.
type Record struct {
	Key       string
	Title     string
	Source    Source
	Character string
	Choices   map[int]string
	Outcomes  map[int]Outcome
}

// Total is the number of on-screen choices.
func (r *Record) Total() int {
	if len(r.Choices) > 0 {
		return len(r.Choices)
	}
	return len(r.Outcomes)
}

// Indexes returns the choice indexes that have outcomes, ascending.
func (r *Record) Indexes() []int {
	out := make([]int, 0, len(r.Outcomes))
	for i := range r.Outcomes {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// FixedChoice is a hard-wired answer for a common event.
type FixedChoice struct {
	Total  int
	Choice int
}

var builtinFixed = map[string]FixedChoice{
	"Get Well Soon!":                     {2, 1},
	"Extra Training":                     {2, 1},
	"New Year's Resolutions":             {3, 2},
	"New Year's Shrine Visit":            {3, 1},
	"Just an Acupuncturist, No Worries!": {5, 3},
	"Don't Overdo It!":                   {2, 1},
	"Exhilarating! What a Scoop!":        {2, 1},
	"A Trainer's Knowledge":              {2, 1},
	"Best Foot Forward!":                 {2, 2},
	"Victory!":                           {2, 1},
	"Solid Showing":                      {2, 1},
	"Defeat":                             {2, 1},
	"Etsuko's Exhaustive Coverage":       {2, 2},
	"At Summer (Year 2) Camp":            {2, 1},
	"Dance Lesson":                       {2, 1},
}

// Database is the union of all loaded event datasets.
type Database struct {
	mu      sync.RWMutex
	trainee string
	records map[Source]map[string]*Record
	fixed   map[string]FixedChoice
}

// NewDatabase creates a database seeded with the fixed table. Character
// datasets only keep events of the named trainee; an empty name keeps all.
func NewDatabase(trainee string) *Database {
	d := &Database{
		trainee: Normalize(trainee),
		records: make(map[Source]map[string]*Record),
		fixed:   make(map[string]FixedChoice, len(builtinFixed)),
	}
	for title, fc := range builtinFixed {
		d.fixed[Normalize(title)] = fc
	}
	return d
}

// AddFixed registers or replaces a fixed-table answer.
func (d *Database) AddFixed(title string, total, choice int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fixed[Normalize(title)] = FixedChoice{Total: total, Choice: choice}
}

// LoadFromFile loads a dataset file of the given source kind.
func (d *Database) LoadFromFile(path string, src Source) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read events file: %w", err)
	}
	return d.LoadFromJSON(data, src)
}

type eventPayload struct {
	Choices map[string]string  `json:"choices"`
	Stats   map[string]Outcome `json:"stats"`
}

// LoadFromJSON accepts both dataset shapes: event-keyed
// {"<event>": {"choices": ..., "stats": ...}} and character-keyed
// {"<character>": {"<event>": {...}}}.
func (d *Database) LoadFromJSON(data []byte, src Source) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return fmt.Errorf("parse events JSON: %w", err)
	}

	loaded := make(map[string]*Record)
	for name, raw := range top {
		if isEventPayload(raw) {
			rec, err := buildRecord(name, "", src, raw)
			if err != nil {
				return err
			}
			loaded[rec.Key] = rec
			continue
		}
		if d.trainee != "" && Normalize(name) != d.trainee {
			continue
		}
		var events map[string]json.RawMessage
		if err := json.Unmarshal(raw, &events); err != nil {
			return fmt.Errorf("parse events of %q: %w", name, err)
		}
		for title, payload := range events {
			rec, err := buildRecord(title, name, src, payload)
			if err != nil {
				return err
			}
			loaded[rec.Key] = rec
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.records[src] == nil {
		d.records[src] = make(map[string]*Record)
	}
	for k, rec := range loaded {
		d.records[src][k] = rec
	}
	return nil
}

func isEventPayload(raw json.RawMessage) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	_, hasChoices := probe["choices"]
	_, hasStats := probe["stats"]
	return hasChoices && hasStats
}

func buildRecord(title, character string, src Source, raw json.RawMessage) (*Record, error) {
	var p eventPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse event %q: %w", title, err)
	}
	rec := &Record{
		Key:       Normalize(title),
		Title:     title,
		Source:    src,
		Character: character,
		Choices:   make(map[int]string, len(p.Choices)),
		Outcomes:  make(map[int]Outcome, len(p.Stats)),
	}
	for k, label := range p.Choices {
		if i, err := strconv.Atoi(k); err == nil {
			rec.Choices[i] = label
		}
	}
	for k, o := range p.Stats {
		if i, err := strconv.Atoi(k); err == nil {
			rec.Outcomes[i] = o
		}
	}
	return rec, nil
}

// Add registers a record built in code.
func (d *Database) Add(rec *Record) {
	if rec.Key == "" {
		rec.Key = Normalize(rec.Title)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.records[rec.Source] == nil {
		d.records[rec.Source] = make(map[string]*Record)
	}
	d.records[rec.Source][rec.Key] = rec
}

// Record returns the highest-precedence dataset record for key.
func (d *Database) Record(key string) *Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, src := range lookupOrder {
		if rec := d.records[src][key]; rec != nil {
			return rec
		}
	}
	return nil
}

// Fixed returns the fixed-table answer for key.
func (d *Database) Fixed(key string) (FixedChoice, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fc, ok := d.fixed[key]
	return fc, ok
}

// Has reports whether key is known to any dataset or the fixed table.
func (d *Database) Has(key string) bool {
	if d.Record(key) != nil {
		return true
	}
	_, ok := d.Fixed(key)
	return ok
}

// Keys returns every known key, deduplicated.
func (d *Database) Keys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	seen := make(map[string]bool)
	for k := range d.fixed {
		seen[k] = true
	}
	for _, recs := range d.records {
		for k := range recs {
			seen[k] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of dataset records, excluding the fixed table.
func (d *Database) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, recs := range d.records {
		n += len(recs)
	}
	return n
}
