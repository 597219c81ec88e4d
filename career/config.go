package career

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FailureCondition moves the failure ceiling when the best training score
// crosses Point.
type FailureCondition struct {
	Point   float64 `json:"point" yaml:"point"`
	Failure int     `json:"failure" yaml:"failure"`
}

type FailureConfig struct {
	MaximumFailure       int              `json:"maximum_failure" yaml:"maximum_failure"`
	EnableCustomFailure  bool             `json:"enable_custom_failure" yaml:"enable_custom_failure"`
	EnableCustomLow      bool             `json:"enable_custom_low_failure" yaml:"enable_custom_low_failure"`
	LowFailureCondition  FailureCondition `json:"low_failure_condition" yaml:"low_failure_condition"`
	EnableCustomHigh     bool             `json:"enable_custom_high_failure" yaml:"enable_custom_high_failure"`
	HighFailureCondition FailureCondition `json:"high_failure_condition" yaml:"high_failure_condition"`
}

// ChoiceWeight is the utility weight of each event outcome field.
type ChoiceWeight struct {
	Speed     float64 `json:"spd" yaml:"spd"`
	Stamina   float64 `json:"sta" yaml:"sta"`
	Power     float64 `json:"pwr" yaml:"pwr"`
	Guts      float64 `json:"guts" yaml:"guts"`
	Wit       float64 `json:"wit" yaml:"wit"`
	HP        float64 `json:"hp" yaml:"hp"`
	MaxEnergy float64 `json:"max_energy" yaml:"max_energy"`
	SkillPts  float64 `json:"skillpts" yaml:"skillpts"`
	Bond      float64 `json:"bond" yaml:"bond"`
	Mood      float64 `json:"mood" yaml:"mood"`
}

func (w ChoiceWeight) Stat(s Stat) float64 {
	switch s {
	case StatSpeed:
		return w.Speed
	case StatStamina:
		return w.Stamina
	case StatPower:
		return w.Power
	case StatGuts:
		return w.Guts
	case StatWit:
		return w.Wit
	}
	return 0
}

type SkillConfig struct {
	SkillList   []string `json:"skill_list" yaml:"skill_list"`
	DesireSkill []string `json:"desire_skill" yaml:"desire_skill"`
}

// ScheduledRace is a race the user wants run on a given date.
type ScheduledRace struct {
	Name string `json:"name" yaml:"name"`
	Year string `json:"year" yaml:"year"`
	Date string `json:"date" yaml:"date"`
}

// EventOverride pins the choice for a named event.
type EventOverride struct {
	EventName string `json:"event_name" yaml:"event_name"`
	Chosen    int    `json:"chosen" yaml:"chosen"`
}

type EventConfig struct {
	UseOptimalEventChoices bool            `json:"use_optimal_event_choices" yaml:"use_optimal_event_choices"`
	EventChoices           []EventOverride `json:"event_choices" yaml:"event_choices"`
	FuzzyThreshold         float64         `json:"fuzzy_threshold" yaml:"fuzzy_threshold"`
	ScriptDir              string          `json:"script_dir" yaml:"script_dir"`
}

type UnityConfig struct {
	TeamPreference string `json:"team_preference" yaml:"team_preference"`
}

type RaceConfig struct {
	Keywords    []string `json:"keywords" yaml:"keywords"`
	TurnCeiling int      `json:"turn_ceiling" yaml:"turn_ceiling"`
	// ExtendedWindow keeps goal races off before the debut race while at
	// least this many turns are left.
	ExtendedWindow int `json:"extended_window" yaml:"extended_window"`
}

// PolicyConfig is the per-session decision configuration. It is loaded once
// and treated as read-only afterwards.
type PolicyConfig struct {
	Trainee  string `json:"trainee" yaml:"trainee"`
	Scenario string `json:"scenario" yaml:"scenario"`

	PriorityStat          []string   `json:"priority_stat" yaml:"priority_stat"`
	PriorityWeight        WeightTier `json:"priority_weight" yaml:"priority_weight"`
	PriorityWeights       []float64  `json:"priority_weights" yaml:"priority_weights"`
	SummerPriorityWeights []float64  `json:"summer_priority_weights" yaml:"summer_priority_weights"`
	UsePrioritizeOnJunior bool       `json:"use_prioritize_on_junior" yaml:"use_prioritize_on_junior"`
	UsePriorityOnChoice   bool       `json:"use_priority_on_choice" yaml:"use_priority_on_choice"`
	HintPoint             float64    `json:"hint_point" yaml:"hint_point"`
	TrainingFormula       string     `json:"training_formula" yaml:"training_formula"`

	ChoiceWeight ChoiceWeight `json:"choice_weight" yaml:"choice_weight"`

	SkipTrainingEnergy               int `json:"skip_training_energy" yaml:"skip_training_energy"`
	NeverRestEnergy                  int `json:"never_rest_energy" yaml:"never_rest_energy"`
	SkipInfirmaryUnlessMissingEnergy int `json:"skip_infirmary_unless_missing_energy" yaml:"skip_infirmary_unless_missing_energy"`

	MinimumMood           Mood `json:"minimum_mood" yaml:"minimum_mood"`
	MinimumMoodWithFriend Mood `json:"minimum_mood_with_friend" yaml:"minimum_mood_with_friend"`
	MinimumMoodJunior     Mood `json:"minimum_mood_junior_year" yaml:"minimum_mood_junior_year"`

	Failure  FailureConfig `json:"failure" yaml:"failure"`
	StatCaps StatBlock     `json:"stat_caps" yaml:"stat_caps"`
	Skill    SkillConfig   `json:"skill" yaml:"skill"`

	RaceSchedule     []ScheduledRace `json:"race_schedule" yaml:"race_schedule"`
	PrioritizeG1Race bool            `json:"prioritize_g1_race" yaml:"prioritize_g1_race"`
	Race             RaceConfig      `json:"race" yaml:"race"`

	Event EventConfig `json:"event" yaml:"event"`
	Unity UnityConfig `json:"unity" yaml:"unity"`
}

const (
	TrainingFormulaRainbow     = "rainbow"
	TrainingFormulaFriendValue = "friend_value"
)

// DefaultConfig mirrors the stock config shipped with the tool.
func DefaultConfig() PolicyConfig {
	return PolicyConfig{
		Scenario:              "URA Finale",
		PriorityStat:          []string{"spd", "sta", "wit", "pwr", "guts"},
		PriorityWeight:        WeightLight,
		PriorityWeights:       []float64{1, 0.8, 0.6, 0.4, 0.2},
		SummerPriorityWeights: []float64{1, 0.8, 0.6, 0.4, 0.2},
		HintPoint:             0.5,
		TrainingFormula:       TrainingFormulaRainbow,
		ChoiceWeight: ChoiceWeight{
			Speed: 1, Stamina: 1, Power: 1, Guts: 1, Wit: 1,
			HP: 0.5, MaxEnergy: 2, SkillPts: 0.3, Bond: 0.5, Mood: 5,
		},
		SkipTrainingEnergy:               30,
		NeverRestEnergy:                  70,
		SkipInfirmaryUnlessMissingEnergy: 20,
		MinimumMood:                      MoodGood,
		MinimumMoodWithFriend:            MoodNormal,
		MinimumMoodJunior:                MoodNormal,
		Failure: FailureConfig{
			MaximumFailure:       15,
			LowFailureCondition:  FailureCondition{Point: 1.5, Failure: 5},
			HighFailureCondition: FailureCondition{Point: 4, Failure: 30},
		},
		StatCaps: StatBlock{Speed: 1200, Stamina: 1200, Power: 1200, Guts: 1200, Wit: 1200},
		Race: RaceConfig{
			Keywords:       []string{"fan", "maiden", "progress"},
			TurnCeiling:    10,
			ExtendedWindow: 5,
		},
		Event: EventConfig{
			UseOptimalEventChoices: true,
			FuzzyThreshold:         0.8,
		},
		Unity: UnityConfig{TeamPreference: "carrots"},
	}
}

// LoadConfig reads a policy config from a .json, .yaml or .yml file. Fields
// absent from the file keep their DefaultConfig values.
func LoadConfig(path string) (*PolicyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseConfig(data, FormatYAML)
	default:
		return ParseConfig(data, FormatJSON)
	}
}

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ParseConfig decodes a config document over DefaultConfig and validates it.
func ParseConfig(data []byte, format string) (*PolicyConfig, error) {
	cfg := DefaultConfig()
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config JSON: %w", err)
		}
	default:
		return nil, ErrInvalidConfig(fmt.Sprintf("config format %q", format))
	}
	cfg.fillCaps()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *PolicyConfig) fillCaps() {
	for _, s := range AllStats {
		if c.StatCaps.Get(s) <= 0 {
			c.StatCaps.Set(s, DefaultStatCap)
		}
	}
}

// Validate checks ranges on a config built in code.
func (c *PolicyConfig) Validate() error {
	c.fillCaps()
	return c.validate()
}

func (c *PolicyConfig) validate() error {
	for _, k := range c.PriorityStat {
		if _, err := ParseStat(k); err != nil {
			return ErrInvalidConfig(fmt.Sprintf("priority_stat %q", k))
		}
	}
	if _, ok := WeightTierDictionary[c.PriorityWeight]; !ok {
		return ErrInvalidConfig(fmt.Sprintf("priority_weight %q", c.PriorityWeight))
	}
	if c.Failure.MaximumFailure < 0 || c.Failure.MaximumFailure > 100 {
		return ErrInvalidConfig(fmt.Sprintf("maximum_failure %d out of [0,100]", c.Failure.MaximumFailure))
	}
	for _, cond := range []FailureCondition{c.Failure.LowFailureCondition, c.Failure.HighFailureCondition} {
		if cond.Failure < 0 || cond.Failure > 100 {
			return ErrInvalidConfig(fmt.Sprintf("failure condition %d out of [0,100]", cond.Failure))
		}
	}
	if c.SkipTrainingEnergy < 0 || c.NeverRestEnergy < 0 {
		return ErrInvalidConfig("energy thresholds must be >= 0")
	}
	switch c.TrainingFormula {
	case "", TrainingFormulaRainbow, TrainingFormulaFriendValue:
	default:
		return ErrInvalidConfig(fmt.Sprintf("training_formula %q", c.TrainingFormula))
	}
	if t := c.Event.FuzzyThreshold; t != 0 && (t < 0.7 || t > 0.8) {
		return ErrInvalidConfig(fmt.Sprintf("fuzzy_threshold %.2f out of [0.7,0.8]", t))
	}
	for _, o := range c.Event.EventChoices {
		if strings.TrimSpace(o.EventName) == "" {
			return ErrInvalidConfig("event_choices entry without event_name")
		}
	}
	for _, m := range []Mood{c.MinimumMood, c.MinimumMoodWithFriend, c.MinimumMoodJunior} {
		if !m.Known() {
			return ErrInvalidConfig("minimum mood must be one of AWFUL, BAD, NORMAL, GOOD, GREAT")
		}
	}
	return nil
}

// PriorityRank is the attribute's index in the priority list, or
// UnknownRank when it is not listed.
func (c *PolicyConfig) PriorityRank(s Stat) int {
	for i, k := range c.PriorityStat {
		if v, err := ParseStat(k); err == nil && v == s {
			return i
		}
	}
	return UnknownRank
}

// PriorityMultiplier is 1 + effect(rank)·weight(tier). Summer uses the
// summer effect list when configured.
func (c *PolicyConfig) PriorityMultiplier(s Stat, summer bool) float64 {
	effects := c.PriorityWeights
	if summer && len(c.SummerPriorityWeights) > 0 {
		effects = c.SummerPriorityWeights
	}
	rank := c.PriorityRank(s)
	if rank >= len(effects) {
		return 1
	}
	return 1 + effects[rank]*WeightTierDictionary[c.PriorityWeight]
}

// Cap returns the configured cap for s.
func (c *PolicyConfig) Cap(s Stat) int {
	if v := c.StatCaps.Get(s); v > 0 {
		return v
	}
	return DefaultStatCap
}

// DesiredSkills returns the union of the skill list and desired skills.
func (c *PolicyConfig) DesiredSkills() []string {
	out := make([]string, 0, len(c.Skill.SkillList)+len(c.Skill.DesireSkill))
	out = append(out, c.Skill.SkillList...)
	out = append(out, c.Skill.DesireSkill...)
	return out
}

// MoodFloor is the minimum acceptable mood for the given date.
func (c *PolicyConfig) MoodFloor(d CareerDate, friendAvailable bool) Mood {
	if d.Year == YearJunior {
		return c.MinimumMoodJunior
	}
	if friendAvailable {
		return c.MinimumMoodWithFriend
	}
	return c.MinimumMood
}
