package career

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// StatBlock holds one value per trainable attribute.
type StatBlock struct {
	Speed   int `json:"spd" yaml:"spd"`
	Stamina int `json:"sta" yaml:"sta"`
	Power   int `json:"pwr" yaml:"pwr"`
	Guts    int `json:"guts" yaml:"guts"`
	Wit     int `json:"wit" yaml:"wit"`
}

func (b StatBlock) Get(s Stat) int {
	switch s {
	case StatSpeed:
		return b.Speed
	case StatStamina:
		return b.Stamina
	case StatPower:
		return b.Power
	case StatGuts:
		return b.Guts
	case StatWit:
		return b.Wit
	}
	return 0
}

func (b *StatBlock) Set(s Stat, v int) {
	switch s {
	case StatSpeed:
		b.Speed = v
	case StatStamina:
		b.Stamina = v
	case StatPower:
		b.Power = v
	case StatGuts:
		b.Guts = v
	case StatWit:
		b.Wit = v
	}
}

// Readable reports whether every value was read (no -1 sentinel).
func (b StatBlock) Readable() bool {
	for _, s := range AllStats {
		if b.Get(s) < 0 {
			return false
		}
	}
	return true
}

// FriendHistogram counts support cards per friendship tier.
type FriendHistogram struct {
	Gray   int `json:"gray"`
	Blue   int `json:"blue"`
	Green  int `json:"green"`
	Yellow int `json:"yellow"`
	Max    int `json:"max"`
}

// NearMax is the number of supports at yellow or max.
func (h FriendHistogram) NearMax() int { return h.Yellow + h.Max }

// Building is the number of supports whose gauge can still grow.
func (h FriendHistogram) Building() int { return h.Gray + h.Blue + h.Green }

// TrainingOption is what the training screen shows for one attribute.
type TrainingOption struct {
	Failure  int             `json:"failure"`
	Supports int             `json:"total_supports"`
	Friends  FriendHistogram `json:"friends"`
	// Rainbow counts supports of this attribute's own type at yellow or max;
	// those trigger the friendship training bonus.
	Rainbow int `json:"rainbow"`
	Hints   int `json:"total_hints"`
}

// NonMaxed is the number of supports that are not yet at yellow or max.
func (o TrainingOption) NonMaxed() int {
	n := o.Supports - o.Friends.NearMax()
	if n < 0 {
		return 0
	}
	return n
}

// TrainingSet maps each attribute to its current training option.
type TrainingSet map[Stat]TrainingOption

func (s Stat) MarshalText() ([]byte, error) {
	k, ok := StatKeyDictionary[s]
	if !ok {
		return nil, ErrUnknownStat
	}
	return []byte(k), nil
}

func (s *Stat) UnmarshalText(b []byte) error {
	v, err := ParseStat(string(b))
	if err != nil {
		return fmt.Errorf("%w: %q", err, string(b))
	}
	*s = v
	return nil
}

func (m Mood) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mood) UnmarshalText(b []byte) error {
	*m = ParseMood(string(b))
	return nil
}

// Aptitude maps keys like "surface_turf" or "distance_mile" to a letter grade.
type Aptitude map[string]string

// Grade returns the lower-cased grade for key, or "" when unknown.
func (a Aptitude) Grade(key string) string {
	return strings.ToLower(strings.TrimSpace(a[strings.ToLower(key)]))
}

// TurnToken is the turn counter text: turns left until the next goal, or
// one of the "Race Day" / "Goal" markers.
type TurnToken struct {
	Left    int
	RaceDay bool
	Goal    bool
}

var turnDigits = regexp.MustCompile(`[^\d]`)

// ParseTurn interprets raw OCR turn text. Unreadable text yields Left = -1.
func ParseTurn(raw string) TurnToken {
	lower := strings.ToLower(raw)
	if strings.Contains(lower, "race") {
		return TurnToken{RaceDay: true}
	}
	if strings.Contains(lower, "goal") {
		return TurnToken{Goal: true}
	}
	digits := turnDigits.ReplaceAllString(strings.ReplaceAll(raw, "I", "1"), "")
	if n, err := strconv.Atoi(digits); err == nil && n > 0 && n < 50 {
		return TurnToken{Left: n}
	}
	return TurnToken{Left: -1}
}

func (t TurnToken) String() string {
	switch {
	case t.RaceDay:
		return "Race Day"
	case t.Goal:
		return "Goal"
	}
	return strconv.Itoa(t.Left)
}

func (t TurnToken) MarshalJSON() ([]byte, error) {
	if t.RaceDay || t.Goal {
		return json.Marshal(t.String())
	}
	return json.Marshal(t.Left)
}

func (t *TurnToken) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*t = TurnToken{Left: n}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("turn token: %w", err)
	}
	*t = ParseTurn(s)
	return nil
}

var monthOrder = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// CareerDate is the parsed year text, e.g. "Classic Year Early Jun".
type CareerDate struct {
	Raw      string
	Year     YearBucket
	PreDebut bool
	Late     bool
	Month    int // 0-based; -1 when unknown
	Valid    bool
}

// ParseCareerDate parses the year banner. Finale and Pre-Debut are valid
// without a month.
func ParseCareerDate(raw string) CareerDate {
	raw = strings.Join(strings.Fields(raw), " ")
	d := CareerDate{Raw: raw, Month: -1}
	if raw == "" {
		return d
	}
	if strings.Contains(raw, "Finale") {
		d.Year = YearFinale
		d.Valid = true
		return d
	}
	parts := strings.Split(raw, " ")
	switch parts[0] {
	case "Junior":
		d.Year = YearJunior
	case "Classic":
		d.Year = YearClassic
	case "Senior":
		d.Year = YearSenior
	default:
		return d
	}
	if strings.Contains(raw, "Pre-Debut") {
		d.PreDebut = true
		d.Valid = true
		return d
	}
	if len(parts) < 4 {
		return d
	}
	switch {
	case strings.Contains(parts[2], "Early"):
	case strings.Contains(parts[2], "Late"):
		d.Late = true
	default:
		return d
	}
	for i, m := range monthOrder {
		if strings.Contains(parts[3], m) {
			d.Month = i
			d.Valid = true
			break
		}
	}
	return d
}

// MonthName returns the short month name, or "" when unknown.
func (d CareerDate) MonthName() string {
	if d.Month < 0 || d.Month >= len(monthOrder) {
		return ""
	}
	return monthOrder[d.Month]
}

// Window returns the calendar window key, e.g. "Early Jun".
func (d CareerDate) Window() string {
	if d.Month < 0 {
		return ""
	}
	if d.Late {
		return "Late " + d.MonthName()
	}
	return "Early " + d.MonthName()
}

// RaceKey returns the "<year bucket> <window>" key used by the race calendar.
func (d CareerDate) RaceKey() string {
	if !d.Valid || d.Month < 0 {
		return ""
	}
	return d.Year.String() + " " + d.Window()
}

// Summer reports whether the date falls in the Jul/Aug training camp of the
// Classic or Senior year.
func (d CareerDate) Summer() bool {
	return (d.Year == YearClassic || d.Year == YearSenior) && (d.Month == 6 || d.Month == 7)
}

// VirtualTurn maps the date onto 0..75: Pre-Debut is 0, regular turns run
// 1..72 and the Finale rounds are 73..75. Returns -1 when unparseable.
func (d CareerDate) VirtualTurn(criteria string) int {
	if !d.Valid {
		return -1
	}
	if d.PreDebut {
		return 0
	}
	if d.Year == YearFinale {
		switch {
		case strings.Contains(criteria, "Qualifier"):
			return 73
		case strings.Contains(criteria, "Semifinal"):
			return 74
		case strings.Contains(criteria, "Final"):
			return 75
		}
		return 73
	}
	phase := 0
	if d.Late {
		phase = 1
	}
	return int(d.Year)*24 + d.Month*2 + phase + 1
}

// Observation is one tick's typed snapshot of the game screen.
type Observation struct {
	CareerComplete bool   `json:"career_complete,omitempty"`
	Interstitial   string `json:"interstitial,omitempty"`

	EventTitle string `json:"event_title,omitempty"`

	Stats     StatBlock   `json:"stats"`
	Energy    int         `json:"energy"`
	MaxEnergy int         `json:"max_energy"`
	Mood      Mood        `json:"mood"`
	Turn      TurnToken   `json:"turn"`
	Year      string      `json:"year"`
	Criteria  string      `json:"criteria"`
	Training  TrainingSet `json:"training,omitempty"`
	Fans      int         `json:"fans"`
	Aptitudes Aptitude    `json:"aptitudes,omitempty"`

	StatusEffects      []string `json:"status_effects,omitempty"`
	InfirmaryAvailable bool     `json:"infirmary_available,omitempty"`
	FriendRecreation   bool     `json:"friend_recreation,omitempty"`
	DebutDone          bool     `json:"debut_done,omitempty"`

	// RaceUnavailable is set by the actuator when the previously requested
	// race could not be entered.
	RaceUnavailable bool `json:"race_unavailable,omitempty"`
}

// Date parses the observation's year banner.
func (o *Observation) Date() CareerDate { return ParseCareerDate(o.Year) }

// MissingEnergy is how much energy rest would restore at most.
func (o *Observation) MissingEnergy() int {
	if o.MaxEnergy <= 0 {
		return 0
	}
	if m := o.MaxEnergy - o.Energy; m > 0 {
		return m
	}
	return 0
}

// DecodeObservation parses a JSON observation. Fields the producer leaves out
// decode to their unknown sentinels rather than zero values.
func DecodeObservation(data []byte) (Observation, error) {
	obs := Observation{
		Mood: MoodUnknown,
		Fans: UnknownFans,
		Turn: TurnToken{Left: -1},
	}
	if err := json.Unmarshal(data, &obs); err != nil {
		return Observation{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return obs, nil
}
