package career

import "strings"

// Stat is one of the five trainable attributes.
type Stat byte

const (
	StatSpeed   Stat = 0
	StatStamina Stat = 1
	StatPower   Stat = 2
	StatGuts    Stat = 3
	StatWit     Stat = 4
)

// StatCount is the number of trainable attributes.
const StatCount = 5

var StatKeyDictionary = map[Stat]string{
	StatSpeed:   "spd",
	StatStamina: "sta",
	StatPower:   "pwr",
	StatGuts:    "guts",
	StatWit:     "wit",
}

// AllStats lists attributes in on-screen order.
var AllStats = []Stat{StatSpeed, StatStamina, StatPower, StatGuts, StatWit}

var statAliases = map[string]Stat{
	"spd":     StatSpeed,
	"speed":   StatSpeed,
	"sta":     StatStamina,
	"stamina": StatStamina,
	"pwr":     StatPower,
	"power":   StatPower,
	"guts":    StatGuts,
	"wit":     StatWit,
	"wisdom":  StatWit,
	"int":     StatWit,
}

func (s Stat) String() string {
	if k, ok := StatKeyDictionary[s]; ok {
		return k
	}
	return "unknown"
}

// ParseStat accepts short keys ("spd") and long names ("Speed").
func ParseStat(key string) (Stat, error) {
	s, ok := statAliases[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return 0, ErrUnknownStat
	}
	return s, nil
}

// Mood is the trainee's ordinal wellbeing state.
type Mood byte

const (
	MoodAwful   Mood = 0
	MoodBad     Mood = 1
	MoodNormal  Mood = 2
	MoodGood    Mood = 3
	MoodGreat   Mood = 4
	MoodUnknown Mood = 5
)

var MoodDictionary = map[Mood]string{
	MoodAwful:   "AWFUL",
	MoodBad:     "BAD",
	MoodNormal:  "NORMAL",
	MoodGood:    "GOOD",
	MoodGreat:   "GREAT",
	MoodUnknown: "UNKNOWN",
}

func (m Mood) String() string {
	if n, ok := MoodDictionary[m]; ok {
		return n
	}
	return "UNKNOWN"
}

// Known reports whether the mood is one of the five ordinal values.
func (m Mood) Known() bool { return m < MoodUnknown }

// ParseMood maps OCR text to a Mood; anything unrecognized is MoodUnknown.
func ParseMood(raw string) Mood {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	for m, n := range MoodDictionary {
		if n == raw {
			return m
		}
	}
	return MoodUnknown
}

// FriendTier is a support card's friendship gauge level.
type FriendTier byte

const (
	FriendTierGray   FriendTier = 0
	FriendTierBlue   FriendTier = 1
	FriendTierGreen  FriendTier = 2
	FriendTierYellow FriendTier = 3
	FriendTierMax    FriendTier = 4
)

var FriendTierDictionary = map[FriendTier]string{
	FriendTierGray:   "gray",
	FriendTierBlue:   "blue",
	FriendTierGreen:  "green",
	FriendTierYellow: "yellow",
	FriendTierMax:    "max",
}

// YearBucket is the career year a turn belongs to.
type YearBucket byte

const (
	YearJunior  YearBucket = 0
	YearClassic YearBucket = 1
	YearSenior  YearBucket = 2
	YearFinale  YearBucket = 3
)

var YearBucketDictionary = map[YearBucket]string{
	YearJunior:  "Junior Year",
	YearClassic: "Classic Year",
	YearSenior:  "Senior Year",
	YearFinale:  "Finale",
}

func (y YearBucket) String() string { return YearBucketDictionary[y] }

// WeightTier scales how strongly the priority list biases scores.
type WeightTier string

const (
	WeightHeavy  WeightTier = "HEAVY"
	WeightMedium WeightTier = "MEDIUM"
	WeightLight  WeightTier = "LIGHT"
	WeightNone   WeightTier = "NONE"
)

var WeightTierDictionary = map[WeightTier]float64{
	WeightHeavy:  0.75,
	WeightMedium: 0.5,
	WeightLight:  0.25,
	WeightNone:   0,
}

// RecreationMode selects who the trainee goes out with.
type RecreationMode byte

const (
	RecreationTrainee RecreationMode = 0
	RecreationFriend  RecreationMode = 1
)

var RecreationModeDictionary = map[RecreationMode]string{
	RecreationTrainee: "trainee",
	RecreationFriend:  "friend",
}

// Status effects that the infirmary cures, with their severity.
var StatusSeverityDictionary = map[string]int{
	"Migraine":          2,
	"Night Owl":         1,
	"Practice Poor":     1,
	"Skin Outbreak":     1,
	"Slacker":           2,
	"Slow Metabolism":   2,
	"Under the Weather": 0,
}

// StatusSeverity sums the severity of the recognized status effects in
// conditions. Matching ignores case and spaces; unrecognized names are skipped.
func StatusSeverity(conditions []string) int {
	total := 0
	for _, c := range conditions {
		key := squash(c)
		for name, sev := range StatusSeverityDictionary {
			if squash(name) == key {
				total += sev
				break
			}
		}
	}
	return total
}

func squash(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}

const (
	// DefaultStatCap applies to attributes with no configured cap.
	DefaultStatCap = 1200
	// UnknownFans marks a fan count that could not be read.
	UnknownFans = -1
	// UnknownRank is the priority rank of attributes missing from the priority list.
	UnknownRank = 999
)
