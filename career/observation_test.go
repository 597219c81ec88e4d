package career

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseCareerDateVirtualTurn(t *testing.T) {
	cases := []struct {
		raw      string
		criteria string
		want     int
	}{
		{"Junior Year Pre-Debut", "", 0},
		{"Junior Year Early Jan", "", 1},
		{"Junior Year Late Dec", "", 24},
		{"Classic Year Early Jun", "", 35},
		{"Senior Year Late Dec", "", 72},
		{"Finale Underway", "Qualifier", 73},
		{"Finale Underway", "Semifinal", 74},
		{"Finale Underway", "Final", 75},
		{"garbage", "", -1},
	}
	for _, c := range cases {
		got := ParseCareerDate(c.raw).VirtualTurn(c.criteria)
		if got != c.want {
			t.Fatalf("VirtualTurn(%q): got %d, want %d", c.raw, got, c.want)
		}
	}
}

func TestCareerDateRaceKeyAndSummer(t *testing.T) {
	d := ParseCareerDate("Classic  Year Late Jul")
	if got := d.RaceKey(); got != "Classic Year Late Jul" {
		t.Fatalf("RaceKey: got %q", got)
	}
	if !d.Summer() {
		t.Fatalf("expected Late Jul of Classic year to be summer camp")
	}
	if ParseCareerDate("Junior Year Early Aug").Summer() {
		t.Fatalf("junior year has no summer camp")
	}
}

func TestParseTurn(t *testing.T) {
	if tok := ParseTurn("Race Day"); !tok.RaceDay {
		t.Fatalf("expected race day token, got %+v", tok)
	}
	if tok := ParseTurn("Goal"); !tok.Goal {
		t.Fatalf("expected goal token, got %+v", tok)
	}
	if tok := ParseTurn("I2 turns"); tok.Left != 12 {
		t.Fatalf("expected OCR 'I' read as 1, got %+v", tok)
	}
	if tok := ParseTurn("??"); tok.Left != -1 {
		t.Fatalf("expected unreadable turn -1, got %+v", tok)
	}
}

func TestDecodeObservationSentinels(t *testing.T) {
	obs, err := DecodeObservation([]byte(`{
		"stats": {"spd": 300, "sta": 200, "pwr": 150, "guts": 120, "wit": 180},
		"energy": 80, "max_energy": 100,
		"turn": "Race Day",
		"year": "Classic Year Early Jun",
		"training": {"spd": {"failure": 5, "total_supports": 2, "friends": {"blue": 1, "yellow": 1}, "rainbow": 1}}
	}`))
	if err != nil {
		t.Fatalf("DecodeObservation: %v", err)
	}
	if obs.Mood != MoodUnknown {
		t.Fatalf("missing mood should decode to UNKNOWN, got %v", obs.Mood)
	}
	if obs.Fans != UnknownFans {
		t.Fatalf("missing fans should decode to -1, got %d", obs.Fans)
	}
	if !obs.Turn.RaceDay {
		t.Fatalf("expected race day turn")
	}
	opt, ok := obs.Training[StatSpeed]
	if !ok || opt.NonMaxed() != 1 || opt.Rainbow != 1 {
		t.Fatalf("unexpected speed option: %+v", opt)
	}
}

func TestSessionStatsFallsBackToLastValid(t *testing.T) {
	cfg := DefaultConfig()
	s := NewSessionState(&cfg)
	good := StatBlock{Speed: 400, Stamina: 300, Power: 200, Guts: 100, Wit: 250}
	s.Stats(good)
	got := s.Stats(StatBlock{Speed: -1, Stamina: 310, Power: 200, Guts: 100, Wit: 250})
	if got != good {
		t.Fatalf("expected last valid stats, got %+v", got)
	}
}

func TestStatusSeverity(t *testing.T) {
	if got := StatusSeverity([]string{"night owl", "Migraine", "Sparkle"}); got != 3 {
		t.Fatalf("StatusSeverity: got %d, want 3", got)
	}
}

func TestPriorityRankUnknownIsLast(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PriorityStat = []string{"spd", "sta"}
	if got := cfg.PriorityRank(StatGuts); got != UnknownRank {
		t.Fatalf("unlisted stat rank: got %d, want %d", got, UnknownRank)
	}
	if got := cfg.PriorityMultiplier(StatGuts, false); got != 1 {
		t.Fatalf("unlisted stat multiplier: got %v, want 1", got)
	}
	if got := cfg.PriorityMultiplier(StatSpeed, false); got != 1.25 {
		t.Fatalf("first stat multiplier: got %v, want 1.25", got)
	}
}

func TestLoadConfigYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(yml, []byte(`
priority_stat: [wit, spd]
priority_weight: HEAVY
minimum_mood: GREAT
failure:
  maximum_failure: 20
`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(yml)
	if err != nil {
		t.Fatalf("LoadConfig yaml: %v", err)
	}
	if cfg.PriorityRank(StatWit) != 0 || cfg.MinimumMood != MoodGreat || cfg.Failure.MaximumFailure != 20 {
		t.Fatalf("yaml fields not applied: %+v", cfg)
	}
	if cfg.Cap(StatSpeed) != 1200 {
		t.Fatalf("default cap not applied")
	}

	js := filepath.Join(dir, "config.json")
	if err := os.WriteFile(js, []byte(`{"priority_weight": "EXTREME"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(js); err == nil {
		t.Fatalf("expected invalid priority weight to fail validation")
	}
}

func TestSessionEnergyFallsBackToLastReading(t *testing.T) {
	cfg := DefaultConfig()
	s := NewSessionState(&cfg)

	if e, m := s.Energy(-1, -1); e != 0 || m != -1 {
		t.Fatalf("unreadable without history got %d/%d, want 0/-1", e, m)
	}
	if e, m := s.Energy(95, 100); e != 95 || m != 100 {
		t.Fatalf("readable got %d/%d, want 95/100", e, m)
	}
	if e, m := s.Energy(-1, 100); e != 95 || m != 100 {
		t.Fatalf("unreadable energy got %d/%d, want 95/100", e, m)
	}
	if e, m := s.Energy(40, 0); e != 40 || m != 100 {
		t.Fatalf("unreadable max got %d/%d, want 40/100", e, m)
	}
	if e, m := s.Energy(30, 110); e != 30 || m != 110 {
		t.Fatalf("new reading got %d/%d, want 30/110", e, m)
	}
}
