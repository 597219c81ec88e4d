package brain

import (
	"math"
	"math/rand"
	"testing"

	"github.com/EmptyBox36/umamusume-auto-train/career"
)

var classicApr = career.ParseCareerDate("Classic Year Early Apr")

func supports(n, nearMax, rainbow, failure int) career.TrainingOption {
	return career.TrainingOption{
		Failure:  failure,
		Supports: n,
		Friends:  career.FriendHistogram{Gray: n - nearMax, Yellow: nearMax},
		Rainbow:  rainbow,
	}
}

func TestRainbowScorerFormula(t *testing.T) {
	cfg := career.DefaultConfig()
	opt := career.TrainingOption{
		Supports: 4,
		Friends:  career.FriendHistogram{Blue: 1, Yellow: 1, Max: 2},
		Rainbow:  2,
		Hints:    1,
	}
	got := RainbowScorer{Config: &cfg}.Score(career.StatSpeed, opt, career.ParseCareerDate("Junior Year Late Aug"))
	if got.Base != 5 {
		t.Fatalf("base got %v, want 5", got.Base)
	}
	if math.Abs(got.Total-6.75) > 1e-9 {
		t.Fatalf("total got %v, want 6.75", got.Total)
	}

	classic := RainbowScorer{Config: &cfg}.Score(career.StatSpeed, opt, classicApr)
	want := 6.75 * cfg.PriorityMultiplier(career.StatSpeed, false)
	if math.Abs(classic.Total-want) > 1e-9 {
		t.Fatalf("classic total got %v, want %v", classic.Total, want)
	}
}

func TestFriendValueScorerFormula(t *testing.T) {
	cfg := career.DefaultConfig()
	opt := career.TrainingOption{
		Supports: 5,
		Friends:  career.FriendHistogram{Gray: 1, Blue: 1, Green: 1, Max: 2},
		Rainbow:  2,
		Hints:    1,
	}
	got := FriendValueScorer{Config: &cfg}.Score(career.StatGuts, opt, career.ParseCareerDate("Junior Year Early Sep"))
	if got.Base != 9 || got.Total != 9.5 {
		t.Fatalf("friend value got base %v total %v, want 9 and 9.5", got.Base, got.Total)
	}
}

func TestEvaluatorNeverPicksCappedStat(t *testing.T) {
	cfg := career.DefaultConfig()
	ev := NewEvaluator(&cfg)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		in := TrainingInput{Training: career.TrainingSet{}, Energy: 60, Date: classicApr}
		for _, s := range career.AllStats {
			if rng.Intn(2) == 0 {
				in.Stats.Set(s, 1200)
			} else {
				in.Stats.Set(s, rng.Intn(1200))
			}
			n := rng.Intn(6)
			near := rng.Intn(n + 1)
			in.Training[s] = supports(n, near, rng.Intn(near+1), rng.Intn(20))
		}
		session := career.NewSessionState(&cfg)
		for _, v := range []Verdict{ev.Evaluate(in, session), ev.MostSupport(in, session)} {
			if v.Kind == VerdictTrain && in.Stats.Get(v.Stat) >= cfg.Cap(v.Stat) {
				t.Fatalf("round %d picked capped %s (%d)", i, v.Stat, in.Stats.Get(v.Stat))
			}
		}
	}
}

func TestEvaluatorTieBreaksOnPriority(t *testing.T) {
	cfg := career.DefaultConfig()
	cfg.PriorityWeight = career.WeightNone
	cfg.PriorityStat = []string{"pwr", "sta", "spd", "guts", "wit"}
	ev := NewEvaluator(&cfg)

	in := TrainingInput{
		Training: career.TrainingSet{
			career.StatSpeed:   supports(2, 0, 0, 5),
			career.StatStamina: supports(2, 0, 0, 5),
			career.StatPower:   supports(2, 0, 0, 5),
		},
		Energy: 80,
		Date:   classicApr,
	}
	v := ev.Evaluate(in, career.NewSessionState(&cfg))
	if v.Kind != VerdictTrain || v.Stat != career.StatPower {
		t.Fatalf("tie got %v %s, want train pwr", v.Kind, v.Stat)
	}
}

func TestEvaluatorNearCapLosesToSupports(t *testing.T) {
	cfg := career.DefaultConfig()
	ev := NewEvaluator(&cfg)
	in := TrainingInput{
		Training: career.TrainingSet{
			career.StatSpeed: supports(0, 0, 0, 10),
			career.StatPower: supports(2, 0, 0, 10),
		},
		Stats:  career.StatBlock{Speed: 1190, Power: 600},
		Energy: 70,
		Date:   classicApr,
	}
	v := ev.Evaluate(in, career.NewSessionState(&cfg))
	if v.Kind != VerdictTrain || v.Stat != career.StatPower {
		t.Fatalf("got %v %s, want train pwr", v.Kind, v.Stat)
	}
}

func TestEvaluatorAllCappedRests(t *testing.T) {
	cfg := career.DefaultConfig()
	in := TrainingInput{
		Training: career.TrainingSet{career.StatSpeed: supports(3, 0, 0, 0)},
		Stats:    career.StatBlock{Speed: 1200},
		Energy:   90,
		Date:     classicApr,
	}
	if v := NewEvaluator(&cfg).Evaluate(in, career.NewSessionState(&cfg)); v.Kind != VerdictRest {
		t.Fatalf("capped board got %v, want rest", v.Kind)
	}
}

func TestEvaluatorFailureCeiling(t *testing.T) {
	cfg := career.DefaultConfig()
	ev := NewEvaluator(&cfg)
	risky := TrainingInput{
		Training: career.TrainingSet{career.StatSpeed: supports(5, 0, 0, 25)},
		Energy:   60,
		Date:     classicApr,
	}

	session := career.NewSessionState(&cfg)
	if v := ev.Evaluate(risky, session); v.Kind != VerdictDefer {
		t.Fatalf("risky board without custom failure got %v, want defer", v.Kind)
	}
	risky.Energy = 20
	if v := ev.Evaluate(risky, session); v.Kind != VerdictRest {
		t.Fatalf("risky board on low energy got %v, want rest", v.Kind)
	}

	cfg.Failure.EnableCustomFailure = true
	cfg.Failure.EnableCustomHigh = true
	session = career.NewSessionState(&cfg)
	risky.Energy = 60
	v := ev.Evaluate(risky, session)
	if session.FailureCeiling != 30 {
		t.Fatalf("ceiling got %d, want 30", session.FailureCeiling)
	}
	if v.Kind != VerdictTrain || v.Stat != career.StatSpeed {
		t.Fatalf("raised ceiling got %v %s, want train spd", v.Kind, v.Stat)
	}

	cfg.Failure.EnableCustomFailure = false
	session = career.NewSessionState(&cfg)
	ev.Evaluate(risky, session)
	if session.FailureCeiling != cfg.Failure.MaximumFailure {
		t.Fatalf("master flag off moved ceiling to %d", session.FailureCeiling)
	}
}

func TestEvaluatorWeakBoard(t *testing.T) {
	cfg := career.DefaultConfig()
	ev := NewEvaluator(&cfg)
	in := TrainingInput{
		Training: career.TrainingSet{
			career.StatSpeed: supports(0, 0, 0, 0),
			career.StatWit:   supports(1, 0, 0, 0),
		},
		Energy: 40,
		Date:   classicApr,
	}
	if v := ev.Evaluate(in, career.NewSessionState(&cfg)); v.Kind != VerdictTrain || v.Stat != career.StatWit {
		t.Fatalf("wit with a friend got %v %s, want train wit", v.Kind, v.Stat)
	}

	in.Training[career.StatWit] = supports(0, 0, 0, 0)
	if v := ev.Evaluate(in, career.NewSessionState(&cfg)); v.Kind != VerdictRest {
		t.Fatalf("empty board at 40 energy got %v, want rest", v.Kind)
	}
	in.Energy = 60
	if v := ev.Evaluate(in, career.NewSessionState(&cfg)); v.Kind != VerdictRace {
		t.Fatalf("empty board at 60 energy got %v, want race", v.Kind)
	}
	in.Date = career.ParseCareerDate("Classic Year Early Jul")
	if v := ev.Evaluate(in, career.NewSessionState(&cfg)); v.Kind != VerdictDefer {
		t.Fatalf("empty board in summer at 60 energy got %v, want defer", v.Kind)
	}
	in.Date = career.ParseCareerDate("Junior Year Early Oct")
	if v := ev.Evaluate(in, career.NewSessionState(&cfg)); v.Kind != VerdictDefer {
		t.Fatalf("empty board in junior year at 60 energy got %v, want defer", v.Kind)
	}
}

func TestMostSupportWitRacesOnlyWhenAlone(t *testing.T) {
	cfg := career.DefaultConfig()
	ev := NewEvaluator(&cfg)

	wit := supports(1, 0, 0, 0)
	wit.Hints = 1
	in := TrainingInput{
		Training: career.TrainingSet{
			career.StatWit:  wit,
			career.StatGuts: supports(0, 0, 0, 5),
		},
		Energy: 60,
		Date:   classicApr,
	}
	v := ev.MostSupport(in, career.NewSessionState(&cfg))
	if v.Kind != VerdictRest {
		t.Fatalf("wit best but guts still viable got %v %s, want rest", v.Kind, v.Stat)
	}

	delete(in.Training, career.StatGuts)
	if v := ev.MostSupport(in, career.NewSessionState(&cfg)); v.Kind != VerdictRace {
		t.Fatalf("wit as the only viable option got %v, want race", v.Kind)
	}
}

func TestMostSupport(t *testing.T) {
	cfg := career.DefaultConfig()
	ev := NewEvaluator(&cfg)
	session := career.NewSessionState(&cfg)

	cases := []struct {
		name     string
		training career.TrainingSet
		energy   int
		date     career.CareerDate
		kind     VerdictKind
		stat     career.Stat
	}{
		{
			name:     "low energy",
			training: career.TrainingSet{career.StatSpeed: supports(3, 0, 0, 0)},
			energy:   20,
			date:     classicApr,
			kind:     VerdictRest,
		},
		{
			name: "only wit safe",
			training: career.TrainingSet{
				career.StatSpeed: supports(4, 0, 0, 40),
				career.StatWit:   supports(2, 0, 0, 5),
			},
			energy: 40,
			date:   classicApr,
			kind:   VerdictTrain,
			stat:   career.StatWit,
		},
		{
			name: "most supports",
			training: career.TrainingSet{
				career.StatSpeed:   supports(2, 0, 0, 5),
				career.StatStamina: supports(3, 0, 0, 5),
			},
			energy: 40,
			date:   classicApr,
			kind:   VerdictTrain,
			stat:   career.StatStamina,
		},
		{
			name:     "single support at zero failure",
			training: career.TrainingSet{career.StatGuts: supports(1, 0, 0, 0)},
			energy:   40,
			date:     classicApr,
			kind:     VerdictTrain,
			stat:     career.StatGuts,
		},
		{
			name:     "single support with risk",
			training: career.TrainingSet{career.StatGuts: supports(1, 0, 0, 8)},
			energy:   40,
			date:     classicApr,
			kind:     VerdictRest,
		},
		{
			name:     "lone wit races",
			training: career.TrainingSet{career.StatWit: supports(1, 0, 0, 0)},
			energy:   60,
			date:     classicApr,
			kind:     VerdictRace,
		},
		{
			name:     "lone wit in junior year trains on high energy",
			training: career.TrainingSet{career.StatWit: supports(1, 0, 0, 0)},
			energy:   80,
			date:     career.ParseCareerDate("Junior Year Early Oct"),
			kind:     VerdictTrain,
			stat:     career.StatWit,
		},
		{
			name:     "lone wit in summer rests",
			training: career.TrainingSet{career.StatWit: supports(1, 0, 0, 0)},
			energy:   60,
			date:     career.ParseCareerDate("Classic Year Early Jul"),
			kind:     VerdictRest,
		},
	}
	for _, tc := range cases {
		v := ev.MostSupport(TrainingInput{Training: tc.training, Energy: tc.energy, Date: tc.date}, session)
		if v.Kind != tc.kind || (tc.kind == VerdictTrain && v.Stat != tc.stat) {
			t.Fatalf("%s: got %v %s, want %v %s", tc.name, v.Kind, v.Stat, tc.kind, tc.stat)
		}
	}
}
