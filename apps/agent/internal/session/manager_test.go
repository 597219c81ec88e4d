package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/aptcache"
	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/dataset"
	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/journal"
	"github.com/EmptyBox36/umamusume-auto-train/career"
	"github.com/EmptyBox36/umamusume-auto-train/career/brain"
)

func lobby() *career.Observation {
	return &career.Observation{
		Stats:     career.StatBlock{Speed: 400, Stamina: 300, Power: 300, Guts: 200, Wit: 250},
		Energy:    60,
		MaxEnergy: 100,
		Mood:      career.MoodGood,
		Turn:      career.TurnToken{Left: 8},
		Year:      "Classic Year Early Apr",
		Criteria:  "Achieved",
		Fans:      3000,
		DebutDone: true,
		Aptitudes: career.Aptitude{"surface_turf": "A", "distance_mile": "B"},
		Training: career.TrainingSet{
			career.StatSpeed: {Failure: 5, Supports: 3, Friends: career.FriendHistogram{Gray: 3}},
			career.StatWit:   {},
		},
	}
}

func newTestManager(t *testing.T, trainee string) (*Manager, *journal.Memory, *aptcache.Memory) {
	t.Helper()
	b, err := dataset.Load(dataset.Files{})
	if err != nil {
		t.Fatalf("dataset.Load: %v", err)
	}
	b.Policy.Trainee = trainee
	j := journal.NewMemory(100)
	apt := aptcache.NewMemory()
	return NewManager(b, j, apt), j, apt
}

func TestDecideJournalsEveryTick(t *testing.T) {
	m, j, _ := newTestManager(t, "")
	ctx := context.Background()
	s := m.Open(ctx)

	d, err := m.Decide(ctx, s.ID, lobby())
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Seq != 1 || d.Action.Kind != brain.ActionKindTrain || d.Action.Stat != career.StatSpeed {
		t.Fatalf("decision got %+v, want seq 1 train:spd", d)
	}
	if d.State != brain.StateDecideTraining || d.VirtualTurn != 31 {
		t.Fatalf("decision state %s turn %d", d.State, d.VirtualTurn)
	}

	entries, _ := j.Recent(ctx, s.ID, 0)
	if len(entries) != 1 || entries[0].Action != d.Action || entries[0].Digest == "" {
		t.Fatalf("journal got %+v", entries)
	}

	if _, err := m.Decide(ctx, "missing", lobby()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown session got %v, want ErrNotFound", err)
	}
}

func TestDecideHonoursCancellation(t *testing.T) {
	m, _, _ := newTestManager(t, "")
	s := m.Open(context.Background())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Decide(ctx, s.ID, lobby()); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled decide got %v", err)
	}
}

func TestResetStartsFreshCareer(t *testing.T) {
	m, _, _ := newTestManager(t, "")
	ctx := context.Background()
	s := m.Open(ctx)

	done := lobby()
	done.CareerComplete = true
	if d, _ := m.Decide(ctx, s.ID, done); d.Action.Kind != brain.ActionKindStop {
		t.Fatalf("complete got %s, want stop", d.Action)
	}
	if d, _ := m.Decide(ctx, s.ID, lobby()); d.Action.Kind != brain.ActionKindStop {
		t.Fatalf("stopped session got %s, want stop", d.Action)
	}

	if _, err := m.Reset(ctx, s.ID); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	d, err := m.Decide(ctx, s.ID, lobby())
	if err != nil || d.Action.Kind != brain.ActionKindTrain || d.Seq != 1 {
		t.Fatalf("after reset got %+v err %v", d, err)
	}
	if _, err := m.Reset(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("reset of unknown session got %v", err)
	}

	m.Close(s.ID)
	if m.Count() != 0 {
		t.Fatalf("sessions left after close: %d", m.Count())
	}
}

func TestAptitudesCarryAcrossCareers(t *testing.T) {
	m, _, cache := newTestManager(t, "Oguri Cap")
	ctx := context.Background()

	first := m.Open(ctx)
	if _, err := m.Decide(ctx, first.ID, lobby()); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if apt, ok, _ := cache.Get(ctx, "Oguri Cap"); !ok || apt.Grade("surface_turf") != "a" {
		t.Fatalf("aptitudes not cached: %v %v", apt, ok)
	}

	second := m.Open(ctx)
	if got := second.policy.Session().Aptitudes(nil); got.Grade("distance_mile") != "b" {
		t.Fatalf("new career not seeded from cache: %v", got)
	}
}

func TestConcurrentDecisionsAreSerialized(t *testing.T) {
	m, j, _ := newTestManager(t, "")
	ctx := context.Background()
	s := m.Open(ctx)

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Decide(ctx, s.ID, lobby()); err != nil {
				t.Errorf("Decide: %v", err)
			}
		}()
	}
	wg.Wait()

	entries, _ := j.Recent(ctx, s.ID, 0)
	if len(entries) != n {
		t.Fatalf("journal entries got %d, want %d", len(entries), n)
	}
	seen := make(map[uint64]bool, n)
	for _, e := range entries {
		if seen[e.Seq] {
			t.Fatalf("duplicate seq %d", e.Seq)
		}
		seen[e.Seq] = true
	}
}
