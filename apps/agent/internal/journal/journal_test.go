package journal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/config"
	"github.com/EmptyBox36/umamusume-auto-train/career"
	"github.com/EmptyBox36/umamusume-auto-train/career/brain"
)

func sampleEntries() []Entry {
	base := time.UnixMilli(1_700_000_000_000).UTC()
	return []Entry{
		{SessionID: "a", Seq: 1, VirtualTurn: 31, State: "decide_training", Action: brain.Train(career.StatSpeed, "best"), Digest: "d1", CreatedAt: base},
		{SessionID: "b", Seq: 1, VirtualTurn: 12, State: "rest", Action: brain.Rest("tired"), Digest: "d1", CreatedAt: base.Add(time.Second)},
		{SessionID: "a", Seq: 2, VirtualTurn: 32, State: "pursue_goal_race", Action: brain.EnterRace("Satsuki Sho", true, ""), Digest: "d1", CreatedAt: base.Add(2 * time.Second)},
	}
}

func exerciseService(t *testing.T, s Service) {
	t.Helper()
	ctx := context.Background()
	for _, e := range sampleEntries() {
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("Append %s/%d: %v", e.SessionID, e.Seq, err)
		}
	}
	// Duplicate (session, seq) pairs are ignored.
	dup := sampleEntries()[0]
	dup.Action = brain.Rest("overwritten")
	dup.CreatedAt = dup.CreatedAt.Add(time.Hour)
	if err := s.Append(ctx, dup); err != nil {
		t.Fatalf("duplicate append: %v", err)
	}

	all, err := s.Recent(ctx, "", 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != 2 || all[0].SessionID != "a" || all[0].Seq != 2 {
		t.Fatalf("recent got %+v, want newest entry a/2 first", all)
	}
	if all[0].Action.Kind != brain.ActionKindEnterRace || all[0].Action.Race != "Satsuki Sho" || !all[0].Action.PreferHighGrade {
		t.Fatalf("action not round-tripped: %+v", all[0].Action)
	}

	onlyA, err := s.Recent(ctx, "a", 0)
	if err != nil {
		t.Fatalf("Recent a: %v", err)
	}
	if len(onlyA) != 2 || onlyA[1].Action.Kind != brain.ActionKindTrain || onlyA[1].Action.Stat != career.StatSpeed {
		t.Fatalf("session a got %+v", onlyA)
	}
	for _, e := range onlyA {
		if e.SessionID != "a" {
			t.Fatalf("session filter leaked %s", e.SessionID)
		}
	}

	if err := s.Append(ctx, Entry{Seq: 1}); err == nil {
		t.Fatalf("expected an error for an entry without session")
	}
}

func TestMemoryJournal(t *testing.T) {
	exerciseService(t, NewMemory(10))
}

func TestMemoryJournalIsBounded(t *testing.T) {
	m := NewMemory(2)
	ctx := context.Background()
	for i := uint64(1); i <= 5; i++ {
		if err := m.Append(ctx, Entry{SessionID: "s", Seq: i, Action: brain.Rest("")}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	got, _ := m.Recent(ctx, "", 0)
	if len(got) != 2 || got[0].Seq != 5 || got[1].Seq != 4 {
		t.Fatalf("bounded journal got %+v", got)
	}
}

func TestSQLiteJournal(t *testing.T) {
	s, err := NewSQLiteService(filepath.Join(t.TempDir(), "journal.db"), 50)
	if err != nil {
		t.Fatalf("NewSQLiteService: %v", err)
	}
	defer s.Close()
	exerciseService(t, s)
}

func TestNewServiceFromConfig(t *testing.T) {
	s, mode, err := NewServiceFromConfig(config.Config{JournalMode: "local", JournalSQLitePath: filepath.Join(t.TempDir(), "j.db")})
	if err != nil || mode != ModeSQLite {
		t.Fatalf("local mode got %q err %v", mode, err)
	}
	s.Close()

	if _, mode, err := NewServiceFromConfig(config.Config{JournalMode: "mongo"}); err == nil {
		t.Fatalf("expected an error for mode %q", mode)
	}
}

func TestRecentHTTP(t *testing.T) {
	m := NewMemory(10)
	for _, e := range sampleEntries() {
		_ = m.Append(context.Background(), e)
	}
	mux := http.NewServeMux()
	NewHTTPHandler(m).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/journal/recent?session=b", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status got %d, want 200", rec.Code)
	}
	var body struct {
		Items []Entry `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Items) != 1 || body.Items[0].Action.Kind != brain.ActionKindRest {
		t.Fatalf("items got %+v", body.Items)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/journal/recent", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST status got %d, want 405", rec.Code)
	}
}
