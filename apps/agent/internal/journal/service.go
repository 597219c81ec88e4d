package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/config"
	"github.com/EmptyBox36/umamusume-auto-train/career/brain"
)

const (
	ModeMemory   = "memory"
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"

	defaultRecentLimit = 200
)

var ErrNotFound = errors.New("not found")

// Service stores one row per policy decision.
type Service interface {
	Close() error
	Append(ctx context.Context, e Entry) error
	// Recent lists the newest entries first. An empty session lists all.
	Recent(ctx context.Context, session string, limit int) ([]Entry, error)
}

type Entry struct {
	SessionID   string       `json:"session_id"`
	Seq         uint64       `json:"seq"`
	VirtualTurn int          `json:"virtual_turn"`
	State       string       `json:"state"`
	Action      brain.Action `json:"action"`
	Digest      string       `json:"digest,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (e Entry) validate() error {
	if strings.TrimSpace(e.SessionID) == "" {
		return fmt.Errorf("journal entry without session id")
	}
	if e.Seq == 0 {
		return fmt.Errorf("journal entry %s without seq", e.SessionID)
	}
	return nil
}

func encodeAction(a brain.Action) (string, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeAction(raw string) (brain.Action, error) {
	var a brain.Action
	err := json.Unmarshal([]byte(raw), &a)
	return a, err
}

func clampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}

func journalModeFromConfig(cfg config.Config) string {
	raw := strings.ToLower(strings.TrimSpace(cfg.JournalMode))
	switch raw {
	case "", ModeMemory, "mem":
		return ModeMemory
	case ModeSQLite, "local":
		return ModeSQLite
	case ModePostgres, "postgresql", "db":
		return ModePostgres
	default:
		return raw
	}
}

// NewServiceFromConfig picks the journal backend named by JOURNAL_MODE.
func NewServiceFromConfig(cfg config.Config) (Service, string, error) {
	mode := journalModeFromConfig(cfg)
	limit := cfg.JournalRecentLimit
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	switch mode {
	case ModeMemory:
		return NewMemory(limit), mode, nil
	case ModeSQLite:
		path, err := sqlitePath(cfg.JournalSQLitePath)
		if err != nil {
			return nil, mode, err
		}
		s, err := NewSQLiteService(path, limit)
		if err != nil {
			return nil, mode, err
		}
		return s, mode, nil
	case ModePostgres:
		s, err := NewPostgresService(postgresDSN(cfg.JournalDSN), limit)
		if err != nil {
			return nil, mode, err
		}
		return s, mode, nil
	default:
		return nil, mode, fmt.Errorf("invalid JOURNAL_MODE %q (supported: %s, %s, %s)", mode, ModeMemory, ModeSQLite, ModePostgres)
	}
}

// Memory keeps the newest entries in a bounded slice. Like the SQL
// backends it ignores a repeated (session, seq) pair.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
	limit   int
}

func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return &Memory{limit: limit}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Append(_ context.Context, e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, old := range m.entries {
		if old.SessionID == e.SessionID && old.Seq == e.Seq {
			return nil
		}
	}
	m.entries = append(m.entries, e)
	if over := len(m.entries) - m.limit; over > 0 {
		m.entries = append(m.entries[:0:0], m.entries[over:]...)
	}
	return nil
}

func (m *Memory) Recent(_ context.Context, session string, limit int) ([]Entry, error) {
	limit = clampLimit(limit, m.limit)
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if session == "" || m.entries[i].SessionID == session {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}
