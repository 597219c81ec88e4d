package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultLocalDBName = "journal.db"

type SQLiteService struct {
	db          *sql.DB
	recentLimit int
}

func sqlitePath(configured string) (string, error) {
	if p := strings.TrimSpace(configured); p != "" {
		return filepath.Clean(p), nil
	}
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "umamusume-auto-train", defaultLocalDBName), nil
}

func NewSQLiteService(dbPath string, recentLimit int) (*SQLiteService, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteJournalSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	return &SQLiteService{db: db, recentLimit: recentLimit}, nil
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteService) Append(ctx context.Context, e Entry) error {
	if err := e.validate(); err != nil {
		return err
	}
	actionJSON, err := encodeAction(e.Action)
	if err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO decision_journal (
    session_id, seq, virtual_turn, state, action_kind, action_json, digest, created_at_ms
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (session_id, seq) DO NOTHING
`, e.SessionID, int64(e.Seq), e.VirtualTurn, e.State, e.Action.Kind.String(), actionJSON, e.Digest, e.CreatedAt.UnixMilli())
	return err
}

func (s *SQLiteService) Recent(ctx context.Context, session string, limit int) ([]Entry, error) {
	limit = clampLimit(limit, s.recentLimit)
	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, seq, virtual_turn, state, action_json, digest, created_at_ms
FROM decision_journal
WHERE (? = '' OR session_id = ?)
ORDER BY created_at_ms DESC, id DESC
LIMIT ?
`, session, session, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e          Entry
			seq        int64
			actionJSON string
			createdMs  int64
		)
		if err := rows.Scan(&e.SessionID, &seq, &e.VirtualTurn, &e.State, &actionJSON, &e.Digest, &createdMs); err != nil {
			return nil, err
		}
		if e.Action, err = decodeAction(actionJSON); err != nil {
			return nil, fmt.Errorf("decode journal action %s/%d: %w", e.SessionID, seq, err)
		}
		e.Seq = uint64(seq)
		e.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func ensureSQLiteJournalSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS decision_journal (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    virtual_turn INTEGER NOT NULL,
    state TEXT NOT NULL,
    action_kind TEXT NOT NULL,
    action_json TEXT NOT NULL,
    digest TEXT NOT NULL DEFAULT '',
    created_at_ms INTEGER NOT NULL,
    UNIQUE (session_id, seq)
)`,
		`CREATE INDEX IF NOT EXISTS idx_decision_journal_session ON decision_journal(session_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_decision_journal_created_at ON decision_journal(created_at_ms)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
