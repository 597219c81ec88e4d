package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/aptcache"
	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/dataset"
	"github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/journal"
	"github.com/EmptyBox36/umamusume-auto-train/career"
	"github.com/EmptyBox36/umamusume-auto-train/career/brain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/EmptyBox36/umamusume-auto-train/apps/agent/internal/session"

var ErrNotFound = errors.New("session not found")

// Decision is one answered observation.
type Decision struct {
	SessionID   string
	Seq         uint64
	VirtualTurn int
	State       brain.State
	Action      brain.Action
}

// Session is one career. Decisions on a session are serialized.
type Session struct {
	ID      string
	Created time.Time

	mu        sync.Mutex
	policy    *brain.Policy
	seq       uint64
	aptStored bool
}

// Name identifies the session's policy.
func (s *Session) Name() string { return s.policy.Name() }

// Manager owns every live session. Sessions are independent of each other.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	bundle    *dataset.Bundle
	journal   journal.Service
	aptitudes aptcache.Cache
	tracer    trace.Tracer
}

func NewManager(bundle *dataset.Bundle, j journal.Service, apt aptcache.Cache) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		bundle:    bundle,
		journal:   j,
		aptitudes: apt,
		tracer:    otel.Tracer(tracerName),
	}
}

func (m *Manager) newSession(ctx context.Context, id string) *Session {
	s := &Session{ID: id, Created: time.Now(), policy: m.bundle.NewPolicy()}
	trainee := m.bundle.Policy.Trainee
	if trainee == "" {
		return s
	}
	apt, ok, err := m.aptitudes.Get(ctx, trainee)
	switch {
	case err != nil:
		log.Printf("[Session] Aptitude cache read failed: trainee=%s err=%v", trainee, err)
	case ok:
		s.policy.Session().SetAptitudes(apt)
		s.aptStored = true
	}
	return s
}

// Open starts a new career session.
func (m *Manager) Open(ctx context.Context) *Session {
	s := m.newSession(ctx, uuid.NewString())
	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()
	log.Printf("[Session] Opened %s (policy=%s), total: %d", s.ID, s.policy.Name(), n)
	return s
}

// Reset replaces the session's policy and state with fresh ones, keeping
// its id.
func (m *Manager) Reset(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	_, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s := m.newSession(ctx, id)
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	log.Printf("[Session] Reset %s", id)
	return s, nil
}

func (m *Manager) Close(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	log.Printf("[Session] Closed %s, total: %d", id, n)
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Decide runs one policy tick for the session and journals the result.
func (m *Manager) Decide(ctx context.Context, id string, obs *career.Observation) (Decision, error) {
	s, ok := m.Get(id)
	if !ok {
		return Decision{}, ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	ctx, span := m.tracer.Start(ctx, "policy.decide", trace.WithAttributes(
		attribute.String("session.id", id),
	))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	action := s.policy.Decide(obs)
	s.seq++
	d := Decision{
		SessionID:   id,
		Seq:         s.seq,
		VirtualTurn: obs.Date().VirtualTurn(obs.Criteria),
		State:       s.policy.State(),
		Action:      action,
	}
	span.SetAttributes(
		attribute.Int64("decision.seq", int64(d.Seq)),
		attribute.Int("career.virtual_turn", d.VirtualTurn),
		attribute.String("policy.state", d.State.String()),
		attribute.String("action.kind", action.Kind.String()),
	)

	jctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := m.journal.Append(jctx, journal.Entry{
		SessionID:   id,
		Seq:         d.Seq,
		VirtualTurn: d.VirtualTurn,
		State:       d.State.String(),
		Action:      action,
		Digest:      m.bundle.Digest,
	}); err != nil {
		span.RecordError(err)
		log.Printf("[Session] Journal append failed: session=%s seq=%d err=%v", id, d.Seq, err)
	}

	if !s.aptStored {
		if apt := s.policy.Session().Aptitudes(nil); len(apt) > 0 {
			if err := m.aptitudes.Put(jctx, m.bundle.Policy.Trainee, apt); err != nil {
				log.Printf("[Session] Aptitude cache write failed: %v", err)
			} else {
				s.aptStored = true
			}
		}
	}
	return d, nil
}
