package career

import "log"

// SessionState is the small mutable record carried from one decision to the
// next. Everything else is recomputed from the observation each tick.
type SessionState struct {
	// FailureCeiling is the current maximum failure chance the evaluator
	// accepts. It starts at the configured maximum and moves with the
	// high/low failure conditions.
	FailureCeiling int

	lastValid     StatBlock
	haveLastValid bool

	lastEnergy    int
	lastMaxEnergy int
	haveEnergy    bool

	aptitudes Aptitude

	// turnKey identifies the turn that failedRaces belongs to.
	turnKey     string
	failedRaces map[string]bool
	pendingRace string
}

func NewSessionState(cfg *PolicyConfig) *SessionState {
	return &SessionState{
		FailureCeiling: cfg.Failure.MaximumFailure,
		failedRaces:    make(map[string]bool),
	}
}

// Stats returns observed stats, or the last readable block when any value
// carries the -1 sentinel.
func (s *SessionState) Stats(observed StatBlock) StatBlock {
	if observed.Readable() {
		s.lastValid = observed
		s.haveLastValid = true
		return observed
	}
	if s.haveLastValid {
		log.Printf("[Career] Unreadable stats %+v, using last valid %+v", observed, s.lastValid)
		return s.lastValid
	}
	out := observed
	for _, st := range AllStats {
		if out.Get(st) < 0 {
			out.Set(st, 0)
		}
	}
	return out
}

// Energy returns observed energy and max energy, substituting the last
// readable reading for a negative energy or a non-positive max. Without a
// prior reading an unreadable energy counts as 0.
func (s *SessionState) Energy(energy, maxEnergy int) (int, int) {
	if energy >= 0 && maxEnergy > 0 {
		s.lastEnergy, s.lastMaxEnergy = energy, maxEnergy
		s.haveEnergy = true
		return energy, maxEnergy
	}
	if s.haveEnergy {
		log.Printf("[Career] Unreadable energy %d/%d, using last valid %d/%d", energy, maxEnergy, s.lastEnergy, s.lastMaxEnergy)
		if energy < 0 {
			energy = s.lastEnergy
		}
		if maxEnergy <= 0 {
			maxEnergy = s.lastMaxEnergy
		}
		return energy, maxEnergy
	}
	if energy < 0 {
		energy = 0
	}
	return energy, maxEnergy
}

// Aptitudes returns the session-cached aptitude grades, adopting observed
// grades the first time they are seen.
func (s *SessionState) Aptitudes(observed Aptitude) Aptitude {
	if len(s.aptitudes) == 0 && len(observed) > 0 {
		s.aptitudes = make(Aptitude, len(observed))
		for k, v := range observed {
			s.aptitudes[k] = v
		}
	}
	return s.aptitudes
}

// SetAptitudes seeds the aptitude cache, e.g. from an external store.
func (s *SessionState) SetAptitudes(a Aptitude) { s.aptitudes = a }

// BeginTurn resets per-turn race bookkeeping when the turn changes and
// records a pending race as failed when the actuator reports it missing.
func (s *SessionState) BeginTurn(key string, raceUnavailable bool) {
	if key != s.turnKey {
		s.turnKey = key
		s.failedRaces = make(map[string]bool)
		s.pendingRace = ""
		return
	}
	if raceUnavailable && s.pendingRace != "" {
		s.failedRaces[s.pendingRace] = true
		s.pendingRace = ""
	}
}

// RaceFailed reports whether the named race was already tried this turn.
func (s *SessionState) RaceFailed(name string) bool { return s.failedRaces[name] }

// MarkRaceAttempt remembers the race handed to the actuator this turn.
func (s *SessionState) MarkRaceAttempt(name string) { s.pendingRace = name }
