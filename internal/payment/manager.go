package payment

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or closed session ids.
var ErrSessionNotFound = errors.New("payment session not found")

// Manager owns the live checkout sessions.
type Manager struct {
	Timings  Timings
	Sched    Scheduler
	Resolver Resolver
	// IdleTTL drops sessions untouched for longer than this on Open.
	IdleTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a Manager using wall-clock timers.
func NewManager(r Resolver, t Timings) *Manager {
	return &Manager{
		Timings:  t,
		Sched:    WallClock,
		Resolver: r,
		IdleTTL:  30 * time.Minute,
		sessions: make(map[string]*Session),
	}
}

// Open starts a new session at the phone step.
func (m *Manager) Open(cfg Config) *Session {
	s := newSession(uuid.NewString(), cfg, m.Timings, m.Sched, m.Resolver)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked(time.Now().UTC())
	m.sessions[s.id] = s
	return s
}

// Get returns the live session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close abandons the session: pending timers and gateway requests are
// dropped and the id stops resolving.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Reset()
	return nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) pruneLocked(now time.Time) {
	if m.IdleTTL <= 0 {
		return
	}
	for id, s := range m.sessions {
		snap := s.Snapshot()
		if snap.Step == StepProcessing {
			continue
		}
		if now.Sub(snap.UpdatedAt) > m.IdleTTL {
			delete(m.sessions, id)
			s.Reset()
		}
	}
}
