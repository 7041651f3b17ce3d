package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"matchchat/internal/models"
	"matchchat/pkg/metrics"

	"github.com/google/uuid"
)

type session struct {
	id        string
	match     models.MatchRef
	createdAt time.Time
	turns     []models.Turn

	// generation changes whenever history is cleared or the match switched.
	generation uint64
	// lock serialises asks on this session.
	lock chan struct{}
}

// SessionView is a read-only snapshot of a session.
type SessionView struct {
	ID        string          `json:"id"`
	Match     models.MatchRef `json:"match"`
	Turns     []models.Turn   `json:"turns"`
	CreatedAt time.Time       `json:"created_at"`
}

func (v SessionView) HasMatch() bool {
	return v.Match.MatchID != 0
}

// SessionManager owns per-user conversation state. Sessions never share
// history or match selection.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*session
	metrics  *metrics.Manager
	now      func() time.Time
}

func NewSessionManager(m *metrics.Manager) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*session),
		metrics:  m,
		now:      time.Now,
	}
}

func (m *SessionManager) NewID() string {
	return uuid.NewString()
}

// GetOrCreate returns the session with id, creating it when absent. An empty
// id gets a fresh UUID.
func (m *SessionManager) GetOrCreate(id string) SessionView {
	id = strings.TrimSpace(id)
	if id == "" {
		id = m.NewID()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(id).view()
}

func (m *SessionManager) getOrCreateLocked(id string) *session {
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := &session{
		id:        id,
		createdAt: m.now(),
		lock:      make(chan struct{}, 1),
	}
	m.sessions[id] = s
	m.metrics.SetSessions(len(m.sessions))
	return s
}

func (m *SessionManager) Get(id string) (SessionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return SessionView{}, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	return s.view(), nil
}

// SwitchMatch points the session at another match and clears its history.
// The session is created when it does not exist yet.
func (m *SessionManager) SwitchMatch(id string, ref models.MatchRef) SessionView {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.getOrCreateLocked(id)
	s.match = ref
	s.clear()
	return s.view()
}

// Reset clears the history but keeps the session and its match.
func (m *SessionManager) Reset(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	s.clear()
	return nil
}

func (m *SessionManager) History(id string) ([]models.Turn, error) {
	view, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return view.Turns, nil
}

func (m *SessionManager) HasHistory(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return ok && len(s.turns) > 0
}

func (m *SessionManager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.generation++
		delete(m.sessions, id)
		m.metrics.SetSessions(len(m.sessions))
	}
}

func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// sessionTicket is what one ask sees of its session while it holds the lock.
type sessionTicket struct {
	sess       *session
	id         string
	match      models.MatchRef
	generation uint64
	history    []models.Turn
	release    func()
}

// begin takes the session's ask lock, waiting until ctx is done.
func (m *SessionManager) begin(ctx context.Context, id string) (*sessionTicket, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}

	select {
	case s.lock <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return &sessionTicket{
		sess:       s,
		id:         id,
		match:      s.match,
		generation: s.generation,
		history:    append([]models.Turn(nil), s.turns...),
		release:    func() { <-s.lock },
	}, nil
}

// commit appends turns unless the session was cleared, switched or deleted
// since the ticket was issued.
func (m *SessionManager) commit(t *sessionTicket, turns ...models.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[t.id]
	if !ok || s != t.sess || s.generation != t.generation {
		return fmt.Errorf("%w: %s", models.ErrSessionChanged, t.id)
	}
	s.turns = append(s.turns, turns...)
	return nil
}

func (s *session) clear() {
	s.turns = nil
	s.generation++
}

func (s *session) view() SessionView {
	turns := make([]models.Turn, len(s.turns))
	copy(turns, s.turns)
	return SessionView{
		ID:        s.id,
		Match:     s.match,
		Turns:     turns,
		CreatedAt: s.createdAt,
	}
}
