// Package memory keeps per-session conversation history in process.
package memory

import (
	"context"
	"sync"
	"time"

	"ai_tutor/internal/domain"
	"ai_tutor/internal/metrics"
)

type session struct {
	mu       sync.Mutex
	turns    []domain.Turn
	lastSeen time.Time
	detached bool // removed from the map; appends must retry
}

// Store maps session ids to ordered turn lists.
//
// Appends to different sessions never contend on the same lock; appends to
// one session serialize on that session's mutex.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session

	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithTTL evicts sessions idle for longer than ttl on Sweep. Zero disables it.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithMetrics tracks the active session count on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) get(id string) *session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[id]; ok {
		return sess
	}
	sess = &session{}
	s.sessions[id] = sess
	s.metrics.SetSessions(len(s.sessions))
	return sess
}

// AppendTurns adds turns to a session as one atomic step, creating the
// session on first use.
func (s *Store) AppendTurns(id string, turns ...domain.Turn) {
	if len(turns) == 0 {
		return
	}
	for {
		sess := s.get(id)
		sess.mu.Lock()
		if !sess.detached {
			sess.turns = append(sess.turns, turns...)
			sess.lastSeen = s.now()
			sess.mu.Unlock()
			return
		}
		sess.mu.Unlock()
	}
}

// detach must be called with s.mu held.
func (s *Store) detach(id string, sess *session) {
	sess.mu.Lock()
	sess.detached = true
	sess.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Store) AddUserMessage(id, text string) {
	s.AppendTurns(id, domain.Turn{Role: domain.RoleUser, Text: text})
}

func (s *Store) AddAIMessage(id, text string) {
	s.AppendTurns(id, domain.Turn{Role: domain.RoleAssistant, Text: text})
}

// Messages returns a copy of the session history in insertion order.
// With lastN > 0 only the last min(lastN, len) turns are returned.
func (s *Store) Messages(id string, lastN int) []domain.Turn {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return []domain.Turn{}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	turns := sess.turns
	if lastN > 0 && lastN < len(turns) {
		turns = turns[len(turns)-lastN:]
	}
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out
}

// ClearSession drops one session. Unknown ids are ignored.
func (s *Store) ClearSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		s.detach(id, sess)
	}
	s.metrics.SetSessions(len(s.sessions))
}

func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		s.detach(id, sess)
	}
	s.metrics.SetSessions(0)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle since before now minus the TTL and returns how
// many were removed. It does nothing when no TTL is configured.
func (s *Store) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			s.detach(id, sess)
			removed++
		}
	}
	s.metrics.SetSessions(len(s.sessions))
	return removed
}

// Run sweeps on every tick until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.now())
		}
	}
}
