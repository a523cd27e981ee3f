package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/bookbot/internal/concurrency"
)

// Store keeps sessions in memory. Each user's session is touched by one
// operation at a time; different users proceed in parallel.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	locks    *concurrency.KeyedLocker
	ttl      time.Duration
	now      func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		locks:    concurrency.NewKeyedLocker(),
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

// With runs fn with exclusive access to userID's session, creating it on
// first contact and resetting it when it sat idle beyond the TTL.
// Changes fn makes to the session are kept even when fn returns an error.
func (s *Store) With(ctx context.Context, userID string, fn func(*Session) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	now := s.now()

	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &Session{ID: userID, State: StateStart, CreatedAt: now, LastActivity: now}
		s.sessions[userID] = sess
	}
	s.mu.Unlock()

	if ok && sess.Expired(now, s.ttl) {
		slog.Debug("Session expired", "user_id", userID, "state", sess.State, "idle", now.Sub(sess.LastActivity))
		sess.Reset()
	}

	err := fn(sess)
	sess.LastActivity = now
	return err
}

// Get returns a copy of the session, if any. A session idle beyond the
// TTL is evicted and reported as absent.
func (s *Store) Get(userID string) (Session, bool) {
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}
	if sess.Expired(s.now(), s.ttl) {
		delete(s.sessions, userID)
		return Session{}, false
	}
	return *sess, true
}

// Delete forgets the user's session.
func (s *Store) Delete(userID string) {
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// Sweep evicts sessions idle beyond the TTL and returns how many went.
func (s *Store) Sweep() int {
	now := s.now()
	evicted := 0
	for _, id := range s.ids() {
		s.locks.Lock(id)
		s.mu.Lock()
		if sess, ok := s.sessions[id]; ok && sess.Expired(now, s.ttl) {
			delete(s.sessions, id)
			evicted++
		}
		s.mu.Unlock()
		s.locks.Unlock(id)
	}
	return evicted
}

// Stats summarises the live sessions.
type Stats struct {
	Total   int
	ByState map[State]int
}

func (s *Store) Stats() Stats {
	st := Stats{ByState: make(map[State]int)}
	for _, id := range s.ids() {
		s.locks.Lock(id)
		s.mu.Lock()
		if sess, ok := s.sessions[id]; ok {
			st.Total++
			st.ByState[sess.State]++
		}
		s.mu.Unlock()
		s.locks.Unlock(id)
	}
	return st
}

// Session fields are guarded by the per-user lock, so readers collect
// ids first and then visit each session under its own lock.
func (s *Store) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}
