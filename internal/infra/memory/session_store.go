package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/app"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// The table lock only guards membership; each session has its own lock, so
// work on different sessions never waits on each other.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu      sync.Mutex
	session domain.Session
	deleted bool
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionEntry),
	}
}

func (s *SessionStore) entry(id string) (*sessionEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	return e, ok
}

func (s *SessionStore) Get(_ context.Context, id string) (domain.Session, error) {
	e, ok := s.entry(id)
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return e.session.Clone(), nil
}

func (s *SessionStore) Upsert(_ context.Context, session domain.Session) error {
	for {
		s.mu.Lock()
		e, ok := s.sessions[session.ID]
		if !ok {
			s.sessions[session.ID] = &sessionEntry{session: session.Clone()}
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()

		e.mu.Lock()
		if !e.deleted {
			e.session = session.Clone()
			e.mu.Unlock()
			return nil
		}
		// deleted between the lookup and the lock; insert a fresh entry
		e.mu.Unlock()
	}
}

func (s *SessionStore) Update(_ context.Context, id string, fn func(*domain.Session) error) (domain.Session, error) {
	e, ok := s.entry(id)
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	work := e.session.Clone()
	if err := fn(&work); err != nil {
		return domain.Session{}, err
	}
	e.session = work
	return work.Clone(), nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.DeleteWith(ctx, id, nil)
}

// DeleteWith removes a session after running fn under the session's lock.
// If fn fails the session is kept.
func (s *SessionStore) DeleteWith(_ context.Context, id string, fn func() error) error {
	e, ok := s.entry(id)
	if !ok {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil
	}
	if fn != nil {
		if err := fn(); err != nil {
			return err
		}
	}
	e.deleted = true

	s.mu.Lock()
	if s.sessions[id] == e {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	return nil
}

// IDs lists live session ids in sorted order.
func (s *SessionStore) IDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids, nil
}

// Len reports how many sessions are held.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

var _ app.SessionRepository = (*SessionStore)(nil)
