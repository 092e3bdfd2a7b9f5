package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cleanCity/internal/domain"
	"cleanCity/pkg/e"
)

// SessionStore is a process-local token map. Sessions do not survive a
// restart and are not shared between instances.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]domain.Session)}
}

func (s *SessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	const op = "memory.Session.Get"

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	return &sess, nil
}

func (s *SessionStore) Set(ctx context.Context, session domain.Session) error {
	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, sess := range s.sessions {
		if !sess.Active(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
