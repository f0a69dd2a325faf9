package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/drawguess/internal/model"
	"github.com/mcoot/drawguess/internal/storage"
)

// SessionStore keeps guest sessions in process memory
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// NewSessionStore creates an empty in-memory session store
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*model.Session)}
}

var _ storage.SessionStore = (*SessionStore)(nil)

func (s *SessionStore) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *session
	s.sessions[session.TokenDigest] = &stored
	return nil
}

func (s *SessionStore) GetSession(ctx context.Context, digest string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[digest]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	out := *session
	return &out, nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, digest)
	return nil
}

// DeleteExpiredSessions removes every session expired at now
func (s *SessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for digest, session := range s.sessions {
		if session.IsExpired(now) {
			delete(s.sessions, digest)
			removed++
		}
	}
	return removed, nil
}
