package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/drawguess/internal/model"
)

type SessionStoreSuite struct {
	suite.Suite
	store *SessionStore
	ctx   context.Context
	now   time.Time
}

func TestSessionStoreSuite(t *testing.T) {
	suite.Run(t, new(SessionStoreSuite))
}

func (s *SessionStoreSuite) SetupTest() {
	s.store = NewSessionStore()
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *SessionStoreSuite) TestSaveAndGetSession() {
	session := &model.Session{
		TokenDigest: "digest-1",
		Username:    "Alice",
		CreatedAt:   s.now,
		ExpiresAt:   s.now.Add(time.Hour),
	}
	s.Require().NoError(s.store.SaveSession(s.ctx, session))

	retrieved, err := s.store.GetSession(s.ctx, "digest-1")
	s.Require().NoError(err)
	s.Equal("Alice", retrieved.Username)
	s.True(retrieved.ExpiresAt.Equal(session.ExpiresAt))
}

func (s *SessionStoreSuite) TestGetSessionNotFound() {
	_, err := s.store.GetSession(s.ctx, "missing")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *SessionStoreSuite) TestDeleteSession() {
	_ = s.store.SaveSession(s.ctx, &model.Session{TokenDigest: "digest-1", ExpiresAt: s.now.Add(time.Hour)})

	s.Require().NoError(s.store.DeleteSession(s.ctx, "digest-1"))
	_, err := s.store.GetSession(s.ctx, "digest-1")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *SessionStoreSuite) TestDeleteExpiredSessions() {
	_ = s.store.SaveSession(s.ctx, &model.Session{TokenDigest: "old", ExpiresAt: s.now.Add(-time.Minute)})
	_ = s.store.SaveSession(s.ctx, &model.Session{TokenDigest: "fresh", ExpiresAt: s.now.Add(time.Hour)})

	removed, err := s.store.DeleteExpiredSessions(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.store.GetSession(s.ctx, "old")
	s.ErrorIs(err, model.ErrSessionNotFound)
	_, err = s.store.GetSession(s.ctx, "fresh")
	s.NoError(err)
}
