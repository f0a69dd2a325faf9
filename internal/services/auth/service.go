package auth

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/mcoot/drawguess/internal/dependencies/clock"
	"github.com/mcoot/drawguess/internal/dependencies/random"
	"github.com/mcoot/drawguess/internal/model"
	"github.com/mcoot/drawguess/internal/storage"
)

// ErrInvalidSession is returned for unknown or expired tokens
var ErrInvalidSession = errors.New("invalid or expired session")

const (
	guestSuffixAlphabet = "0123456789ABCDEF"
	guestSuffixLength   = 6
	maxUsernameLength   = 32
	tokenBytes          = 32
)

// Session is an issued session together with its bearer token.
// The token is only known at issue time; the store keeps its digest.
type Session struct {
	Token string
	model.Session
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// Service issues and validates guest sessions
type Service struct {
	store  storage.SessionStore
	clock  clock.Clock
	random random.Random
	logger *slog.Logger

	sessionDuration time.Duration
}

// New creates a new auth service
func New(store storage.SessionStore, clock clock.Clock, random random.Random, cfg Config, logger *slog.Logger) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		store:           store,
		clock:           clock,
		random:          random,
		logger:          logger.With(slog.String("component", "auth")),
		sessionDuration: cfg.SessionDuration,
	}
}

// CreateGuestSession issues a session for a guest. A blank username gets a
// generated Guest_XXXXXX name.
func (s *Service) CreateGuestSession(ctx context.Context, username string) (*Session, error) {
	username = NormalizeUsername(username)
	if username == "" {
		username = "Guest_" + s.random.String(guestSuffixLength, guestSuffixAlphabet)
	}

	token, err := random.Token(tokenBytes)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &Session{
		Token: token,
		Session: model.Session{
			TokenDigest: Digest(token),
			Username:    username,
			CreatedAt:   now,
			ExpiresAt:   now.Add(s.sessionDuration),
		},
	}

	if err := s.store.SaveSession(ctx, &session.Session); err != nil {
		s.logger.Error("failed to save session", slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.Info("guest session created", slog.String("username", username))
	return session, nil
}

// ValidateToken returns the session for a bearer token
func (s *Service) ValidateToken(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	digest := Digest(token)

	session, err := s.store.GetSession(ctx, digest)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	if session.IsExpired(s.clock.Now()) {
		_ = s.store.DeleteSession(ctx, digest)
		return nil, ErrInvalidSession
	}
	return session, nil
}

// InvalidateSession removes the session for a token
func (s *Service) InvalidateSession(ctx context.Context, token string) error {
	return s.store.DeleteSession(ctx, Digest(token))
}

// CleanupExpired removes expired sessions (call periodically)
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	removed, err := s.store.DeleteExpiredSessions(ctx, s.clock.Now())
	if err != nil {
		return removed, err
	}
	if removed > 0 {
		s.logger.Info("expired sessions removed", slog.Int("count", removed))
	}
	return removed, nil
}

// NormalizeUsername trims whitespace and caps the length of a display name
func NormalizeUsername(username string) string {
	username = strings.TrimSpace(username)
	if r := []rune(username); len(r) > maxUsernameLength {
		username = string(r[:maxUsernameLength])
	}
	return username
}

// Digest returns the storage key for a token
func Digest(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
