package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/drawguess/internal/dependencies/clock"
	"github.com/mcoot/drawguess/internal/model"
	"github.com/mcoot/drawguess/internal/storage"
)

// SessionStore is a Redis-backed session store. Sessions carry a TTL matching
// their expiry so Redis evicts them on its own.
type SessionStore struct {
	client *redis.Client
	cfg    Config
	clock  clock.Clock
}

// New creates a new Redis session store and verifies the connection
func New(cfg Config, clk clock.Clock) (*SessionStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg, clk), nil
}

// NewWithClient creates a Redis session store with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, clk clock.Clock) *SessionStore {
	return &SessionStore{
		client: client,
		cfg:    cfg,
		clock:  clk,
	}
}

// Close closes the Redis connection
func (s *SessionStore) Close() error {
	return s.client.Close()
}

// Ensure SessionStore implements the interface
var _ storage.SessionStore = (*SessionStore)(nil)

func (s *SessionStore) SaveSession(ctx context.Context, session *model.Session) error {
	ttl := session.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return model.ErrSessionExpired
	}

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKey(session.TokenDigest), data, ttl).Err()
}

func (s *SessionStore) GetSession(ctx context.Context, digest string) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(digest)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, digest string) error {
	return s.client.Del(ctx, sessionKey(digest)).Err()
}

// DeleteExpiredSessions sweeps sessions whose expiry has passed but whose key
// is still present, e.g. after a clock adjustment.
func (s *SessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	removed := 0
	iter := s.client.Scan(ctx, 0, sessionScanPattern(), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return removed, err
		}

		var session model.Session
		if err := json.Unmarshal(data, &session); err != nil {
			return removed, err
		}
		if !session.IsExpired(now) {
			continue
		}
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return removed, err
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	return removed, nil
}
