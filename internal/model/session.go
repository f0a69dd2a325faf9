package model

import "time"

// Session is an issued guest session, stored by token digest
type Session struct {
	TokenDigest string    `json:"token_digest"`
	Username    string    `json:"username"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IsExpired reports whether the session has expired at the given time
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
