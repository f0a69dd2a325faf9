package model

import (
	"strings"
	"time"
)

// RoundID uniquely identifies a round
type RoundID string

// Round is one timed guessing interval tied to a secret word
type Round struct {
	ID        RoundID
	GameID    GameID
	Word      string
	Duration  time.Duration
	StartTime time.Time
	EndTime   *time.Time // set once the round is terminal
	WinnerID  PlayerID   // empty when ended without a winner
}

// NewRound creates a live round starting now
func NewRound(id RoundID, gameID GameID, word string, duration time.Duration, now time.Time) *Round {
	return &Round{
		ID:        id,
		GameID:    gameID,
		Word:      word,
		Duration:  duration,
		StartTime: now,
	}
}

// IsActive returns true until the round has ended
func (r *Round) IsActive() bool {
	return r.EndTime == nil
}

// TimeRemaining returns the time left on the round clock, floored at zero
func (r *Round) TimeRemaining(now time.Time) time.Duration {
	if !r.IsActive() {
		return 0
	}
	remaining := r.Duration - now.Sub(r.StartTime)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Matches compares a label against the secret word, ignoring case
func (r *Round) Matches(label string) bool {
	return strings.EqualFold(strings.TrimSpace(label), strings.TrimSpace(r.Word))
}

// end marks the round terminal. Returns false if it already was.
func (r *Round) end(winnerID PlayerID, now time.Time) bool {
	if !r.IsActive() {
		return false
	}
	r.EndTime = &now
	r.WinnerID = winnerID
	return true
}

// View returns a serializable snapshot of the round
func (r *Round) View(now time.Time) RoundView {
	view := RoundView{
		ID:            r.ID,
		GameID:        r.GameID,
		Word:          r.Word,
		Duration:      int(r.Duration / time.Second),
		TimeRemaining: r.TimeRemaining(now).Seconds(),
		IsActive:      r.IsActive(),
	}
	if r.WinnerID != "" {
		winner := r.WinnerID
		view.WinnerID = &winner
	}
	return view
}
