package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrNotInLobby     = errors.New("player is not in a lobby")

	// Lobby errors
	ErrLobbyNotFound    = errors.New("lobby not found")
	ErrLobbyFull        = errors.New("lobby is full")
	ErrGameInProgress   = errors.New("game is in progress")
	ErrCountdownRunning = errors.New("match countdown already running")
	ErrNotEnoughPlayers = errors.New("not enough players to start a match")

	// Game errors
	ErrGameNotFound    = errors.New("game not found")
	ErrGameFull        = errors.New("game is full")
	ErrGameStarted     = errors.New("game has already started")
	ErrGameFinished    = errors.New("game is finished")
	ErrRoundInProgress = errors.New("a round is already in progress")
	ErrNoActiveRound   = errors.New("no round in progress")

	// Guess errors
	ErrRateLimited    = errors.New("drawing updates are rate limited")
	ErrInvalidDrawing = errors.New("invalid drawing data")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Oracle errors
	ErrOracleUnavailable = errors.New("oracle unavailable")
)
