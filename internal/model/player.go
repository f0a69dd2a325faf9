package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// ConnectionRef is an opaque handle to a player's live connection
type ConnectionRef string

// Player represents a connected participant.
//
// Score, IsReady and CurrentLobby are only mutated while holding the lock of
// the lobby the player belongs to (or before the player has joined one).
type Player struct {
	ID           PlayerID
	Connection   ConnectionRef
	Username     string
	Score        int  // reset at the start of every match
	IsReady      bool // pre-match ready flag
	CurrentLobby LobbyID
	CreatedAt    time.Time
}

// NewPlayer creates a player bound to a connection
func NewPlayer(id PlayerID, conn ConnectionRef, username string, now time.Time) *Player {
	return &Player{
		ID:         id,
		Connection: conn,
		Username:   username,
		CreatedAt:  now,
	}
}

// ResetForNewGame clears per-match state
func (p *Player) ResetForNewGame() {
	p.Score = 0
	p.IsReady = false
}

// AddScore credits points to the player
func (p *Player) AddScore(points int) {
	p.Score += points
}

// InLobby reports whether the player currently belongs to a lobby
func (p *Player) InLobby() bool {
	return p.CurrentLobby != ""
}

// PlayerInfo is the public identity of a player
type PlayerInfo struct {
	ID       PlayerID `json:"player_id"`
	Username string   `json:"username"`
}

// Info returns the player's public identity
func (p *Player) Info() PlayerInfo {
	return PlayerInfo{ID: p.ID, Username: p.Username}
}
