package model

// ScoreEntry is a player's score as reported to clients
type ScoreEntry struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// RoundView is the client-facing snapshot of a round
type RoundView struct {
	ID            RoundID   `json:"id"`
	GameID        GameID    `json:"game_id"`
	Word          string    `json:"word"`
	Duration      int       `json:"duration"`
	TimeRemaining float64   `json:"time_remaining"`
	IsActive      bool      `json:"is_active"`
	WinnerID      *PlayerID `json:"winner_id"`
}

// GamePlayerView is a player as seen inside a match
type GamePlayerView struct {
	ID       PlayerID `json:"id"`
	Username string   `json:"username"`
	Score    int      `json:"score"`
	IsReady  bool     `json:"is_ready"`
}

// GameView is the client-facing snapshot of a match
type GameView struct {
	ID           GameID           `json:"id"`
	State        GameState        `json:"state"`
	Players      []GamePlayerView `json:"players"`
	RoundsPlayed int              `json:"rounds_played"`
	MaxRounds    int              `json:"max_rounds"`
	CurrentRound *RoundView       `json:"current_round"`
}

// LobbyPlayerView is a lobby member with their cross-match record
type LobbyPlayerView struct {
	ID           PlayerID `json:"id"`
	Username     string   `json:"username"`
	IsReady      bool     `json:"is_ready"`
	Score        int      `json:"score"`
	GamesWon     int      `json:"games_won"`
	ReadyForNext bool     `json:"ready_for_next"`
}

// LobbyView is the client-facing snapshot of a lobby
type LobbyView struct {
	ID            LobbyID           `json:"id"`
	State         LobbyState        `json:"state"`
	PlayerCount   int               `json:"player_count"`
	MaxPlayers    int               `json:"max_players"`
	GamesPlayed   int               `json:"games_played"`
	MaxRounds     *int              `json:"max_rounds"`
	DefaultRounds int               `json:"default_rounds"`
	Players       []LobbyPlayerView `json:"players"`
	CurrentGame   *GameView         `json:"current_game"`
}
