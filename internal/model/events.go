package model

// EventType identifies an event sent to clients
type EventType string

const (
	// Lobby broadcasts
	EventPlayerJoined         EventType = "player_joined"
	EventPlayerLeft           EventType = "player_left"
	EventLobbySettingsUpdated EventType = "lobby_settings_updated"
	EventPlayerReadyUpdate    EventType = "player_ready_update"
	EventPlayerReadyForNext   EventType = "player_ready_for_next"

	// Match broadcasts
	EventGameStarting EventType = "game_starting"
	EventRoundStart   EventType = "round_start"
	EventRoundEnd     EventType = "round_end"
	EventGameEnd      EventType = "game_end"

	// Direct replies
	EventConnected        EventType = "connected"
	EventAuthenticated    EventType = "authenticated"
	EventLobbyCreated     EventType = "lobby_created"
	EventJoinedLobby      EventType = "joined_lobby"
	EventLeftLobby        EventType = "left_lobby"
	EventAvailableLobbies EventType = "available_lobbies"
	EventLobbyState       EventType = "lobby_state"
	EventAIPrediction     EventType = "ai_prediction"
	EventSubmissionResult EventType = "submission_result"
	EventError            EventType = "error"
)

// PlayerJoinedPayload is broadcast when a player joins a lobby
type PlayerJoinedPayload struct {
	PlayerID PlayerID  `json:"player_id"`
	Username string    `json:"username"`
	Lobby    LobbyView `json:"lobby"`
}

// PlayerLeftPayload is broadcast to the remaining members when a player leaves
type PlayerLeftPayload struct {
	PlayerID PlayerID  `json:"player_id"`
	Username string    `json:"username"`
	Lobby    LobbyView `json:"lobby"`
}

// LobbySettingsUpdatedPayload is broadcast when lobby settings change
type LobbySettingsUpdatedPayload struct {
	Lobby LobbyView `json:"lobby"`
}

// PlayerReadyUpdatePayload is broadcast when a player readies up
type PlayerReadyUpdatePayload struct {
	PlayerID PlayerID  `json:"player_id"`
	Username string    `json:"username"`
	Lobby    LobbyView `json:"lobby"`
}

// PlayerReadyForNextPayload is broadcast when a player votes for a rematch
type PlayerReadyForNextPayload struct {
	LobbyID  LobbyID   `json:"lobby_id"`
	PlayerID PlayerID  `json:"player_id"`
	Username string    `json:"username"`
	Lobby    LobbyView `json:"lobby"`
}

// GameStartingPayload announces the pre-match countdown in seconds
type GameStartingPayload struct {
	Countdown int `json:"countdown"`
}

// RoundStartPayload is broadcast when a round opens
type RoundStartPayload struct {
	LobbyID     LobbyID `json:"lobby_id"`
	GameID      GameID  `json:"game_id"`
	RoundID     RoundID `json:"round_id"`
	RoundNumber int     `json:"round_number"`
	Word        string  `json:"word"`
	Duration    int     `json:"duration"`
}

// RoundEndPayload is broadcast when a round closes
type RoundEndPayload struct {
	LobbyID        LobbyID                 `json:"lobby_id"`
	GameID         GameID                  `json:"game_id"`
	WinnerID       *PlayerID               `json:"winner_id"`
	WinnerUsername *string                 `json:"winner_username"`
	Word           string                  `json:"word"`
	Scores         map[PlayerID]ScoreEntry `json:"scores"`
	Timeout        bool                    `json:"timeout"`
}

// GameEndPayload is broadcast when a match finishes
type GameEndPayload struct {
	LobbyID        LobbyID                 `json:"lobby_id"`
	GameID         GameID                  `json:"game_id"`
	WinnerID       *PlayerID               `json:"winner_id"`
	WinnerUsername *string                 `json:"winner_username"`
	FinalScores    map[PlayerID]ScoreEntry `json:"final_scores"`
	Lobby          LobbyView               `json:"lobby"`
}
