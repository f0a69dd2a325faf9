package ws

import (
	"math"

	"github.com/mcoot/drawguess/internal/model"
)

// Inbound command names
const (
	CmdAuthenticate        = "authenticate"
	CmdCreateLobby         = "create_lobby"
	CmdJoinLobby           = "join_lobby"
	CmdLeaveLobby          = "leave_lobby"
	CmdLeaveGame           = "leave_game"
	CmdSetMaxRounds        = "set_max_rounds"
	CmdPlayerReady         = "player_ready"
	CmdPlayAgain           = "play_again"
	CmdDrawUpdate          = "draw_update"
	CmdSubmitDrawing       = "submit_drawing"
	CmdGetLobbyState       = "get_lobby_state"
	CmdGetAvailableLobbies = "get_available_lobbies"
)

// AuthenticateRequest identifies the connection's player
type AuthenticateRequest struct {
	Username     string `json:"username"`
	SessionToken string `json:"session_token"`
}

// JoinLobbyRequest names the lobby to join
type JoinLobbyRequest struct {
	LobbyID model.LobbyID `json:"lobby_id"`
}

// SetMaxRoundsRequest sets or, when null, clears the round limit
type SetMaxRoundsRequest struct {
	MaxRounds *int `json:"max_rounds"`
}

// DrawingRequest carries a canvas snapshot as a data URL
type DrawingRequest struct {
	CanvasData string `json:"canvas_data"`
}

// LobbyStateRequest names the lobby to describe
type LobbyStateRequest struct {
	LobbyID model.LobbyID `json:"lobby_id"`
}

// ConnectedPayload greets a new connection
type ConnectedPayload struct {
	Message string `json:"message"`
}

// AuthenticatedPayload confirms authentication
type AuthenticatedPayload struct {
	PlayerID model.PlayerID `json:"player_id"`
	Username string         `json:"username"`
}

// LobbyPayload answers create_lobby and join_lobby
type LobbyPayload struct {
	LobbyID model.LobbyID   `json:"lobby_id"`
	Lobby   model.LobbyView `json:"lobby"`
}

// LeftLobbyPayload confirms a departure
type LeftLobbyPayload struct {
	LobbyID model.LobbyID `json:"lobby_id"`
}

// AvailableLobbiesPayload lists joinable lobbies
type AvailableLobbiesPayload struct {
	Lobbies []model.LobbyView `json:"lobbies"`
}

// PredictionPayload answers draw_update and submit_drawing
type PredictionPayload struct {
	Predictions []model.Prediction `json:"predictions"`
	IsCorrect   bool               `json:"is_correct"`
}

// ErrorPayload reports a failed command
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func predictionPayload(result model.GuessResult) PredictionPayload {
	preds := make([]model.Prediction, len(result.Predictions))
	for i, p := range result.Predictions {
		preds[i] = model.Prediction{
			Label:      p.Label,
			Confidence: math.Round(p.Confidence*1000) / 1000,
		}
	}
	return PredictionPayload{Predictions: preds, IsCorrect: result.IsCorrect}
}
