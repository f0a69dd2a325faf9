package response

import (
	"time"

	"github.com/mcoot/drawguess/internal/model"
	"github.com/mcoot/drawguess/internal/services/auth"
	"github.com/mcoot/drawguess/internal/storage"
)

// Health is the response for the health endpoint
type Health struct {
	Status            string `json:"status"`
	TotalPlayers      int    `json:"total_players"`
	TotalLobbies      int    `json:"total_lobbies"`
	TotalGames        int    `json:"total_games"`
	ActiveConnections int    `json:"active_connections"`
	OracleAvailable   bool   `json:"oracle_available"`
}

// HealthFromStats builds a Health response from registry counts
func HealthFromStats(stats storage.Stats, oracleAvailable bool) Health {
	return Health{
		Status:            "ok",
		TotalPlayers:      stats.Players,
		TotalLobbies:      stats.Lobbies,
		TotalGames:        stats.Games,
		ActiveConnections: stats.Connections,
		OracleAvailable:   oracleAvailable,
	}
}

// Session is the response for session creation
type Session struct {
	Username     string    `json:"username"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionFromAuth converts an issued session
func SessionFromAuth(s *auth.Session) Session {
	return Session{
		Username:     s.Username,
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// LobbyList is the response for the lobby listing
type LobbyList struct {
	Lobbies []model.LobbyView `json:"lobbies"`
}
