package storage

import (
	"context"
	"time"

	"github.com/mcoot/drawguess/internal/model"
)

// Stats is a point-in-time count of live registry entries
type Stats struct {
	Players     int `json:"players"`
	Lobbies     int `json:"lobbies"`
	Games       int `json:"games"`
	Connections int `json:"connections"`
}

// Registry holds the live players, lobbies and games of a running server.
//
// Entries are shared pointers: callers mutate lobbies and games in place while
// holding the owning lobby's lock, and the registry only tracks membership.
type Registry interface {
	// Player operations
	AddPlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	GetPlayerByConnection(ctx context.Context, conn model.ConnectionRef) (*model.Player, error)
	RemovePlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)

	// Lobby operations
	CreateLobby(ctx context.Context, maxPlayers int) (*model.Lobby, error)
	GetLobby(ctx context.Context, id model.LobbyID) (*model.Lobby, error)
	RemoveLobby(ctx context.Context, id model.LobbyID) error
	ListJoinableLobbies(ctx context.Context) ([]*model.Lobby, error)

	// Game operations
	AddGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	RemoveGame(ctx context.Context, id model.GameID) error

	Stats(ctx context.Context) Stats
}

// SessionStore persists guest sessions keyed by token digest
type SessionStore interface {
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, digest string) (*model.Session, error)
	DeleteSession(ctx context.Context, digest string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}
