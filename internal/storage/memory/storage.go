package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/mcoot/drawguess/internal/dependencies/clock"
	"github.com/mcoot/drawguess/internal/dependencies/random"
	"github.com/mcoot/drawguess/internal/model"
	"github.com/mcoot/drawguess/internal/storage"
)

const (
	lobbyCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	lobbyCodeLength   = 6
	lobbyCodeAttempts = 10
)

// ErrLobbyCodeExhausted is returned when no unused lobby code could be generated
var ErrLobbyCodeExhausted = errors.New("could not generate a unique lobby code")

// Storage is an in-memory implementation of the registry
type Storage struct {
	mu sync.RWMutex

	clock  clock.Clock
	random random.Random

	players     map[model.PlayerID]*model.Player
	connections map[model.ConnectionRef]model.PlayerID
	lobbies     map[model.LobbyID]*model.Lobby
	games       map[model.GameID]*model.Game
}

// New creates a new in-memory registry
func New(clk clock.Clock, rnd random.Random) *Storage {
	return &Storage{
		clock:       clk,
		random:      rnd,
		players:     make(map[model.PlayerID]*model.Player),
		connections: make(map[model.ConnectionRef]model.PlayerID),
		lobbies:     make(map[model.LobbyID]*model.Lobby),
		games:       make(map[model.GameID]*model.Game),
	}
}

// Ensure Storage implements the interface
var _ storage.Registry = (*Storage)(nil)

// Player operations

func (s *Storage) AddPlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[player.ID] = player
	if player.Connection != "" {
		s.connections[player.Connection] = player.ID
	}
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player, nil
}

func (s *Storage) GetPlayerByConnection(ctx context.Context, conn model.ConnectionRef) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.connections[conn]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player, nil
}

// RemovePlayer unregisters a player and its connection. Lobby membership is
// left to the caller, which must detach the player under the lobby's lock.
func (s *Storage) RemovePlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	delete(s.players, id)
	if s.connections[player.Connection] == id {
		delete(s.connections, player.Connection)
	}
	return player, nil
}

// Lobby operations

// CreateLobby registers a new empty lobby under a fresh short code
func (s *Storage) CreateLobby(ctx context.Context, maxPlayers int) (*model.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < lobbyCodeAttempts; i++ {
		code := model.LobbyID(s.random.String(lobbyCodeLength, lobbyCodeAlphabet))
		if code == "" {
			continue
		}
		if _, taken := s.lobbies[code]; taken {
			continue
		}
		lobby := model.NewLobby(code, maxPlayers, s.clock.Now())
		s.lobbies[code] = lobby
		return lobby, nil
	}
	return nil, ErrLobbyCodeExhausted
}

func (s *Storage) GetLobby(ctx context.Context, id model.LobbyID) (*model.Lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lobby, ok := s.lobbies[id]
	if !ok {
		return nil, model.ErrLobbyNotFound
	}
	return lobby, nil
}

// RemoveLobby unregisters a lobby and its live game, marking it closed.
// The caller must hold the lobby's lock.
func (s *Storage) RemoveLobby(ctx context.Context, id model.LobbyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lobby, ok := s.lobbies[id]
	if !ok {
		return model.ErrLobbyNotFound
	}
	if lobby.CurrentGame != nil {
		delete(s.games, lobby.CurrentGame.ID)
	}
	lobby.Close()
	delete(s.lobbies, id)
	return nil
}

// ListJoinableLobbies returns open lobbies with spare capacity, oldest first.
// Must not be called while holding any lobby's lock.
func (s *Storage) ListJoinableLobbies(ctx context.Context) ([]*model.Lobby, error) {
	s.mu.RLock()
	snapshot := make([]*model.Lobby, 0, len(s.lobbies))
	for _, lobby := range s.lobbies {
		snapshot = append(snapshot, lobby)
	}
	s.mu.RUnlock()

	var joinable []*model.Lobby
	for _, lobby := range snapshot {
		lobby.Lock()
		ok := lobby.IsJoinable()
		lobby.Unlock()
		if ok {
			joinable = append(joinable, lobby)
		}
	}
	sort.Slice(joinable, func(i, j int) bool {
		if joinable[i].CreatedAt.Equal(joinable[j].CreatedAt) {
			return joinable[i].ID < joinable[j].ID
		}
		return joinable[i].CreatedAt.Before(joinable[j].CreatedAt)
	})
	return joinable, nil
}

// Game operations

func (s *Storage) AddGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = game
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return game, nil
}

func (s *Storage) RemoveGame(ctx context.Context, id model.GameID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
	return nil
}

// Stats returns the current registry counts
func (s *Storage) Stats(ctx context.Context) storage.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return storage.Stats{
		Players:     len(s.players),
		Lobbies:     len(s.lobbies),
		Games:       len(s.games),
		Connections: len(s.connections),
	}
}
