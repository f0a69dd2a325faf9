package game

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mcoot/drawguess/internal/dependencies/clock"
	"github.com/mcoot/drawguess/internal/model"
	"github.com/mcoot/drawguess/internal/services/oracle"
	"github.com/mcoot/drawguess/internal/services/scoring"
	"github.com/mcoot/drawguess/internal/storage"
)

// Broadcaster delivers events to every connection in a lobby's room
type Broadcaster interface {
	JoinRoom(conn model.ConnectionRef, lobbyID model.LobbyID)
	LeaveRoom(conn model.ConnectionRef, lobbyID model.LobbyID)
	Broadcast(lobbyID model.LobbyID, event model.EventType, payload any)
}

// WordSource supplies secret words for rounds
type WordSource interface {
	Pick(exclude map[string]struct{}) (string, error)
}

// Manager drives every lobby and match transition.
//
// Each lobby is guarded by its own lock. The manager never holds two lobby
// locks at once, and registry calls made under a lobby lock never lock a lobby.
type Manager struct {
	registry    storage.Registry
	words       WordSource
	oracle      oracle.Oracle
	scoring     *scoring.Service
	broadcaster Broadcaster
	clock       clock.Clock
	cfg         Config
	logger      *slog.Logger

	timers  *timerSet
	limiter *updateLimiter
}

// NewManager creates a new Manager
func NewManager(
	registry storage.Registry,
	words WordSource,
	oracle oracle.Oracle,
	scoring *scoring.Service,
	broadcaster Broadcaster,
	clock clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{
		registry:    registry,
		words:       words,
		oracle:      oracle,
		scoring:     scoring,
		broadcaster: broadcaster,
		clock:       clock,
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "game-manager")),
		timers:      newTimerSet(clock),
		limiter:     newUpdateLimiter(clock, cfg.MaxUpdatesPerSecond),
	}
}

// Config returns the effective match settings
func (m *Manager) Config() Config {
	return m.cfg
}

// Authenticate registers a player for a connection. A connection that was
// already authenticated is cleaned up first.
func (m *Manager) Authenticate(ctx context.Context, conn model.ConnectionRef, username string) (*model.Player, error) {
	if _, err := m.registry.GetPlayerByConnection(ctx, conn); err == nil {
		if _, _, err := m.Disconnect(ctx, conn); err != nil {
			return nil, err
		}
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = "Player_" + shortRef(string(conn))
	}

	player := model.NewPlayer(model.PlayerID(uuid.NewString()), conn, username, m.clock.Now())
	if err := m.registry.AddPlayer(ctx, player); err != nil {
		return nil, err
	}

	m.logger.Info("player authenticated",
		slog.String("player_id", string(player.ID)),
		slog.String("username", username),
	)
	return player, nil
}

// PlayerForConnection returns the player authenticated on a connection
func (m *Manager) PlayerForConnection(ctx context.Context, conn model.ConnectionRef) (*model.Player, error) {
	return m.registry.GetPlayerByConnection(ctx, conn)
}

// Disconnect removes the connection's player, forfeiting any match in
// progress. Returns the departed player and the lobby they left, if any.
func (m *Manager) Disconnect(ctx context.Context, conn model.ConnectionRef) (*model.Player, model.LobbyID, error) {
	player, err := m.registry.GetPlayerByConnection(ctx, conn)
	if err != nil {
		return nil, "", err
	}

	left := m.detach(ctx, player)

	if _, err := m.registry.RemovePlayer(ctx, player.ID); err != nil && !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, "", err
	}
	m.limiter.forget(player.ID)

	m.logger.Info("player disconnected",
		slog.String("player_id", string(player.ID)),
		slog.String("lobby_id", string(left)),
	)
	return player, left, nil
}

// CreateLobby leaves the player's current lobby, if any, and creates a new one
func (m *Manager) CreateLobby(ctx context.Context, playerID model.PlayerID) (model.LobbyView, error) {
	player, err := m.registry.GetPlayer(ctx, playerID)
	if err != nil {
		return model.LobbyView{}, err
	}
	m.detach(ctx, player)

	lobby, err := m.registry.CreateLobby(ctx, m.cfg.MaxPlayers)
	if err != nil {
		return model.LobbyView{}, err
	}

	lobby.Lock()
	defer lobby.Unlock()
	if err := lobby.AddPlayer(player); err != nil {
		return model.LobbyView{}, err
	}
	m.broadcaster.JoinRoom(player.Connection, lobby.ID)

	m.logger.Info("lobby created",
		slog.String("lobby_id", string(lobby.ID)),
		slog.String("player_id", string(player.ID)),
	)
	return lobby.View(m.clock.Now()), nil
}

// JoinLobby moves the player into an existing lobby
func (m *Manager) JoinLobby(ctx context.Context, playerID model.PlayerID, lobbyID model.LobbyID) (model.LobbyView, error) {
	lobbyID = NormalizeLobbyID(lobbyID)
	player, err := m.registry.GetPlayer(ctx, playerID)
	if err != nil {
		return model.LobbyView{}, err
	}
	lobby, err := m.registry.GetLobby(ctx, lobbyID)
	if err != nil {
		return model.LobbyView{}, err
	}

	if player.CurrentLobby == lobbyID {
		return m.lobbyView(lobby)
	}
	if err := m.checkJoinable(lobby); err != nil {
		return model.LobbyView{}, err
	}

	m.detach(ctx, player)

	lobby.Lock()
	defer lobby.Unlock()
	if lobby.IsClosed() {
		return model.LobbyView{}, model.ErrLobbyNotFound
	}
	if err := lobby.AddPlayer(player); err != nil {
		return model.LobbyView{}, err
	}
	m.broadcaster.JoinRoom(player.Connection, lobby.ID)

	view := lobby.View(m.clock.Now())
	m.broadcaster.Broadcast(lobby.ID, model.EventPlayerJoined, model.PlayerJoinedPayload{
		PlayerID: player.ID,
		Username: player.Username,
		Lobby:    view,
	})

	m.logger.Info("player joined lobby",
		slog.String("lobby_id", string(lobby.ID)),
		slog.String("player_id", string(player.ID)),
		slog.Int("player_count", lobby.PlayerCount()),
	)
	return view, nil
}

// LeaveLobby removes the player from their lobby, forfeiting any match in
// progress. Returns the lobby that was left.
func (m *Manager) LeaveLobby(ctx context.Context, playerID model.PlayerID) (model.LobbyID, error) {
	player, err := m.registry.GetPlayer(ctx, playerID)
	if err != nil {
		return "", err
	}
	if !player.InLobby() {
		return "", model.ErrNotInLobby
	}
	left := m.detach(ctx, player)
	if left == "" {
		return "", model.ErrNotInLobby
	}
	return left, nil
}

// SetReady marks the player ready. The returned flag is true when every
// member is now ready and a match may start; the caller then begins the
// countdown.
func (m *Manager) SetReady(ctx context.Context, playerID model.PlayerID) (model.LobbyView, bool, error) {
	player, lobby, err := m.lockPlayerLobby(ctx, playerID)
	if err != nil {
		return model.LobbyView{}, false, err
	}
	defer lobby.Unlock()

	if lobby.State == model.LobbyStateInGame {
		return model.LobbyView{}, false, model.ErrGameInProgress
	}

	player.IsReady = true
	view := lobby.View(m.clock.Now())
	m.broadcaster.Broadcast(lobby.ID, model.EventPlayerReadyUpdate, model.PlayerReadyUpdatePayload{
		PlayerID: player.ID,
		Username: player.Username,
		Lobby:    view,
	})

	return view, lobby.AllPlayersReady() && lobby.CanStartMatch(), nil
}

// MarkReadyForNext records a rematch vote. Ignored unless the lobby is
// between matches. The returned flag is true once every member has voted.
func (m *Manager) MarkReadyForNext(ctx context.Context, playerID model.PlayerID) (model.LobbyView, bool, error) {
	player, lobby, err := m.lockPlayerLobby(ctx, playerID)
	if err != nil {
		return model.LobbyView{}, false, err
	}
	defer lobby.Unlock()

	now := m.clock.Now()
	if lobby.State != model.LobbyStateGameOver {
		return lobby.View(now), false, nil
	}

	lobby.MarkReadyForNext(player.ID)
	view := lobby.View(now)
	m.broadcaster.Broadcast(lobby.ID, model.EventPlayerReadyForNext, model.PlayerReadyForNextPayload{
		LobbyID:  lobby.ID,
		PlayerID: player.ID,
		Username: player.Username,
		Lobby:    view,
	})

	return view, lobby.AllReadyForNext(), nil
}

// SetMaxRounds sets or clears the lobby's round limit for future matches
func (m *Manager) SetMaxRounds(ctx context.Context, playerID model.PlayerID, rounds *int) (model.LobbyView, error) {
	_, lobby, err := m.lockPlayerLobby(ctx, playerID)
	if err != nil {
		return model.LobbyView{}, err
	}
	defer lobby.Unlock()

	if lobby.State == model.LobbyStateInGame {
		return model.LobbyView{}, model.ErrGameInProgress
	}

	lobby.SetMaxRounds(rounds)
	view := lobby.View(m.clock.Now())
	m.broadcaster.Broadcast(lobby.ID, model.EventLobbySettingsUpdated, model.LobbySettingsUpdatedPayload{
		Lobby: view,
	})
	return view, nil
}

// GetLobbyState returns a snapshot of a lobby
func (m *Manager) GetLobbyState(ctx context.Context, lobbyID model.LobbyID) (model.LobbyView, error) {
	lobby, err := m.registry.GetLobby(ctx, NormalizeLobbyID(lobbyID))
	if err != nil {
		return model.LobbyView{}, err
	}
	return m.lobbyView(lobby)
}

// PlayerLobbyState returns a snapshot of the player's current lobby
func (m *Manager) PlayerLobbyState(ctx context.Context, playerID model.PlayerID) (model.LobbyView, error) {
	_, lobby, err := m.lockPlayerLobby(ctx, playerID)
	if err != nil {
		return model.LobbyView{}, err
	}
	defer lobby.Unlock()
	return lobby.View(m.clock.Now()), nil
}

// ListJoinableLobbies returns snapshots of the lobbies new players can join
func (m *Manager) ListJoinableLobbies(ctx context.Context) ([]model.LobbyView, error) {
	lobbies, err := m.registry.ListJoinableLobbies(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]model.LobbyView, 0, len(lobbies))
	for _, lobby := range lobbies {
		view, err := m.lobbyView(lobby)
		if err != nil {
			continue
		}
		views = append(views, view)
	}
	return views, nil
}

// Stats returns the registry counts
func (m *Manager) Stats(ctx context.Context) storage.Stats {
	return m.registry.Stats(ctx)
}

// Shutdown cancels every outstanding timer
func (m *Manager) Shutdown() {
	n := m.timers.cancelAll()
	m.logger.Info("game manager stopped", slog.Int("cancelled_timers", n))
}

// NormalizeLobbyID canonicalizes a user-entered lobby code
func NormalizeLobbyID(id model.LobbyID) model.LobbyID {
	return model.LobbyID(strings.ToUpper(strings.TrimSpace(string(id))))
}

// detach removes the player from their current lobby, forfeiting an active
// match and deleting the lobby if it becomes empty. Returns the lobby left.
func (m *Manager) detach(ctx context.Context, player *model.Player) model.LobbyID {
	lobbyID := player.CurrentLobby
	if lobbyID == "" {
		return ""
	}

	lobby, err := m.registry.GetLobby(ctx, lobbyID)
	if err != nil {
		player.CurrentLobby = ""
		return ""
	}

	lobby.Lock()
	defer lobby.Unlock()
	if lobby.IsClosed() {
		player.CurrentLobby = ""
		return ""
	}

	if game := lobby.CurrentGame; game != nil && game.IsActive() {
		m.forfeitLocked(ctx, lobby, player)
	}

	if lobby.RemovePlayer(player.ID) == nil {
		player.CurrentLobby = ""
		return ""
	}
	m.broadcaster.LeaveRoom(player.Connection, lobby.ID)

	if lobby.PlayerCount() == 0 {
		m.timers.cancel(countdownTimerKey(lobby.ID))
		if err := m.registry.RemoveLobby(ctx, lobby.ID); err != nil {
			m.logger.Warn("failed to remove empty lobby",
				slog.String("lobby_id", string(lobby.ID)),
				slog.String("error", err.Error()),
			)
		}
		m.logger.Info("lobby removed", slog.String("lobby_id", string(lobby.ID)))
		return lobby.ID
	}

	m.broadcaster.Broadcast(lobby.ID, model.EventPlayerLeft, model.PlayerLeftPayload{
		PlayerID: player.ID,
		Username: player.Username,
		Lobby:    lobby.View(m.clock.Now()),
	})
	return lobby.ID
}

func (m *Manager) checkJoinable(lobby *model.Lobby) error {
	lobby.Lock()
	defer lobby.Unlock()
	switch {
	case lobby.IsClosed():
		return model.ErrLobbyNotFound
	case lobby.IsFull():
		return model.ErrLobbyFull
	case lobby.State == model.LobbyStateInGame:
		return model.ErrGameInProgress
	}
	return nil
}

// lockPlayerLobby returns the player and their lobby, with the lobby locked
func (m *Manager) lockPlayerLobby(ctx context.Context, playerID model.PlayerID) (*model.Player, *model.Lobby, error) {
	player, err := m.registry.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}
	if !player.InLobby() {
		return nil, nil, model.ErrNotInLobby
	}
	lobby, err := m.registry.GetLobby(ctx, player.CurrentLobby)
	if err != nil {
		return nil, nil, model.ErrNotInLobby
	}

	lobby.Lock()
	if lobby.IsClosed() || lobby.GetPlayer(player.ID) == nil {
		lobby.Unlock()
		return nil, nil, model.ErrNotInLobby
	}
	return player, lobby, nil
}

func (m *Manager) lobbyView(lobby *model.Lobby) (model.LobbyView, error) {
	lobby.Lock()
	defer lobby.Unlock()
	if lobby.IsClosed() {
		return model.LobbyView{}, model.ErrLobbyNotFound
	}
	return lobby.View(m.clock.Now()), nil
}

func shortRef(ref string) string {
	if len(ref) > 6 {
		return ref[:6]
	}
	return ref
}
