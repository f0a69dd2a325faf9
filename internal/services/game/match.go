package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/drawguess/internal/model"
)

// BeginCountdown announces the next match and schedules its start. The lobby
// moves to ready so a second trigger cannot schedule another start.
func (m *Manager) BeginCountdown(ctx context.Context, lobbyID model.LobbyID) error {
	lobby, err := m.registry.GetLobby(ctx, lobbyID)
	if err != nil {
		return err
	}

	lobby.Lock()
	defer lobby.Unlock()
	if lobby.IsClosed() {
		return model.ErrLobbyNotFound
	}
	if !lobby.CanStartMatch() {
		return model.ErrCountdownRunning
	}
	if lobby.PlayerCount() < 2 {
		return model.ErrNotEnoughPlayers
	}

	lobby.State = model.LobbyStateReady
	m.timers.schedule(countdownTimerKey(lobby.ID), m.cfg.Countdown, func() {
		if _, err := m.StartMatch(context.Background(), lobbyID); err != nil {
			m.logger.Warn("scheduled match start failed",
				slog.String("lobby_id", string(lobbyID)),
				slog.String("error", err.Error()),
			)
		}
	})

	m.broadcaster.Broadcast(lobby.ID, model.EventGameStarting, model.GameStartingPayload{
		Countdown: int(m.cfg.Countdown / time.Second),
	})

	m.logger.Info("match countdown started",
		slog.String("lobby_id", string(lobby.ID)),
		slog.Duration("countdown", m.cfg.Countdown),
	)
	return nil
}

// StartMatch creates a match for the lobby and opens its first round.
// Returns the first round's word.
func (m *Manager) StartMatch(ctx context.Context, lobbyID model.LobbyID) (string, error) {
	lobby, err := m.registry.GetLobby(ctx, lobbyID)
	if err != nil {
		return "", err
	}

	lobby.Lock()
	defer lobby.Unlock()
	if lobby.IsClosed() {
		return "", model.ErrLobbyNotFound
	}
	m.timers.cancel(countdownTimerKey(lobby.ID))

	if lobby.State == model.LobbyStateInGame {
		return "", model.ErrGameInProgress
	}
	if lobby.PlayerCount() < 2 {
		lobby.State = model.LobbyStateWaiting
		return "", model.ErrNotEnoughPlayers
	}

	game := lobby.StartNewGame(model.GameID(uuid.NewString()), m.cfg.RoundDuration, m.clock.Now())
	if err := m.registry.AddGame(ctx, game); err != nil {
		return "", err
	}
	game.State = model.GameStateStarting

	m.logger.Info("match started",
		slog.String("lobby_id", string(lobby.ID)),
		slog.String("game_id", string(game.ID)),
		slog.Int("player_count", len(game.Players)),
		slog.Int("max_rounds", game.MaxRounds),
	)
	return m.startRoundLocked(ctx, lobby, game)
}

// startRoundLocked draws a fresh word, opens a round and arms its timer
func (m *Manager) startRoundLocked(ctx context.Context, lobby *model.Lobby, game *model.Game) (string, error) {
	word, err := m.words.Pick(game.UsedWords())
	if err != nil {
		m.logger.Error("failed to pick word",
			slog.String("game_id", string(game.ID)),
			slog.String("error", err.Error()),
		)
		game.Finish()
		m.endMatchLocked(ctx, lobby, game)
		return "", err
	}

	round, err := game.StartRound(model.RoundID(uuid.NewString()), word, m.clock.Now())
	if err != nil {
		return "", err
	}

	lobbyID, gameID, roundID := lobby.ID, game.ID, round.ID
	m.timers.schedule(gameTimerKey(gameID), round.Duration, func() {
		m.onRoundTimeout(lobbyID, gameID, roundID)
	})

	m.broadcaster.Broadcast(lobby.ID, model.EventRoundStart, model.RoundStartPayload{
		LobbyID:     lobby.ID,
		GameID:      game.ID,
		RoundID:     round.ID,
		RoundNumber: game.NextRoundNumber(),
		Word:        word,
		Duration:    int(round.Duration / time.Second),
	})

	m.logger.Debug("round started",
		slog.String("game_id", string(game.ID)),
		slog.String("round_id", string(round.ID)),
		slog.Int("round_number", game.NextRoundNumber()),
	)
	return word, nil
}

// onRoundTimeout ends the round without a winner, unless it is already over
func (m *Manager) onRoundTimeout(lobbyID model.LobbyID, gameID model.GameID, roundID model.RoundID) {
	ctx := context.Background()
	lobby, game, ok := m.lockLiveRound(ctx, lobbyID, gameID, roundID)
	if !ok {
		return
	}
	defer lobby.Unlock()

	round := game.EndRound("", m.clock.Now())
	if round == nil {
		return
	}
	m.broadcaster.Broadcast(lobby.ID, model.EventRoundEnd, m.roundEndPayload(lobby, game, round, true))

	m.logger.Info("round timed out",
		slog.String("game_id", string(game.ID)),
		slog.String("round_id", string(round.ID)),
	)

	if game.State == model.GameStateFinished {
		m.endMatchLocked(ctx, lobby, game)
		return
	}
	if _, err := m.startRoundLocked(ctx, lobby, game); err != nil {
		m.logger.Warn("failed to start next round",
			slog.String("game_id", string(game.ID)),
			slog.String("error", err.Error()),
		)
	}
}

// resolveWin credits the guesser if the round is still live
func (m *Manager) resolveWin(ctx context.Context, lobbyID model.LobbyID, gameID model.GameID, roundID model.RoundID, winnerID model.PlayerID) bool {
	lobby, game, ok := m.lockLiveRound(ctx, lobbyID, gameID, roundID)
	if !ok {
		return false
	}
	defer lobby.Unlock()

	m.timers.cancel(gameTimerKey(game.ID))
	round := game.EndRound(winnerID, m.clock.Now())
	if round == nil {
		return false
	}
	m.broadcaster.Broadcast(lobby.ID, model.EventRoundEnd, m.roundEndPayload(lobby, game, round, false))

	m.logger.Info("round won",
		slog.String("game_id", string(game.ID)),
		slog.String("round_id", string(round.ID)),
		slog.String("winner_id", string(round.WinnerID)),
	)

	if game.State == model.GameStateFinished {
		m.endMatchLocked(ctx, lobby, game)
		return true
	}

	m.timers.schedule(gameTimerKey(game.ID), m.cfg.GracePeriod, func() {
		m.onGraceElapsed(lobbyID, gameID)
	})
	return true
}

// onGraceElapsed opens the next round after the post-win pause
func (m *Manager) onGraceElapsed(lobbyID model.LobbyID, gameID model.GameID) {
	ctx := context.Background()
	lobby, err := m.registry.GetLobby(ctx, lobbyID)
	if err != nil {
		return
	}

	lobby.Lock()
	defer lobby.Unlock()
	game := lobby.CurrentGame
	if lobby.IsClosed() || game == nil || game.ID != gameID || game.State != model.GameStateRoundEnd {
		return
	}
	if _, err := m.startRoundLocked(ctx, lobby, game); err != nil {
		m.logger.Warn("failed to start next round",
			slog.String("game_id", string(game.ID)),
			slog.String("error", err.Error()),
		)
	}
}

// forfeitLocked force-finishes the lobby's active match after a departure
func (m *Manager) forfeitLocked(ctx context.Context, lobby *model.Lobby, leaver *model.Player) {
	game := lobby.CurrentGame
	game.EndRound("", m.clock.Now())
	game.Finish()

	m.logger.Info("match forfeited",
		slog.String("lobby_id", string(lobby.ID)),
		slog.String("game_id", string(game.ID)),
		slog.String("player_id", string(leaver.ID)),
	)
	m.endMatchLocked(ctx, lobby, game)
}

// endMatchLocked closes a finished match and announces the result
func (m *Manager) endMatchLocked(ctx context.Context, lobby *model.Lobby, game *model.Game) {
	m.timers.cancel(gameTimerKey(game.ID))
	scores := game.Scores()
	winner := lobby.EndCurrentGame()
	if err := m.registry.RemoveGame(ctx, game.ID); err != nil {
		m.logger.Warn("failed to remove game",
			slog.String("game_id", string(game.ID)),
			slog.String("error", err.Error()),
		)
	}

	payload := model.GameEndPayload{
		LobbyID:     lobby.ID,
		GameID:      game.ID,
		FinalScores: scores,
		Lobby:       lobby.View(m.clock.Now()),
	}
	if winner != nil {
		id, name := winner.ID, winner.Username
		payload.WinnerID = &id
		payload.WinnerUsername = &name
	}
	m.broadcaster.Broadcast(lobby.ID, model.EventGameEnd, payload)

	m.logger.Info("match finished",
		slog.String("lobby_id", string(lobby.ID)),
		slog.String("game_id", string(game.ID)),
		slog.Int("rounds_played", game.RoundsPlayed),
	)
}

// lockLiveRound locks the lobby if roundID is still its current live round
func (m *Manager) lockLiveRound(ctx context.Context, lobbyID model.LobbyID, gameID model.GameID, roundID model.RoundID) (*model.Lobby, *model.Game, bool) {
	lobby, err := m.registry.GetLobby(ctx, lobbyID)
	if err != nil {
		return nil, nil, false
	}

	lobby.Lock()
	game := lobby.CurrentGame
	if lobby.IsClosed() || game == nil || game.ID != gameID ||
		game.CurrentRound == nil || game.CurrentRound.ID != roundID {
		lobby.Unlock()
		return nil, nil, false
	}
	return lobby, game, true
}

func (m *Manager) roundEndPayload(lobby *model.Lobby, game *model.Game, round *model.Round, timeout bool) model.RoundEndPayload {
	payload := model.RoundEndPayload{
		LobbyID: lobby.ID,
		GameID:  game.ID,
		Word:    round.Word,
		Scores:  game.Scores(),
		Timeout: timeout,
	}
	if winner := game.GetPlayer(round.WinnerID); winner != nil {
		id, name := winner.ID, winner.Username
		payload.WinnerID = &id
		payload.WinnerUsername = &name
	}
	return payload
}
