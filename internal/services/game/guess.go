package game

import (
	"context"
	"log/slog"

	"github.com/mcoot/drawguess/internal/model"
	"github.com/mcoot/drawguess/internal/services/imaging"
)

// HandleGuessAttempt classifies a drawing against the live round's word.
//
// With finalize false this is a rate-limited live preview that never changes
// state. With finalize true a correct drawing wins the round, unless the round
// ended while the classifier was running.
func (m *Manager) HandleGuessAttempt(ctx context.Context, playerID model.PlayerID, canvas string, finalize bool) (model.GuessResult, error) {
	player, err := m.registry.GetPlayer(ctx, playerID)
	if err != nil {
		return model.GuessResult{}, err
	}

	lobbyID, gameID, roundID, word, err := m.liveRound(ctx, player)
	if err != nil {
		return model.GuessResult{}, err
	}

	if !finalize && !m.limiter.allow(player.ID) {
		return model.GuessResult{}, model.ErrRateLimited
	}

	img, err := imaging.Decode(canvas)
	if err != nil {
		return model.GuessResult{}, err
	}

	predictions, err := m.oracle.Predict(ctx, img)
	if err != nil {
		m.logger.Warn("oracle prediction failed",
			slog.String("player_id", string(player.ID)),
			slog.String("error", err.Error()),
		)
		predictions = nil
	}

	result := m.scoring.Evaluate(predictions, word)
	if finalize && result.IsCorrect {
		m.resolveWin(ctx, lobbyID, gameID, roundID, player.ID)
	}
	return result, nil
}

// liveRound captures the identity and word of the player's live round
func (m *Manager) liveRound(ctx context.Context, player *model.Player) (model.LobbyID, model.GameID, model.RoundID, string, error) {
	if !player.InLobby() {
		return "", "", "", "", model.ErrNotInLobby
	}
	lobby, err := m.registry.GetLobby(ctx, player.CurrentLobby)
	if err != nil {
		return "", "", "", "", model.ErrNotInLobby
	}

	lobby.Lock()
	defer lobby.Unlock()
	if lobby.IsClosed() {
		return "", "", "", "", model.ErrNotInLobby
	}
	game := lobby.CurrentGame
	if game == nil || game.State != model.GameStatePlaying || game.CurrentRound == nil {
		return "", "", "", "", model.ErrNoActiveRound
	}
	if game.GetPlayer(player.ID) == nil {
		return "", "", "", "", model.ErrNoActiveRound
	}
	round := game.CurrentRound
	return lobby.ID, game.ID, round.ID, round.Word, nil
}
