package model

import "time"

// GameID uniquely identifies a game
type GameID string

// GameState represents the current phase of a match
type GameState string

const (
	GameStateLobby    GameState = "lobby"     // Created, not yet started
	GameStateStarting GameState = "starting"  // First round being prepared
	GameStatePlaying  GameState = "playing"   // A round is live
	GameStateRoundEnd GameState = "round_end" // Between rounds
	GameStateFinished GameState = "finished"  // Round limit reached or forfeited
)

// PointsPerWin is credited to the player who wins a round
const PointsPerWin = 1

// Game is one match: a fixed snapshot of players playing a sequence of rounds
type Game struct {
	ID            GameID
	LobbyID       LobbyID
	Players       []*Player // snapshot of lobby membership at match start
	CurrentRound  *Round    // non-nil iff State is playing
	RoundHistory  []*Round
	RoundsPlayed  int
	MaxRounds     int
	MaxPlayers    int
	RoundDuration time.Duration
	State         GameState
	CreatedAt     time.Time
}

// NewGame creates a game in the lobby phase
func NewGame(id GameID, lobbyID LobbyID, players []*Player, maxRounds, maxPlayers int, roundDuration time.Duration, now time.Time) *Game {
	snapshot := make([]*Player, len(players))
	copy(snapshot, players)
	return &Game{
		ID:            id,
		LobbyID:       lobbyID,
		Players:       snapshot,
		RoundHistory:  []*Round{},
		MaxRounds:     maxRounds,
		MaxPlayers:    maxPlayers,
		RoundDuration: roundDuration,
		State:         GameStateLobby,
		CreatedAt:     now,
	}
}

// IsFull returns true when no more players can be added
func (g *Game) IsFull() bool {
	return len(g.Players) >= g.MaxPlayers
}

// IsActive returns true while the match is underway
func (g *Game) IsActive() bool {
	switch g.State {
	case GameStateStarting, GameStatePlaying, GameStateRoundEnd:
		return true
	}
	return false
}

// AddPlayer adds a player before the match has started
func (g *Game) AddPlayer(p *Player) error {
	if g.IsFull() {
		return ErrGameFull
	}
	if g.State != GameStateLobby {
		return ErrGameStarted
	}
	p.ResetForNewGame()
	g.Players = append(g.Players, p)
	return nil
}

// RemovePlayer removes a player from the match, returning it if present
func (g *Game) RemovePlayer(id PlayerID) *Player {
	for i, p := range g.Players {
		if p.ID == id {
			g.Players = append(g.Players[:i], g.Players[i+1:]...)
			return p
		}
	}
	return nil
}

// GetPlayer returns the player with the given ID, or nil if not found
func (g *Game) GetPlayer(id PlayerID) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// StartRound opens a new round with the given word
func (g *Game) StartRound(id RoundID, word string, now time.Time) (*Round, error) {
	if g.CurrentRound != nil {
		return nil, ErrRoundInProgress
	}
	if g.State == GameStateFinished {
		return nil, ErrGameFinished
	}
	g.CurrentRound = NewRound(id, g.ID, word, g.RoundDuration, now)
	g.State = GameStatePlaying
	return g.CurrentRound, nil
}

// EndRound closes the live round. A non-empty winnerID credits that player.
// Returns the ended round, or nil if there was no live round.
func (g *Game) EndRound(winnerID PlayerID, now time.Time) *Round {
	round := g.CurrentRound
	if round == nil {
		return nil
	}

	if winnerID != "" && g.GetPlayer(winnerID) == nil {
		winnerID = ""
	}
	if !round.end(winnerID, now) {
		return nil
	}
	if winner := g.GetPlayer(winnerID); winner != nil {
		winner.AddScore(PointsPerWin)
	}

	g.RoundHistory = append(g.RoundHistory, round)
	g.RoundsPlayed++
	g.CurrentRound = nil

	if g.RoundsPlayed >= g.MaxRounds {
		g.State = GameStateFinished
	} else {
		g.State = GameStateRoundEnd
	}
	return round
}

// Finish force-ends the match
func (g *Game) Finish() {
	g.State = GameStateFinished
}

// NextRoundNumber returns the 1-based number of the live or upcoming round
func (g *Game) NextRoundNumber() int {
	return g.RoundsPlayed + 1
}

// UsedWords returns the words already drawn in this match
func (g *Game) UsedWords() map[string]struct{} {
	used := make(map[string]struct{}, len(g.RoundHistory)+1)
	for _, r := range g.RoundHistory {
		used[r.Word] = struct{}{}
	}
	if g.CurrentRound != nil {
		used[g.CurrentRound.Word] = struct{}{}
	}
	return used
}

// Scores returns every player's score keyed by player ID
func (g *Game) Scores() map[PlayerID]ScoreEntry {
	scores := make(map[PlayerID]ScoreEntry, len(g.Players))
	for _, p := range g.Players {
		scores[p.ID] = ScoreEntry{Username: p.Username, Score: p.Score}
	}
	return scores
}

// GetWinner returns the highest scorer. Ties go to the earliest-joined
// player; a match where nobody scored has no winner.
func (g *Game) GetWinner() *Player {
	var winner *Player
	for _, p := range g.Players {
		if p.Score <= 0 {
			continue
		}
		if winner == nil || p.Score > winner.Score {
			winner = p
		}
	}
	return winner
}

// View returns a serializable snapshot of the game
func (g *Game) View(now time.Time) GameView {
	view := GameView{
		ID:           g.ID,
		State:        g.State,
		Players:      make([]GamePlayerView, 0, len(g.Players)),
		RoundsPlayed: g.RoundsPlayed,
		MaxRounds:    g.MaxRounds,
	}
	for _, p := range g.Players {
		view.Players = append(view.Players, GamePlayerView{
			ID:       p.ID,
			Username: p.Username,
			Score:    p.Score,
			IsReady:  p.IsReady,
		})
	}
	if g.CurrentRound != nil {
		rv := g.CurrentRound.View(now)
		view.CurrentRound = &rv
	}
	return view
}
