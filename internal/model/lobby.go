package model

import (
	"sync"
	"time"
)

// LobbyID is the short human-readable code used to join a lobby
type LobbyID string

// LobbyState represents the current state of a lobby
type LobbyState string

const (
	LobbyStateWaiting  LobbyState = "waiting"   // Gathering players
	LobbyStateReady    LobbyState = "ready"     // Countdown to the next match running
	LobbyStateInGame   LobbyState = "in_game"   // Match in progress
	LobbyStateGameOver LobbyState = "game_over" // Match finished, rematch voting open
)

// Round limit bounds for the per-lobby override
const (
	MinRoundsOverride = 1
	MaxRoundsOverride = 20
)

// Lobby is a durable room that outlives individual matches.
//
// All fields are guarded by the lobby's lock; callers must hold it for
// every read and write.
type Lobby struct {
	mu sync.Mutex

	ID                LobbyID
	Players           []*Player
	CurrentGame       *Game // non-nil iff State is in_game
	ReadyForNext      map[PlayerID]struct{}
	GamesPlayed       int
	WinTally          map[PlayerID]int
	MaxRoundsOverride *int
	MaxPlayers        int
	State             LobbyState
	CreatedAt         time.Time

	closed bool
}

// NewLobby creates an empty waiting lobby
func NewLobby(id LobbyID, maxPlayers int, now time.Time) *Lobby {
	return &Lobby{
		ID:           id,
		Players:      []*Player{},
		ReadyForNext: make(map[PlayerID]struct{}),
		WinTally:     make(map[PlayerID]int),
		MaxPlayers:   maxPlayers,
		State:        LobbyStateWaiting,
		CreatedAt:    now,
	}
}

// Lock acquires the lobby's lock
func (l *Lobby) Lock() {
	l.mu.Lock()
}

// Unlock releases the lobby's lock
func (l *Lobby) Unlock() {
	l.mu.Unlock()
}

// Close marks the lobby as removed from the registry
func (l *Lobby) Close() {
	l.closed = true
}

// IsClosed returns true once the lobby has been removed
func (l *Lobby) IsClosed() bool {
	return l.closed
}

// IsFull returns true when the lobby is at capacity
func (l *Lobby) IsFull() bool {
	return len(l.Players) >= l.MaxPlayers
}

// PlayerCount returns the current membership count
func (l *Lobby) PlayerCount() int {
	return len(l.Players)
}

// IsJoinable returns true if the lobby should be listed to new players
func (l *Lobby) IsJoinable() bool {
	if l.closed || l.IsFull() {
		return false
	}
	return l.State == LobbyStateWaiting || l.State == LobbyStateGameOver
}

// AddPlayer adds a player to the lobby
func (l *Lobby) AddPlayer(p *Player) error {
	if l.IsFull() {
		return ErrLobbyFull
	}
	if l.State == LobbyStateInGame {
		return ErrGameInProgress
	}
	p.CurrentLobby = l.ID
	p.ResetForNewGame()
	l.Players = append(l.Players, p)
	if _, ok := l.WinTally[p.ID]; !ok {
		l.WinTally[p.ID] = 0
	}
	return nil
}

// RemovePlayer detaches a player and discards their rematch vote
func (l *Lobby) RemovePlayer(id PlayerID) *Player {
	for i, p := range l.Players {
		if p.ID == id {
			l.Players = append(l.Players[:i], l.Players[i+1:]...)
			p.CurrentLobby = ""
			delete(l.ReadyForNext, id)
			return p
		}
	}
	return nil
}

// GetPlayer returns the member with the given ID, or nil if not found
func (l *Lobby) GetPlayer(id PlayerID) *Player {
	for _, p := range l.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// MarkReadyForNext records a rematch vote. No-op for non-members.
func (l *Lobby) MarkReadyForNext(id PlayerID) bool {
	if l.GetPlayer(id) == nil {
		return false
	}
	l.ReadyForNext[id] = struct{}{}
	return true
}

// IsReadyForNext reports whether the player has voted for a rematch
func (l *Lobby) IsReadyForNext(id PlayerID) bool {
	_, ok := l.ReadyForNext[id]
	return ok
}

// AllPlayersReady returns true when at least two members are all ready
func (l *Lobby) AllPlayersReady() bool {
	if len(l.Players) < 2 {
		return false
	}
	for _, p := range l.Players {
		if !p.IsReady {
			return false
		}
	}
	return true
}

// AllReadyForNext returns true when at least two votes cover every member
func (l *Lobby) AllReadyForNext() bool {
	votes := len(l.ReadyForNext)
	return votes >= 2 && votes >= len(l.Players)
}

// CanStartMatch returns true if a countdown may begin from the current state
func (l *Lobby) CanStartMatch() bool {
	return l.State == LobbyStateWaiting || l.State == LobbyStateGameOver
}

// RoundsForGame returns the round limit the next match will use
func (l *Lobby) RoundsForGame() int {
	if l.MaxRoundsOverride != nil {
		return *l.MaxRoundsOverride
	}
	return 5 + 3*(len(l.Players)-2)
}

// SetMaxRounds sets or clears the round limit override, clamping to bounds
func (l *Lobby) SetMaxRounds(rounds *int) {
	if rounds == nil {
		l.MaxRoundsOverride = nil
		return
	}
	v := min(max(*rounds, MinRoundsOverride), MaxRoundsOverride)
	l.MaxRoundsOverride = &v
}

// StartNewGame resets members and creates a match from a membership snapshot
func (l *Lobby) StartNewGame(id GameID, roundDuration time.Duration, now time.Time) *Game {
	for _, p := range l.Players {
		p.ResetForNewGame()
	}
	l.ReadyForNext = make(map[PlayerID]struct{})
	l.CurrentGame = NewGame(id, l.ID, l.Players, l.RoundsForGame(), l.MaxPlayers, roundDuration, now)
	l.State = LobbyStateInGame
	return l.CurrentGame
}

// EndCurrentGame closes the current match, recording the winner's tally
func (l *Lobby) EndCurrentGame() *Player {
	var winner *Player
	if l.CurrentGame != nil {
		winner = l.CurrentGame.GetWinner()
		if winner != nil {
			l.WinTally[winner.ID]++
		}
	}
	l.CurrentGame = nil
	l.GamesPlayed++
	l.State = LobbyStateGameOver
	return winner
}

// View returns a serializable snapshot of the lobby
func (l *Lobby) View(now time.Time) LobbyView {
	view := LobbyView{
		ID:            l.ID,
		State:         l.State,
		PlayerCount:   len(l.Players),
		MaxPlayers:    l.MaxPlayers,
		GamesPlayed:   l.GamesPlayed,
		DefaultRounds: l.RoundsForGame(),
		Players:       make([]LobbyPlayerView, 0, len(l.Players)),
	}
	if l.MaxRoundsOverride != nil {
		v := *l.MaxRoundsOverride
		view.MaxRounds = &v
	}
	for _, p := range l.Players {
		view.Players = append(view.Players, LobbyPlayerView{
			ID:           p.ID,
			Username:     p.Username,
			IsReady:      p.IsReady,
			Score:        p.Score,
			GamesWon:     l.WinTally[p.ID],
			ReadyForNext: l.IsReadyForNext(p.ID),
		})
	}
	if l.CurrentGame != nil {
		gv := l.CurrentGame.View(now)
		view.CurrentGame = &gv
	}
	return view
}
