package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	if w == nil {
		w = os.Stdout
	}
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

// PrintEvent outputs one server push. JSON mode emits one object per line.
func (o *Output) PrintEvent(ev Event) {
	if o.format == "json" {
		data, _ := json.Marshal(ev)
		fmt.Fprintln(o.w, string(data))
		return
	}
	fmt.Fprintf(o.w, "[%s] %s\n", ev.Type, strings.TrimSpace(string(ev.Data)))
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case SessionResult:
		o.printSession(v)
	case Lobby:
		o.printLobby(v)
	case LobbyList:
		o.printLobbyList(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// SessionResult response type (matches API)
type SessionResult struct {
	Username     string `json:"username"`
	SessionToken string `json:"session_token"`
	ExpiresAt    string `json:"expires_at"`
}

// Lobby response type
type Lobby struct {
	ID            string        `json:"id"`
	State         string        `json:"state"`
	PlayerCount   int           `json:"player_count"`
	MaxPlayers    int           `json:"max_players"`
	GamesPlayed   int           `json:"games_played"`
	MaxRounds     *int          `json:"max_rounds"`
	DefaultRounds int           `json:"default_rounds"`
	Players       []LobbyPlayer `json:"players"`
	CurrentGame   *Game         `json:"current_game"`
}

// LobbyPlayer response type
type LobbyPlayer struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	IsReady      bool   `json:"is_ready"`
	Score        int    `json:"score"`
	GamesWon     int    `json:"games_won"`
	ReadyForNext bool   `json:"ready_for_next"`
}

// Game response type
type Game struct {
	ID           string `json:"id"`
	State        string `json:"state"`
	RoundsPlayed int    `json:"rounds_played"`
	MaxRounds    int    `json:"max_rounds"`
	CurrentRound *Round `json:"current_round"`
}

// Round response type
type Round struct {
	Word          string  `json:"word"`
	TimeRemaining float64 `json:"time_remaining"`
	IsActive      bool    `json:"is_active"`
}

// LobbyList response type
type LobbyList struct {
	Lobbies []Lobby `json:"lobbies"`
}

// HealthResult response type
type HealthResult struct {
	Status            string `json:"status"`
	TotalPlayers      int    `json:"total_players"`
	TotalLobbies      int    `json:"total_lobbies"`
	TotalGames        int    `json:"total_games"`
	ActiveConnections int    `json:"active_connections"`
	OracleAvailable   bool   `json:"oracle_available"`
}

func (o *Output) printSession(s SessionResult) {
	fmt.Fprintf(o.w, "Username: %s\n", s.Username)
	fmt.Fprintf(o.w, "Token: %s\n", s.SessionToken)
	fmt.Fprintf(o.w, "Expires: %s\n", s.ExpiresAt)
}

func (o *Output) printLobby(l Lobby) {
	fmt.Fprintf(o.w, "Lobby: %s\n", l.ID)
	fmt.Fprintf(o.w, "State: %s\n", l.State)
	rounds := fmt.Sprintf("%d (default)", l.DefaultRounds)
	if l.MaxRounds != nil {
		rounds = fmt.Sprintf("%d", *l.MaxRounds)
	}
	fmt.Fprintf(o.w, "Rounds: %s\n", rounds)
	fmt.Fprintf(o.w, "Games Played: %d\n", l.GamesPlayed)
	if g := l.CurrentGame; g != nil {
		fmt.Fprintf(o.w, "Current Game: %s (round %d of %d)\n", g.ID, g.RoundsPlayed, g.MaxRounds)
		if r := g.CurrentRound; r != nil && r.IsActive {
			fmt.Fprintf(o.w, "Word: %s (%.0fs left)\n", r.Word, r.TimeRemaining)
		}
	}
	fmt.Fprintf(o.w, "Players (%d/%d):\n", l.PlayerCount, l.MaxPlayers)
	for _, p := range l.Players {
		ready := ""
		if p.IsReady {
			ready = " [ready]"
		}
		fmt.Fprintf(o.w, "  - %s (%s) score %d, wins %d%s\n", p.Username, p.ID, p.Score, p.GamesWon, ready)
	}
}

func (o *Output) printLobbyList(l LobbyList) {
	if len(l.Lobbies) == 0 {
		fmt.Fprintln(o.w, "No joinable lobbies")
		return
	}
	for _, lobby := range l.Lobbies {
		fmt.Fprintf(o.w, "%s  %s  %d/%d players\n", lobby.ID, lobby.State, lobby.PlayerCount, lobby.MaxPlayers)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Players: %d\n", h.TotalPlayers)
	fmt.Fprintf(o.w, "Lobbies: %d\n", h.TotalLobbies)
	fmt.Fprintf(o.w, "Games: %d\n", h.TotalGames)
	fmt.Fprintf(o.w, "Connections: %d\n", h.ActiveConnections)
	fmt.Fprintf(o.w, "Classifier: %s\n", availability(h.OracleAvailable))
}

func availability(up bool) string {
	if up {
		return "available"
	}
	return "unavailable"
}
