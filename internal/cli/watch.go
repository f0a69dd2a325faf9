package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

const dialTimeout = 10 * time.Second

// Event is one frame pushed by the server
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type watchOptions struct {
	name   string
	lobby  string
	create bool
	ready  bool
	count  int
	until  string
}

func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect over WebSocket and stream lobby events",
		Long: `Open a WebSocket connection, authenticate, optionally create or join
a lobby, and print every event the server pushes.

Authentication uses --name when given, otherwise the saved session token,
otherwise the server generates a name.

Events include:
  - player_joined / player_left: lobby membership changed
  - player_ready_update: a player readied up
  - game_starting: countdown before the first round
  - round_start / round_end: a round began or finished
  - game_end: match finished with final scores

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watch(ctx, NewOutput(cfg.Output, cmd.OutOrStdout()), opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Username to authenticate with")
	cmd.Flags().StringVar(&opts.lobby, "lobby", "", "Lobby ID to join")
	cmd.Flags().BoolVar(&opts.create, "create", false, "Create a new lobby")
	cmd.Flags().BoolVar(&opts.ready, "ready", false, "Mark ready after joining")
	cmd.Flags().IntVar(&opts.count, "count", 0, "Exit after this many events (0 = no limit)")
	cmd.Flags().StringVar(&opts.until, "until", "", "Exit after an event of this type")
	cmd.MarkFlagsMutuallyExclusive("lobby", "create")

	return cmd
}

func watch(ctx context.Context, out *Output, opts watchOptions) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, cfg.WebSocketURL(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = conn.Close() }()

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	auth := map[string]string{"username": opts.name}
	if opts.name == "" && cfg.Token != "" {
		auth = map[string]string{"session_token": cfg.Token}
	}
	commands := []Event{command("authenticate", auth)}
	switch {
	case opts.create:
		commands = append(commands, command("create_lobby", nil))
	case opts.lobby != "":
		commands = append(commands, command("join_lobby", map[string]string{"lobby_id": opts.lobby}))
	}
	if opts.ready {
		commands = append(commands, command("player_ready", nil))
	}
	for _, c := range commands {
		if err := conn.WriteJSON(c); err != nil {
			return fmt.Errorf("failed to send %s: %w", c.Type, err)
		}
	}

	seen := 0
	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return fmt.Errorf("connection closed: %s", closeErr.Text)
			}
			return fmt.Errorf("read failed: %w", err)
		}

		out.PrintEvent(ev)
		seen++
		if (opts.until != "" && ev.Type == opts.until) || (opts.count > 0 && seen >= opts.count) {
			return nil
		}
	}
}

func command(name string, payload any) Event {
	ev := Event{Type: name}
	if payload != nil {
		ev.Data, _ = json.Marshal(payload)
	}
	return ev
}
