package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/drawguess/internal/api"
	"github.com/mcoot/drawguess/internal/cli"
	"github.com/mcoot/drawguess/internal/factory"
	"github.com/mcoot/drawguess/internal/services/game"
	"github.com/mcoot/drawguess/internal/testutil"
)

const roundDuration = 500 * time.Millisecond

// cliRunner executes drawctl commands in-process against one server
type cliRunner struct {
	serverURL string
	tokenFile string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()
	return &cliRunner{
		serverURL: serverURL,
		tokenFile: filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	var out bytes.Buffer
	cmd := cli.NewRootCmd()
	cmd.SetArgs(fullArgs)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	app      *factory.App
	url      string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := testutil.NopLogger()
	app, err := factory.New(factory.Config{
		Logger:         logger,
		OracleDisabled: true,
		Game: game.Config{
			RoundDuration: roundDuration,
			GracePeriod:   0,
			Countdown:     0,
		},
	})
	require.NoError(t, err)

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = "127.0.0.1"
	serverConfig.Port = 0
	server := api.NewServer(app.Router(), serverConfig, logger)
	require.NoError(t, server.Listen())

	go func() {
		if err := server.Start(); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + server.Addr()
	waitForServer(t, serverURL+"/api/v1/health")

	ts := &testServer{
		app: app,
		url: serverURL,
		shutdown: func() {
			_ = server.Shutdown(context.Background())
			_ = app.Close()
		},
	}
	t.Cleanup(ts.shutdown)
	return ts
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type healthResponse struct {
	Status          string `json:"status"`
	OracleAvailable bool   `json:"oracle_available"`
}

type sessionResponse struct {
	Username     string `json:"username"`
	SessionToken string `json:"session_token"`
}

type lobbyListResponse struct {
	Lobbies []struct {
		ID string `json:"id"`
	} `json:"lobbies"`
}

type event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	runner := newCLIRunner(t, ts.url)

	output, err := runner.run(context.Background(), "health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.False(t, resp.OracleAvailable)

	_, err = runner.run(context.Background(), "health", "--require-oracle")
	assert.ErrorContains(t, err, "classifier unavailable")
}

func TestCLI_SessionLifecycle(t *testing.T) {
	ts := startTestServer(t)
	runner := newCLIRunner(t, ts.url)

	output, err := runner.run(context.Background(), "session", "guest", "--name", "Alice")
	require.NoError(t, err, "output: %s", output)

	var session sessionResponse
	require.NoError(t, json.Unmarshal([]byte(output), &session))
	assert.Equal(t, "Alice", session.Username)
	assert.NotEmpty(t, session.SessionToken)

	// token file is picked up by later commands
	output, err = runner.run(context.Background(), "lobby", "list")
	require.NoError(t, err, "output: %s", output)
	var list lobbyListResponse
	require.NoError(t, json.Unmarshal([]byte(output), &list))
	assert.Empty(t, list.Lobbies)

	output, err = runner.run(context.Background(), "session", "logout")
	require.NoError(t, err, "output: %s", output)

	_, err = runner.run(context.Background(), "--token", session.SessionToken, "lobby", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNAUTHORIZED")
}

func TestCLI_GetUnknownLobby(t *testing.T) {
	ts := startTestServer(t)
	runner := newCLIRunner(t, ts.url)

	_, err := runner.run(context.Background(), "session", "guest")
	require.NoError(t, err)

	_, err = runner.run(context.Background(), "lobby", "get", "NOPE00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOBBY_NOT_FOUND")
}

// TestCLI_WatchFullMatch drives one player through drawctl watch and the
// other over a raw WebSocket until the match ends on round timeouts.
func TestCLI_WatchFullMatch(t *testing.T) {
	ts := startTestServer(t)
	runner := newCLIRunner(t, ts.url)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type result struct {
		output string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		output, err := runner.run(ctx, "watch", "--name", "Alice", "--create", "--ready", "--until", "game_end")
		done <- result{output, err}
	}()

	bob := dialWS(t, ts.url)
	bob.send("authenticate", map[string]string{"username": "Bob"})
	bob.expect("authenticated")

	lobbyID := waitForLobby(t, bob)
	bob.send("join_lobby", map[string]string{"lobby_id": lobbyID})
	bob.expect("joined_lobby")
	bob.send("set_max_rounds", map[string]int{"max_rounds": 1})
	bob.expect("lobby_settings_updated")
	bob.send("player_ready", nil)

	bob.expect("round_start")
	bob.expect("round_end")
	bob.expect("game_end")

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		t.Fatal("watch did not finish")
	}
	require.NoError(t, res.err, "output: %s", res.output)

	var types []string
	for _, line := range strings.Split(strings.TrimSpace(res.output), "\n") {
		var ev event
		require.NoError(t, json.Unmarshal([]byte(line), &ev), "line: %s", line)
		types = append(types, ev.Type)
	}
	assert.Equal(t, "connected", types[0])
	assert.Contains(t, types, "authenticated")
	assert.Contains(t, types, "lobby_created")
	assert.Contains(t, types, "player_joined")
	assert.Contains(t, types, "game_starting")
	assert.Contains(t, types, "round_start")
	assert.Contains(t, types, "round_end")
	assert.Equal(t, "game_end", types[len(types)-1])
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialWS(t *testing.T, serverURL string) *wsClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	c := &wsClient{t: t, conn: conn}
	c.expect("connected")
	return c
}

func (c *wsClient) send(cmd string, payload any) {
	ev := event{Type: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(c.t, err)
		ev.Data = data
	}
	require.NoError(c.t, c.conn.WriteJSON(ev))
}

// expect reads frames until one of the given type arrives
func (c *wsClient) expect(eventType string) event {
	c.t.Helper()
	for {
		require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var ev event
		require.NoError(c.t, c.conn.ReadJSON(&ev))
		if ev.Type == "error" {
			c.t.Fatalf("unexpected error frame: %s", string(ev.Data))
		}
		if ev.Type == eventType {
			return ev
		}
	}
}

func waitForLobby(t *testing.T, c *wsClient) string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		c.send("get_available_lobbies", nil)
		ev := c.expect("available_lobbies")
		var payload lobbyListResponse
		require.NoError(t, json.Unmarshal(ev.Data, &payload))
		if len(payload.Lobbies) > 0 {
			return payload.Lobbies[0].ID
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("lobby was never created")
	return ""
}
