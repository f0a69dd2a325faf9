package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/drawguess/internal/dependencies/mocks"
	"github.com/mcoot/drawguess/internal/dependencies/random"
	"github.com/mcoot/drawguess/internal/model"
	"github.com/mcoot/drawguess/internal/services/auth"
	"github.com/mcoot/drawguess/internal/services/game"
	"github.com/mcoot/drawguess/internal/services/scoring"
	"github.com/mcoot/drawguess/internal/services/words"
	"github.com/mcoot/drawguess/internal/storage/memory"
	"github.com/mcoot/drawguess/internal/testutil"
)

const readTimeout = 2 * time.Second

type HandlerSuite struct {
	suite.Suite
	clock    *mocks.MockClock
	oracle   *mocks.MockOracle
	sessions *auth.Service
	hub      *Hub
	manager  *game.Manager
	server   *httptest.Server
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.oracle = mocks.NewMockOracle()

	wordSource := words.New(mocks.NewMockRandom())
	wordSource.LoadWords([]string{"cat"})

	s.hub = NewHub(logger)
	s.manager = game.NewManager(
		memory.New(s.clock, random.New()),
		wordSource,
		s.oracle,
		scoring.New(scoring.DefaultThreshold),
		s.hub,
		s.clock,
		game.DefaultConfig(),
		logger,
	)
	s.sessions = auth.New(memory.NewSessionStore(), s.clock, mocks.NewMockRandom(), auth.DefaultConfig(), logger)
	s.server = httptest.NewServer(NewHandler(s.hub, s.manager, s.sessions, logger))
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
	s.manager.Shutdown()
}

type testConn struct {
	s    *HandlerSuite
	conn *websocket.Conn
}

func (s *HandlerSuite) dial() *testConn {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })

	c := &testConn{s: s, conn: conn}
	c.expect(model.EventConnected)
	return c
}

func (s *HandlerSuite) authenticated(name string) (*testConn, AuthenticatedPayload) {
	c := s.dial()
	c.send(CmdAuthenticate, AuthenticateRequest{Username: name})
	var payload AuthenticatedPayload
	c.expectInto(model.EventAuthenticated, &payload)
	return c, payload
}

func (s *HandlerSuite) lobbyOf(names ...string) (model.LobbyID, []*testConn) {
	conns := make([]*testConn, 0, len(names))
	for _, name := range names {
		c, _ := s.authenticated(name)
		conns = append(conns, c)
	}
	conns[0].send(CmdCreateLobby, nil)
	var created LobbyPayload
	conns[0].expectInto(model.EventLobbyCreated, &created)

	for _, c := range conns[1:] {
		c.send(CmdJoinLobby, JoinLobbyRequest{LobbyID: created.LobbyID})
		c.expect(model.EventJoinedLobby)
	}
	return created.LobbyID, conns
}

func (c *testConn) send(cmd string, payload any) {
	data, err := json.Marshal(payload)
	c.s.Require().NoError(err)
	c.s.Require().NoError(c.conn.WriteJSON(Envelope{Type: cmd, Data: data}))
}

func (c *testConn) next() Envelope {
	c.s.Require().NoError(c.conn.SetReadDeadline(time.Now().Add(readTimeout)))
	var env Envelope
	c.s.Require().NoError(c.conn.ReadJSON(&env))
	return env
}

// expect reads frames until one of the given type arrives
func (c *testConn) expect(event model.EventType) Envelope {
	for {
		env := c.next()
		if env.Type == string(event) {
			return env
		}
	}
}

func (c *testConn) expectInto(event model.EventType, v any) {
	env := c.expect(event)
	c.s.Require().NoError(json.Unmarshal(env.Data, v))
}

func (c *testConn) expectError(code string) ErrorPayload {
	var payload ErrorPayload
	c.expectInto(model.EventError, &payload)
	c.s.Equal(code, payload.Code)
	return payload
}

func (s *HandlerSuite) TestAuthenticateNormalizesName() {
	_, payload := s.authenticated("  Alice  ")
	s.Equal("Alice", payload.Username)
	s.NotEmpty(payload.PlayerID)
}

func (s *HandlerSuite) TestAuthenticateBlankNameGetsGeneratedName() {
	_, payload := s.authenticated("")
	s.True(strings.HasPrefix(payload.Username, "Player_"))
}

func (s *HandlerSuite) TestAuthenticateWithSessionToken() {
	session, err := s.sessions.CreateGuestSession(context.Background(), "Carol")
	s.Require().NoError(err)

	c := s.dial()
	c.send(CmdAuthenticate, AuthenticateRequest{SessionToken: session.Token})
	var payload AuthenticatedPayload
	c.expectInto(model.EventAuthenticated, &payload)
	s.Equal("Carol", payload.Username)
}

func (s *HandlerSuite) TestAuthenticateWithInvalidToken() {
	c := s.dial()
	c.send(CmdAuthenticate, AuthenticateRequest{SessionToken: "bogus"})
	c.expectError(CodeNotAuthenticated)
}

func (s *HandlerSuite) TestCommandsRequireAuthentication() {
	c := s.dial()
	c.send(CmdCreateLobby, nil)
	c.expectError(CodeNotAuthenticated)

	c.send(CmdPlayerReady, nil)
	c.expectError(CodeNotAuthenticated)
}

func (s *HandlerSuite) TestMalformedFrame() {
	c := s.dial()
	s.Require().NoError(c.conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	c.expectError(CodeInvalidData)
}

func (s *HandlerSuite) TestUnknownCommand() {
	c := s.dial()
	c.send("fly_away", nil)
	payload := c.expectError(CodeInvalidData)
	s.Contains(payload.Message, "fly_away")
}

func (s *HandlerSuite) TestCreateAndJoinLobby() {
	alice, _ := s.authenticated("Alice")
	bob, bobInfo := s.authenticated("Bob")

	alice.send(CmdCreateLobby, nil)
	var created LobbyPayload
	alice.expectInto(model.EventLobbyCreated, &created)
	s.Len(created.LobbyID, 6)
	s.Equal(model.LobbyStateWaiting, created.Lobby.State)

	bob.send(CmdJoinLobby, JoinLobbyRequest{LobbyID: model.LobbyID(strings.ToLower(string(created.LobbyID)))})
	var joined LobbyPayload
	bob.expectInto(model.EventJoinedLobby, &joined)
	s.Equal(created.LobbyID, joined.LobbyID)
	s.Equal(2, joined.Lobby.PlayerCount)

	var announced model.PlayerJoinedPayload
	alice.expectInto(model.EventPlayerJoined, &announced)
	s.Equal(bobInfo.PlayerID, announced.PlayerID)
	s.Equal(2, s.hub.RoomSize(created.LobbyID))
}

func (s *HandlerSuite) TestJoinLobbyErrors() {
	c, _ := s.authenticated("Alice")

	c.send(CmdJoinLobby, JoinLobbyRequest{})
	c.expectError(CodeInvalidData)

	c.send(CmdJoinLobby, JoinLobbyRequest{LobbyID: "NOPE42"})
	c.expectError(CodeLobbyNotFound)
}

func (s *HandlerSuite) TestLeaveLobby() {
	lobbyID, conns := s.lobbyOf("Alice", "Bob")
	alice, bob := conns[0], conns[1]

	bob.send(CmdLeaveGame, nil)
	var left LeftLobbyPayload
	bob.expectInto(model.EventLeftLobby, &left)
	s.Equal(lobbyID, left.LobbyID)

	var announced model.PlayerLeftPayload
	alice.expectInto(model.EventPlayerLeft, &announced)
	s.Equal(1, announced.Lobby.PlayerCount)

	bob.send(CmdLeaveLobby, nil)
	bob.expectError(CodeNotInLobby)
}

func (s *HandlerSuite) TestSetMaxRounds() {
	_, conns := s.lobbyOf("Alice", "Bob")
	alice, bob := conns[0], conns[1]

	alice.send(CmdSetMaxRounds, map[string]any{"max_rounds": 50})
	var updated model.LobbySettingsUpdatedPayload
	bob.expectInto(model.EventLobbySettingsUpdated, &updated)
	s.Require().NotNil(updated.Lobby.MaxRounds)
	s.Equal(model.MaxRoundsOverride, *updated.Lobby.MaxRounds)

	alice.send(CmdSetMaxRounds, map[string]any{"max_rounds": nil})
	bob.expectInto(model.EventLobbySettingsUpdated, &updated)
	s.Nil(updated.Lobby.MaxRounds)

	alice.send(CmdSetMaxRounds, map[string]any{"max_rounds": "lots"})
	alice.expectError(CodeInvalidData)
}

func (s *HandlerSuite) TestMatchFlow() {
	lobbyID, conns := s.lobbyOf("Alice", "Bob")
	alice, bob := conns[0], conns[1]

	alice.send(CmdSetMaxRounds, map[string]any{"max_rounds": 1})
	alice.expect(model.EventLobbySettingsUpdated)

	alice.send(CmdPlayerReady, nil)
	alice.expect(model.EventPlayerReadyUpdate)
	bob.send(CmdPlayerReady, nil)

	var starting model.GameStartingPayload
	alice.expectInto(model.EventGameStarting, &starting)
	s.Equal(3, starting.Countdown)
	bob.expect(model.EventGameStarting)

	s.clock.Advance(3 * time.Second)

	var roundStart model.RoundStartPayload
	alice.expectInto(model.EventRoundStart, &roundStart)
	s.Equal(lobbyID, roundStart.LobbyID)
	s.Equal("cat", roundStart.Word)
	s.Equal(1, roundStart.RoundNumber)
	bob.expect(model.EventRoundStart)

	alice.send(CmdDrawUpdate, DrawingRequest{CanvasData: testutil.CanvasData()})
	var preview PredictionPayload
	alice.expectInto(model.EventAIPrediction, &preview)
	s.False(preview.IsCorrect)
	s.NotNil(preview.Predictions)

	s.oracle.QueuePredictions(model.Prediction{Label: "cat", Confidence: 0.91234})
	bob.send(CmdSubmitDrawing, DrawingRequest{CanvasData: testutil.CanvasData()})
	var submission PredictionPayload
	bob.expectInto(model.EventSubmissionResult, &submission)
	s.True(submission.IsCorrect)
	s.Require().Len(submission.Predictions, 1)
	s.Equal(0.912, submission.Predictions[0].Confidence)

	var roundEnd model.RoundEndPayload
	alice.expectInto(model.EventRoundEnd, &roundEnd)
	s.False(roundEnd.Timeout)
	s.Require().NotNil(roundEnd.WinnerUsername)
	s.Equal("Bob", *roundEnd.WinnerUsername)

	var gameEnd model.GameEndPayload
	alice.expectInto(model.EventGameEnd, &gameEnd)
	s.Require().NotNil(gameEnd.WinnerUsername)
	s.Equal("Bob", *gameEnd.WinnerUsername)
	s.Equal(model.LobbyStateGameOver, gameEnd.Lobby.State)

	alice.send(CmdPlayAgain, nil)
	alice.expect(model.EventPlayerReadyForNext)
	bob.send(CmdPlayAgain, nil)
	alice.expect(model.EventGameStarting)
}

func (s *HandlerSuite) TestDrawUpdateOutsideRoundIsDropped() {
	_, conns := s.lobbyOf("Alice", "Bob")
	alice := conns[0]

	alice.send(CmdDrawUpdate, DrawingRequest{CanvasData: testutil.CanvasData()})
	alice.send(CmdGetAvailableLobbies, nil)

	env := alice.next()
	s.Equal(string(model.EventAvailableLobbies), env.Type)
}

func (s *HandlerSuite) TestSubmitDrawingErrors() {
	_, conns := s.lobbyOf("Alice", "Bob")
	alice := conns[0]

	alice.send(CmdSubmitDrawing, DrawingRequest{})
	alice.expectError(CodeInvalidData)

	alice.send(CmdSubmitDrawing, DrawingRequest{CanvasData: testutil.CanvasData()})
	alice.expectError(CodeInvalidData)
}

func (s *HandlerSuite) TestGetLobbyState() {
	lobbyID, conns := s.lobbyOf("Alice", "Bob")
	alice := conns[0]

	alice.send(CmdGetLobbyState, LobbyStateRequest{LobbyID: lobbyID})
	var view model.LobbyView
	alice.expectInto(model.EventLobbyState, &view)
	s.Equal(lobbyID, view.ID)
	s.Equal(2, view.PlayerCount)

	alice.send(CmdGetLobbyState, nil)
	alice.expectInto(model.EventLobbyState, &view)
	s.Equal(lobbyID, view.ID)

	alice.send(CmdGetLobbyState, LobbyStateRequest{LobbyID: "NOPE42"})
	alice.expectError(CodeLobbyNotFound)
}

func (s *HandlerSuite) TestGetAvailableLobbies() {
	lobbyID, _ := s.lobbyOf("Alice")
	watcher := s.dial()

	watcher.send(CmdGetAvailableLobbies, nil)
	var payload AvailableLobbiesPayload
	watcher.expectInto(model.EventAvailableLobbies, &payload)
	s.Require().Len(payload.Lobbies, 1)
	s.Equal(lobbyID, payload.Lobbies[0].ID)
}

func (s *HandlerSuite) TestDisconnectLeavesLobby() {
	lobbyID, conns := s.lobbyOf("Alice", "Bob")
	alice, bob := conns[0], conns[1]

	s.Require().NoError(bob.conn.Close())

	var announced model.PlayerLeftPayload
	alice.expectInto(model.EventPlayerLeft, &announced)
	s.Equal("Bob", announced.Username)
	s.Eventually(func() bool {
		return s.hub.ClientCount() == 1 && s.hub.RoomSize(lobbyID) == 1
	}, readTimeout, 10*time.Millisecond)
	s.Equal(1, s.manager.Stats(context.Background()).Players)
}
