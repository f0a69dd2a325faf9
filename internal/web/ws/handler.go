package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/drawguess/internal/model"
	"github.com/mcoot/drawguess/internal/services/auth"
)

// GameService is the orchestrator surface the transport drives
type GameService interface {
	Authenticate(ctx context.Context, conn model.ConnectionRef, username string) (*model.Player, error)
	PlayerForConnection(ctx context.Context, conn model.ConnectionRef) (*model.Player, error)
	Disconnect(ctx context.Context, conn model.ConnectionRef) (*model.Player, model.LobbyID, error)
	CreateLobby(ctx context.Context, playerID model.PlayerID) (model.LobbyView, error)
	JoinLobby(ctx context.Context, playerID model.PlayerID, lobbyID model.LobbyID) (model.LobbyView, error)
	LeaveLobby(ctx context.Context, playerID model.PlayerID) (model.LobbyID, error)
	SetReady(ctx context.Context, playerID model.PlayerID) (model.LobbyView, bool, error)
	MarkReadyForNext(ctx context.Context, playerID model.PlayerID) (model.LobbyView, bool, error)
	SetMaxRounds(ctx context.Context, playerID model.PlayerID, rounds *int) (model.LobbyView, error)
	BeginCountdown(ctx context.Context, lobbyID model.LobbyID) error
	HandleGuessAttempt(ctx context.Context, playerID model.PlayerID, canvas string, finalize bool) (model.GuessResult, error)
	GetLobbyState(ctx context.Context, lobbyID model.LobbyID) (model.LobbyView, error)
	PlayerLobbyState(ctx context.Context, playerID model.PlayerID) (model.LobbyView, error)
	ListJoinableLobbies(ctx context.Context) ([]model.LobbyView, error)
}

// SessionValidator resolves session tokens issued over the REST API
type SessionValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.Session, error)
}

type commandFunc func(ctx context.Context, c *Client, data json.RawMessage) error

type command struct {
	run      commandFunc
	fallback string // error code for failures without a specific mapping
}

// Handler upgrades HTTP requests and dispatches inbound commands
type Handler struct {
	hub      *Hub
	game     GameService
	sessions SessionValidator
	upgrader websocket.Upgrader
	logger   *slog.Logger
	commands map[string]command
}

// NewHandler creates a new Handler. sessions may be nil, in which case
// session tokens are ignored.
func NewHandler(hub *Hub, game GameService, sessions SessionValidator, logger *slog.Logger) *Handler {
	h := &Handler{
		hub:      hub,
		game:     game,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws")),
	}
	h.commands = map[string]command{
		CmdAuthenticate:        {h.handleAuthenticate, CodeNotAuthenticated},
		CmdCreateLobby:         {h.handleCreateLobby, CodeCreateFailed},
		CmdJoinLobby:           {h.handleJoinLobby, CodeJoinFailed},
		CmdLeaveLobby:          {h.handleLeaveLobby, CodeInvalidData},
		CmdLeaveGame:           {h.handleLeaveLobby, CodeInvalidData},
		CmdSetMaxRounds:        {h.handleSetMaxRounds, CodeInvalidData},
		CmdPlayerReady:         {h.handlePlayerReady, CodeInvalidData},
		CmdPlayAgain:           {h.handlePlayAgain, CodeInvalidData},
		CmdDrawUpdate:          {h.handleDrawUpdate, CodeInvalidData},
		CmdSubmitDrawing:       {h.handleSubmitDrawing, CodeInvalidData},
		CmdGetLobbyState:       {h.handleGetLobbyState, CodeLobbyNotFound},
		CmdGetAvailableLobbies: {h.handleGetAvailableLobbies, CodeInvalidData},
	}
	return h
}

// ServeHTTP serves one WebSocket connection until it closes
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	// The request context is not cancelled on close once the connection is hijacked
	ctx := context.WithoutCancel(r.Context())

	client := newClient(model.ConnectionRef(uuid.NewString()), conn, h.logger)
	h.hub.Register(client)
	go client.writePump()

	h.reply(client, model.EventConnected, ConnectedPayload{Message: "Connected to server"})
	client.readPump(func(data []byte) {
		h.dispatch(ctx, client, data)
	})

	if _, lobbyID, err := h.game.Disconnect(ctx, client.ref); err != nil {
		if !errors.Is(err, model.ErrPlayerNotFound) {
			client.logger.Warn("disconnect cleanup failed", slog.String("error", err.Error()))
		}
	} else if lobbyID != "" {
		client.logger.Info("connection closed", slog.String("lobby_id", string(lobbyID)))
	}
	h.hub.Unregister(client.ref)
}

func (h *Handler) dispatch(ctx context.Context, c *Client, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.replyError(c, invalidData("Malformed message"), CodeInvalidData)
		return
	}

	cmd, ok := h.commands[env.Type]
	if !ok {
		c.logger.Warn("unknown command", slog.String("type", env.Type))
		h.replyError(c, invalidData("Unknown command: "+env.Type), CodeInvalidData)
		return
	}

	if err := cmd.run(ctx, c, env.Data); err != nil {
		c.logger.Debug("command failed",
			slog.String("type", env.Type),
			slog.String("error", err.Error()))
		h.replyError(c, err, cmd.fallback)
	}
}

func (h *Handler) reply(c *Client, event model.EventType, payload any) {
	if err := h.hub.Send(c.ref, event, payload); err != nil {
		c.logger.Debug("reply not delivered",
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
	}
}

func (h *Handler) replyError(c *Client, err error, fallback string) {
	h.reply(c, model.EventError, toErrorPayload(err, fallback))
}

// decode unmarshals a command payload. An absent payload leaves v untouched.
func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return invalidData("Invalid payload")
	}
	return nil
}

func (h *Handler) player(ctx context.Context, c *Client) (*model.Player, error) {
	p, err := h.game.PlayerForConnection(ctx, c.ref)
	if err != nil {
		return nil, errNotAuthenticated
	}
	return p, nil
}

func (h *Handler) handleAuthenticate(ctx context.Context, c *Client, data json.RawMessage) error {
	var req AuthenticateRequest
	if err := decode(data, &req); err != nil {
		return err
	}

	username := auth.NormalizeUsername(req.Username)
	if username == "" && req.SessionToken != "" && h.sessions != nil {
		session, err := h.sessions.ValidateToken(ctx, req.SessionToken)
		if err != nil {
			return &CommandError{Code: CodeNotAuthenticated, Message: "Invalid or expired session"}
		}
		username = session.Username
	}

	p, err := h.game.Authenticate(ctx, c.ref, username)
	if err != nil {
		return err
	}
	h.reply(c, model.EventAuthenticated, AuthenticatedPayload{PlayerID: p.ID, Username: p.Username})
	return nil
}

func (h *Handler) handleCreateLobby(ctx context.Context, c *Client, _ json.RawMessage) error {
	p, err := h.player(ctx, c)
	if err != nil {
		return err
	}
	view, err := h.game.CreateLobby(ctx, p.ID)
	if err != nil {
		return err
	}
	h.reply(c, model.EventLobbyCreated, LobbyPayload{LobbyID: view.ID, Lobby: view})
	return nil
}

func (h *Handler) handleJoinLobby(ctx context.Context, c *Client, data json.RawMessage) error {
	p, err := h.player(ctx, c)
	if err != nil {
		return err
	}
	var req JoinLobbyRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.LobbyID == "" {
		return invalidData("lobby_id is required")
	}

	view, err := h.game.JoinLobby(ctx, p.ID, req.LobbyID)
	if err != nil {
		return err
	}
	h.reply(c, model.EventJoinedLobby, LobbyPayload{LobbyID: view.ID, Lobby: view})
	return nil
}

func (h *Handler) handleLeaveLobby(ctx context.Context, c *Client, _ json.RawMessage) error {
	p, err := h.player(ctx, c)
	if err != nil {
		return err
	}
	lobbyID, err := h.game.LeaveLobby(ctx, p.ID)
	if err != nil {
		return err
	}
	h.reply(c, model.EventLeftLobby, LeftLobbyPayload{LobbyID: lobbyID})
	return nil
}

func (h *Handler) handleSetMaxRounds(ctx context.Context, c *Client, data json.RawMessage) error {
	p, err := h.player(ctx, c)
	if err != nil {
		return err
	}
	var req SetMaxRoundsRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	_, err = h.game.SetMaxRounds(ctx, p.ID, req.MaxRounds)
	return err
}

func (h *Handler) handlePlayerReady(ctx context.Context, c *Client, _ json.RawMessage) error {
	p, err := h.player(ctx, c)
	if err != nil {
		return err
	}
	view, triggered, err := h.game.SetReady(ctx, p.ID)
	if err != nil {
		return err
	}
	if triggered {
		h.beginCountdown(ctx, view.ID)
	}
	return nil
}

func (h *Handler) handlePlayAgain(ctx context.Context, c *Client, _ json.RawMessage) error {
	p, err := h.player(ctx, c)
	if err != nil {
		return err
	}
	view, triggered, err := h.game.MarkReadyForNext(ctx, p.ID)
	if err != nil {
		return err
	}
	if triggered {
		h.beginCountdown(ctx, view.ID)
	}
	return nil
}

func (h *Handler) beginCountdown(ctx context.Context, lobbyID model.LobbyID) {
	if err := h.game.BeginCountdown(ctx, lobbyID); err != nil && !errors.Is(err, model.ErrCountdownRunning) {
		h.logger.Warn("failed to begin countdown",
			slog.String("lobby_id", string(lobbyID)),
			slog.String("error", err.Error()))
	}
}

func (h *Handler) handleDrawUpdate(ctx context.Context, c *Client, data json.RawMessage) error {
	p, err := h.player(ctx, c)
	if err != nil {
		return err
	}
	var req DrawingRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.CanvasData == "" {
		return invalidData("canvas_data is required")
	}

	result, err := h.game.HandleGuessAttempt(ctx, p.ID, req.CanvasData, false)
	if errors.Is(err, model.ErrRateLimited) || errors.Is(err, model.ErrNoActiveRound) {
		return nil
	}
	if err != nil {
		return err
	}
	h.reply(c, model.EventAIPrediction, predictionPayload(result))
	return nil
}

func (h *Handler) handleSubmitDrawing(ctx context.Context, c *Client, data json.RawMessage) error {
	p, err := h.player(ctx, c)
	if err != nil {
		return err
	}
	var req DrawingRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	if req.CanvasData == "" {
		return invalidData("canvas_data is required")
	}

	result, err := h.game.HandleGuessAttempt(ctx, p.ID, req.CanvasData, true)
	if err != nil {
		return err
	}
	h.reply(c, model.EventSubmissionResult, predictionPayload(result))
	return nil
}

func (h *Handler) handleGetLobbyState(ctx context.Context, c *Client, data json.RawMessage) error {
	var req LobbyStateRequest
	err := decode(data, &req)
	if err != nil {
		return err
	}
	var view model.LobbyView
	if req.LobbyID != "" {
		view, err = h.game.GetLobbyState(ctx, req.LobbyID)
	} else {
		p, perr := h.player(ctx, c)
		if perr != nil {
			return invalidData("lobby_id is required")
		}
		view, err = h.game.PlayerLobbyState(ctx, p.ID)
	}
	if err != nil {
		return err
	}
	h.reply(c, model.EventLobbyState, view)
	return nil
}

func (h *Handler) handleGetAvailableLobbies(ctx context.Context, c *Client, _ json.RawMessage) error {
	lobbies, err := h.game.ListJoinableLobbies(ctx)
	if err != nil {
		return err
	}
	h.reply(c, model.EventAvailableLobbies, AvailableLobbiesPayload{Lobbies: lobbies})
	return nil
}
