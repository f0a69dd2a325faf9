package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/drawguess/internal/api/apierr"
	"github.com/mcoot/drawguess/internal/api/response"
	"github.com/mcoot/drawguess/internal/model"
)

// LobbyReader exposes lobby snapshots
type LobbyReader interface {
	GetLobbyState(ctx context.Context, lobbyID model.LobbyID) (model.LobbyView, error)
	ListJoinableLobbies(ctx context.Context) ([]model.LobbyView, error)
}

// LobbyHandler serves read-only lobby endpoints
type LobbyHandler struct {
	lobbies LobbyReader
}

// NewLobbyHandler creates a new lobby handler
func NewLobbyHandler(lobbies LobbyReader) *LobbyHandler {
	return &LobbyHandler{lobbies: lobbies}
}

// List handles GET /api/v1/lobbies
func (h *LobbyHandler) List(w http.ResponseWriter, r *http.Request) {
	lobbies, err := h.lobbies.ListJoinableLobbies(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.LobbyList{Lobbies: lobbies})
}

// Get handles GET /api/v1/lobbies/{id}
func (h *LobbyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.LobbyID(mux.Vars(r)["id"])

	view, err := h.lobbies.GetLobbyState(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, view)
}
