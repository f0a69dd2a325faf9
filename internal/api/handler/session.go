package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mcoot/drawguess/internal/api/apierr"
	"github.com/mcoot/drawguess/internal/api/middleware"
	"github.com/mcoot/drawguess/internal/api/request"
	"github.com/mcoot/drawguess/internal/api/response"
	"github.com/mcoot/drawguess/internal/services/auth"
)

// SessionHandler issues and revokes guest sessions
type SessionHandler struct {
	authService *auth.Service
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(authService *auth.Service) *SessionHandler {
	return &SessionHandler{authService: authService}
}

// CreateGuest handles POST /api/v1/sessions/guest. The body is optional; a
// missing display name gets a generated one.
func (h *SessionHandler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGuestSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	session, err := h.authService.CreateGuestSession(r.Context(), req.DisplayName)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SessionFromAuth(session))
}

// Delete handles DELETE /api/v1/sessions
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.InvalidateSession(r.Context(), middleware.GetToken(r.Context())); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.NoContent(w)
}
