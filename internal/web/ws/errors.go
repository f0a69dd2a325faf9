package ws

import (
	"errors"

	"github.com/mcoot/drawguess/internal/model"
)

// Error codes sent in error frames
const (
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
	CodeNotInLobby       = "NOT_IN_LOBBY"
	CodeCreateFailed     = "CREATE_FAILED"
	CodeJoinFailed       = "JOIN_FAILED"
	CodeInvalidData      = "INVALID_DATA"
	CodeLobbyNotFound    = "LOBBY_NOT_FOUND"
)

// CommandError is a failure with an explicit wire code
type CommandError struct {
	Code    string
	Message string
}

func (e *CommandError) Error() string {
	return e.Message
}

func invalidData(message string) *CommandError {
	return &CommandError{Code: CodeInvalidData, Message: message}
}

var errNotAuthenticated = &CommandError{Code: CodeNotAuthenticated, Message: "Not authenticated"}

// toErrorPayload maps an error to its wire form. fallback is the code for
// errors with no specific mapping.
func toErrorPayload(err error, fallback string) ErrorPayload {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return ErrorPayload{Code: cmdErr.Code, Message: cmdErr.Message}
	}

	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return ErrorPayload{Code: CodeNotAuthenticated, Message: "Not authenticated"}
	case errors.Is(err, model.ErrNotInLobby):
		return ErrorPayload{Code: CodeNotInLobby, Message: "Not in a lobby"}
	case errors.Is(err, model.ErrLobbyNotFound):
		return ErrorPayload{Code: CodeLobbyNotFound, Message: "Lobby not found"}
	case errors.Is(err, model.ErrLobbyFull):
		return ErrorPayload{Code: fallback, Message: "Lobby is full"}
	case errors.Is(err, model.ErrGameInProgress):
		return ErrorPayload{Code: fallback, Message: "A match is in progress"}
	case errors.Is(err, model.ErrInvalidDrawing):
		return ErrorPayload{Code: CodeInvalidData, Message: "Invalid drawing data"}
	case errors.Is(err, model.ErrNoActiveRound):
		return ErrorPayload{Code: CodeInvalidData, Message: "No round in progress"}
	}
	return ErrorPayload{Code: fallback, Message: err.Error()}
}
