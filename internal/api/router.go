package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/drawguess/internal/api/apierr"
	"github.com/mcoot/drawguess/internal/api/handler"
	"github.com/mcoot/drawguess/internal/api/middleware"
	sharedmw "github.com/mcoot/drawguess/internal/middleware"
	"github.com/mcoot/drawguess/internal/services/auth"
	"github.com/mcoot/drawguess/internal/services/game"
	"github.com/mcoot/drawguess/internal/services/oracle"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Manager     *game.Manager
	Oracle      oracle.Oracle
	WebSocket   http.Handler // mounted at /ws when set
}

// NewRouter creates a new router with the REST API and the WebSocket endpoint
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})

	healthHandler := handler.NewHealthHandler(cfg.Manager, cfg.Oracle)
	sessionHandler := handler.NewSessionHandler(cfg.AuthService)
	lobbyHandler := handler.NewLobbyHandler(cfg.Manager)

	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := sharedmw.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/sessions/guest", sessionHandler.CreateGuest).Methods(http.MethodPost)

	sessions := api.PathPrefix("/sessions").Subrouter()
	sessions.Use(authMiddleware)
	sessions.HandleFunc("", sessionHandler.Delete).Methods(http.MethodDelete)

	lobbies := api.PathPrefix("/lobbies").Subrouter()
	lobbies.Use(authMiddleware)
	lobbies.HandleFunc("", lobbyHandler.List).Methods(http.MethodGet)
	lobbies.HandleFunc("/{id}", lobbyHandler.Get).Methods(http.MethodGet)

	if cfg.WebSocket != nil {
		r.Handle("/ws", sharedmw.Logging(cfg.Logger)(cfg.WebSocket)).Methods(http.MethodGet)
	}

	return r
}
