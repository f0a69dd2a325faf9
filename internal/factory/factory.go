package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/drawguess/internal/api"
	"github.com/mcoot/drawguess/internal/dependencies/clock"
	"github.com/mcoot/drawguess/internal/dependencies/random"
	"github.com/mcoot/drawguess/internal/services/auth"
	"github.com/mcoot/drawguess/internal/services/game"
	"github.com/mcoot/drawguess/internal/services/oracle"
	"github.com/mcoot/drawguess/internal/services/scoring"
	"github.com/mcoot/drawguess/internal/services/words"
	"github.com/mcoot/drawguess/internal/storage"
	"github.com/mcoot/drawguess/internal/storage/memory"
	redisstorage "github.com/mcoot/drawguess/internal/storage/redis"
	"github.com/mcoot/drawguess/internal/web/ws"
)

// Session store type constants
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Registry *memory.Storage
	Sessions storage.SessionStore

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Oracle oracle.Oracle

	// Services
	Words     *words.Service
	Scoring   *scoring.Service
	Auth      *auth.Service
	Hub       *ws.Hub
	Manager   *game.Manager
	WebSocket *ws.Handler

	logger  *slog.Logger
	closers []func() error
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// Game holds match timing and capacity; zero fields take defaults
	Game game.Config
	// Oracle holds the remote classifier settings
	// If the URL is empty, oracle.DefaultConfig() is used
	Oracle oracle.Config
	// OracleDisabled wires the in-process unavailable classifier instead
	OracleDisabled bool
	// ConfidenceThreshold is the minimum confidence for a correct guess
	// If zero, scoring.DefaultThreshold is used
	ConfidenceThreshold float64
	// WordsPath is an optional word list file replacing the built-in words
	WordsPath string
	// AuthConfig holds configuration for the auth service (optional)
	AuthConfig auth.Config
	// SessionStore selects the session backend ("memory" or "redis")
	// If empty, defaults to "memory"
	SessionStore string
	// RedisConfig holds Redis connection settings (required for "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()
	rnd := random.New()

	var sessions storage.SessionStore
	var closers []func() error
	switch cfg.SessionStore {
	case "", SessionStoreMemory:
		sessions = memory.NewSessionStore()
	case SessionStoreRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when SessionStore is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig, clk)
		if err != nil {
			return nil, err
		}
		sessions = redisStore
		closers = append(closers, redisStore.Close)
	default:
		return nil, fmt.Errorf("invalid SessionStore %q: must be 'memory' or 'redis'", cfg.SessionStore)
	}

	var classifier oracle.Oracle = oracle.Unavailable{}
	if !cfg.OracleDisabled {
		oracleCfg := cfg.Oracle
		if oracleCfg.URL == "" {
			oracleCfg = oracle.DefaultConfig()
		}
		classifier = oracle.NewRemote(oracleCfg)
	}

	wordSource := words.New(rnd)
	if cfg.WordsPath != "" {
		if err := wordSource.LoadFromFile(cfg.WordsPath); err != nil {
			return nil, fmt.Errorf("failed to load words from %s: %w", cfg.WordsPath, err)
		}
	}

	app := newWithDependencies(memory.New(clk, rnd), sessions, clk, rnd, classifier, wordSource, cfg, logger)
	app.closers = closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	registry *memory.Storage,
	sessions storage.SessionStore,
	clk clock.Clock,
	rnd random.Random,
	classifier oracle.Oracle,
	wordSource *words.Service,
	cfg Config,
	logger *slog.Logger,
) *App {
	threshold := cfg.ConfidenceThreshold
	if threshold == 0 {
		threshold = scoring.DefaultThreshold
	}
	scoringService := scoring.New(threshold)
	authService := auth.New(sessions, clk, rnd, cfg.AuthConfig, logger)
	hub := ws.NewHub(logger)
	manager := game.NewManager(registry, wordSource, classifier, scoringService, hub, clk, cfg.Game, logger)

	return &App{
		Registry:  registry,
		Sessions:  sessions,
		Clock:     clk,
		Random:    rnd,
		Oracle:    classifier,
		Words:     wordSource,
		Scoring:   scoringService,
		Auth:      authService,
		Hub:       hub,
		Manager:   manager,
		WebSocket: ws.NewHandler(hub, manager, authService, logger),
		logger:    logger,
	}
}

// Router returns the HTTP handler serving the REST API and /ws
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:      a.logger,
		AuthService: a.Auth,
		Manager:     a.Manager,
		Oracle:      a.Oracle,
		WebSocket:   a.WebSocket,
	})
}

// Close stops timers, disconnects clients and releases external resources
func (a *App) Close() error {
	a.Manager.Shutdown()
	a.Hub.Close()
	var errs []error
	for _, closer := range a.closers {
		errs = append(errs, closer())
	}
	return errors.Join(errs...)
}
