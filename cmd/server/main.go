package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/drawguess/internal/api"
	"github.com/mcoot/drawguess/internal/config"
	"github.com/mcoot/drawguess/internal/factory"
)

func main() {
	if err := newServerCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newServerCmd() *cobra.Command {
	configPath := os.Getenv("DRAWGUESS_CONFIG")
	if configPath == "" {
		configPath = config.DefaultPath
	}

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the draw-and-guess game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
		SilenceUsage: true,
	}

	cmd.Flags().StringVar(&configPath, "config", configPath, "Config file path (env: DRAWGUESS_CONFIG)")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	factoryCfg := factory.Config{
		Logger:              logger,
		Game:                cfg.GameSettings(),
		Oracle:              cfg.OracleSettings(),
		OracleDisabled:      !cfg.Oracle.Enabled,
		ConfidenceThreshold: cfg.Oracle.ConfidenceThreshold,
		WordsPath:           cfg.Words.Path,
		AuthConfig:          cfg.AuthSettings(),
		SessionStore:        cfg.Sessions.Store,
	}
	if cfg.Sessions.Store == config.SessionStoreRedis {
		redisCfg := cfg.RedisSettings()
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return err
	}
	logger.Info("application ready",
		slog.Int("words", app.Words.WordCount()),
		slog.String("session_store", cfg.Sessions.Store),
		slog.Bool("oracle_enabled", cfg.Oracle.Enabled),
	)

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	serverConfig.ReadTimeout = cfg.Server.ReadTimeout
	serverConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout
	server := api.NewServer(app.Router(), serverConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go cleanupSessions(ctx, app, cfg.Sessions.CleanupInterval, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	var serveErr error
	select {
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error("server error", slog.String("error", serveErr.Error()))
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			serveErr = err
		}
	}

	if err := app.Close(); err != nil {
		logger.Error("failed to release resources", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
	return serveErr
}

// cleanupSessions purges expired guest sessions until ctx is done
func cleanupSessions(ctx context.Context, app *factory.App, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := app.Auth.CleanupExpired(ctx)
			if err != nil {
				logger.Warn("session cleanup failed", slog.String("error", err.Error()))
				continue
			}
			if removed > 0 {
				logger.Info("expired sessions removed", slog.Int("count", removed))
			}
		}
	}
}
