package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mcoot/drawguess/internal/services/auth"
	"github.com/mcoot/drawguess/internal/services/game"
	"github.com/mcoot/drawguess/internal/services/oracle"
	redisstorage "github.com/mcoot/drawguess/internal/storage/redis"
)

// EnvPrefix prefixes every environment override, e.g. DRAWGUESS_SERVER_PORT
const EnvPrefix = "DRAWGUESS"

// DefaultPath is the config file read when no path is given
const DefaultPath = "config/config.yaml"

// Session store backends
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config is the complete server configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Game     GameConfig     `mapstructure:"game"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Words    WordsConfig    `mapstructure:"words"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// GameConfig holds match timing and capacity
type GameConfig struct {
	RoundDuration       time.Duration `mapstructure:"round_duration"`
	GracePeriod         time.Duration `mapstructure:"grace_period"`
	Countdown           time.Duration `mapstructure:"countdown"`
	MaxPlayers          int           `mapstructure:"max_players"`
	MaxUpdatesPerSecond float64       `mapstructure:"max_updates_per_second"`
}

// OracleConfig holds classifier settings
type OracleConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	URL                 string        `mapstructure:"url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	TopK                int           `mapstructure:"top_k"`
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
}

// WordsConfig selects the word list
type WordsConfig struct {
	Path string `mapstructure:"path"` // empty uses the built-in list
}

// SessionsConfig holds guest session settings
type SessionsConfig struct {
	Store           string        `mapstructure:"store"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	URL          string `mapstructure:"url"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

func setDefaults(v *viper.Viper) {
	gameDefaults := game.DefaultConfig()
	oracleDefaults := oracle.DefaultConfig()
	redisDefaults := redisstorage.DefaultConfig()

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 5003)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("log.level", "info")

	v.SetDefault("game.round_duration", gameDefaults.RoundDuration)
	v.SetDefault("game.grace_period", gameDefaults.GracePeriod)
	v.SetDefault("game.countdown", gameDefaults.Countdown)
	v.SetDefault("game.max_players", gameDefaults.MaxPlayers)
	v.SetDefault("game.max_updates_per_second", gameDefaults.MaxUpdatesPerSecond)

	v.SetDefault("oracle.enabled", true)
	v.SetDefault("oracle.url", oracleDefaults.URL)
	v.SetDefault("oracle.timeout", oracleDefaults.Timeout)
	v.SetDefault("oracle.top_k", oracleDefaults.TopK)
	v.SetDefault("oracle.confidence_threshold", 0.60)

	v.SetDefault("words.path", "")

	v.SetDefault("sessions.store", SessionStoreMemory)
	v.SetDefault("sessions.ttl", auth.DefaultConfig().SessionDuration)
	v.SetDefault("sessions.cleanup_interval", "10m")

	v.SetDefault("redis.url", redisDefaults.URL)
	v.SetDefault("redis.pool_size", redisDefaults.PoolSize)
	v.SetDefault("redis.min_idle_conns", redisDefaults.MinIdleConns)
}

// Load reads configuration from a YAML file and DRAWGUESS_* environment
// variables. An empty path reads DefaultPath. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path == "" {
		path = DefaultPath
	}
	v.SetConfigFile(path)

	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have no sensible fallback
func (c *Config) Validate() error {
	switch c.Sessions.Store {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("invalid sessions.store %q: must be %q or %q", c.Sessions.Store, SessionStoreMemory, SessionStoreRedis)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Oracle.ConfidenceThreshold < 0 || c.Oracle.ConfidenceThreshold > 1 {
		return fmt.Errorf("invalid oracle.confidence_threshold %v: must be within [0,1]", c.Oracle.ConfidenceThreshold)
	}
	return nil
}

// SlogLevel maps log.level to a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// GameSettings returns the match manager configuration
func (c *Config) GameSettings() game.Config {
	return game.Config{
		RoundDuration:       c.Game.RoundDuration,
		GracePeriod:         c.Game.GracePeriod,
		Countdown:           c.Game.Countdown,
		MaxPlayers:          c.Game.MaxPlayers,
		MaxUpdatesPerSecond: c.Game.MaxUpdatesPerSecond,
	}
}

// OracleSettings returns the remote classifier configuration
func (c *Config) OracleSettings() oracle.Config {
	return oracle.Config{
		URL:     c.Oracle.URL,
		Timeout: c.Oracle.Timeout,
		TopK:    c.Oracle.TopK,
	}
}

// AuthSettings returns the session service configuration
func (c *Config) AuthSettings() auth.Config {
	return auth.Config{SessionDuration: c.Sessions.TTL}
}

// RedisSettings returns the Redis session store configuration
func (c *Config) RedisSettings() redisstorage.Config {
	return redisstorage.Config{
		URL:          c.Redis.URL,
		PoolSize:     c.Redis.PoolSize,
		MinIdleConns: c.Redis.MinIdleConns,
	}
}
