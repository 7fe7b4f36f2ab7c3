// Package configs loads and validates the server configuration from an
// optional YAML file plus WORDPIT_* environment overrides.
package configs

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the game server.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Session SessionConfig `mapstructure:"session"`
	Room    RoomConfig    `mapstructure:"room"`
	Game    GameConfig    `mapstructure:"game"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	WSPath          string        `mapstructure:"ws_path"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SessionConfig holds the per-session liveness timings.
type SessionConfig struct {
	// HeartbeatInterval is how often a session pings its client and
	// checks staleness.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	// HeartbeatTimeLimit is the staleness threshold that opens the
	// reconnection window.
	HeartbeatTimeLimit time.Duration `mapstructure:"heartbeat_time_limit"`
	// ReconnectionTimeLimit is the grace window during which a new
	// stream with the same user id takes over the session's seat.
	ReconnectionTimeLimit time.Duration `mapstructure:"reconnection_time_limit"`
	// JoinTimeout bounds the join/create round-trips to the room
	// manager.
	JoinTimeout time.Duration `mapstructure:"join_timeout"`
}

// RoomConfig holds room defaults.
type RoomConfig struct {
	DefaultMaxPlayers int `mapstructure:"default_max_players"`
}

// GameConfig holds the standard game mode settings.
type GameConfig struct {
	TurnSeconds int `mapstructure:"turn_seconds"`
	TargetScore int `mapstructure:"target_score"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration. With an explicit path the file must
// exist; otherwise config.yaml is searched in ., ./configs and
// ./server/configs, and a missing file just means defaults plus
// environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("./server/configs")
	}

	v.SetEnvPrefix("WORDPIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", "PORT")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.ws_path", "/ws")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("session.heartbeat_interval", "5s")
	v.SetDefault("session.heartbeat_time_limit", "2s")
	v.SetDefault("session.reconnection_time_limit", "15s")
	v.SetDefault("session.join_timeout", "5s")

	v.SetDefault("room.default_max_players", 6)

	v.SetDefault("game.turn_seconds", 30)
	v.SetDefault("game.target_score", 3)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be 1-65535", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.WSPath, "/") {
		return fmt.Errorf("invalid server.ws_path %q: must start with /", c.Server.WSPath)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid server.shutdown_timeout %v: must be positive", c.Server.ShutdownTimeout)
	}
	if c.Session.HeartbeatInterval <= 0 {
		return fmt.Errorf("invalid session.heartbeat_interval %v: must be positive", c.Session.HeartbeatInterval)
	}
	if c.Session.HeartbeatTimeLimit <= 0 {
		return fmt.Errorf("invalid session.heartbeat_time_limit %v: must be positive", c.Session.HeartbeatTimeLimit)
	}
	if c.Session.ReconnectionTimeLimit <= 0 {
		return fmt.Errorf("invalid session.reconnection_time_limit %v: must be positive", c.Session.ReconnectionTimeLimit)
	}
	if c.Session.JoinTimeout <= 0 {
		return fmt.Errorf("invalid session.join_timeout %v: must be positive", c.Session.JoinTimeout)
	}
	if c.Room.DefaultMaxPlayers < 2 {
		return fmt.Errorf("invalid room.default_max_players %d: must be at least 2", c.Room.DefaultMaxPlayers)
	}
	if c.Game.TurnSeconds < 1 {
		return fmt.Errorf("invalid game.turn_seconds %d: must be at least 1", c.Game.TurnSeconds)
	}
	if c.Game.TargetScore < 1 {
		return fmt.Errorf("invalid game.target_score %d: must be at least 1", c.Game.TargetScore)
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
