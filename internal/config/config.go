// Package config provides Viper-based configuration loading for the Uno server.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultPort is the stream listener port used when nothing else is configured.
const DefaultPort = 5000

// ServerConfig holds top-level server settings.
type ServerConfig struct {
	// Name labels this instance in logs.
	Name string `mapstructure:"name"`
}

// TCPConfig holds stream acceptor settings.
type TCPConfig struct {
	// Host is the bind address for the listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the listener.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read deadline; zero disables it.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout bounds how long a single send may block.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// MaxFrameBytes is the longest accepted envelope line.
	MaxFrameBytes int `mapstructure:"max_frame_bytes"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TCPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// WebSocketConfig holds the optional WebSocket acceptor settings.
type WebSocketConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
	// AllowedOrigins restricts upgrades by Origin header; empty allows any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Addr returns the "host:port" listen address.
func (w WebSocketConfig) Addr() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}

// GameConfig holds room and naming limits.
type GameConfig struct {
	// MaxPlayers caps each room's roster (1-4).
	MaxPlayers int `mapstructure:"max_players"`
	// HandSize is the number of cards dealt to each player.
	HandSize int `mapstructure:"hand_size"`
	// MaxNameLength bounds display and room names, in runes.
	MaxNameLength int `mapstructure:"max_name_length"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is a zap sink: "stderr", "stdout" or a file path. Empty means stderr.
	Output string `mapstructure:"output"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	TCP       TCPConfig       `mapstructure:"tcp"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Game      GameConfig      `mapstructure:"game"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Server.Name == "" {
		errs = append(errs, "server.name must not be empty")
	}
	if err := validateTCP(c.TCP); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateWebSocket(c.WebSocket); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validPort(p int) bool { return p >= 1 && p <= 65535 }

func validateTCP(t TCPConfig) error {
	var errs []string
	if !validPort(t.Port) {
		errs = append(errs, fmt.Sprintf("tcp.port must be 1-65535, got %d", t.Port))
	}
	if t.ReadTimeout < 0 {
		errs = append(errs, "tcp.read_timeout must not be negative")
	}
	if t.WriteTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("tcp.write_timeout must be positive, got %s", t.WriteTimeout))
	}
	if t.MaxFrameBytes < 64 {
		errs = append(errs, fmt.Sprintf("tcp.max_frame_bytes must be >= 64, got %d", t.MaxFrameBytes))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateWebSocket(w WebSocketConfig) error {
	if !w.Enabled {
		return nil
	}
	var errs []string
	if !validPort(w.Port) {
		errs = append(errs, fmt.Sprintf("websocket.port must be 1-65535, got %d", w.Port))
	}
	if !strings.HasPrefix(w.Path, "/") {
		errs = append(errs, fmt.Sprintf("websocket.path must start with /, got %q", w.Path))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.MaxPlayers < 1 || g.MaxPlayers > 4 {
		errs = append(errs, fmt.Sprintf("game.max_players must be 1-4, got %d", g.MaxPlayers))
	}
	if g.HandSize < 1 || g.HandSize*g.MaxPlayers >= 108 {
		errs = append(errs, fmt.Sprintf("game.hand_size must be >= 1 and leave cards to draw, got %d", g.HandSize))
	}
	if g.MaxNameLength < 1 {
		errs = append(errs, fmt.Sprintf("game.max_name_length must be >= 1, got %d", g.MaxNameLength))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and environment only.
//
// Precondition: path is empty or names a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with UNO_ prefix
	v.SetEnvPrefix("UNO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ErrInvalidPort is returned by ParsePort for anything but an integer in 1-65535.
var ErrInvalidPort = errors.New("port must be an integer between 1 and 65535")

// ParsePort parses a listening port given on the command line.
//
// Postcondition: Returns the port, or an error wrapping ErrInvalidPort.
func ParsePort(s string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !validPort(p) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, s)
	}
	return p, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "uno")

	v.SetDefault("tcp.host", "0.0.0.0")
	v.SetDefault("tcp.port", DefaultPort)
	v.SetDefault("tcp.read_timeout", "0s")
	v.SetDefault("tcp.write_timeout", "10s")
	v.SetDefault("tcp.max_frame_bytes", 65536)

	v.SetDefault("websocket.enabled", false)
	v.SetDefault("websocket.host", "0.0.0.0")
	v.SetDefault("websocket.port", 5080)
	v.SetDefault("websocket.path", "/ws")
	v.SetDefault("websocket.allowed_origins", []string{})

	v.SetDefault("game.max_players", 4)
	v.SetDefault("game.hand_size", 7)
	v.SetDefault("game.max_name_length", 32)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")
}
