// Package config loads server configuration with the precedence
// defaults -> config file -> environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/server-craftsman/restApi-social-media-conversation/internal/logging"
)

// EnvPrefix namespaces the environment overrides, e.g. CHAT_SERVER_PORT
// maps to server.port.
const EnvPrefix = "CHAT_"

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CHAT_CONFIG"

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/chatserver/config.yaml",
}

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	WebSocket WebSocketConfig `koanf:"websocket"`
	Log       logging.Config  `koanf:"log"`
	Auth      AuthConfig      `koanf:"auth"`
}

type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `koanf:"path"`
	// OpTimeout bounds every store call made by the realtime core, so a
	// stalled database surfaces as an error instead of a hung connection.
	OpTimeout time.Duration `koanf:"op_timeout"`
	// MaxConnections sizes the read pool; writes are serialized separately.
	MaxConnections int `koanf:"max_connections"`
}

type WebSocketConfig struct {
	PingInterval time.Duration `koanf:"ping_interval"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	// SendBuffer is the per-connection outbound queue length. A full queue
	// counts as a failed delivery for that recipient only.
	SendBuffer int `koanf:"send_buffer"`
}

type AuthConfig struct {
	// JWTSecret enables bearer-token verification on the REST surface when
	// non-empty. Token issuance is external to this service.
	JWTSecret string `koanf:"jwt_secret"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Path:           "./chat.db",
			OpTimeout:      5 * time.Second,
			MaxConnections: 10,
		},
		WebSocket: WebSocketConfig{
			PingInterval: 30 * time.Second,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 10 * time.Second,
			SendBuffer:   100,
		},
		Log: logging.Config{
			Level:  "info",
			Format: "json",
		},
		Auth: AuthConfig{},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// CHAT_* environment variables, then validates it. An empty path falls back
// to CHAT_CONFIG and the default search paths; a missing file is not an
// error, an unreadable or invalid one is.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path == "" {
		for _, candidate := range DefaultConfigPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// CHAT_SERVER_PORT -> server.port, CHAT_STORE_OP_TIMEOUT -> store.op_timeout.
	// Section names are single words, so only the first underscore splits.
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.Replace(s, "_", ".", 1)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store path cannot be empty")
	}
	if c.Store.OpTimeout <= 0 {
		return fmt.Errorf("store op_timeout must be positive")
	}
	if c.Store.MaxConnections <= 0 {
		return fmt.Errorf("store max_connections must be positive")
	}
	if c.WebSocket.PingInterval <= 0 || c.WebSocket.ReadTimeout <= 0 || c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("websocket intervals must be positive")
	}
	if c.WebSocket.ReadTimeout <= c.WebSocket.PingInterval {
		return fmt.Errorf("websocket read_timeout must exceed ping_interval")
	}
	if c.WebSocket.SendBuffer <= 0 {
		return fmt.Errorf("websocket send_buffer must be positive")
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
