// Package config loads the Translator's tunable settings: built-in
// defaults, overlaid by an optional YAML file, overlaid by CLI flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures every tunable setting for the Translator process. The
// Agent is a library embedded in the application under test, not a
// standalone process, so it has no config file of its own — its few tunables
// (script timeout) arrive per-request from the Translator (§9A).
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
}

type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// SessionConfig controls per-session defaults and limits.
type SessionConfig struct {
	// MaxSessions caps concurrent sessions (0 = unlimited).
	MaxSessions int `yaml:"max_sessions"`
	// SpawnTimeout bounds how long the Translator waits for the Agent's
	// stdout port-announcement line before failing session creation.
	SpawnTimeout string `yaml:"spawn_timeout"`
	// DefaultScriptTimeout seeds a freshly created session's timeouts.script.
	DefaultScriptTimeout *int64 `yaml:"default_script_timeout_ms"`
}

// DefaultConfig provides the built-in defaults (§6.3).
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     4444,
			LogLevel: "info",
		},
		Session: SessionConfig{
			MaxSessions:  0,
			SpawnTimeout: "30s",
		},
	}
}

// Load reads an optional YAML file and overlays it on DefaultConfig. An
// empty path is not an error: the Translator runs on defaults alone.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate ensures the settings the Translator needs to start are sane.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("server.port must be between 1 and 65535")
	}
	if c.Session.MaxSessions < 0 {
		return errors.New("session.max_sessions must be >= 0")
	}
	return nil
}

// SpawnTimeoutDuration returns the parsed spawn timeout with a sane default.
func (s SessionConfig) SpawnTimeoutDuration() time.Duration {
	if s.SpawnTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(s.SpawnTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// DefaultScriptTimeoutMs returns the session-seed script timeout in
// milliseconds, defaulting to the 30 s the reference implementation
// hardcodes (§9A).
func (s SessionConfig) DefaultScriptTimeoutMs() int64 {
	if s.DefaultScriptTimeout == nil {
		return 30000
	}
	return *s.DefaultScriptTimeout
}
